// Package ranking orders the pages of a document from best to worst candidate for one
// statement category.
package ranking

import (
	"sort"

	"github.com/local/finfinder/internal/classifier"
)

// Rank returns page indices ordered by descending posterior, where posteriors[i] is the
// posterior of page i. Equal posteriors rank the later page first.
func Rank(posteriors []float64) []int {
	scored := make([]classifier.PagePosterior, len(posteriors))
	for i, p := range posteriors {
		scored[i] = classifier.PagePosterior{Page: i, Posterior: p}
	}
	return RankScored(scored)
}

// RankScored ranks an explicit set of scored pages. Pages whose score was omitted simply
// do not appear in the result.
func RankScored(scored []classifier.PagePosterior) []int {
	sorted := make([]classifier.PagePosterior, len(scored))
	copy(sorted, scored)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Posterior != sorted[j].Posterior {
			return sorted[i].Posterior > sorted[j].Posterior
		}
		return sorted[i].Page > sorted[j].Page
	})

	pages := make([]int, len(sorted))
	for i, s := range sorted {
		pages[i] = s.Page
	}
	return pages
}
