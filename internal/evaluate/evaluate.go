// Package evaluate scores a located page map against hand-labeled pages.
package evaluate

import (
	"math"

	"github.com/rs/zerolog/log"

	"github.com/local/finfinder/internal/classifier"
	"github.com/local/finfinder/internal/report"
)

// Mismatch records one document whose predicted pages differ from its label.
type Mismatch struct {
	Company   string
	Document  string
	Predicted report.DocumentPages
	Labeled   report.DocumentPages // nil when the document has no label
}

type tally struct{ accurate, total int }

// Compare evaluates predicted against labeled. filesProcessed is the denominator of the
// document accuracy; pass the run's processed file count so failed files count against it.
// Documents without a label count as mismatches on every predicted category.
func Compare(predicted, labeled report.Pages, filesProcessed int) (report.Accuracy, []Mismatch) {
	var (
		acc        report.Accuracy
		mismatches []Mismatch
		perCat     = map[classifier.Category]*tally{}
	)
	for _, c := range classifier.Categories {
		perCat[c] = &tally{}
	}

	for _, company := range predicted.Companies() {
		for doc, pages := range predicted[company] {
			actual, ok := labeled[company][doc]
			if !ok {
				log.Warn().Str("company", company).Str("document", doc).Msg("document missing from labels")
			}
			if ok && samePages(pages, actual) {
				acc.TotalMatches++
			} else {
				mismatches = append(mismatches, Mismatch{Company: company, Document: doc, Predicted: pages, Labeled: actual})
			}

			for category, page := range pages {
				acc.TotalStatements++
				t, known := perCat[category]
				if !known {
					t = &tally{}
					perCat[category] = t
				}
				t.total++
				if ok && actual[category] == page {
					acc.StatementMatches++
					t.accurate++
				}
			}
		}
	}

	acc.Accuracy = ratio(acc.TotalMatches, filesProcessed)
	acc.StatementAccuracy = ratio(acc.StatementMatches, acc.TotalStatements)
	acc.IncomeAccuracy = ratio(perCat[classifier.Income].accurate, perCat[classifier.Income].total)
	acc.BalanceSheetsAccuracy = ratio(perCat[classifier.BalanceSheets].accurate, perCat[classifier.BalanceSheets].total)
	acc.CashFlowsAccuracy = ratio(perCat[classifier.CashFlows].accurate, perCat[classifier.CashFlows].total)
	return acc, mismatches
}

func samePages(a, b report.DocumentPages) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || w != v {
			return false
		}
	}
	return true
}

// ratio rounds to four decimal places; a zero denominator yields 0.
func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(d)*1e4) / 1e4
}
