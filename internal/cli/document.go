package cli

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/local/finfinder/internal/classifier"
	"github.com/local/finfinder/internal/finder"
	"github.com/local/finfinder/internal/ranking"
)

var (
	documentTop     int
	documentExplain bool
)

// documentCmd locates statements in a single PDF
var documentCmd = &cobra.Command{
	Use:   "document <file.pdf|https://...|s3://bucket/key>",
	Short: "Locate statements in a single PDF",
	Long: `Locate the three statements in one PDF and print the result as JSON.
The document may be a local path, an http(s) URL or an s3:// URL.

Examples:
  finfinder document ./companies/acme/annual-2023.pdf
  finfinder document s3://reports/acme.pdf --top 5`,
	Args: cobra.ExactArgs(1),
	RunE: runDocument,
}

func init() {
	documentCmd.Flags().IntVar(&documentTop, "top", 0, "also print the N best pages per statement with their posteriors")
	documentCmd.Flags().BoolVar(&documentExplain, "explain", false, "print the keyword breakdown of each chosen page")
	rootCmd.AddCommand(documentCmd)
}

type candidate struct {
	Page      int     `json:"page"`
	Posterior float64 `json:"posterior"`
}

type documentOutput struct {
	*finder.DocumentResult
	Top     map[classifier.Category][]candidate          `json:"top,omitempty"`
	Explain map[classifier.Category]classifier.Breakdown `json:"explain,omitempty"`
}

func runDocument(cmd *cobra.Command, args []string) error {
	locator, err := newLocator()
	if err != nil {
		return err
	}

	resolver, err := newResolver(cmd.Context(), "")
	if err != nil {
		return err
	}
	local, err := resolver.Resolve(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	defer local.Cleanup()

	res, err := locator.LocateFile(cmd.Context(), local.Path)
	if err != nil {
		return err
	}
	res.Path = args[0]

	out := documentOutput{DocumentResult: res}
	if documentTop > 0 {
		out.Top = topPages(res.Outcomes, documentTop)
	}
	if documentExplain {
		out.Explain, err = explainPages(locator, local.Path, res)
		if err != nil {
			return err
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "    ")
	return enc.Encode(out)
}

// topPages lists the n best pages per category in ranking order, 1-based.
func topPages(outcomes []finder.PageOutcome, n int) map[classifier.Category][]candidate {
	top := map[classifier.Category][]candidate{}
	for _, c := range classifier.Categories {
		var scored []classifier.PagePosterior
		posterior := map[int]float64{}
		for _, o := range outcomes {
			if p, ok := o.Posteriors[c]; ok {
				scored = append(scored, classifier.PagePosterior{Page: o.Page, Posterior: p})
				posterior[o.Page] = p
			}
		}
		ranked := ranking.RankScored(scored)
		if len(ranked) > n {
			ranked = ranked[:n]
		}
		list := make([]candidate, 0, len(ranked))
		for _, page := range ranked {
			list = append(list, candidate{Page: page + 1, Posterior: posterior[page]})
		}
		top[c] = list
	}
	return top
}

func explainPages(l *finder.Locator, path string, res *finder.DocumentResult) (map[classifier.Category]classifier.Breakdown, error) {
	out := map[classifier.Category]classifier.Breakdown{}
	for _, c := range classifier.Categories {
		page, ok := res.PageIndex(c)
		if !ok {
			continue
		}
		b, err := l.Explain(path, page, c)
		if finder.IsPageError(err) {
			log.Warn().Err(err).Str("category", string(c)).Msg("explain skipped")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("explain %s: %w", c, err)
		}
		out[c] = b
	}
	return out, nil
}
