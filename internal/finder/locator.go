// Package finder locates the income statement, balance sheet and cash flow statement
// pages of financial report PDFs.
package finder

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/local/finfinder/internal/classifier"
	"github.com/local/finfinder/internal/metrics"
	"github.com/local/finfinder/internal/pdftext"
	"github.com/local/finfinder/internal/ranking"
	"github.com/local/finfinder/internal/report"
	"github.com/local/finfinder/internal/selector"
	"github.com/local/finfinder/internal/textclean"
)

// PageOutcome is the scoring result of one page. Err is set when the page was
// skipped entirely or for at least one category; Posteriors holds the categories
// that scored.
type PageOutcome struct {
	Page       int                             `json:"page"` // zero-based
	Posteriors map[classifier.Category]float64 `json:"posteriors,omitempty"`
	Err        error                           `json:"-"`
}

// DocumentResult is the located pages of one document.
type DocumentResult struct {
	Company    string                `json:"company"`
	Document   string                `json:"document"`
	Path       string                `json:"path"`
	Pages      report.DocumentPages  `json:"pages"`
	TotalPages int                   `json:"total_pages"`
	PageErrors int                   `json:"page_errors"`
	Iterations int                   `json:"iterations"`
	Demoted    []classifier.Category `json:"demoted,omitempty"`
	DurationMs int64                 `json:"duration_ms"`

	Outcomes []PageOutcome `json:"-"`
}

// Options configures a Locator. Zero values select the MuPDF opener, the pdfcpu
// page counter and the default loner threshold.
type Options struct {
	Opener    pdftext.Opener
	Counter   pdftext.PageCounter
	Threshold int
	// Timeout bounds one document; zero means no limit.
	Timeout time.Duration
}

// Locator runs the per-document pipeline: count, extract, clean, score, rank, select.
type Locator struct {
	scorer    *classifier.Scorer
	opener    pdftext.Opener
	counter   pdftext.PageCounter
	threshold int
	timeout   time.Duration
}

// NewLocator creates a locator scoring pages with scorer.
func NewLocator(scorer *classifier.Scorer, opts Options) *Locator {
	l := &Locator{
		scorer:    scorer,
		opener:    opts.Opener,
		counter:   opts.Counter,
		threshold: opts.Threshold,
		timeout:   opts.Timeout,
	}
	if l.opener == nil {
		l.opener = pdftext.FitzOpener{}
	}
	if l.counter == nil {
		l.counter = pdftext.PdfcpuCounter{}
	}
	if l.threshold <= 0 {
		l.threshold = selector.DefaultThreshold
	}
	return l
}

// DocumentName is the file name without directory and extension.
func DocumentName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

type pageText struct {
	page int
	text string
}

type scored struct {
	posterior float64
	err       error
}

// LocateFile finds the statement pages of the PDF at path. On a *FileError the
// returned result is still non-nil and carries the page errors counted so far.
func (l *Locator) LocateFile(ctx context.Context, path string) (*DocumentResult, error) {
	start := time.Now()
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	res := &DocumentResult{
		Company:  filepath.Base(filepath.Dir(path)),
		Document: DocumentName(path),
		Path:     path,
	}
	logger := log.With().Str("company", res.Company).Str("document", res.Document).Logger()

	total, err := l.counter.PageCount(path)
	if err != nil {
		return l.fail(res, start, logger, &FileError{Path: path, Op: "count pages", Err: err})
	}
	res.TotalPages = total

	doc, err := l.opener.Open(path)
	if err != nil {
		return l.fail(res, start, logger, &FileError{Path: path, Op: "open", Err: err})
	}
	defer doc.Close()
	logger.Debug().Int("pages", total).Msg("extracting")

	res.Outcomes = make([]PageOutcome, total)
	texts := make([]pageText, 0, total)
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return l.fail(res, start, logger, &FileError{Path: path, Op: "extract", Err: err})
		}
		res.Outcomes[i].Page = i
		raw, err := doc.Text(i)
		if err != nil {
			perr := &ExtractionError{Page: i, Err: err}
			res.Outcomes[i].Err = perr
			res.PageErrors++
			metrics.IncPageError("extraction")
			logger.Warn().Err(err).Int("page", i+1).Msg("page extraction failed")
			continue
		}
		texts = append(texts, pageText{page: i, text: textclean.Clean(raw)})
	}

	results, err := l.scoreAll(ctx, texts)
	if err != nil {
		return l.fail(res, start, logger, &FileError{Path: path, Op: "score", Err: err})
	}

	var lists [3][]classifier.PagePosterior
	for j, pt := range texts {
		out := &res.Outcomes[pt.page]
		out.Posteriors = make(map[classifier.Category]float64, len(classifier.Categories))
		for ci, c := range classifier.Categories {
			r := results[ci][j]
			if r.err != nil {
				if out.Err == nil {
					out.Err = r.err
				}
				res.PageErrors++
				metrics.IncPageError("scoring")
				logger.Warn().Err(r.err).Int("page", pt.page+1).Str("category", string(c)).Msg("page scoring failed")
				continue
			}
			out.Posteriors[c] = r.posterior
			lists[ci] = append(lists[ci], classifier.PagePosterior{Page: pt.page, Posterior: r.posterior})
		}
	}

	sel, err := selector.Select(ranking.RankScored(lists[0]), ranking.RankScored(lists[1]), ranking.RankScored(lists[2]), l.threshold)
	res.Iterations = sel.Iterations
	if err != nil {
		var exhausted *selector.ExhaustedError
		if errors.As(err, &exhausted) {
			res.Iterations = exhausted.Iterations
		}
		return l.fail(res, start, logger, &FileError{Path: path, Op: "select", Err: err})
	}
	for _, c := range sel.Demoted {
		metrics.IncLonerResolved(string(c))
		logger.Debug().Str("loner", string(c)).Msg("demoted loner candidate")
	}

	res.Demoted = sel.Demoted
	res.Pages = make(report.DocumentPages, len(classifier.Categories))
	for _, c := range classifier.Categories {
		res.Pages[c] = strconv.Itoa(sel.Page(c))
	}
	res.DurationMs = time.Since(start).Milliseconds()

	metrics.IncDocument("success")
	metrics.ObserveDocument(res.Iterations, time.Since(start))
	logger.Info().
		Str("income", res.Pages[classifier.Income]).
		Str("balance_sheets", res.Pages[classifier.BalanceSheets]).
		Str("cash_flows", res.Pages[classifier.CashFlows]).
		Int("iterations", res.Iterations).
		Int("page_errors", res.PageErrors).
		Msg("statements located")
	return res, nil
}

// PageIndex returns the zero-based page selected for c.
func (r *DocumentResult) PageIndex(c classifier.Category) (int, bool) {
	n, err := strconv.Atoi(r.Pages[c])
	if err != nil || n < 1 {
		return 0, false
	}
	return n - 1, true
}

// Explain rescores one zero-based page of the PDF at path and returns the terms of
// its posterior for c.
func (l *Locator) Explain(path string, page int, c classifier.Category) (classifier.Breakdown, error) {
	doc, err := l.opener.Open(path)
	if err != nil {
		return classifier.Breakdown{}, &FileError{Path: path, Op: "open", Err: err}
	}
	defer doc.Close()
	raw, err := doc.Text(page)
	if err != nil {
		return classifier.Breakdown{}, &ExtractionError{Page: page, Err: err}
	}
	return l.scorer.Explain(textclean.Clean(raw), c)
}

// scoreAll scores every extracted page against the three categories concurrently.
// Per-page scoring failures are returned in place; a configuration error aborts.
func (l *Locator) scoreAll(ctx context.Context, texts []pageText) ([3][]scored, error) {
	var results [3][]scored
	g, gctx := errgroup.WithContext(ctx)
	for ci, c := range classifier.Categories {
		ci, c := ci, c
		results[ci] = make([]scored, len(texts))
		g.Go(func() error {
			for j, pt := range texts {
				if err := gctx.Err(); err != nil {
					return err
				}
				p, err := l.scorer.Score(pt.text, c)
				var cfgErr *classifier.ConfigurationError
				if errors.As(err, &cfgErr) {
					return err
				}
				results[ci][j] = scored{posterior: p, err: err}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func (l *Locator) fail(res *DocumentResult, start time.Time, logger zerolog.Logger, err error) (*DocumentResult, error) {
	res.DurationMs = time.Since(start).Milliseconds()
	metrics.IncDocument("file_error")
	logger.Error().Err(err).Int("page_errors", res.PageErrors).Msg("document failed")
	return res, err
}
