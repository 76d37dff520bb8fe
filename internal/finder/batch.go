package finder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/local/finfinder/internal/filetype"
	"github.com/local/finfinder/internal/report"
)

// Job is one document of a company directory.
type Job struct {
	Company  string
	Document string
	Path     string
}

// Discover lists <root>/<company>/*.pdf. Hidden directories are skipped, as are
// AppleDouble files (names containing "._") and files that are not PDFs by content.
// Companies and documents come back sorted.
func Discover(root string) ([]string, []Job, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, nil, fmt.Errorf("read companies dir: %w", err)
	}

	var companies []string
	var jobs []Job
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		company := e.Name()
		companies = append(companies, company)

		files, err := filepath.Glob(filepath.Join(root, company, "*.pdf"))
		if err != nil {
			return nil, nil, err
		}
		sort.Strings(files)
		for _, f := range files {
			if strings.Contains(filepath.Base(f), "._") {
				continue
			}
			ok, err := filetype.IsPDF(f)
			if err != nil || !ok {
				log.Warn().Err(err).Str("company", company).Str("file", f).Msg("skipping non-pdf file")
				continue
			}
			jobs = append(jobs, Job{Company: company, Document: DocumentName(f), Path: f})
		}
	}
	return companies, jobs, nil
}

// Outcome is the result of one batch job.
type Outcome struct {
	Job    Job
	Result *DocumentResult
	Err    error
}

// Batch locates statements across a directory of companies.
type Batch struct {
	Locator     *Locator
	Concurrency int
	// Progress, if set, is called from the reducer goroutine for every finished document.
	Progress func(Outcome)
}

// Run processes every document under root. Cancelling ctx stops new documents from
// starting; documents already running finish. The partial report is returned together
// with ctx's error in that case.
func (b *Batch) Run(ctx context.Context, root string) (report.Report, error) {
	companies, jobs, err := Discover(root)
	if err != nil {
		return report.Report{}, err
	}
	log.Info().Int("companies", len(companies)).Int("documents", len(jobs)).Str("root", root).Msg("batch started")

	rep := report.Report{Pages: report.Pages{}}
	for _, c := range companies {
		rep.Pages.AddCompany(c)
	}

	limit := b.Concurrency
	if limit <= 0 {
		limit = 1
	}
	outcomes := make(chan Outcome, limit)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for o := range outcomes {
			reduce(&rep, o)
			if b.Progress != nil {
				b.Progress(o)
			}
		}
	}()

	// running documents are not interrupted by cancellation
	docCtx := context.WithoutCancel(ctx)
	var g errgroup.Group
	g.SetLimit(limit)
	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		job := job
		g.Go(func() error {
			res, err := b.Locator.LocateFile(docCtx, job.Path)
			outcomes <- Outcome{Job: job, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	close(outcomes)
	<-done

	s := rep.Summary
	log.Info().
		Int("files", s.FilesProcessed).
		Int("file_errors", s.FileErrors).
		Int("page_errors", s.PageErrors).
		Int("loners", s.LonersFound).
		Msg("batch finished")
	return rep, ctx.Err()
}

func reduce(rep *report.Report, o Outcome) {
	rep.Summary.FilesProcessed++
	if o.Result != nil {
		rep.Summary.PageErrors += o.Result.PageErrors
	}
	if o.Err != nil {
		rep.Summary.FileErrors++
		rep.Pages.Set(o.Job.Company, o.Job.Document, nil)
		return
	}
	rep.Summary.LonersFound += o.Result.Iterations
	rep.Pages.Set(o.Job.Company, o.Job.Document, o.Result.Pages)
}
