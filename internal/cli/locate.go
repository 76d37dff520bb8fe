package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/local/finfinder/internal/classifier"
	"github.com/local/finfinder/internal/evaluate"
	"github.com/local/finfinder/internal/finder"
	"github.com/local/finfinder/internal/report"
	"github.com/local/finfinder/internal/storage"
)

var (
	locateConcurrency int
	locateReportDir   string
	locateEvaluate    bool
	locateLabels      string
	locateUpload      bool
)

// locateCmd represents the batch locate command
var locateCmd = &cobra.Command{
	Use:   "locate [companies-dir]",
	Short: "Locate statements in every PDF under a companies directory",
	Long: `Walk a directory with one sub-directory per company, locate the income
statement, balance sheet and cash flow statement in every PDF, and write a
timestamped JSON report.

Examples:
  finfinder locate ./companies
  finfinder locate ./companies --evaluate --labels pages-labeled.json
  finfinder locate ./companies --concurrency 4 --report-dir ./reports --upload`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLocate,
}

func init() {
	locateCmd.Flags().IntVarP(&locateConcurrency, "concurrency", "c", 0, "documents processed in parallel (default: $WORKER_CONCURRENCY or CPU count)")
	locateCmd.Flags().StringVarP(&locateReportDir, "report-dir", "o", "", "directory for the report file (default: $REPORT_DIR)")
	locateCmd.Flags().BoolVar(&locateEvaluate, "evaluate", false, "compare the result against labeled pages")
	locateCmd.Flags().StringVar(&locateLabels, "labels", "", "labeled pages file (default: $LABELS_FILE)")
	locateCmd.Flags().BoolVar(&locateUpload, "upload", false, "upload the report to $AWS_S3_BUCKET")

	rootCmd.AddCommand(locateCmd)
}

func runLocate(cmd *cobra.Command, args []string) error {
	root := cfg.Finder.CompaniesDir
	if len(args) > 0 {
		root = args[0]
	}
	if locateConcurrency > 0 {
		cfg.Finder.Concurrency = locateConcurrency
	}
	if locateReportDir != "" {
		cfg.Finder.ReportDir = locateReportDir
	}
	if locateLabels != "" {
		cfg.Finder.LabelsFile = locateLabels
	}

	var labels report.Pages
	if locateEvaluate {
		// Fail before the run, not after it.
		l, err := report.Read(cfg.Finder.LabelsFile)
		if err != nil {
			return fmt.Errorf("read labels: %w", err)
		}
		labels = l.Pages
	}

	var uploader *storage.S3Client
	if locateUpload {
		if cfg.S3.Bucket == "" {
			return errors.New("--upload needs AWS_S3_BUCKET")
		}
		c, err := storage.NewS3Client(cmd.Context(), s3Options())
		if err != nil {
			return err
		}
		uploader = c
	}

	locator, err := newLocator()
	if err != nil {
		return err
	}

	errOut := cmd.ErrOrStderr()
	fmt.Fprintf(errOut, "📂 Companies: %s\n", root)
	fmt.Fprintf(errOut, "⚙️  Concurrency: %d, loner threshold: %d\n\n", cfg.Finder.Concurrency, cfg.Finder.LonerThreshold)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	batch := &finder.Batch{
		Locator:     locator,
		Concurrency: cfg.Finder.Concurrency,
		Progress:    func(o finder.Outcome) { printOutcome(errOut, o) },
	}
	start := time.Now()
	rep, runErr := batch.Run(ctx, root)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	if runErr != nil {
		fmt.Fprintln(errOut, "\n⚠️  Interrupted, writing partial report")
	}

	if labels != nil {
		acc, mismatches := evaluate.Compare(rep.Pages, labels, rep.Summary.FilesProcessed)
		rep.Summary.Accuracy = &acc
		printMismatches(errOut, mismatches)
	}

	now := time.Now()
	path, err := report.Write(cfg.Finder.ReportDir, rep, now)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	fmt.Fprintf(errOut, "\n✅ %d files in %s (%d file errors, %d page errors, %d loners)\n",
		rep.Summary.FilesProcessed, time.Since(start).Round(time.Millisecond),
		rep.Summary.FileErrors, rep.Summary.PageErrors, rep.Summary.LonersFound)
	if rep.Summary.Accuracy != nil {
		fmt.Fprintf(errOut, "🎯 Accuracy: %.4f, statement accuracy: %.4f\n",
			rep.Summary.Accuracy.Accuracy, rep.Summary.Accuracy.StatementAccuracy)
	}
	fmt.Fprintf(errOut, "📄 Report: %s\n", path)

	if uploader != nil {
		data, err := report.Encode(rep)
		if err != nil {
			return err
		}
		url, err := uploader.UploadReport(context.WithoutCancel(ctx), report.FileName(now), data)
		if err != nil {
			return err
		}
		fmt.Fprintf(errOut, "☁️  Uploaded: %s\n", url)
	}

	fmt.Fprintln(cmd.OutOrStdout(), path)
	return runErr
}

func printOutcome(w io.Writer, o finder.Outcome) {
	if o.Err != nil {
		fmt.Fprintf(w, "❌ %s/%s: %v\n", o.Job.Company, o.Job.Document, o.Err)
		return
	}
	p := o.Result.Pages
	fmt.Fprintf(w, "✓ %s/%s: income %s, balance %s, cash flow %s (%d pages, %d passes)\n",
		o.Job.Company, o.Job.Document,
		p[classifier.Income], p[classifier.BalanceSheets], p[classifier.CashFlows],
		o.Result.TotalPages, o.Result.Iterations)
}

func printMismatches(w io.Writer, mismatches []evaluate.Mismatch) {
	if len(mismatches) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%d documents differ from their labels:\n", len(mismatches))
	for _, m := range mismatches {
		if m.Labeled == nil {
			fmt.Fprintf(w, "  %s/%s: no label\n", m.Company, m.Document)
			continue
		}
		for _, c := range classifier.Categories {
			if m.Predicted[c] != m.Labeled[c] {
				fmt.Fprintf(w, "  %s/%s %s: got %q, want %q\n", m.Company, m.Document, c, m.Predicted[c], m.Labeled[c])
			}
		}
	}
}

func s3Options() storage.Options {
	return storage.Options{
		Bucket:    cfg.S3.Bucket,
		Prefix:    cfg.S3.ReportPrefix,
		Region:    cfg.S3.Region,
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
	}
}
