package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/local/finfinder/internal/evaluate"
	"github.com/local/finfinder/internal/report"
)

var evaluateLabels string

// evaluateCmd re-scores an existing report against labeled pages
var evaluateCmd = &cobra.Command{
	Use:   "evaluate <report.json>",
	Short: "Compare an existing report against labeled pages",
	Long: `Compare the page map of a report written by "finfinder locate" against a
labeled pages file and print the accuracy figures as JSON.

Example:
  finfinder evaluate finfinder-report-2024-01-02-03-04-05-000000.json --labels pages-labeled.json`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func init() {
	evaluateCmd.Flags().StringVar(&evaluateLabels, "labels", "", "labeled pages file (default: $LABELS_FILE)")
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	if evaluateLabels != "" {
		cfg.Finder.LabelsFile = evaluateLabels
	}

	predicted, err := report.Read(args[0])
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}
	labels, err := report.Read(cfg.Finder.LabelsFile)
	if err != nil {
		return fmt.Errorf("read labels: %w", err)
	}

	processed := predicted.Summary.FilesProcessed
	if processed == 0 {
		// Hand-written page maps carry no summary.
		for _, docs := range predicted.Pages {
			processed += len(docs)
		}
	}

	acc, mismatches := evaluate.Compare(predicted.Pages, labels.Pages, processed)
	printMismatches(cmd.ErrOrStderr(), mismatches)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "    ")
	return enc.Encode(acc)
}
