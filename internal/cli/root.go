package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/local/finfinder/internal/classifier"
	cfgpkg "github.com/local/finfinder/internal/config"
	"github.com/local/finfinder/internal/finder"
	logpkg "github.com/local/finfinder/internal/logger"
)

// Version is overridden at build time with -ldflags "-X".
var Version = "v0.1.0"

var (
	cfg       cfgpkg.Config
	probsFile string
	threshold int
	verbose   bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "finfinder",
	Short: "Finfinder - locate financial statements in annual report PDFs",
	Long: `Finfinder scores every page of a financial report PDF against a naive Bayes
keyword model and picks the pages holding the income statement, the balance sheet
and the cash flow statement.

Pages that score well for one statement but sit far away from the other two
("loners") are demoted until the three statements agree.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command
func Execute() error {
	defer logpkg.Close()
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "finfinder %s\n", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&probsFile, "probs", "", "keyword probability table (default: $CLASSIFIER_PROBS or classifier-probs.json)")
	rootCmd.PersistentFlags().IntVar(&threshold, "threshold", 0, "loner page distance (default: $LONER_THRESHOLD or 6)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(versionCmd)
}

// setup loads configuration, applies flag overrides and initializes logging.
// Console logs go to stderr so stdout stays machine readable.
func setup(cmd *cobra.Command, args []string) error {
	cfg = cfgpkg.FromEnv()
	if probsFile != "" {
		cfg.Finder.ProbabilitiesFile = probsFile
	}
	if threshold > 0 {
		cfg.Finder.LonerThreshold = threshold
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	return logpkg.Init(logpkg.Options{
		Level:        cfg.Logging.Level,
		Pretty:       cfg.Logging.Pretty,
		File:         cfg.Logging.File,
		MaxSizeMB:    cfg.Logging.MaxSizeMB,
		MaxBackups:   cfg.Logging.MaxBackups,
		MaxAgeDays:   cfg.Logging.MaxAgeDays,
		Compress:     cfg.Logging.Compress,
		Stderr:       true,
		SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
		AxiomAPIKey:  cfg.Axiom.APIKey,
		AxiomOrgID:   cfg.Axiom.OrgID,
		AxiomDataset: cfg.Axiom.Dataset,
		AxiomFlush:   cfg.Axiom.FlushInterval,
	})
}

// newLocator loads the keyword table and builds a locator over MuPDF and pdfcpu.
func newLocator() (*finder.Locator, error) {
	table, err := classifier.LoadTable(cfg.Finder.ProbabilitiesFile)
	if err != nil {
		return nil, fmt.Errorf("load keyword table: %w", err)
	}
	return finder.NewLocator(classifier.NewScorer(table), finder.Options{
		Threshold: cfg.Finder.LonerThreshold,
		Timeout:   cfg.Finder.DocumentTimeout,
	}), nil
}
