package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hrdigest/internal/config"
	"hrdigest/internal/logger"
	"hrdigest/internal/pipeline"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "hrdigest",
	Short: "hrdigest collects HR industry news and produces a weekly digest",
	Long: `hrdigest scrapes a curated set of HR news sources, removes near-duplicate
coverage, summarizes and classifies each article with Gemini, and writes a
weekly JSON digest.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.hrdigest.yaml or $HOME/.hrdigest.yaml)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scrapeCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full weekly digest pipeline",
	Long: `Collect article candidates from every configured source, fetch and
deduplicate their bodies, enrich them with the model, and write the weekly
digest JSON under the output directory.

Example:
  hrdigest run
  hrdigest run --config ./ops/.hrdigest.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		p, err := pipeline.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		digest, weekPath, dayPath, err := p.Run(cmd.Context())
		if err != nil {
			logger.Error("Digest run failed", err)
			return err
		}

		fmt.Printf("Wrote %s and %s (%d items)\n", weekPath, dayPath, len(digest.Items))
		return nil
	},
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Collect article candidates without summarizing",
	Long: `Run only the collection stage and print the candidate list as JSON.
Useful for checking selectors and source health without spending model
quota.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		p, err := pipeline.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		candidates := p.Collect()
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(candidates)
	},
}
