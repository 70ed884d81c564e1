// Package main implements the briefcraft CLI: an SEO content-brief
// generator driven by staged LLM calls over competitor research.
package main

import (
	"fmt"
	"os"

	"briefcraft/internal/config"
	"briefcraft/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgPath string
	verbose bool

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "briefcraft",
	Short: "Generate SEO content briefs and articles",
	Long: `briefcraft builds SEO content briefs through a staged pipeline:
goal analysis, keyword strategy, competitor insights, content gaps,
article outline, FAQs, and on-page SEO. It can then write the full
article section by section and validate it against the brief.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Logging.Debug = true
		}
		logger, err = logging.New(cfg.Logging.Debug)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "briefcraft.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	briefCmd.AddCommand(briefNewCmd)
	briefCmd.AddCommand(briefListCmd)
	briefCmd.AddCommand(briefShowCmd)
	briefCmd.AddCommand(briefDeleteCmd)
	briefCmd.AddCommand(briefStatusCmd)
	briefCmd.AddCommand(briefExportCmd)

	stageCmd.AddCommand(stageRunCmd)
	stageCmd.AddCommand(stageListCmd)

	articleCmd.AddCommand(articleWriteCmd)
	articleCmd.AddCommand(articleValidateCmd)
	articleCmd.AddCommand(articleApplyCmd)

	rootCmd.AddCommand(briefCmd)
	rootCmd.AddCommand(stageCmd)
	rootCmd.AddCommand(articleCmd)
	rootCmd.AddCommand(competitorsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
