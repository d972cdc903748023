// Package cli provides the queryhub command-line interface.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/queryhub-labs/queryhub/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	flagVerbose bool
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "queryhub",
	Short: "Document ingestion and retrieval backend",
	Long: `QueryHub ingests documents into chunked, embedded, vector-indexed
form and answers questions against them with retrieved context.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(flagVerbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file (default ~/.queryhub/config.toml)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
