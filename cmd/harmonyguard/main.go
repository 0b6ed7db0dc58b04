package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/asy251189/HarmonyGuard/cmd/harmonyguard/commands"
	"github.com/asy251189/HarmonyGuard/pkg/observability/logging"
)

var (
	// Version information (set by build flags)
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	if _, err := logging.InitLoggerFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
	}

	rootCmd := &cobra.Command{
		Use:   "harmonyguard",
		Short: "Multilingual abuse detection service",
		Long: `harmonyguard scores short user-submitted text for abusive content
across Latin, Indic and Arabic scripts, including code-switched text.

Common workflows:
  harmonyguard serve                  # Start the detection API server
  harmonyguard check "some text"      # Score one text from the command line
  harmonyguard version                # Print build information`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	}

	rootCmd.PersistentFlags().StringP("config", "c", "config/config.yaml", "Path to configuration file")

	rootCmd.AddCommand(commands.NewServeCmd())
	rootCmd.AddCommand(commands.NewCheckCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("harmonyguard %s (commit: %s, built: %s)\n", version, gitCommit, buildDate)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
