// Package main provides the huddled entry point. huddled is the backend for
// the Hudle.ai coaching platform: meetings between users and AI coach
// personas, with voice and text conversation turns.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KarthikeyanM3011/Hudle.ai/cmd"
)

var configFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "huddled",
	Short: "Hudle.ai coaching platform backend",
	Long: `huddled serves the Hudle.ai coaching platform API.

Users create AI coach profiles, schedule meetings against them, and hold
voice or text conversations. Each conversation turn is transcribed,
answered by the coach persona, persisted, and optionally spoken back.`,
	PersistentPreRun: func(c *cobra.Command, args []string) {
		cmd.SetConfigPath(configFile)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to YAML configuration file")

	rootCmd.AddCommand(cmd.NewServeCommand())
	rootCmd.AddCommand(cmd.NewMigrateCommand())
	rootCmd.AddCommand(cmd.NewVersionCommand())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
