// Command uiusage measures how a codebase uses its UI component libraries.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	g := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "uiusage",
		Short: "Measure UI component library adoption across codebases",
		Long: `uiusage classifies every JSX element in a codebase by where it was
imported from (tracked libraries, other UI libraries, internal components)
and reports usage counts, adoption and style overrides.

Commands:
  scan      Scan configured codebases and report usage
  analyze   Analyze individual files
  compare   Compare the regex and AST engines on the same files
  watch     Keep a report current while files change
  serve     Start the MCP server on stdio
  init      Write a starter .uiusage.yaml
  setup     Register the MCP server with detected AI agents`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Config file (default: ./.uiusage.yaml, else the built-in preset)")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&g.logFormat, "log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().StringVarP(&g.engine, "engine", "e", engineRegex, "Analysis engine: regex or ast")

	rootCmd.AddCommand(
		newScanCommand(g),
		newAnalyzeCommand(g),
		newCompareCommand(g),
		newWatchCommand(g),
		newServeCommand(g),
		newInitCommand(),
		newSetupCommand(g),
		versionCmd(),
	)
	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "uiusage %s\n", version)
		},
	}
}
