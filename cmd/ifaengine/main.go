package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	formatFlag  string
	debugFlag   bool
	envFileFlag string
)

var rootCmd = &cobra.Command{
	Use:   "ifaengine",
	Short: "Retirement projection and risk simulation engine",
	Long:  `Deterministic cash-flow projections, Monte Carlo simulation, stress testing
and parameter validation for retirement planning scenarios.

Scenario files are YAML or JSON. Results print as console tables, JSON or CSV.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ifaengine %s (commit %s, built %s)\n", version, commit, date)
			if debugFlag {
				if info := buildInfo(); info != "" {
					fmt.Fprintln(cmd.OutOrStdout(), info)
				}
			}
		},
	}
}

func buildInfo() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		return bi.String()
	}
	return ""
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "console", "Output format (console, json, csv)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&envFileFlag, "env-file", ".env", "Environment file to load if present")

	rootCmd.AddCommand(versionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
