package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/declgen/cmd/declgen/commands"
	"github.com/teranos/declgen/errors"
	"github.com/teranos/declgen/logger"
)

var rootCmd = &cobra.Command{
	Use:   "declgen",
	Short: "declgen - Type declarations for embedded scripting APIs",
	Long: `declgen - Generate structural type declarations for a native API.

declgen discovers the symbols a native runtime exposes to its scripting layer
(constants, records, functions) and emits type declarations for them, so
scripts can be type checked against the real API.

Available commands:
  generate - Discover symbols and write declarations
  check    - Verify committed declarations are up to date
  watch    - Regenerate when config or inputs change
  explain  - Show how one native type translates
  snapshot - Save and inspect discovery results
  am       - Manage declgen configuration
  version  - Show version information

Examples:
  declgen am init                  # Write a starter declgen.toml
  declgen generate -o obslua.nlua  # Generate declarations
  declgen check                    # CI staleness check`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		if err := logger.Initialize(jsonLogs, verbosity); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Write logs as JSON lines")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default: layered declgen.toml lookup)")

	rootCmd.AddCommand(commands.GenerateCmd)
	rootCmd.AddCommand(commands.CheckCmd)
	rootCmd.AddCommand(commands.WatchCmd)
	rootCmd.AddCommand(commands.ExplainCmd)
	rootCmd.AddCommand(commands.SnapshotCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	err := rootCmd.Execute()
	logger.Cleanup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if hint := errors.FlattenHints(err); hint != "" {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		os.Exit(1)
	}
}
