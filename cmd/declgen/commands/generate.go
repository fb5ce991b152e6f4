package commands

import (
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/declgen/errors"
	"github.com/teranos/declgen/logger"
	"github.com/teranos/declgen/symbol"
	"github.com/teranos/declgen/typegen"
)

// GenerateCmd runs discovery and writes declarations to every output
var GenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate declarations from native API symbols",
	Long: `Discover the native API's symbols and write type declarations for them.

Symbols come from the configured discovery source (discover.source). The
assembled declarations are written once per output destination.

Examples:
  declgen generate                                 # Use declgen.toml
  declgen generate -i symbols.yaml -o obslua.nlua  # Manifest to a file
  declgen generate -s header -i obs.h -o types/    # Header to types/obslua.nlua
  declgen generate --snapshot 3f2a                 # From a saved snapshot`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	addInputFlags(GenerateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := runConfig(cmd)
	if err != nil {
		return err
	}
	l := logger.ComponentLogger("generate")

	gen, err := generateOnce(cmd.Context(), cfg, l)
	if err != nil {
		return err
	}

	outputs := resolveOutputs(cfg)
	if err := typegen.WriteOutputs(gen.Text, outputs, cmd.OutOrStdout()); err != nil {
		return errors.Wrap(err, "failed to write declarations")
	}

	// Summaries go to stderr so stdout stays pure declaration text
	if files := fileOutputs(outputs); len(files) > 0 {
		printSummary(cmd, gen, files, logger.Verbosity)
	}
	return nil
}

// printSummary reports what one generation produced. verbosity selects which
// output categories are shown beyond the per-file status lines.
func printSummary(cmd *cobra.Command, gen *generation, files []string, verbosity int) {
	w := cmd.ErrOrStderr()
	res := gen.Result

	for _, f := range files {
		pterm.Success.WithWriter(w).Printfln("Generated %s (%d declarations from %s)", f, res.Total(), gen.Source)
	}

	detailed := logger.ShouldOutput(verbosity, logger.OutputOperationInfo)
	if detailed {
		rows := pterm.TableData{{"Kind", "Count"}}
		for _, k := range symbol.Kinds {
			rows = append(rows, []string{k.String(), strconv.Itoa(res.Counts[k])})
		}
		rows = append(rows, []string{"opaque", strconv.Itoa(len(res.Opaque))})
		pterm.DefaultTable.WithHasHeader().WithWriter(w).WithData(rows).Render()
	}

	if len(res.Widened) > 0 {
		if detailed {
			pterm.Warning.WithWriter(w).Printfln("%d type descriptions widened to %s:", len(res.Widened), gen.Dialect.Any())
			for _, desc := range res.Widened {
				pterm.Info.WithWriter(w).Printfln("widened: %s", desc)
			}
		} else {
			pterm.Warning.WithWriter(w).Printfln("%d type descriptions widened to %s (run with -v to list them)", len(res.Widened), gen.Dialect.Any())
		}
	}

	if logger.ShouldOutput(verbosity, logger.OutputTiming) {
		pterm.Info.WithWriter(w).Printfln("Completed in %s", gen.Duration.Round(time.Millisecond))
	}
}
