package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/declgen/errors"
	"github.com/teranos/declgen/logger"
	"github.com/teranos/declgen/typegen"
)

// maxReportedLines bounds the differing line numbers printed per file
const maxReportedLines = 10

// CheckCmd verifies committed declarations are up to date
var CheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that generated declaration files are up to date",
	Long: `Generate declarations in memory and compare them with every file output.

The "Source version" banner line is ignored, so rebuilding declgen alone does
not make files stale. Standard output destinations are skipped.

Exit codes:
  0 - Declarations are up to date
  1 - Declarations are out of date or missing, or the check failed

Examples:
  declgen check                     # Check outputs named in declgen.toml
  declgen check -o types/obslua.nlua`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	addInputFlags(CheckCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := runConfig(cmd)
	if err != nil {
		return err
	}
	l := logger.ComponentLogger("check")

	files := fileOutputs(resolveOutputs(cfg))
	if len(files) == 0 {
		return errors.WithHint(
			errors.New("no file outputs to check"),
			"set generate.outputs to the committed declaration file or pass -o",
		)
	}

	gen, err := generateOnce(cmd.Context(), cfg, l)
	if err != nil {
		return err
	}

	w := cmd.ErrOrStderr()
	stale := 0
	for _, f := range files {
		res, err := typegen.Check(gen.Text, f, gen.Dialect)
		if err != nil {
			return err
		}
		switch {
		case res.Missing:
			stale++
			pterm.Error.WithWriter(w).Printfln("%s is missing", f)
		case !res.UpToDate:
			stale++
			lines := res.Lines
			more := ""
			if len(lines) > maxReportedLines {
				lines = lines[:maxReportedLines]
				more = " ..."
			}
			pterm.Error.WithWriter(w).Printfln("%s is out of date (lines %v%s)", f, lines, more)
		default:
			pterm.Success.WithWriter(w).Printfln("%s is up to date", f)
		}
	}

	if stale > 0 {
		return errors.WithHint(
			errors.Newf("%d of %d declaration files are out of date", stale, len(files)),
			"run 'declgen generate' and commit the result",
		)
	}
	return nil
}
