package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teranos/declgen/errors"
	"github.com/teranos/declgen/logger"
	"github.com/teranos/declgen/typegen"
)

// ExplainCmd shows how a single native type description translates
var ExplainCmd = &cobra.Command{
	Use:   "explain <type>",
	Short: "Show the expression and rule for a native type description",
	Long: `Translate one native type description and report which rule produced the
expression. Useful when a declaration comes out as "any" unexpectedly.

Examples:
  declgen explain "const char *"          # string
  declgen explain "struct obs_source *" --return
  declgen explain "uint32_t" --json`,
	Args: cobra.ExactArgs(1),
	RunE: runExplain,
}

func init() {
	ExplainCmd.Flags().Bool("return", false, "Translate in return position (pointers become nullable)")
	ExplainCmd.Flags().BoolP("json", "j", false, "Output as JSON")
}

// explanation is the machine-readable form of explain's output
type explanation struct {
	Type       string   `json:"type"`
	Return     bool     `json:"return"`
	Expression string   `json:"expression"`
	Rule       string   `json:"rule"`
	Opaque     []string `json:"opaque,omitempty"`
	Widened    bool     `json:"widened"`
}

func runExplain(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	isReturn, _ := cmd.Flags().GetBool("return")
	asJSON, _ := cmd.Flags().GetBool("json")

	d, err := newDialect(cfg)
	if err != nil {
		return err
	}
	tr, err := newTranslator(cfg, d, logger.ComponentLogger("explain"))
	if err != nil {
		return err
	}

	c := typegen.NewCollector()
	expr, rule := tr.Explain(args[0], isReturn, c)
	ex := explanation{
		Type:       args[0],
		Return:     isReturn,
		Expression: expr,
		Rule:       rule,
		Opaque:     c.Opaque(),
		Widened:    len(c.Widened()) > 0,
	}

	out := cmd.OutOrStdout()
	if asJSON {
		data, err := json.MarshalIndent(ex, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal explanation")
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintf(out, "expression: %s\n", ex.Expression)
	fmt.Fprintf(out, "rule:       %s\n", ex.Rule)
	if len(ex.Opaque) > 0 {
		fmt.Fprintf(out, "opaque:     %s\n", strings.Join(ex.Opaque, ", "))
	}
	if ex.Widened {
		fmt.Fprintln(out, "widened:    yes")
	}
	return nil
}
