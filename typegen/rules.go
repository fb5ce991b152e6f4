package typegen

import "strings"

// Rule is one entry of the translation table. Match decides whether the rule
// applies to the current term; Resolve either returns the target expression
// and true, or rewrites t.Text and returns false so lower rules see the
// rewritten description.
type Rule struct {
	Name    string
	Match   func(t *Term) bool
	Resolve func(t *Term) (string, bool)

	// Widens marks rules that give up on the description and return any
	Widens bool
}

// Term is the state threaded through the rule table for one description.
type Term struct {
	// Raw is the description as discovery produced it
	Raw string
	// Text is the working description; rewrite rules change it
	Text string
	// Return is set when translating a return type
	Return bool

	Dialect   Dialect
	Collector *Collector
}

// Rule names of the default table, in table order.
const (
	RuleUnresolved    = "unresolved"
	RuleFunctionPtr   = "function-pointer"
	RuleArray         = "array"
	RuleVoid          = "void"
	RuleConst         = "const"
	RuleStringList    = "string-list"
	RuleString        = "string"
	RuleFixedWidthInt = "fixed-width-int"
	RuleBool          = "bool"
	RuleVoidPointer   = "void-pointer"
	RuleNumber        = "number"
	RuleEnum          = "enum"
	RuleOutArray      = "out-array"
	RuleOpaque        = "opaque"
)

// DefaultMarkers are the placeholders discovery uses for "no type available".
var DefaultMarkers = []string{"<unresolved>"}

// MatchExact builds a rule resolving any of texts to the expression produced
// by to. Hosts use it to add rules for their own typedefs:
//
//	typegen.WithRules(typegen.MatchExact("hotkey-id", typegen.Number, "obs_hotkey_id"))
func MatchExact(name string, to func(Dialect) string, texts ...string) Rule {
	set := make(map[string]bool, len(texts))
	for _, t := range texts {
		set[t] = true
	}
	return Rule{
		Name:    name,
		Match:   func(t *Term) bool { return set[t.Text] },
		Resolve: func(t *Term) (string, bool) { return to(t.Dialect), true },
	}
}

// Expression constructors usable with MatchExact.
func Any(d Dialect) string { return d.Any() }

func Number(d Dialect) string { return d.Number() }

func Boolean(d Dialect) string { return d.Boolean() }

func String(d Dialect) string { return d.String() }

func Empty(Dialect) string { return "" }

// ListOf returns a constructor for a list of the given element constructor.
func ListOf(elem func(Dialect) string) func(Dialect) string {
	return func(d Dialect) string { return d.List(elem(d)) }
}

func contains(name, substr string) Rule {
	return Rule{
		Name:    name,
		Match:   func(t *Term) bool { return strings.Contains(t.Text, substr) },
		Resolve: func(t *Term) (string, bool) { return t.Dialect.Any(), true },
		Widens:  true,
	}
}

// DefaultRules returns the standard table for C-like interface descriptions.
// The order is significant; see the package documentation.
func DefaultRules(markers []string) []Rule {
	outArray := map[string]func(Dialect) string{
		"uint32_t *":  ListOf(Number),
		"long long *": ListOf(Number),
		"double *":    ListOf(Number),
		"bool *":      ListOf(Boolean),
		"size_t *":    ListOf(Number),
	}

	return []Rule{
		{
			Name: RuleUnresolved,
			Match: func(t *Term) bool {
				if strings.TrimSpace(t.Text) == "" {
					return true
				}
				for _, m := range markers {
					if m != "" && strings.Contains(t.Text, m) {
						return true
					}
				}
				return false
			},
			Resolve: func(t *Term) (string, bool) { return t.Dialect.Any(), true },
			Widens:  true,
		},
		contains(RuleFunctionPtr, "("),
		contains(RuleArray, "["),
		MatchExact(RuleVoid, Empty, "void"),
		{
			Name:  RuleConst,
			Match: func(t *Term) bool { return strings.Contains(t.Text, "const") },
			Resolve: func(t *Term) (string, bool) {
				t.Text = strings.ReplaceAll(t.Text, "const ", "")
				t.Text = strings.ReplaceAll(t.Text, " const ", "")
				t.Text = strings.ReplaceAll(t.Text, " const", "")
				return "", false
			},
		},
		// "const void" only becomes "void" after the rewrite above
		MatchExact(RuleVoid, Empty, "void"),
		MatchExact(RuleStringList, ListOf(String), "char **"),
		MatchExact(RuleString, String, "char *"),
		MatchExact(RuleFixedWidthInt, Number,
			"uint8_t", "uint16_t", "uint32_t", "uint64_t",
			"int8_t", "int16_t", "int32_t", "int64_t"),
		MatchExact(RuleBool, Boolean, "bool"),
		MatchExact(RuleVoidPointer, Any, "void *"),
		MatchExact(RuleNumber, Number, "int", "float", "double", "size_t", "long long", "long"),
		{
			Name:    RuleEnum,
			Match:   func(t *Term) bool { return strings.HasPrefix(t.Text, "enum ") },
			Resolve: func(t *Term) (string, bool) { return t.Dialect.Number(), true },
		},
		{
			Name:  RuleOutArray,
			Match: func(t *Term) bool {
				_, ok := outArray[t.Text]
				return ok
			},
			Resolve: func(t *Term) (string, bool) {
				return outArray[t.Text](t.Dialect), true
			},
		},
		opaqueRule,
	}
}

// opaqueRule is the fallback: whatever is left names a type declgen knows
// nothing about, so it becomes an opaque reference.
var opaqueRule = Rule{
	Name:  RuleOpaque,
	Match: func(*Term) bool { return true },
	Resolve: func(t *Term) (string, bool) {
		name := t.Text
		for _, s := range []string{"struct ", "enum ", "*", " "} {
			name = strings.ReplaceAll(name, s, "")
		}
		if name == "" {
			t.Collector.addWidened(t.Raw)
			return t.Dialect.Any(), true
		}
		t.Collector.AddOpaque(name)

		expr := t.Dialect.Qualify(name)
		if t.Return && strings.Contains(t.Raw, "*") {
			expr = t.Dialect.Nullable(expr)
		}
		if name != t.Raw {
			expr = t.Dialect.Annotate(expr, t.Raw)
		}
		return expr, true
	},
}
