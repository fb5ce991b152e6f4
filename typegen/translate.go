package typegen

import (
	"go.uber.org/zap"

	"github.com/teranos/declgen/logger"
)

// Translator maps native type descriptions to target type expressions using
// an ordered rule table.
type Translator struct {
	dialect Dialect
	rules   []Rule
	markers []string
	extra   []Rule
	logger  *zap.SugaredLogger
	trace   bool
}

// Option configures a Translator.
type Option func(*Translator)

// WithMarkers replaces the placeholder strings that mean "no type available".
func WithMarkers(markers ...string) Option {
	return func(t *Translator) {
		t.markers = markers
	}
}

// WithRules inserts extra rules after the built-in specific rules and before
// the opaque fallback.
func WithRules(rules ...Rule) Option {
	return func(t *Translator) {
		t.extra = append(t.extra, rules...)
	}
}

// WithTrace logs every resolution, not only widening. It defaults to on at
// -vvv and above.
func WithTrace(on bool) Option {
	return func(t *Translator) {
		t.trace = on
	}
}

// WithLogger sets the logger used to report widening.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(t *Translator) {
		t.logger = l
	}
}

// NewTranslator creates a translator for dialect d using the default table.
func NewTranslator(d Dialect, opts ...Option) *Translator {
	t := &Translator{
		dialect: d,
		markers: DefaultMarkers,
		trace:   logger.ShouldOutput(logger.Verbosity, logger.OutputInternalOp),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = logger.OrNop(t.logger)

	rules := DefaultRules(t.markers)
	fallback := rules[len(rules)-1]
	t.rules = append(append(rules[:len(rules)-1:len(rules)-1], t.extra...), fallback)
	return t
}

// Rules returns the rule table in evaluation order.
func (t *Translator) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

// Translate maps desc to a target expression, registering opaque names in c.
// isReturn selects return-position semantics (nullable pointers).
func (t *Translator) Translate(desc string, isReturn bool, c *Collector) string {
	expr, _ := t.Explain(desc, isReturn, c)
	return expr
}

// Explain is Translate that also reports the name of the resolving rule.
func (t *Translator) Explain(desc string, isReturn bool, c *Collector) (string, string) {
	term := &Term{
		Raw:       desc,
		Text:      desc,
		Return:    isReturn,
		Dialect:   t.dialect,
		Collector: c,
	}

	for _, r := range t.rules {
		if !r.Match(term) {
			continue
		}
		expr, done := r.Resolve(term)
		if !done {
			continue
		}
		if r.Widens {
			c.addWidened(desc)
			t.logger.Debugw("Widened type to any",
				logger.FieldType, desc,
				logger.FieldRule, r.Name,
			)
		}
		if t.trace {
			t.logger.Debugw("Translated type",
				logger.FieldType, desc,
				logger.FieldRule, r.Name,
				"expr", expr,
			)
		}
		return expr, r.Name
	}

	// Only reachable with a table lacking a catch-all rule
	c.addWidened(desc)
	return t.dialect.Any(), ""
}
