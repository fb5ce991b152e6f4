package typegen

import (
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/declgen/logger"
	"github.com/teranos/declgen/symbol"
)

// Assembler turns an ordered symbol table into one declaration file.
type Assembler struct {
	dialect    Dialect
	translator *Translator
	logger     *zap.SugaredLogger
}

// NewAssembler creates an assembler. logger may be nil.
func NewAssembler(d Dialect, tr *Translator, l *zap.SugaredLogger) *Assembler {
	return &Assembler{
		dialect:    d,
		translator: tr,
		logger:     logger.OrNop(l),
	}
}

// Assemble renders symbols followed by fixture text.
//
// Layout: namespace open, opaque declarations, integer constants, string
// constants, records, callables, fixture, namespace alias. Within each symbol
// category the input order is preserved.
func (a *Assembler) Assemble(symbols []symbol.Descriptor, fixture string) *Result {
	d := a.dialect
	c := NewCollector()
	counts := make(map[symbol.Kind]int, len(symbol.Kinds))

	var body strings.Builder
	emit := func(k symbol.Kind, decl string) {
		body.WriteString(decl)
		body.WriteString("\n")
		counts[k]++
	}

	for _, s := range symbol.ByKind(symbols, symbol.IntegerConstant) {
		emit(s.Kind, d.IntegerConstant(s.Name, s.Int))
	}
	for _, s := range symbol.ByKind(symbols, symbol.StringConstant) {
		emit(s.Kind, d.StringConstant(s.Name, s.Str))
	}
	for _, s := range symbol.ByKind(symbols, symbol.Record) {
		emit(s.Kind, d.Record(s.Name, s.Properties))
	}
	for _, s := range symbol.ByKind(symbols, symbol.Callable) {
		emit(s.Kind, a.callable(s, c))
	}

	records := symbol.RecordNames(symbols)
	var opaque []string
	for _, name := range c.Opaque() {
		if records[name] {
			continue
		}
		opaque = append(opaque, name)
	}

	var out strings.Builder
	out.WriteString(d.Open())
	out.WriteString("\n")
	for _, name := range opaque {
		out.WriteString(d.Opaque(name))
		out.WriteString("\n")
	}
	out.WriteString(body.String())
	if fixture != "" {
		out.WriteString(fixture)
		if !strings.HasSuffix(fixture, "\n") {
			out.WriteString("\n")
		}
	}
	out.WriteString(d.Alias())
	out.WriteString("\n")

	res := &Result{
		Text:     out.String(),
		Language: d.Language(),
		Counts:   counts,
		Opaque:   opaque,
		Widened:  c.Widened(),
	}

	a.logger.Infow("Assembled declarations",
		"symbols", res.Total(),
		"opaque", len(opaque),
		"widened", len(res.Widened),
	)
	return res
}

func (a *Assembler) callable(s symbol.Descriptor, c *Collector) string {
	params := make([]string, 0, len(s.Params))
	for _, p := range s.Params {
		if expr := a.translator.Translate(p, false, c); expr != "" {
			params = append(params, expr)
		}
	}
	ret := a.translator.Translate(s.Return, true, c)

	a.logger.Debugw("Translated callable",
		logger.FieldSymbol, s.Name,
		"params", len(params),
	)
	return a.dialect.Function(s.Name, params, ret)
}
