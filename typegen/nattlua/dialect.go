// Package nattlua renders declarations in NattLua's type annotation syntax.
package nattlua

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/teranos/declgen/typegen"
)

const (
	DefaultNamespace = "o"
	DefaultAlias     = "obslua"
)

var _ typegen.Dialect = (*Dialect)(nil)

// Dialect implements typegen.Dialect for NattLua
type Dialect struct {
	namespace string
	alias     string
}

// New creates a dialect declaring everything under namespace and exposing it
// as alias. Empty arguments fall back to the defaults.
func New(namespace, alias string) *Dialect {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if alias == "" {
		alias = DefaultAlias
	}
	return &Dialect{namespace: namespace, alias: alias}
}

// Language returns "nattlua"
func (d *Dialect) Language() string {
	return "nattlua"
}

// FileExtension returns "nlua"
func (d *Dialect) FileExtension() string {
	return "nlua"
}

func (d *Dialect) Any() string     { return "any" }
func (d *Dialect) Number() string  { return "number" }
func (d *Dialect) Boolean() string { return "boolean" }
func (d *Dialect) String() string  { return "string" }

func (d *Dialect) List(elem string) string {
	return "List<|" + elem + "|>"
}

func (d *Dialect) Nullable(expr string) string {
	return expr + " | nil"
}

// Annotate appends note as an inline block comment
func (d *Dialect) Annotate(expr, note string) string {
	return expr + "--[[ " + strings.ReplaceAll(note, "]]", "] ]") + " ]]"
}

func (d *Dialect) Qualify(name string) string {
	return d.namespace + "." + name
}

func (d *Dialect) Open() string {
	return "local type " + d.namespace + " = {}"
}

func (d *Dialect) IntegerConstant(name string, value int64) string {
	return d.declare(name, strconv.FormatInt(value, 10))
}

func (d *Dialect) StringConstant(name, value string) string {
	return d.declare(name, Quote(value))
}

// Record declares a table type with every property typed any, one per line.
func (d *Dialect) Record(name string, properties []string) string {
	if len(properties) == 0 {
		return d.declare(name, "{}")
	}
	var b strings.Builder
	b.WriteString("{\n")
	for _, p := range properties {
		fmt.Fprintf(&b, "\t%s = any,\n", p)
	}
	b.WriteString("}")
	return d.declare(name, b.String())
}

func (d *Dialect) Function(name string, params []string, ret string) string {
	return d.declare(name, "function=("+strings.Join(params, ", ")+")>("+ret+")")
}

// Opaque declares a table carrying only its own name
func (d *Dialect) Opaque(name string) string {
	return d.declare(name, "{__name = "+Quote(name)+"}")
}

func (d *Dialect) Alias() string {
	return "type " + d.alias + " = " + d.namespace
}

func (d *Dialect) Comment(text string) string {
	return "-- " + text
}

func (d *Dialect) declare(name, value string) string {
	return "type " + d.Qualify(name) + " = " + value
}

// Quote renders s as a double-quoted Lua string literal.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if c < 0x20 || c == 0x7f {
				// three digits so a following digit is not absorbed
				fmt.Fprintf(&b, `\%03d`, c)
				continue
			}
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
