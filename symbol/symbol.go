// Package symbol defines the descriptors that discovery produces and the
// declaration engine consumes.
//
// A Descriptor is a tagged union over four kinds of native API element:
// integer constants, string constants, records and callables. Only the
// fields relevant to its Kind are set. Descriptors are values; nothing in
// declgen mutates one after discovery returns it.
package symbol

import (
	"fmt"
	"strings"

	"github.com/teranos/declgen/errors"
)

// Kind identifies the variant of a Descriptor.
type Kind int

const (
	IntegerConstant Kind = iota
	StringConstant
	Record
	Callable
)

var kindNames = [...]string{
	IntegerConstant: "integer",
	StringConstant:  "string",
	Record:          "record",
	Callable:        "callable",
}

// Kinds lists every kind in assembly order.
var Kinds = []Kind{IntegerConstant, StringConstant, Record, Callable}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind accepts the names used in manifests and snapshots, plus a few
// aliases discovery tools commonly emit.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "integer", "int", "integer_constant", "number":
		return IntegerConstant, nil
	case "string", "str", "string_constant":
		return StringConstant, nil
	case "record", "class", "struct":
		return Record, nil
	case "callable", "function", "func":
		return Callable, nil
	}
	return 0, errors.NewInvalidRequestError("unknown symbol kind %q", s)
}

// Descriptor describes one native API element.
type Descriptor struct {
	Kind Kind
	Name string

	// IntegerConstant
	Int int64

	// StringConstant
	Str string

	// Record: property names in declaration order
	Properties []string

	// Callable: native type descriptions, e.g. "const char *"
	Params []string
	Return string
}

// Int returns an integer constant descriptor.
func Int(name string, value int64) Descriptor {
	return Descriptor{Kind: IntegerConstant, Name: name, Int: value}
}

// String returns a string constant descriptor.
func String(name, value string) Descriptor {
	return Descriptor{Kind: StringConstant, Name: name, Str: value}
}

// NewRecord returns a record descriptor with the given property names.
func NewRecord(name string, properties ...string) Descriptor {
	return Descriptor{Kind: Record, Name: name, Properties: properties}
}

// Func returns a callable descriptor.
func Func(name string, params []string, ret string) Descriptor {
	return Descriptor{Kind: Callable, Name: name, Params: params, Return: ret}
}

// ByKind returns the descriptors of kind k in their original order.
func ByKind(symbols []Descriptor, k Kind) []Descriptor {
	var out []Descriptor
	for _, s := range symbols {
		if s.Kind == k {
			out = append(out, s)
		}
	}
	return out
}

// RecordNames returns the set of record names in symbols.
func RecordNames(symbols []Descriptor) map[string]bool {
	names := make(map[string]bool)
	for _, s := range symbols {
		if s.Kind == Record {
			names[s.Name] = true
		}
	}
	return names
}

// Count tallies descriptors per kind.
func Count(symbols []Descriptor) map[Kind]int {
	counts := make(map[Kind]int, len(Kinds))
	for _, s := range symbols {
		counts[s.Kind]++
	}
	return counts
}
