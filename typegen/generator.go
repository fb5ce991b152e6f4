// Package typegen translates native API symbol tables into declarations for a
// structural type language.
//
// # Architecture
//
// The package uses a two-layer design:
//  1. Language-agnostic translation (translate.go, rules.go, assemble.go) maps
//     native type descriptions to target expressions and orders declarations
//  2. A Dialect (see nattlua/) renders expressions and declarations in the
//     concrete syntax of one target language
//
// Discovery is not part of this package: callers hand Assemble a
// []symbol.Descriptor produced by any discover source.
//
// # Design Decisions
//
//   - Rules are an ordered table; the first matching rule wins. More specific
//     rules must precede the opaque fallback.
//   - Translation never fails. Anything without a rule widens to the dialect's
//     any type or becomes an opaque type reference.
//   - Opaque names are collected per run in an explicit Collector, not package
//     state, so concurrent runs cannot interfere.
//   - Output is deterministic (opaque declarations sorted by name) so `declgen
//     check` can validate committed declarations in CI.
//
// # Implementing a New Dialect
//
//  1. Create package: typegen/<language>/dialect.go
//  2. Implement the Dialect interface below
//  3. Add the language to newDialect() in cmd/declgen/commands/pipeline.go
package typegen

// Dialect renders target-language syntax. Expression methods return type
// expressions; declaration methods return one complete statement without a
// trailing newline.
type Dialect interface {
	// Language returns the dialect name (e.g. "nattlua")
	Language() string

	// FileExtension returns the conventional file extension, without the dot
	FileExtension() string

	Any() string
	Number() string
	Boolean() string
	String() string

	// List wraps an element type in the dialect's list type
	List(elem string) string

	// Nullable marks expr as possibly absent
	Nullable(expr string) string

	// Annotate attaches a human-readable note to expr
	Annotate(expr, note string) string

	// Qualify prefixes a bare type name with the shared namespace
	Qualify(name string) string

	// Open declares the shared namespace
	Open() string

	IntegerConstant(name string, value int64) string
	StringConstant(name, value string) string
	Record(name string, properties []string) string
	Function(name string, params []string, ret string) string

	// Opaque declares an identity-only placeholder type
	Opaque(name string) string

	// Alias exposes the namespace under its public module name
	Alias() string

	// Comment renders a single-line comment
	Comment(text string) string
}
