package typegen

import "github.com/teranos/declgen/symbol"

// Result holds the assembled declarations for one symbol table.
type Result struct {
	// Text is the complete declaration file
	Text string

	// Language is the dialect that rendered Text
	Language string

	// Counts maps each symbol kind to the number of declarations emitted
	Counts map[symbol.Kind]int

	// Opaque lists the synthesized opaque declarations, sorted
	Opaque []string

	// Widened lists distinct type descriptions that degraded to any, sorted.
	// Useful for spotting signatures discovery could not describe.
	Widened []string
}

// Total returns the number of declarations emitted for symbols, excluding
// opaque types, the namespace lines and fixture text.
func (r *Result) Total() int {
	n := 0
	for _, c := range r.Counts {
		n += c
	}
	return n
}
