package typegen

import "sort"

// Collector accumulates the side effects of one translation pass: the opaque
// type names encountered and the descriptions that widened to any.
// It is not safe for concurrent use; each run owns its own Collector.
type Collector struct {
	opaque  map[string]struct{}
	widened map[string]struct{}
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{
		opaque:  make(map[string]struct{}),
		widened: make(map[string]struct{}),
	}
}

// AddOpaque registers an opaque type name.
func (c *Collector) AddOpaque(name string) {
	c.opaque[name] = struct{}{}
}

// HasOpaque reports whether name was registered.
func (c *Collector) HasOpaque(name string) bool {
	_, ok := c.opaque[name]
	return ok
}

// Opaque returns the registered opaque names, sorted.
func (c *Collector) Opaque() []string {
	return sortedKeys(c.opaque)
}

func (c *Collector) addWidened(desc string) {
	c.widened[desc] = struct{}{}
}

// Widened returns the distinct descriptions that degraded to any, sorted.
func (c *Collector) Widened() []string {
	return sortedKeys(c.widened)
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
