package am

import (
	"regexp"
	"slices"
	"strings"

	"github.com/teranos/declgen/errors"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// RuleTargets are the primitive names accepted in translate.rules[].to,
// alone or as list:<name>.
var RuleTargets = []string{"any", "number", "boolean", "string"}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if !slices.Contains(Dialects, c.Dialect.Name) {
		return errors.Newf("dialect.name %q is not supported (valid: %s)", c.Dialect.Name, strings.Join(Dialects, ", "))
	}

	// Namespace and alias end up as identifiers in the generated file
	if !identRe.MatchString(c.Dialect.Namespace) {
		return errors.Newf("dialect.namespace must be an identifier, got %q", c.Dialect.Namespace)
	}
	if !identRe.MatchString(c.Dialect.Alias) {
		return errors.Newf("dialect.alias must be an identifier, got %q", c.Dialect.Alias)
	}
	if c.Dialect.Alias == c.Dialect.Namespace {
		return errors.Newf("dialect.alias must differ from dialect.namespace (both %q)", c.Dialect.Alias)
	}

	for i, m := range c.Translate.UnresolvedMarkers {
		if m == "" {
			return errors.Newf("translate.unresolved_markers[%d] cannot be empty", i)
		}
	}
	for i, r := range c.Translate.Rules {
		if err := r.validate(); err != nil {
			return errors.Wrapf(err, "translate.rules[%d]", i)
		}
	}

	if !slices.Contains(Sources, c.Discover.Source) {
		return errors.Newf("discover.source %q is not valid (valid: %s)", c.Discover.Source, strings.Join(Sources, ", "))
	}
	switch c.Discover.Source {
	case SourceManifest, SourceHeader:
		if c.Discover.Path == "" {
			return errors.Newf("discover.path cannot be empty when discover.source is %q", c.Discover.Source)
		}
	case SourceCommand:
		if strings.TrimSpace(c.Discover.Command) == "" {
			return errors.New("discover.command cannot be empty when discover.source is \"command\"")
		}
	case SourceSnapshot:
		if c.Snapshot.Path == "" {
			return errors.New("snapshot.path cannot be empty when discover.source is \"snapshot\"")
		}
	}
	switch c.Discover.Format {
	case "", "yaml", "json", "toml":
	default:
		return errors.Newf("discover.format must be yaml, json or toml, got %q", c.Discover.Format)
	}
	if c.Discover.TimeoutSeconds <= 0 {
		return errors.Newf("discover.timeout_seconds must be > 0, got %d", c.Discover.TimeoutSeconds)
	}

	if len(c.Generate.Outputs) == 0 {
		return errors.New("generate.outputs cannot be empty (use \"-\" for stdout)")
	}
	for i, out := range c.Generate.Outputs {
		if out == "" {
			return errors.Newf("generate.outputs[%d] cannot be empty", i)
		}
	}

	return nil
}

func (r RuleConfig) validate() error {
	if r.Name == "" {
		return errors.New("name cannot be empty")
	}
	if len(r.Match) == 0 {
		return errors.Newf("rule %q must match at least one type", r.Name)
	}
	if !validTarget(r.To) {
		return errors.Newf("rule %q: to %q must be one of %s, optionally prefixed with list:", r.Name, r.To, strings.Join(RuleTargets, ", "))
	}
	return nil
}

func validTarget(to string) bool {
	return slices.Contains(RuleTargets, strings.TrimPrefix(to, "list:"))
}
