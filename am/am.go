// Package am loads declgen configuration.
//
// Values are layered, lowest precedence first: built-in defaults,
// /etc/declgen/declgen.toml, ~/.declgen/declgen.toml, the nearest project
// declgen.toml found by walking up from the working directory, and finally
// DECLGEN_* environment variables.
package am

import (
	"os"
	"time"
)

const (
	// ConfigFileName is the file searched for in project and user directories
	ConfigFileName = "declgen.toml"

	// UserDirName is the per-user configuration directory under $HOME
	UserDirName = ".declgen"

	// EnvPrefix prefixes every environment override (DECLGEN_DISCOVER_PATH, ...)
	EnvPrefix = "DECLGEN"
)

const (
	DefaultDirPermissions  os.FileMode = 0755
	DefaultFilePermissions os.FileMode = 0644
)

// Config is the complete declgen configuration.
type Config struct {
	Dialect   DialectConfig   `mapstructure:"dialect" toml:"dialect"`
	Translate TranslateConfig `mapstructure:"translate" toml:"translate"`
	Discover  DiscoverConfig  `mapstructure:"discover" toml:"discover"`
	Snapshot  SnapshotConfig  `mapstructure:"snapshot" toml:"snapshot"`
	Generate  GenerateConfig  `mapstructure:"generate" toml:"generate"`
	Log       LogConfig       `mapstructure:"log" toml:"log"`
}

// DialectConfig selects the target language and its namespace names.
type DialectConfig struct {
	Name      string `mapstructure:"name" toml:"name"`
	Namespace string `mapstructure:"namespace" toml:"namespace"` // shared namespace table (e.g. "o")
	Alias     string `mapstructure:"alias" toml:"alias"`         // public module name (e.g. "obslua")
	Extension string `mapstructure:"extension" toml:"extension"`
}

// TranslateConfig tunes the type translation table.
type TranslateConfig struct {
	// UnresolvedMarkers are placeholders discovery emits when no type is known
	UnresolvedMarkers []string `mapstructure:"unresolved_markers" toml:"unresolved_markers"`

	// Rules are host-specific exact matches tried before the opaque fallback
	Rules []RuleConfig `mapstructure:"rules" toml:"rules,omitempty"`
}

// RuleConfig maps exact type descriptions to a primitive expression.
//
//	[[translate.rules]]
//	name = "hotkey-id"
//	match = ["obs_hotkey_id"]
//	to = "number"
type RuleConfig struct {
	Name  string   `mapstructure:"name" toml:"name"`
	Match []string `mapstructure:"match" toml:"match"`
	To    string   `mapstructure:"to" toml:"to"` // any, number, boolean, string, or list:<one of those>
}

// DiscoverConfig selects where symbol descriptors come from.
type DiscoverConfig struct {
	Source         string `mapstructure:"source" toml:"source"` // manifest, header, command, snapshot
	Path           string `mapstructure:"path" toml:"path"`
	Command        string `mapstructure:"command" toml:"command"`
	Format         string `mapstructure:"format" toml:"format"` // empty = infer from extension
	TimeoutSeconds int    `mapstructure:"timeout_seconds" toml:"timeout_seconds"`
}

// SnapshotConfig locates the snapshot store.
type SnapshotConfig struct {
	Path string `mapstructure:"path" toml:"path"`
	ID   string `mapstructure:"id" toml:"id"` // empty = latest
}

// GenerateConfig controls what is written and where.
type GenerateConfig struct {
	Fixture string   `mapstructure:"fixture" toml:"fixture"`
	Outputs []string `mapstructure:"outputs" toml:"outputs"` // "-" = stdout
	Banner  bool     `mapstructure:"banner" toml:"banner"`
}

// LogConfig configures human-readable log output.
type LogConfig struct {
	Theme string `mapstructure:"theme" toml:"theme"`
}

// Timeout returns the discovery timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Discover.TimeoutSeconds) * time.Second
}

// InputFiles returns the local files a generation run reads, for watching.
func (c *Config) InputFiles() []string {
	var files []string
	switch c.Discover.Source {
	case SourceManifest, SourceHeader, "":
		if c.Discover.Path != "" && !isURL(c.Discover.Path) {
			files = append(files, c.Discover.Path)
		}
	case SourceSnapshot:
		if c.Snapshot.Path != "" && c.Snapshot.Path != ":memory:" {
			files = append(files, c.Snapshot.Path)
		}
	}
	if c.Generate.Fixture != "" {
		files = append(files, c.Generate.Fixture)
	}
	return files
}
