package am

import (
	"strings"

	"github.com/spf13/viper"
)

// Discovery sources accepted in discover.source.
const (
	SourceManifest = "manifest"
	SourceHeader   = "header"
	SourceCommand  = "command"
	SourceSnapshot = "snapshot"
)

// Dialects lists the target languages declgen can emit.
var Dialects = []string{"nattlua"}

// Sources lists the valid discover.source values.
var Sources = []string{SourceManifest, SourceHeader, SourceCommand, SourceSnapshot}

// SetDefaults configures default values for all config options
func SetDefaults(v *viper.Viper) {
	// Dialect defaults
	v.SetDefault("dialect.name", "nattlua")
	v.SetDefault("dialect.namespace", "o")
	v.SetDefault("dialect.alias", "obslua")
	v.SetDefault("dialect.extension", "nlua")

	// Translation defaults
	v.SetDefault("translate.unresolved_markers", []string{"<unresolved>"})

	// Discovery defaults
	v.SetDefault("discover.source", SourceManifest)
	v.SetDefault("discover.path", "")
	v.SetDefault("discover.command", "")
	v.SetDefault("discover.format", "")
	v.SetDefault("discover.timeout_seconds", 30)

	// Snapshot store defaults
	v.SetDefault("snapshot.path", "declgen.db")
	v.SetDefault("snapshot.id", "")

	// Generation defaults
	v.SetDefault("generate.fixture", "")
	v.SetDefault("generate.outputs", []string{"-"})
	v.SetDefault("generate.banner", true)

	v.SetDefault("log.theme", "everforest")
}

// BindEnvVars binds keys whose environment names don't follow the
// DECLGEN_SECTION_KEY pattern.
func BindEnvVars(v *viper.Viper) {
	// DECLGEN_DB_PATH is accepted as a shorter alias
	v.BindEnv("snapshot.path", EnvPrefix+"_SNAPSHOT_PATH", EnvPrefix+"_DB_PATH")
	v.BindEnv("discover.command", EnvPrefix+"_DISCOVER_COMMAND", EnvPrefix+"_COMMAND")
}

// isURL reports whether path names a remote location rather than a local file.
func isURL(path string) bool {
	return strings.Contains(path, "://")
}
