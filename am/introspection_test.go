package am

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func settingByKey(t *testing.T, in *ConfigIntrospection, key string) SettingInfo {
	t.Helper()
	for _, s := range in.Settings {
		if s.Key == key {
			return s
		}
	}
	t.Fatalf("setting %s not found", key)
	return SettingInfo{}
}

func TestFlattenSettingsWithSources(t *testing.T) {
	t.Setenv("DECLGEN_GENERATE_BANNER", "false")

	settings := map[string]interface{}{
		"dialect": map[string]interface{}{
			"name":      "nattlua",
			"namespace": "ns",
		},
		"generate": map[string]interface{}{
			"banner": false,
		},
	}
	sources := map[string]SourceInfo{
		"dialect.namespace": {Source: SourceProject, Path: "/work/declgen.toml"},
		"generate.banner":   {Source: SourceUser, Path: "/home/u/.declgen/declgen.toml"},
	}

	in := &ConfigIntrospection{}
	flattenSettingsWithSources(settings, "", in, sources)

	require.Len(t, in.Settings, 3)
	assert.Equal(t, []string{"dialect.name", "dialect.namespace", "generate.banner"},
		[]string{in.Settings[0].Key, in.Settings[1].Key, in.Settings[2].Key}, "keys are sorted")

	assert.Equal(t, SourceDefault, in.Settings[0].Source)
	assert.Equal(t, SourceProject, in.Settings[1].Source)
	assert.Equal(t, "/work/declgen.toml", in.Settings[1].SourcePath)
	assert.Equal(t, SourceEnvironment, in.Settings[2].Source, "environment overrides the file source")
	assert.Equal(t, "DECLGEN_GENERATE_BANNER", in.Settings[2].SourcePath)
}

func TestGetConfigIntrospection(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, UserDirName, ConfigFileName), `
[dialect]
alias = "useralias"
`)
	writeFile(t, filepath.Join(dir, ConfigFileName), `
[discover]
path = "symbols.yaml"
`)
	t.Setenv("DECLGEN_SNAPSHOT_ID", "abcd")

	in, err := GetConfigIntrospection()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, ConfigFileName), in.ConfigFile)

	alias := settingByKey(t, in, "dialect.alias")
	assert.Equal(t, "useralias", alias.Value)
	assert.Equal(t, SourceUser, alias.Source)

	path := settingByKey(t, in, "discover.path")
	assert.Equal(t, SourceProject, path.Source)

	id := settingByKey(t, in, "snapshot.id")
	assert.Equal(t, "abcd", id.Value)
	assert.Equal(t, SourceEnvironment, id.Source)

	name := settingByKey(t, in, "dialect.name")
	assert.Equal(t, SourceDefault, name.Source)
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "DECLGEN_DISCOVER_TIMEOUT_SECONDS", envName("discover.timeout_seconds"))
}
