package am

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every config layer into a fresh temp dir and returns it
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	t.Setenv("HOME", dir)
	chdir(t, dir)

	oldSystem := systemConfigPath
	systemConfigPath = filepath.Join(dir, "etc", ConfigFileName)

	Reset()
	t.Cleanup(func() {
		systemConfigPath = oldSystem
		Reset()
	})
	return dir
}

// chdir changes the working directory for the duration of the test
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	assert.Equal(t, "nattlua", cfg.Dialect.Name)
	assert.Equal(t, "o", cfg.Dialect.Namespace)
	assert.Equal(t, "obslua", cfg.Dialect.Alias)
	assert.Equal(t, "nlua", cfg.Dialect.Extension)
	assert.Equal(t, []string{"<unresolved>"}, cfg.Translate.UnresolvedMarkers)
	assert.Equal(t, SourceManifest, cfg.Discover.Source)
	assert.Equal(t, 30, cfg.Discover.TimeoutSeconds)
	assert.Equal(t, 30*time.Second, cfg.Timeout())
	assert.Equal(t, "declgen.db", cfg.Snapshot.Path)
	assert.Empty(t, cfg.Snapshot.ID)
	assert.Equal(t, []string{"-"}, cfg.Generate.Outputs)
	assert.True(t, cfg.Generate.Banner)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "nattlua", cfg.Dialect.Name)

	// Defaults alone are invalid only because no discovery input is named
	cfg.Discover.Path = "symbols.yaml"
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ProjectConfig(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ConfigFileName), `
[dialect]
namespace = "ns"

[discover]
source = "header"
path = "obs.h"

[generate]
outputs = ["out/obslua.nlua", "-"]
banner = false
`)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ns", cfg.Dialect.Namespace)
	assert.Equal(t, "obslua", cfg.Dialect.Alias, "unset keys keep defaults")
	assert.Equal(t, SourceHeader, cfg.Discover.Source)
	assert.Equal(t, "obs.h", cfg.Discover.Path)
	assert.Equal(t, []string{"out/obslua.nlua", "-"}, cfg.Generate.Outputs)
	assert.False(t, cfg.Generate.Banner)

	assert.Equal(t, filepath.Join(dir, ConfigFileName), ConfigFileUsed())
}

func TestLoad_IsCached(t *testing.T) {
	isolate(t)

	first, err := Load()
	require.NoError(t, err)
	second, err := Load()
	require.NoError(t, err)
	assert.Same(t, first, second)

	Reset()
	third, err := Load()
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}

func TestLoad_Precedence(t *testing.T) {
	dir := isolate(t)

	writeFile(t, systemConfigPath, `
[dialect]
namespace = "sys"
alias = "sysalias"
extension = "sys"
`)
	writeFile(t, filepath.Join(dir, UserDirName, ConfigFileName), `
[dialect]
namespace = "user"
alias = "useralias"
`)
	project := filepath.Join(dir, "work")
	writeFile(t, filepath.Join(project, ConfigFileName), `
[dialect]
namespace = "proj"
`)
	chdir(t, project)
	t.Setenv("DECLGEN_DIALECT_EXTENSION", "env")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "proj", cfg.Dialect.Namespace)
	assert.Equal(t, "useralias", cfg.Dialect.Alias)
	assert.Equal(t, "env", cfg.Dialect.Extension, "environment beats every file")

	assert.Equal(t, []string{
		systemConfigPath,
		filepath.Join(dir, UserDirName, ConfigFileName),
		filepath.Join(project, ConfigFileName),
	}, ConfigFiles())
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("DECLGEN_DISCOVER_SOURCE", "command")
	t.Setenv("DECLGEN_COMMAND", "obs-dump --json")
	t.Setenv("DECLGEN_DISCOVER_TIMEOUT_SECONDS", "5")
	t.Setenv("DECLGEN_DB_PATH", "/tmp/x.db")
	t.Setenv("DECLGEN_GENERATE_OUTPUTS", "a.nlua,b.nlua")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, SourceCommand, cfg.Discover.Source)
	assert.Equal(t, "obs-dump --json", cfg.Discover.Command)
	assert.Equal(t, 5*time.Second, cfg.Timeout())
	assert.Equal(t, "/tmp/x.db", cfg.Snapshot.Path)
	assert.Equal(t, []string{"a.nlua", "b.nlua"}, cfg.Generate.Outputs)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_TranslateRules(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ConfigFileName), `
[discover]
path = "symbols.yaml"

[[translate.rules]]
name = "hotkey-id"
match = ["obs_hotkey_id", "obs_hotkey_pair_id"]
to = "number"

[[translate.rules]]
name = "names"
match = ["name_list_t"]
to = "list:string"
`)

	cfg, err := Load()
	require.NoError(t, err)
	require.Len(t, cfg.Translate.Rules, 2)
	assert.Equal(t, RuleConfig{
		Name:  "hotkey-id",
		Match: []string{"obs_hotkey_id", "obs_hotkey_pair_id"},
		To:    "number",
	}, cfg.Translate.Rules[0])
	assert.Equal(t, "list:string", cfg.Translate.Rules[1].To)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_InvalidTOML(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ConfigFileName), "[dialect\nname = ")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), ConfigFileName)
}

func TestLoadFromFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.toml")
	writeFile(t, path, `
[discover]
source = "snapshot"

[snapshot]
id = "abcd"
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, SourceSnapshot, cfg.Discover.Source)
	assert.Equal(t, "abcd", cfg.Snapshot.ID)
	assert.Equal(t, "declgen.db", cfg.Snapshot.Path)

	_, err = LoadFromFile(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}

func TestFindProjectConfig(t *testing.T) {
	dir := isolate(t)

	assert.Empty(t, findProjectConfig())

	writeFile(t, filepath.Join(dir, ConfigFileName), "")
	nested := filepath.Join(dir, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0755))
	chdir(t, nested)

	assert.Equal(t, filepath.Join(dir, ConfigFileName), findProjectConfig())

	// The nearest file wins
	writeFile(t, filepath.Join(dir, "a", ConfigFileName), "")
	assert.Equal(t, filepath.Join(dir, "a", ConfigFileName), findProjectConfig())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Discover.Path = "symbols.yaml"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults with path", mutate: func(c *Config) {}},
		{name: "unknown dialect", mutate: func(c *Config) { c.Dialect.Name = "typescript" }, wantErr: "dialect.name"},
		{name: "namespace not identifier", mutate: func(c *Config) { c.Dialect.Namespace = "o.x" }, wantErr: "dialect.namespace"},
		{name: "empty alias", mutate: func(c *Config) { c.Dialect.Alias = "" }, wantErr: "dialect.alias"},
		{name: "alias equals namespace", mutate: func(c *Config) { c.Dialect.Alias = "o" }, wantErr: "must differ"},
		{name: "empty marker", mutate: func(c *Config) { c.Translate.UnresolvedMarkers = []string{""} }, wantErr: "unresolved_markers[0]"},
		{name: "no markers is fine", mutate: func(c *Config) { c.Translate.UnresolvedMarkers = nil }},
		{name: "unknown source", mutate: func(c *Config) { c.Discover.Source = "ftp" }, wantErr: "discover.source"},
		{name: "manifest without path", mutate: func(c *Config) { c.Discover.Path = "" }, wantErr: "discover.path"},
		{name: "header without path", mutate: func(c *Config) {
			c.Discover.Source = SourceHeader
			c.Discover.Path = ""
		}, wantErr: "discover.path"},
		{name: "command without command", mutate: func(c *Config) { c.Discover.Source = SourceCommand }, wantErr: "discover.command"},
		{name: "command with command", mutate: func(c *Config) {
			c.Discover.Source = SourceCommand
			c.Discover.Command = "obs-dump"
		}},
		{name: "snapshot without store", mutate: func(c *Config) {
			c.Discover.Source = SourceSnapshot
			c.Snapshot.Path = ""
		}, wantErr: "snapshot.path"},
		{name: "bad format", mutate: func(c *Config) { c.Discover.Format = "xml" }, wantErr: "discover.format"},
		{name: "zero timeout", mutate: func(c *Config) { c.Discover.TimeoutSeconds = 0 }, wantErr: "timeout_seconds"},
		{name: "no outputs", mutate: func(c *Config) { c.Generate.Outputs = nil }, wantErr: "generate.outputs"},
		{name: "empty output", mutate: func(c *Config) { c.Generate.Outputs = []string{"-", ""} }, wantErr: "generate.outputs[1]"},
		{name: "rule without name", mutate: func(c *Config) {
			c.Translate.Rules = []RuleConfig{{Match: []string{"x"}, To: "any"}}
		}, wantErr: "translate.rules[0]"},
		{name: "rule without match", mutate: func(c *Config) {
			c.Translate.Rules = []RuleConfig{{Name: "r", To: "any"}}
		}, wantErr: "at least one"},
		{name: "rule bad target", mutate: func(c *Config) {
			c.Translate.Rules = []RuleConfig{{Name: "r", Match: []string{"x"}, To: "table"}}
		}, wantErr: "to \"table\""},
		{name: "rule list target", mutate: func(c *Config) {
			c.Translate.Rules = []RuleConfig{{Name: "r", Match: []string{"x"}, To: "list:number"}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestInputFiles(t *testing.T) {
	tests := []struct {
		name     string
		discover DiscoverConfig
		snapshot SnapshotConfig
		fixture  string
		want     []string
	}{
		{
			name:     "manifest and fixture",
			discover: DiscoverConfig{Source: SourceManifest, Path: "symbols.yaml"},
			fixture:  "fixture.nlua",
			want:     []string{"symbols.yaml", "fixture.nlua"},
		},
		{
			name:     "remote manifest is not watched",
			discover: DiscoverConfig{Source: SourceManifest, Path: "https://example.com/symbols.yaml"},
		},
		{
			name:     "header",
			discover: DiscoverConfig{Source: SourceHeader, Path: "obs.h"},
			want:     []string{"obs.h"},
		},
		{
			name:     "command has no input file",
			discover: DiscoverConfig{Source: SourceCommand, Command: "dump", Path: "ignored"},
		},
		{
			name:     "snapshot watches the store",
			discover: DiscoverConfig{Source: SourceSnapshot},
			snapshot: SnapshotConfig{Path: "declgen.db"},
			want:     []string{"declgen.db"},
		},
		{
			name:     "in-memory store",
			discover: DiscoverConfig{Source: SourceSnapshot},
			snapshot: SnapshotConfig{Path: ":memory:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Discover: tt.discover, Snapshot: tt.snapshot, Generate: GenerateConfig{Fixture: tt.fixture}}
			assert.Equal(t, tt.want, cfg.InputFiles())
		})
	}
}
