package am

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/teranos/declgen/errors"
)

var globalConfig *Config
var viperInstance *viper.Viper

// loadedFiles are the config files merged into viperInstance, lowest precedence first
var loadedFiles []string

// systemConfigPath is a variable so tests can point it into a temp dir
var systemConfigPath = "/etc/declgen/" + ConfigFileName

// Load reads the declgen configuration using Viper
func Load() (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	v, err := initViper()
	if err != nil {
		return nil, err
	}

	config, err := LoadWithViper(v)
	if err != nil {
		return nil, err
	}

	globalConfig = config
	return globalConfig, nil
}

// GetViper returns the Viper instance for advanced configuration access
func GetViper() (*viper.Viper, error) {
	return initViper()
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path.
// Environment variables still override values from the file.
func LoadFromFile(configPath string) (*Config, error) {
	v := newViper()

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.WithHint(
			errors.Wrapf(err, "failed to read config file %s", configPath),
			"run 'declgen am init' to create a starter config",
		)
	}

	config, err := LoadWithViper(v)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load config from %s", configPath)
	}
	return config, nil
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	globalConfig = nil
	viperInstance = nil
	loadedFiles = nil
	ConfigSources = make(map[string]SourceInfo)
}

// ConfigFiles returns the config files that were merged, lowest precedence first.
func ConfigFiles() []string {
	return append([]string(nil), loadedFiles...)
}

// ConfigFileUsed returns the highest-precedence config file that was merged,
// or empty when only defaults and environment apply.
func ConfigFileUsed() string {
	if len(loadedFiles) == 0 {
		return ""
	}
	return loadedFiles[len(loadedFiles)-1]
}

// newViper returns a Viper with defaults and environment binding, but no files
func newViper() *viper.Viper {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	BindEnvVars(v)
	SetDefaults(v)
	return v
}

// initViper initializes Viper with configuration sources and defaults
func initViper() (*viper.Viper, error) {
	if viperInstance != nil {
		return viperInstance, nil
	}

	v := newViper()

	// Merge configs in precedence order: system -> user -> project.
	// Environment variables stay above all of them.
	if err := mergeConfigFiles(v); err != nil {
		return nil, err
	}

	viperInstance = v
	return v, nil
}

// findProjectConfig searches for declgen.toml by walking up the directory tree.
// Returns the path to the first config file found, or empty string if none found.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		path := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}

	return ""
}

// userConfigPath returns ~/.declgen/declgen.toml, or empty if $HOME is unknown
func userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, UserDirName, ConfigFileName)
}

// mergeConfigFiles merges configuration files in precedence order and records
// which file each key came from.
// Precedence (lowest to highest): system < user < project < env vars
func mergeConfigFiles(v *viper.Viper) error {
	type layer struct {
		path   string
		source ConfigSource
	}
	layers := []layer{
		{systemConfigPath, SourceSystem},
		{userConfigPath(), SourceUser},
	}
	if project := findProjectConfig(); project != "" {
		layers = append(layers, layer{project, SourceProject})
	}

	seen := make(map[string]bool)
	for _, l := range layers {
		if l.path == "" {
			continue
		}
		abs, err := filepath.Abs(l.path)
		if err == nil {
			l.path = abs
		}
		// A project config that is also the user config counts once
		if seen[l.path] {
			continue
		}
		seen[l.path] = true

		if _, err := os.Stat(l.path); err != nil {
			continue
		}

		tempViper := viper.New()
		tempViper.SetConfigFile(l.path)
		tempViper.SetConfigType("toml")
		if err := tempViper.ReadInConfig(); err != nil {
			return errors.WithHint(
				errors.Wrapf(err, "failed to read config file %s", l.path),
				"fix the TOML syntax or remove the file",
			)
		}

		// MergeConfigMap keeps environment variables above file values
		if err := v.MergeConfigMap(tempViper.AllSettings()); err != nil {
			return errors.Wrapf(err, "failed to merge config file %s", l.path)
		}
		for _, key := range tempViper.AllKeys() {
			ConfigSources[key] = SourceInfo{Source: l.source, Path: l.path}
		}
		loadedFiles = append(loadedFiles, l.path)
	}
	return nil
}

// Get returns a configuration value using dot notation
func Get(key string) interface{} {
	v, err := initViper()
	if err != nil {
		return nil
	}
	return v.Get(key)
}

// GetString returns a configuration value as string using dot notation
func GetString(key string) string {
	v, err := initViper()
	if err != nil {
		return ""
	}
	return v.GetString(key)
}
