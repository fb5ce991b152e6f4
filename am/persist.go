package am

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/teranos/declgen/errors"
)

// backupCount is how many rotated copies WriteConfig keeps (.back1 .. .back3)
const backupCount = 3

// Default returns the configuration produced by defaults alone, ignoring
// config files and the environment.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	config, err := LoadWithViper(v)
	if err != nil {
		// Defaults are static; failing to decode them is a programming error
		panic(err)
	}
	return config
}

// Marshal renders cfg as TOML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal config")
	}
	return data, nil
}

// WriteConfig writes cfg to path. An existing file is only replaced when
// overwrite is set, and is first rotated into .back1 .. .back3.
func WriteConfig(path string, cfg *Config, overwrite bool) error {
	if _, err := os.Stat(path); err == nil {
		if !overwrite {
			return errors.WithHint(
				errors.Newf("config file %s already exists", path),
				"pass --force to replace it (the old file is kept as .back1)",
			)
		}
		if err := createBackup(path); err != nil {
			return errors.Wrap(err, "failed to back up existing config")
		}
	}

	data, err := Marshal(cfg)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
			return errors.Wrapf(err, "failed to create directory %s", dir)
		}
	}

	if w := GetGlobalWatcher(); w != nil {
		w.MarkOwnWrite()
	}
	if err := os.WriteFile(path, data, DefaultFilePermissions); err != nil {
		return errors.Wrapf(err, "failed to write config file %s", path)
	}
	return nil
}

// createBackup rotates backups (.back1 -> .back2 -> .back3) and copies the
// current file to .back1
func createBackup(configPath string) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil
	}

	oldest := backupPath(configPath, backupCount)
	if err := os.Remove(oldest); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to delete old backup %s", oldest)
	}

	for i := backupCount - 1; i >= 1; i-- {
		from := backupPath(configPath, i)
		if _, err := os.Stat(from); err != nil {
			continue
		}
		if err := os.Rename(from, backupPath(configPath, i+1)); err != nil {
			return errors.Wrapf(err, "failed to rotate %s", from)
		}
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}
	if err := os.WriteFile(backupPath(configPath, 1), content, DefaultFilePermissions); err != nil {
		return errors.Wrap(err, "failed to create .back1")
	}
	return nil
}

func backupPath(configPath string, n int) string {
	return configPath + ".back" + string(rune('0'+n))
}
