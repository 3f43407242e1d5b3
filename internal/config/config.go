package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentx-labs/gmrestore/internal/branding"
	"github.com/agentx-labs/gmrestore/internal/importer"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Recognized keys.
const (
	KeyImportRemove  = "import.remove"
	KeyImportReplace = "import.replace"
	KeyLogLevel      = "log.level"
	KeyHostDatabase  = "host.database"
)

// Keys lists every recognized key in display order.
var Keys = []string{KeyImportRemove, KeyImportReplace, KeyLogLevel, KeyHostDatabase}

// Dir returns the path to the config directory (~/.gmrestore/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.gmrestore/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

func setDefaults() {
	viper.SetDefault(KeyImportRemove, false)
	viper.SetDefault(KeyImportReplace, true)
	viper.SetDefault(KeyLogLevel, "info")
	viper.SetDefault(KeyHostDatabase, "")
}

// Load initializes Viper to read from the config file and environment.
// GMRESTORE_IMPORT_REMOVE overrides import.remove, and so on.
func Load() {
	setDefaults()
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Known reports whether key is a recognized setting.
func Known(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if !Known(key) {
		return fmt.Errorf("unknown config key %q", key)
	}
	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// ImportDefaults returns the import options configured by the user.
func ImportDefaults() importer.Options {
	opts := importer.DefaultOptions()
	opts.Remove = viper.GetBool(KeyImportRemove)
	opts.Replace = viper.GetBool(KeyImportReplace)
	return opts
}

// LogLevel returns the configured log level name.
func LogLevel() string {
	return viper.GetString(KeyLogLevel)
}

// Database returns the configured host database path, or "".
func Database() string {
	return viper.GetString(KeyHostDatabase)
}
