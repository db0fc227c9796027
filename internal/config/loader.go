package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// DefaultConfigPath is the file LoadConfig reads when no path is given.
const DefaultConfigPath = "dropd.toml"

// LoadConfig loads configuration in priority order:
//  1. Built-in defaults
//  2. Configuration file (dropd.toml)
//  3. Environment variables (DROPD_ prefix)
//
// A missing file is an error only when a path was explicitly requested;
// the default path is allowed to be absent.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	explicit := path != ""
	if path == "" {
		path = DefaultConfigPath
	}

	v.SetConfigFile(path)
	v.SetConfigType("toml")

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	} else {
		path = ""
	}

	v.SetEnvPrefix("DROPD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.configPath = path

	if err := ValidateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}
