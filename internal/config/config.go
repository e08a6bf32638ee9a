package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config defines the configuration for the gweb CLI.
type Config struct {
	BaseURL string `mapstructure:"base_url"`
	Email   string `mapstructure:"email"`

	// Password is optional; when empty the CLI prompts for it.
	Password string `mapstructure:"password"`

	// MaxWorkers bounds concurrent photo uploads. Zero means the
	// client default.
	MaxWorkers int `mapstructure:"max_workers"`

	path string `mapstructure:"-"`
}

func (c *Config) Validate() error {
	// Check that at least a base set of fields have values.
	if c.BaseURL == "" {
		return fmt.Errorf("missing base_url (%s)", c.path)
	}
	if c.Email == "" {
		return fmt.Errorf("missing email (%s)", c.path)
	}
	if c.MaxWorkers < 0 {
		return fmt.Errorf("max_workers must not be negative (%s)", c.path)
	}
	return nil
}

// DefaultConfigPath returns the default path for the gweb config file.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("unable to determine user config dir: %w", err)
	}
	return filepath.Join(dir, "gweb", "config.toml"), nil
}

// getConfigPath determines where to read the config file from.
func getConfigPath(configPathFlag string) (string, error) {
	// Prefer user-specific config file path if specified.
	if configPathFlag != "" {
		return configPathFlag, nil
	}

	// Fall back to user config dir.
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "gweb", "config.toml"), nil
	}
	return "", fmt.Errorf("unable to determine config file path")
}

// LoadConfig reads the config file.
func LoadConfig(configPathFlag string) (Config, error) {
	path, err := getConfigPath(configPathFlag)
	if err != nil {
		return Config{}, err
	}
	viper.SetConfigFile(path)
	viper.SetConfigType("toml")

	// Allow users to override config values with environment variables.
	// In particular, may be desired for the account password.
	viper.SetEnvPrefix("GWEB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("error reading (%s): %w", path, err)
	}
	config := Config{path: path}
	if err := viper.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("error unmarshaling (%s): %w", path, err)
	}

	return config, nil
}
