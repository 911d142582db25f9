package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config is the CLI configuration. Everything has a default good enough for
// zero-config use; values can come from ~/.studyline.yaml or STUDY_* env vars.
type Config struct {
	DBPath          string `mapstructure:"db_path"`
	UserID          string `mapstructure:"user_id"`
	Timezone        string `mapstructure:"timezone"`
	ConflictRetries int    `mapstructure:"conflict_retries"`
	SessionSize     int    `mapstructure:"session_size"`
}

// Load reads configuration from the optional file at configPath (or the
// default locations when empty) plus environment overrides.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(".studyline")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("STUDY")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; anything else is not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.DBPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		cfg.DBPath = filepath.Join(home, ".studyline.db")
	}
	return &cfg, nil
}

// Location resolves the configured timezone, falling back to local time.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db_path", "")
	v.SetDefault("user_id", "main_user")
	v.SetDefault("timezone", "")
	v.SetDefault("conflict_retries", 3)
	v.SetDefault("session_size", 20)
}
