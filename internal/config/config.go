// Package config provides configuration management for weft using Viper,
// loading from .weft.yml, environment variables with a WEFT_ prefix, and
// command-line flags.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the top-level weft configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Static      StaticConfig      `yaml:"static" mapstructure:"static"`
	Components  ComponentsConfig  `yaml:"components" mapstructure:"components"`
	Development DevelopmentConfig `yaml:"development" mapstructure:"development"`
	LogLevel    string            `yaml:"log_level" mapstructure:"log_level"`
}

// ServerConfig holds dev server settings.
type ServerConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
}

// StaticConfig holds the asset middleware settings.
type StaticConfig struct {
	// Prefix is the static mount point asset URLs live under
	Prefix string `yaml:"prefix" mapstructure:"prefix"`
	// AllowedExt lists the servable extensions
	AllowedExt []string `yaml:"allowed_ext" mapstructure:"allowed_ext"`
	// Autorefresh re-checks roots on every request (development)
	Autorefresh bool `yaml:"autorefresh" mapstructure:"autorefresh"`
}

// ComponentsConfig holds component discovery settings.
type ComponentsConfig struct {
	// Roots lists component-root folders in resolution-precedence order
	Roots []string `yaml:"roots" mapstructure:"roots"`
}

// DevelopmentConfig holds development-only options.
type DevelopmentConfig struct {
	HotReload bool `yaml:"hot_reload" mapstructure:"hot_reload"`
}

// Load builds a Config from viper's current state, applying defaults for
// everything not explicitly set.
func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Workarounds for viper slice/bool handling when values come from
	// env or flags rather than the config file.
	if viper.IsSet("components.roots") && len(config.Components.Roots) == 0 {
		config.Components.Roots = viper.GetStringSlice("components.roots")
	}
	if viper.IsSet("static.allowed_ext") && len(config.Static.AllowedExt) == 0 {
		config.Static.AllowedExt = viper.GetStringSlice("static.allowed_ext")
	}
	if viper.IsSet("static.autorefresh") {
		config.Static.Autorefresh = viper.GetBool("static.autorefresh")
	}
	if viper.IsSet("development.hot_reload") {
		config.Development.HotReload = viper.GetBool("development.hot_reload")
	}

	applyDefaults(&config)

	if err := validate(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Server.Host == "" {
		config.Server.Host = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8120
	}
	if config.Static.Prefix == "" {
		config.Static.Prefix = "/static/components/"
	}
	if len(config.Static.AllowedExt) == 0 {
		config.Static.AllowedExt = []string{".css", ".js"}
	}
	if len(config.Components.Roots) == 0 {
		config.Components.Roots = []string{"./components"}
	}
	if !viper.IsSet("development.hot_reload") {
		config.Development.HotReload = true
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
}

func validate(config *Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", config.Server.Port)
	}
	if !strings.HasPrefix(config.Static.Prefix, "/") {
		return fmt.Errorf("static prefix %q must start with /", config.Static.Prefix)
	}
	switch config.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", config.LogLevel)
	}
	return nil
}
