// Package config loads the controller configuration from flags, the
// environment, .env and an optional config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/muesli/termenv"
	"github.com/spf13/viper"
)

// Display modes.
const (
	DisplayOverlay = "overlay"
	DisplaySurface = "surface"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config is the resolved controller configuration.
type Config struct {
	Executable  string            `mapstructure:"executable"`
	Timeout     time.Duration     `mapstructure:"timeout"`
	Display     string            `mapstructure:"display"`
	StripHeader bool              `mapstructure:"strip_header"`
	GotoEnd     bool              `mapstructure:"goto_end"`
	ShowTip     bool              `mapstructure:"show_tip"`
	GlobalFlags []string          `mapstructure:"global_flags"`
	Color       string            `mapstructure:"color"`
	ColorEnv    string            `mapstructure:"color_env"`
	MirrorAddr  string            `mapstructure:"mirror_addr"`
	SandboxEnv  map[string]string `mapstructure:"-"`
	LogFile     string            `mapstructure:"log_file"`
	Verbose     bool              `mapstructure:"verbose"`
}

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("executable", "eask")
	v.SetDefault("timeout", "30s")
	v.SetDefault("display", DisplayOverlay)
	v.SetDefault("strip_header", true)
	v.SetDefault("goto_end", true)
	v.SetDefault("show_tip", true)
	v.SetDefault("global_flags", []string{})
	v.SetDefault("color", ColorAuto)
	v.SetDefault("color_env", "EASK_HASCOLORS")
	v.SetDefault("mirror_addr", "")
	v.SetDefault("log_file", "")
	v.SetDefault("verbose", false)
}

// Load reads configuration into v and decodes it. cfgFile overrides the
// search for .easky.yaml in the working and home directories. A missing
// .env or config file is not an error.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	// .env is optional.
	_ = godotenv.Load()

	SetDefaults(v)
	v.SetEnvPrefix("EASKY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".easky")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return Decode(v)
}

// Decode builds a Config from v and validates it.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	// viper lowercases keys; environment names are upper case.
	cfg.SandboxEnv = make(map[string]string)
	for k, val := range v.GetStringMapString("sandbox.env") {
		cfg.SandboxEnv[strings.ToUpper(k)] = val
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the controller cannot run with.
func (c *Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Executable) == "" {
		problems = append(problems, "executable must not be empty")
	}
	if c.Timeout <= 0 {
		problems = append(problems, fmt.Sprintf("timeout must be positive, got: %v", c.Timeout))
	}
	switch c.Display {
	case DisplayOverlay, DisplaySurface:
	default:
		problems = append(problems, fmt.Sprintf("display must be %q or %q, got: %q", DisplayOverlay, DisplaySurface, c.Display))
	}
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		problems = append(problems, fmt.Sprintf("color must be auto, always or never, got: %q", c.Color))
	}
	if strings.TrimSpace(c.ColorEnv) == "" {
		problems = append(problems, "color_env must not be empty")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// ColorEnabled resolves the color mode against a terminal profile.
func (c *Config) ColorEnabled(profile termenv.Profile) bool {
	switch c.Color {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return profile != termenv.Ascii
	}
}

// ColorEnviron returns the variable that tells eask whether to emit color,
// resolved against the profile of stdout.
func (c *Config) ColorEnviron() []string {
	profile := termenv.NewOutput(os.Stdout).EnvColorProfile()
	return c.colorEnviron(profile)
}

func (c *Config) colorEnviron(profile termenv.Profile) []string {
	value := "0"
	if c.ColorEnabled(profile) {
		value = "1"
	}
	return []string{c.ColorEnv + "=" + value}
}
