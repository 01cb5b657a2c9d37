package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	FontSize  int
	Color     string
	Position  string
	OutSubdir string
	FontPath  string
	Margin    int
	LogLevel  string
}

// Keys shared by flags, environment variables (PHOTOSTAMP_ prefix, dashes
// as underscores) and config files.
const (
	KeyFontSize  = "font-size"
	KeyColor     = "color"
	KeyPosition  = "position"
	KeyOutSubdir = "out-subdir"
	KeyFont      = "font"
	KeyMargin    = "margin"
	KeyLogLevel  = "log-level"
	KeyConfig    = "config"
)

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.IntP(KeyFontSize, "s", 10, "font size in pixels")
	fs.StringP(KeyColor, "c", "#FFFFFF", "text color, name or hex (#rrggbb or #rrggbbaa)")
	fs.StringP(KeyPosition, "p", "bottom-right", "position: top-left|top-right|bottom-left|bottom-right|center")
	fs.StringP(KeyOutSubdir, "o", "_watermark", "output subdirectory name")
	fs.StringP(KeyFont, "f", "", "font path (.ttf/.otf)")
	fs.Int(KeyMargin, 10, "distance in pixels between text and image edges")
	fs.String(KeyLogLevel, "info", "log level: debug|info|warn|error")
	fs.String(KeyConfig, "", "config file (yaml, toml or json)")
}

// Load resolves the configuration from fs, the environment and the optional
// config file, in decreasing priority.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PHOTOSTAMP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}
	if file := v.GetString(KeyConfig); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	cfg := &Config{
		FontSize:  v.GetInt(KeyFontSize),
		Color:     v.GetString(KeyColor),
		Position:  v.GetString(KeyPosition),
		OutSubdir: v.GetString(KeyOutSubdir),
		FontPath:  v.GetString(KeyFont),
		Margin:    v.GetInt(KeyMargin),
		LogLevel:  v.GetString(KeyLogLevel),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.FontSize <= 0 {
		return fmt.Errorf("font size must be positive, got %d", c.FontSize)
	}
	if c.Margin < 0 {
		return fmt.Errorf("margin must not be negative, got %d", c.Margin)
	}
	if strings.TrimSpace(c.OutSubdir) == "" {
		return errors.New("output subdirectory must not be empty")
	}
	if filepath.IsAbs(c.OutSubdir) {
		return fmt.Errorf("output subdirectory must be relative, got %q", c.OutSubdir)
	}
	return nil
}
