// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads glyphmark settings from defaults, an optional YAML
// file and command-line flags, in that order of precedence.
package config

import (
	"image/color"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/glyphmark/internal/logging"
	"github.com/holomush/glyphmark/pkg/markup"
)

// CodeInvalidConfig is reported for configuration that cannot be loaded or
// fails validation.
const CodeInvalidConfig = "INVALID_CONFIG"

// Limits on the surface grid.
const (
	maxSurfaceWidth  = 1024
	maxSurfaceHeight = 1024
)

// Config is the full glyphmark configuration.
type Config struct {
	Surface SurfaceConfig     `koanf:"surface" yaml:"surface" json:"surface,omitempty"`
	Log     LogConfig         `koanf:"log" yaml:"log" json:"log,omitempty"`
	Serve   ServeConfig       `koanf:"serve" yaml:"serve" json:"serve,omitempty"`
	Scripts []string          `koanf:"scripts" yaml:"scripts" json:"scripts,omitempty" jsonschema:"description=Lua resolver scripts loaded in order"`
	Palette map[string]string `koanf:"palette" yaml:"palette" json:"palette,omitempty" jsonschema:"description=Extra colour names mapped to colour specs"`
}

// SurfaceConfig describes the grid glyphs are seeded from and printed to.
type SurfaceConfig struct {
	Width      int    `koanf:"width" yaml:"width" json:"width,omitempty" jsonschema:"minimum=1,maximum=1024,default=80"`
	Height     int    `koanf:"height" yaml:"height" json:"height,omitempty" jsonschema:"minimum=1,maximum=1024,default=25"`
	Foreground string `koanf:"foreground" yaml:"foreground" json:"foreground,omitempty" jsonschema:"description=Default foreground colour,default=white"`
	Background string `koanf:"background" yaml:"background" json:"background,omitempty" jsonschema:"description=Default background colour,default=black"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Format string `koanf:"format" yaml:"format" json:"format,omitempty" jsonschema:"enum=json,enum=text,default=json"`
	Level  string `koanf:"level" yaml:"level" json:"level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,default=info"`
}

// ServeConfig configures the HTTP render service.
type ServeConfig struct {
	Addr  string  `koanf:"addr" yaml:"addr" json:"addr,omitempty" jsonschema:"description=Listen address for glyphmark serve,default=127.0.0.1:9180"`
	Burst int     `koanf:"burst" yaml:"burst" json:"burst,omitempty" jsonschema:"description=Render requests a client may make in a burst,minimum=1,default=20"`
	Rate  float64 `koanf:"rate" yaml:"rate" json:"rate,omitempty" jsonschema:"description=Sustained render requests per second per client,exclusiveMinimum=0,default=10"`
}

// defaults are loaded before any file or flag.
var defaults = map[string]any{
	"surface.width":      80,
	"surface.height":     25,
	"surface.foreground": "white",
	"surface.background": "black",
	"log.format":         logging.FormatJSON,
	"log.level":          "info",
	"serve.addr":         "127.0.0.1:9180",
	"serve.burst":        20,
	"serve.rate":         10.0,
}

// flagKeys maps command-line flag names to configuration keys. Flags not
// listed here are not configuration.
var flagKeys = map[string]string{
	"log-format": "log.format",
	"log-level":  "log.level",
	"width":      "surface.width",
	"height":     "surface.height",
	"foreground": "surface.foreground",
	"background": "surface.background",
	"addr":       "serve.addr",
}

// Default returns the configuration with no file or flags applied.
func Default() *Config {
	cfg, err := Load("", nil)
	if err != nil {
		// The built-in defaults always validate.
		panic(err)
	}
	return cfg
}

// Load builds the configuration. path may be empty; flags may be nil.
// Flags override the file only when they were set on the command line.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")
	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return nil, oops.Code(CodeInvalidConfig).In("config").With("key", key).Wrap(err)
		}
	}

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // path is operator supplied
		if err != nil {
			return nil, oops.Code(CodeInvalidConfig).In("config").With("path", path).Hint("failed to read config file").Wrap(err)
		}
		if err := ValidateSchema(data); err != nil {
			return nil, oops.Code(CodeInvalidConfig).In("config").With("path", path).Hint(FormatSchemaError(err)).Wrap(err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code(CodeInvalidConfig).In("config").With("path", path).Hint("failed to parse config file").Wrap(err)
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code(CodeInvalidConfig).In("config").Hint("failed to apply flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code(CodeInvalidConfig).In("config").Hint("failed to decode configuration").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every value that Load cannot check structurally.
func (c *Config) Validate() error {
	invalid := func(key string, format string, args ...any) error {
		return oops.Code(CodeInvalidConfig).In("config").With("key", key).Errorf(format, args...)
	}

	if c.Surface.Width < 1 || c.Surface.Width > maxSurfaceWidth {
		return invalid("surface.width", "surface.width must be between 1 and %d, got %d", maxSurfaceWidth, c.Surface.Width)
	}
	if c.Surface.Height < 1 || c.Surface.Height > maxSurfaceHeight {
		return invalid("surface.height", "surface.height must be between 1 and %d, got %d", maxSurfaceHeight, c.Surface.Height)
	}

	if c.Log.Format != logging.FormatJSON && c.Log.Format != logging.FormatText {
		return invalid("log.format", "log.format must be 'json' or 'text', got %q", c.Log.Format)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level", "log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}

	if c.Serve.Addr == "" {
		return invalid("serve.addr", "serve.addr is required")
	}
	if c.Serve.Burst < 1 {
		return invalid("serve.burst", "serve.burst must be at least 1, got %d", c.Serve.Burst)
	}
	if c.Serve.Rate <= 0 {
		return invalid("serve.rate", "serve.rate must be positive, got %g", c.Serve.Rate)
	}

	for i, s := range c.Scripts {
		if strings.TrimSpace(s) == "" {
			return invalid("scripts", "scripts[%d] is empty", i)
		}
	}

	_, _, err := c.SurfaceColors()
	return err
}

// MarkupPalette returns the built-in palette extended with the configured
// names. Extension values may use built-in names but not other extensions.
func (c *Config) MarkupPalette() (markup.Palette, error) {
	if len(c.Palette) == 0 {
		return markup.BuiltinPalette(), nil
	}
	ext := make(markup.Palette, len(c.Palette))
	for name, spec := range c.Palette {
		if name == "" || strings.ContainsAny(name, ", :]") || strings.EqualFold(name, "default") {
			return nil, oops.Code(CodeInvalidConfig).In("config").With("key", "palette").With("name", name).
				Errorf("palette name %q cannot be used in markup", name)
		}
		col, err := ParseColor(spec, nil)
		if err != nil {
			return nil, oops.Code(CodeInvalidConfig).In("config").With("key", "palette."+name).Wrap(err)
		}
		ext[name] = col
	}
	return markup.BuiltinPalette().With(ext), nil
}

// SurfaceColors resolves the configured default colours.
func (c *Config) SurfaceColors() (fg, bg color.RGBA, err error) {
	palette, err := c.MarkupPalette()
	if err != nil {
		return fg, bg, err
	}
	if fg, err = ParseColor(c.Surface.Foreground, palette); err != nil {
		return fg, bg, oops.Code(CodeInvalidConfig).In("config").With("key", "surface.foreground").Wrap(err)
	}
	if bg, err = ParseColor(c.Surface.Background, palette); err != nil {
		return fg, bg, oops.Code(CodeInvalidConfig).In("config").With("key", "surface.background").Wrap(err)
	}
	return fg, bg, nil
}
