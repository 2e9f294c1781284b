// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"log/slog"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/glyphmark/internal/config"
	"github.com/holomush/glyphmark/internal/logging"
	"github.com/holomush/glyphmark/internal/render"
	"github.com/holomush/glyphmark/internal/script"
	"github.com/holomush/glyphmark/internal/xdg"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the glyphmark CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "glyphmark",
		Short: "glyphmark - inline colour markup for text grids",
		Long: `glyphmark parses [c:...] colour markup into styled glyphs, either
from the command line or as an HTTP render service.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: XDG_CONFIG_HOME/glyphmark/config.yaml)")
	cmd.PersistentFlags().String("log-format", "", "log format (json or text)")
	cmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn or error)")

	cmd.AddCommand(NewParseCmd())
	cmd.AddCommand(NewPaletteCmd())
	cmd.AddCommand(NewSchemaCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewInitCmd())

	return cmd
}

// loadConfig reads the configuration for cmd, applying its flags, and sets up
// the default logger from it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := configFile
	if path == "" {
		// Without a config directory there is no default file to load.
		if _, err := xdg.ConfigDir(); err != nil {
			slog.Debug("no config directory, using defaults", "error", err)
		} else if path, err = xdg.DefaultConfigFile(); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logging.SetDefault("glyphmark", version, cfg.Log.Format, level)
	if path != "" {
		slog.Debug("configuration loaded", "path", path)
	}
	return cfg, nil
}

// newEngine builds a render engine with the configured and extra scripts
// loaded. The returned close function releases the script states.
func newEngine(cfg *config.Config, extraScripts []string, opts ...render.Option) (*render.Engine, func(), error) {
	closeFn := func() {}

	scripts := append(append([]string{}, cfg.Scripts...), extraScripts...)
	if len(scripts) > 0 {
		palette, err := cfg.MarkupPalette()
		if err != nil {
			return nil, closeFn, err
		}
		resolver := script.NewResolver(script.WithPalette(palette))
		for _, path := range scripts {
			if err := resolver.LoadFile(path); err != nil {
				resolver.Close()
				return nil, closeFn, err
			}
			slog.Debug("script loaded", "path", path)
		}
		closeFn = resolver.Close
		opts = append(opts, render.WithResolver(resolver))
	}

	engine, err := render.NewEngine(cfg, opts...)
	if err != nil {
		closeFn()
		return nil, func() {}, oops.In("cli").Wrap(err)
	}
	return engine, closeFn, nil
}
