// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/holomush/glyphmark/internal/config"
	"github.com/holomush/glyphmark/internal/xdg"
)

// CodeConfigExists marks an init that would overwrite a config file.
const CodeConfigExists = "CONFIG_EXISTS"

// NewInitCmd creates the init subcommand.
func NewInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write the default configuration to --config, or to
XDG_CONFIG_HOME/glyphmark/config.yaml when --config is not given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}

func runInit(cmd *cobra.Command, force bool) error {
	path := configFile
	if path == "" {
		dir, err := xdg.ConfigDir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "config.yaml")
	}

	if !force {
		if _, err := os.Stat(path); err == nil {
			return oops.Code(CodeConfigExists).In("cli").With("path", path).
				Hint("use --force to overwrite").
				Errorf("%s already exists", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return oops.In("cli").With("path", path).Wrap(err)
		}
	}

	data, err := defaultConfigYAML()
	if err != nil {
		return err
	}

	if err := xdg.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return oops.In("cli").With("path", path).Hint("failed to write config file").Wrap(err)
	}

	cmd.Printf("Wrote %s\n", path)
	return nil
}

// defaultConfigYAML renders the default configuration with a schema modeline.
func defaultConfigYAML() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# yaml-language-server: $schema=" + config.SchemaID + "\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(config.Default()); err != nil {
		return nil, oops.In("cli").Hint("failed to encode default config").Wrap(err)
	}
	if err := enc.Close(); err != nil {
		return nil, oops.In("cli").Wrap(err)
	}
	return buf.Bytes(), nil
}
