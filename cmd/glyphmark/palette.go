// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/glyphmark/internal/config"
)

// NewPaletteCmd creates the palette subcommand.
func NewPaletteCmd() *cobra.Command {
	var match string

	cmd := &cobra.Command{
		Use:   "palette",
		Short: "List the colour names usable in markup",
		Long: `List the colour names usable in markup with their values, including
names added by the palette section of the configuration.`,
		Example: `  glyphmark palette --match '*blue*'`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPalette(cmd, match)
		},
	}

	cmd.Flags().StringVar(&match, "match", "*", "glob pattern the names must match")

	return cmd
}

func runPalette(cmd *cobra.Command, match string) error {
	pattern, err := glob.Compile(strings.ToLower(match))
	if err != nil {
		return oops.In("cli").With("match", match).Hint("invalid glob pattern").Wrap(err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	palette, err := cfg.MarkupPalette()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	for _, name := range palette.Names() {
		if !pattern.Match(name) {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\n", name, config.FormatColor(palette[name]))
	}
	if err := tw.Flush(); err != nil {
		return oops.In("cli").Wrap(err)
	}
	return nil
}
