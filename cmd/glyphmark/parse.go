// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bufio"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/glyphmark/internal/observability"
	"github.com/holomush/glyphmark/internal/render"
)

// parseOptions holds the flags of the parse command.
type parseOptions struct {
	format  string
	index   int
	carry   bool
	scripts []string
	metrics bool
}

// NewParseCmd creates the parse subcommand.
func NewParseCmd() *cobra.Command {
	opts := &parseOptions{}

	cmd := &cobra.Command{
		Use:   "parse [text...]",
		Short: "Parse markup and print the styled glyphs",
		Long: `Parse markup and print the styled glyphs. Arguments are joined into a
single line; with no arguments every line of standard input is parsed.`,
		Example: `  glyphmark parse '[c:r f:red]Hello[c:undo] world'
  glyphmark parse --format json --index 0 < banner.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "o", render.FormatTable, "output format ("+strings.Join(render.Formats(), ", ")+")")
	cmd.Flags().IntVar(&opts.index, "index", render.NoSurface, "surface cell the first line starts at (-1 = do not seed or print)")
	cmd.Flags().BoolVar(&opts.carry, "carry", false, "keep open directives active across lines")
	cmd.Flags().StringArrayVar(&opts.scripts, "script", nil, "Lua resolver script (repeatable, after configured scripts)")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "print engine metrics after the output")
	addSurfaceFlags(cmd)

	return cmd
}

// addSurfaceFlags registers the flags that override the surface config.
func addSurfaceFlags(cmd *cobra.Command) {
	cmd.Flags().Int("width", 0, "surface width in cells")
	cmd.Flags().Int("height", 0, "surface height in cells")
	cmd.Flags().String("foreground", "", "default foreground colour")
	cmd.Flags().String("background", "", "default background colour")
}

func runParse(cmd *cobra.Command, opts *parseOptions, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	lines := []string{strings.Join(args, " ")}
	if len(args) == 0 {
		if lines, err = readLines(cmd.InOrStdin()); err != nil {
			return err
		}
	}

	var (
		reg        *prometheus.Registry
		engineOpts []render.Option
	)
	if opts.metrics {
		reg = prometheus.NewRegistry()
		engineOpts = append(engineOpts, render.WithMetrics(observability.NewMetrics(reg)))
	}

	engine, closeScripts, err := newEngine(cfg, opts.scripts, engineOpts...)
	if err != nil {
		return err
	}
	defer closeScripts()

	res, err := engine.Render(cmd.Context(), render.Request{
		Lines:  lines,
		Index:  opts.index,
		Carry:  opts.carry,
		Source: "cli",
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := render.Encode(out, opts.format, res); err != nil {
		return err
	}

	if reg != nil {
		return writeMetrics(out, reg)
	}
	return nil
}

// readLines returns every line of r without line terminators.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), render.MaxRequestBytes)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, oops.In("cli").Hint("failed to read standard input").Wrap(err)
	}
	return lines, nil
}

// writeMetrics dumps reg in the Prometheus text format.
func writeMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return oops.In("cli").Hint("failed to gather metrics").Wrap(err)
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return oops.In("cli").Wrap(err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return oops.In("cli").Hint("failed to write metrics").Wrap(err)
		}
	}
	return nil
}
