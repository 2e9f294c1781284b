// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/holomush/glyphmark/internal/config"
	"github.com/holomush/glyphmark/internal/observability"
	"github.com/holomush/glyphmark/pkg/markup"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatANSI  = "ansi"
)

// Error codes for encoding.
const (
	CodeUnknownFormat = "UNKNOWN_FORMAT"
	CodeOutputFailed  = "OUTPUT_FAILED"
)

// Formats lists the supported output formats.
func Formats() []string {
	return []string{FormatTable, FormatJSON, FormatYAML, FormatANSI}
}

// Encode writes res to w in format. Write failures are counted per format.
func Encode(w io.Writer, format string, res *Result) error {
	var (
		buf bytes.Buffer
		err error
	)
	switch format {
	case FormatTable:
		err = encodeTable(&buf, res)
	case FormatJSON:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		err = enc.Encode(res)
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err = enc.Encode(res); err == nil {
			err = enc.Close()
		}
	case FormatANSI:
		err = encodeANSI(&buf, res)
	default:
		return oops.Code(CodeUnknownFormat).
			In("render").
			With("format", format).
			Hint("use one of: "+strings.Join(Formats(), ", ")).
			Errorf("unknown output format %q", format)
	}
	if err != nil {
		return oops.Code(CodeOutputFailed).In("render").With("format", format).Wrap(err)
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		observability.RecordOutputFailure(format)
		return oops.Code(CodeOutputFailed).In("render").With("format", format).Hint("failed to write output").Wrap(err)
	}
	return nil
}

func encodeTable(buf *bytes.Buffer, res *Result) error {
	tw := tabwriter.NewWriter(buf, 0, 0, 2, ' ', 0)
	for i, line := range res.Lines {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "line %d: %s\n", i+1, line.Text)
		if len(line.Glyphs) > 0 {
			fmt.Fprintln(tw, "  #\tchar\tfg\tbg\teffect")
			for j, g := range line.Glyphs {
				fmt.Fprintf(tw, "  %d\t%q\t%s\t%s\t%s\n", j, g.Char, g.Foreground, g.Background, g.Effect)
			}
		}
		// Flush so the next line's columns are sized independently.
		if err := tw.Flush(); err != nil {
			return err
		}
		for _, fb := range line.Fallbacks {
			fmt.Fprintf(buf, "  kept [c:%s] %s: %s\n", fb.Command, fb.Reason, fb.Message)
		}
	}

	if res.Open > 0 {
		fmt.Fprintf(buf, "\nopen directives: %d\n", res.Open)
	}
	if len(res.Rows) > 0 {
		fmt.Fprintln(buf, "\nsurface:")
		for _, row := range res.Rows {
			fmt.Fprintf(buf, "  |%s|\n", row)
		}
	}
	return nil
}

func encodeANSI(buf *bytes.Buffer, res *Result) error {
	for _, line := range res.Lines {
		glyphs, err := fromViews(line.Glyphs)
		if err != nil {
			return err
		}
		buf.WriteString(RenderANSI(glyphs))
		buf.WriteByte('\n')
	}
	return nil
}

// fromViews converts rendered glyph views back to glyphs.
func fromViews(views []GlyphView) (markup.ColoredString, error) {
	glyphs := make(markup.ColoredString, len(views))
	for i, v := range views {
		fg, err := config.ParseColor(v.Foreground, nil)
		if err != nil {
			return nil, err
		}
		bg, err := config.ParseColor(v.Background, nil)
		if err != nil {
			return nil, err
		}
		effect, _ := markup.ParseSpriteEffect(v.Effect)
		char, _ := utf8.DecodeRuneInString(v.Char)
		glyphs[i] = markup.Glyph{
			Char: char,
			Cell: markup.Cell{Foreground: fg, Background: bg, Effect: effect},
		}
	}
	return glyphs, nil
}
