// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package render

import (
	"image/color"
	"strconv"
	"strings"

	"github.com/holomush/glyphmark/pkg/markup"
)

// ANSI escape code constants
const (
	ansiReset = "\x1b[0m"
	ansiFg    = "\x1b[38;2;"
	ansiBg    = "\x1b[48;2;"
)

// segment is a run of characters sharing one cell style.
type segment struct {
	text  strings.Builder
	style markup.Cell
}

// RenderANSI renders glyphs with 24-bit colour escape codes. Transparent
// colours fall back to the terminal default. Sprite effects have no terminal
// equivalent and are dropped.
func RenderANSI(glyphs markup.ColoredString) string {
	var (
		buf      strings.Builder
		segments []*segment
	)
	for _, g := range glyphs {
		if n := len(segments); n == 0 || !sameColors(segments[n-1].style, g.Cell) {
			segments = append(segments, &segment{style: g.Cell})
		}
		segments[len(segments)-1].text.WriteRune(g.Char)
	}

	for _, seg := range segments {
		renderSegmentANSI(&buf, seg)
	}
	return buf.String()
}

func sameColors(a, b markup.Cell) bool {
	return a.Foreground == b.Foreground && a.Background == b.Background
}

// renderSegmentANSI renders a single segment to ANSI codes.
func renderSegmentANSI(buf *strings.Builder, seg *segment) {
	hasStyle := seg.style.Foreground.A != 0 || seg.style.Background.A != 0
	if !hasStyle {
		buf.WriteString(seg.text.String())
		return
	}

	if seg.style.Foreground.A != 0 {
		writeColor(buf, ansiFg, seg.style.Foreground)
	}
	if seg.style.Background.A != 0 {
		writeColor(buf, ansiBg, seg.style.Background)
	}
	buf.WriteString(seg.text.String())
	buf.WriteString(ansiReset)
}

func writeColor(buf *strings.Builder, prefix string, c color.RGBA) {
	buf.WriteString(prefix)
	buf.WriteString(strconv.Itoa(int(c.R)))
	buf.WriteByte(';')
	buf.WriteString(strconv.Itoa(int(c.G)))
	buf.WriteByte(';')
	buf.WriteString(strconv.Itoa(int(c.B)))
	buf.WriteByte('m')
}
