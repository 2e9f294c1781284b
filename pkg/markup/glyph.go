// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package markup

import (
	"image/color"
	"strings"
)

// SpriteEffect is a bitmask of glyph orientation flags.
type SpriteEffect uint8

// SpriteNone leaves the glyph as drawn.
const SpriteNone SpriteEffect = 0

// Orientation flags.
const (
	SpriteFlipHorizontal SpriteEffect = 1 << iota
	SpriteFlipVertical

	SpriteFlipBoth = SpriteFlipHorizontal | SpriteFlipVertical
)

// String returns the markup name of the effect.
func (e SpriteEffect) String() string {
	switch e {
	case SpriteNone:
		return "none"
	case SpriteFlipHorizontal:
		return "flip-horizontal"
	case SpriteFlipVertical:
		return "flip-vertical"
	case SpriteFlipBoth:
		return "flip-both"
	default:
		return "unknown"
	}
}

// Has reports whether all bits of flag are set.
func (e SpriteEffect) Has(flag SpriteEffect) bool {
	return e&flag == flag
}

// Default colours used when no surface supplies its own.
var (
	DefaultForeground = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	DefaultBackground = color.RGBA{}
)

// Cell is the style of one grid position.
type Cell struct {
	Foreground color.RGBA
	Background color.RGBA
	Effect     SpriteEffect
}

// DefaultCell returns an unstyled cell: opaque white on transparent.
func DefaultCell() Cell {
	return Cell{
		Foreground: DefaultForeground,
		Background: DefaultBackground,
	}
}

// Glyph is one styled character.
type Glyph struct {
	Char rune
	Cell
}

// ColoredString is the ordered glyph sequence produced by Parse.
type ColoredString []Glyph

// String returns the characters without styling.
func (cs ColoredString) String() string {
	var b strings.Builder
	b.Grow(len(cs))
	for _, g := range cs {
		b.WriteRune(g.Char)
	}
	return b.String()
}

// Len returns the number of glyphs.
func (cs ColoredString) Len() int {
	return len(cs)
}
