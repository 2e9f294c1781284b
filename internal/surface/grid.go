// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package surface provides an in-memory cell grid that parsed glyphs can be
// seeded from and printed onto.
package surface

import (
	"image/color"

	"github.com/samber/oops"

	"github.com/holomush/glyphmark/pkg/markup"
)

// CodeInvalidSurface is reported for grids that cannot be built.
const CodeInvalidSurface = "INVALID_SURFACE"

// Compile-time interface check.
var _ markup.Surface = (*Grid)(nil)

// Grid is a fixed-size, row-major grid of cells.
type Grid struct {
	width  int
	height int
	fg     color.RGBA
	bg     color.RGBA
	cells  []markup.Cell
	chars  []rune
}

// New creates a width x height grid filled with the given default colours.
func New(width, height int, fg, bg color.RGBA) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, oops.Code(CodeInvalidSurface).
			In("surface").
			With("width", width).
			With("height", height).
			Errorf("surface dimensions must be positive")
	}

	g := &Grid{
		width:  width,
		height: height,
		fg:     fg,
		bg:     bg,
		cells:  make([]markup.Cell, width*height),
		chars:  make([]rune, width*height),
	}
	g.Fill(g.blank())
	return g, nil
}

func (g *Grid) blank() markup.Cell {
	return markup.Cell{Foreground: g.fg, Background: g.bg}
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// CellCount implements markup.Surface.
func (g *Grid) CellCount() int { return len(g.cells) }

// CellAt implements markup.Surface. Indexes outside the grid return a blank
// cell in the default colours.
func (g *Grid) CellAt(index int) markup.Cell {
	if index < 0 || index >= len(g.cells) {
		return g.blank()
	}
	return g.cells[index]
}

// CharAt returns the character printed at index, or a space.
func (g *Grid) CharAt(index int) rune {
	if index < 0 || index >= len(g.chars) {
		return ' '
	}
	return g.chars[index]
}

// DefaultForeground implements markup.Surface.
func (g *Grid) DefaultForeground() color.RGBA { return g.fg }

// DefaultBackground implements markup.Surface.
func (g *Grid) DefaultBackground() color.RGBA { return g.bg }

// Index converts a column and row to a linear index. It returns -1 when the
// position is off the grid.
func (g *Grid) Index(x, y int) int {
	if x < 0 || y < 0 || x >= g.width || y >= g.height {
		return -1
	}
	return y*g.width + x
}

// Set replaces the style of one cell. It reports whether index was on the grid.
func (g *Grid) Set(index int, cell markup.Cell) bool {
	if index < 0 || index >= len(g.cells) {
		return false
	}
	g.cells[index] = cell
	return true
}

// Fill sets every cell to cell and clears the characters.
func (g *Grid) Fill(cell markup.Cell) {
	for i := range g.cells {
		g.cells[i] = cell
		g.chars[i] = ' '
	}
}

// Print writes glyphs into consecutive cells starting at index, wrapping at
// row ends and clipping at the end of the grid. It returns the number of
// glyphs written.
func (g *Grid) Print(index int, glyphs markup.ColoredString) int {
	if index < 0 {
		return 0
	}
	n := 0
	for _, glyph := range glyphs {
		pos := index + n
		if pos >= len(g.cells) {
			break
		}
		g.cells[pos] = glyph.Cell
		g.chars[pos] = glyph.Char
		n++
	}
	return n
}

// Row returns the characters of row y, or "" when y is off the grid.
func (g *Grid) Row(y int) string {
	if y < 0 || y >= g.height {
		return ""
	}
	start := y * g.width
	return string(g.chars[start : start+g.width])
}
