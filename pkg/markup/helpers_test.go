// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package markup

import "image/color"

var (
	red   = color.RGBA{R: 255, A: 255}
	blue  = color.RGBA{B: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
)

// fakeSurface is a fixed list of cells with configurable defaults.
type fakeSurface struct {
	cells []Cell
	fg    color.RGBA
	bg    color.RGBA
}

func (s *fakeSurface) CellCount() int { return len(s.cells) }
func (s *fakeSurface) CellAt(i int) Cell { return s.cells[i] }
func (s *fakeSurface) DefaultForeground() color.RGBA { return s.fg }
func (s *fakeSurface) DefaultBackground() color.RGBA { return s.bg }

// recordingObserver keeps every callback for inspection.
type recordingObserver struct {
	executed  []string
	fallbacks []string
	errs      []error
}

func (o *recordingObserver) Executed(name string, _ Directive) {
	o.executed = append(o.executed, name)
}

func (o *recordingObserver) Fallback(command string, err error) {
	o.fallbacks = append(o.fallbacks, command)
	o.errs = append(o.errs, err)
}

// valueDirective is a non-pointer directive that cannot be compared.
type valueDirective struct {
	fn func()
}

func (valueDirective) Channel() Channel { return Foreground }

func (valueDirective) Apply(*Glyph, *ApplyContext) {}
