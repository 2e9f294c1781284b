// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package markup

import (
	"image/color"
	"sort"
	"strings"

	"golang.org/x/image/colornames"
)

// Palette maps lower-case colour names to colours.
type Palette map[string]color.RGBA

// builtinPalette holds the SVG 1.1 named colours plus "transparent".
// It is built once at init and never written afterwards.
var builtinPalette = func() Palette {
	p := make(Palette, len(colornames.Map)+1)
	for name, c := range colornames.Map {
		p[name] = c
	}
	p["transparent"] = color.RGBA{}
	return p
}()

// BuiltinPalette returns a copy of the built-in named colours.
func BuiltinPalette() Palette {
	return builtinPalette.With(nil)
}

// LookupColor finds a built-in colour by case-insensitive name.
func LookupColor(name string) (color.RGBA, bool) {
	c, ok := builtinPalette[strings.ToLower(name)]
	return c, ok
}

// Lookup finds a colour by case-insensitive name. A nil palette falls back to
// the built-in table.
func (p Palette) Lookup(name string) (color.RGBA, bool) {
	if p == nil {
		return LookupColor(name)
	}
	c, ok := p[strings.ToLower(name)]
	return c, ok
}

// With returns a new palette holding p's entries overlaid with ext. Names in
// ext are lower-cased.
func (p Palette) With(ext Palette) Palette {
	out := make(Palette, len(p)+len(ext))
	for name, c := range p {
		out[name] = c
	}
	for name, c := range ext {
		out[strings.ToLower(name)] = c
	}
	return out
}

// Names returns the palette names in sorted order.
func (p Palette) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
