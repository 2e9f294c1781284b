// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package markup

import (
	"image/color"
	"strconv"
	"strings"

	"github.com/samber/oops"
)

// ColorSpec is a parsed colour expression.
type ColorSpec struct {
	// Default selects the surface default colour of the target channel.
	Default bool
	// Keep flags components that retain the glyph's current value.
	KeepRed, KeepGreen, KeepBlue, KeepAlpha bool
	// Value holds the literal components.
	Value color.RGBA
}

// Resolve computes the colour for a glyph whose current colour is current.
// def is the default used when the spec is Default.
func (s ColorSpec) Resolve(current, def color.RGBA) color.RGBA {
	if s.Default {
		return def
	}
	out := current
	if !s.KeepRed {
		out.R = s.Value.R
	}
	if !s.KeepGreen {
		out.G = s.Value.G
	}
	if !s.KeepBlue {
		out.B = s.Value.B
	}
	if !s.KeepAlpha {
		out.A = s.Value.A
	}
	return out
}

// ParseColorSpec parses "default", "r,g,b[,a]" with optional "x" keep
// components, or a palette name. found is false when a bare name is not in
// the palette; err is set when a component list is malformed.
func ParseColorSpec(spec string, palette Palette) (cs ColorSpec, found bool, err error) {
	if strings.Contains(spec, ",") {
		cs, err = parseComponents(spec)
		return cs, err == nil, err
	}
	if spec == "default" {
		return ColorSpec{Default: true}, true, nil
	}
	c, ok := palette.Lookup(spec)
	if !ok {
		return ColorSpec{}, false, nil
	}
	return ColorSpec{Value: c}, true, nil
}

func parseComponents(spec string) (ColorSpec, error) {
	parts := strings.Split(strings.Trim(spec, " "), ",")
	if len(parts) < 3 || len(parts) > 4 {
		return ColorSpec{}, errMalformedColor(spec, "expected r,g,b or r,g,b,a")
	}

	cs := ColorSpec{Value: color.RGBA{A: 255}}
	targets := [4]struct {
		keep  *bool
		value *uint8
	}{
		{&cs.KeepRed, &cs.Value.R},
		{&cs.KeepGreen, &cs.Value.G},
		{&cs.KeepBlue, &cs.Value.B},
		{&cs.KeepAlpha, &cs.Value.A},
	}
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "x" {
			*targets[i].keep = true
			continue
		}
		v, err := strconv.ParseUint(part, 10, 8)
		if err != nil {
			return ColorSpec{}, errMalformedColor(spec, "components must be 0-255 or x")
		}
		*targets[i].value = uint8(v)
	}
	return cs, nil
}

func errMalformedColor(spec, reason string) error {
	return oops.Code(CodeMalformedCommand).
		In("markup").
		With("color", spec).
		Hint(reason).
		Errorf("invalid colour: %s", spec)
}

// Recolor sets the foreground or background colour of glyphs.
type Recolor struct {
	channel Channel
	Spec    ColorSpec
}

// NewRecolor parses a recolor subcommand "<channel>:<colour>". Channel "b"
// targets the background; anything else the foreground. A colour name missing
// from the palette yields a directive on the Invalid channel rather than an
// error. A nil palette uses the built-in table.
func NewRecolor(subcommand string, palette Palette) (*Recolor, error) {
	params := strings.Split(subcommand, ":")
	if len(params) != 2 {
		return nil, ErrMalformed("r", subcommand, "expected <f|b>:<colour>")
	}

	channel := Foreground
	if params[0] == "b" {
		channel = Background
	}

	spec, found, err := ParseColorSpec(params[1], palette)
	if err != nil {
		return nil, oops.Code(CodeMalformedCommand).
			In("markup").
			With("command", "r").
			With("subcommand", subcommand).
			Wrapf(err, "command is invalid for r: %s", subcommand)
	}
	if !found {
		channel = Invalid
	}
	return &Recolor{channel: channel, Spec: spec}, nil
}

// NewRecolorSpec creates a recolor directive from an already parsed spec.
// Channel must be Foreground or Background.
func NewRecolorSpec(channel Channel, spec ColorSpec) *Recolor {
	if channel != Foreground && channel != Background {
		channel = Invalid
	}
	return &Recolor{channel: channel, Spec: spec}
}

// Channel implements Directive.
func (r *Recolor) Channel() Channel {
	return r.channel
}

// Apply implements Directive.
func (r *Recolor) Apply(g *Glyph, ctx *ApplyContext) {
	switch r.channel {
	case Background:
		g.Background = r.Spec.Resolve(g.Background, ctx.DefaultBackground())
	case Foreground:
		g.Foreground = r.Spec.Resolve(g.Foreground, ctx.DefaultForeground())
	}
}
