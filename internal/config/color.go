// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config

import (
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/samber/oops"

	"github.com/holomush/glyphmark/pkg/markup"
)

// ParseColor parses a configured colour: "#rgb", "#rrggbb" or "#rrggbbaa"
// hex, "r,g,b[,a]" components, or a name from palette (the built-in table
// when palette is nil). Keep components and "default" are markup-only and
// rejected here.
func ParseColor(spec string, palette markup.Palette) (color.RGBA, error) {
	spec = strings.TrimSpace(spec)
	if strings.HasPrefix(spec, "#") {
		return parseHex(spec)
	}

	cs, found, err := markup.ParseColorSpec(spec, palette)
	if err != nil {
		return color.RGBA{}, oops.In("config").With("color", spec).Hint("components must be 0-255").Errorf("invalid colour components %q", spec)
	}
	if !found {
		return color.RGBA{}, oops.In("config").With("color", spec).Errorf("unknown colour %q", spec)
	}
	if cs.Default || cs.KeepRed || cs.KeepGreen || cs.KeepBlue || cs.KeepAlpha {
		return color.RGBA{}, oops.In("config").With("color", spec).Errorf("colour %q must be a concrete value", spec)
	}
	return cs.Value, nil
}

// parseHex parses #rgb, #rrggbb and #rrggbbaa.
func parseHex(spec string) (color.RGBA, error) {
	switch len(spec) {
	case 4, 7, 9:
	default:
		return color.RGBA{}, oops.In("config").With("color", spec).Hint("use #rgb, #rrggbb or #rrggbbaa").Errorf("invalid hex colour %q", spec)
	}

	alpha := uint8(255)
	rgb := spec
	if len(spec) == 9 {
		a, err := strconv.ParseUint(spec[7:], 16, 8)
		if err != nil {
			return color.RGBA{}, oops.In("config").With("color", spec).Wrapf(err, "invalid alpha in %q", spec)
		}
		alpha = uint8(a)
		rgb = spec[:7]
	}

	c, err := colorful.Hex(rgb)
	if err != nil {
		return color.RGBA{}, oops.In("config").With("color", spec).Wrapf(err, "invalid hex colour %q", spec)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: alpha}, nil
}

// FormatColor renders c as #rrggbbaa.
func FormatColor(c color.RGBA) string {
	hex := colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}.Hex()
	return hex + strconv.FormatUint(uint64(c.A)|0x100, 16)[1:]
}
