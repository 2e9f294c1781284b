// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package markup

import (
	"strings"
)

// spriteEffectNames maps normalized effect names to flags. Names are matched
// after lower-casing and dropping '-' and '_'.
var spriteEffectNames = map[string]SpriteEffect{
	"none":             SpriteNone,
	"fliphorizontal":   SpriteFlipHorizontal,
	"fliphorizontally": SpriteFlipHorizontal,
	"flipvertical":     SpriteFlipVertical,
	"flipvertically":   SpriteFlipVertical,
	"flipboth":         SpriteFlipBoth,
}

// ParseSpriteEffect resolves an effect name such as "flip-horizontal".
func ParseSpriteEffect(name string) (SpriteEffect, bool) {
	key := strings.NewReplacer("-", "", "_", "").Replace(strings.ToLower(strings.TrimSpace(name)))
	e, ok := spriteEffectNames[key]
	return e, ok
}

// SpriteEffectDirective sets the orientation flags of glyphs.
type SpriteEffectDirective struct {
	Effect SpriteEffect
}

// NewSpriteEffect parses a sprite effect subcommand.
func NewSpriteEffect(subcommand string) (*SpriteEffectDirective, error) {
	e, ok := ParseSpriteEffect(subcommand)
	if !ok {
		return nil, ErrMalformed("s", subcommand, "expected none, flip-horizontal, flip-vertical or flip-both")
	}
	return &SpriteEffectDirective{Effect: e}, nil
}

// Channel implements Directive.
func (d *SpriteEffectDirective) Channel() Channel {
	return SpriteEffectChannel
}

// Apply implements Directive. The stored flags replace the glyph's flags.
func (d *SpriteEffectDirective) Apply(g *Glyph, _ *ApplyContext) {
	g.Effect = d.Effect
}
