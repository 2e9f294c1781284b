// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package markup

import "image/color"

// Directive is a parsed command that styles glyphs while it is the top of its
// channel stack.
//
// Stacks compare directives by identity, so implementations must be pointer
// types: two directives with equal fields are still distinct entries.
type Directive interface {
	// Channel reports the stack the directive belongs on.
	Channel() Channel
	// Apply styles a glyph that is being synthesized.
	Apply(g *Glyph, ctx *ApplyContext)
}

// ApplyContext describes the glyph being synthesized.
type ApplyContext struct {
	// Surface is the surface supplied to Parse, or nil.
	Surface Surface
	// SurfaceIndex is the linear surface index the glyph was seeded from, or
	// -1 when it was seeded with DefaultCell.
	SurfaceIndex int
	// Position is the rune index of the glyph's character in Input. A
	// directive may advance it to consume the characters that follow; the
	// scanner resumes after the new position, which is clamped to Input.
	Position int
	// Input is the full string being parsed.
	Input []rune
	// Stacks is the stack set of the parse.
	Stacks *Stacks
}

// DefaultForeground returns the surface default foreground, or
// DefaultForeground without a surface.
func (c *ApplyContext) DefaultForeground() color.RGBA {
	if c == nil || c.Surface == nil {
		return DefaultForeground
	}
	return c.Surface.DefaultForeground()
}

// DefaultBackground returns the surface default background, or
// DefaultBackground without a surface.
func (c *ApplyContext) DefaultBackground() color.RGBA {
	if c == nil || c.Surface == nil {
		return DefaultBackground
	}
	return c.Surface.DefaultBackground()
}

// ApplyFunc styles a glyph on behalf of a Custom directive.
type ApplyFunc func(g *Glyph, ctx *ApplyContext)

// Custom is a directive built by a resolver from an arbitrary function.
type Custom struct {
	name    string
	channel Channel
	apply   ApplyFunc
}

// NewCustom creates a custom directive on the given channel. A nil apply
// leaves glyphs untouched.
func NewCustom(name string, channel Channel, apply ApplyFunc) *Custom {
	return &Custom{name: name, channel: channel, apply: apply}
}

// Name returns the command name the directive was created for.
func (d *Custom) Name() string {
	return d.name
}

// Channel implements Directive. A nil Custom is Invalid.
func (d *Custom) Channel() Channel {
	if d == nil {
		return Invalid
	}
	return d.channel
}

// Apply implements Directive.
func (d *Custom) Apply(g *Glyph, ctx *ApplyContext) {
	if d.apply != nil {
		d.apply(g, ctx)
	}
}
