// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package markup

import (
	"fmt"
	"image/color"
	"reflect"
	"strings"
)

// Surface is the read-only view of the grid a string will be printed to.
type Surface interface {
	// CellCount returns the number of cells on the surface.
	CellCount() int
	// CellAt returns the style of the cell at a linear index.
	CellAt(index int) Cell
	// DefaultForeground returns the configured default foreground.
	DefaultForeground() color.RGBA
	// DefaultBackground returns the configured default background.
	DefaultBackground() color.RGBA
}

// Resolver builds directives for command names the built-in table does not
// know. Returning a nil directive and nil error means "not mine"; the command
// is then emitted as literal text.
type Resolver interface {
	Resolve(name, remainder string, surface Surface, stacks *Stacks) (Directive, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(name, remainder string, surface Surface, stacks *Stacks) (Directive, error)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(name, remainder string, surface Surface, stacks *Stacks) (Directive, error) {
	return f(name, remainder, surface, stacks)
}

// Observer is told about every command the scanner sees.
type Observer interface {
	// Executed is called after a command resolved and, unless it is a pure
	// command, was pushed.
	Executed(name string, d Directive)
	// Fallback is called when a command is emitted as literal text.
	Fallback(command string, err error)
}

type nopObserver struct{}

func (nopObserver) Executed(string, Directive) {}
func (nopObserver) Fallback(string, error)     {}

type multiObserver []Observer

func (m multiObserver) Executed(name string, d Directive) {
	for _, o := range m {
		o.Executed(name, d)
	}
}

func (m multiObserver) Fallback(command string, err error) {
	for _, o := range m {
		o.Fallback(command, err)
	}
}

// Observers combines several observers into one. Nil entries are skipped.
func Observers(observers ...Observer) Observer {
	var m multiObserver
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

// Option configures a Parse call.
type Option func(*parser)

// WithSurface seeds glyphs from surface cells and resolves "default" colours
// against the surface. The character at rune position i of the input is
// seeded from cell index+i; positions past the surface use DefaultCell. Pass
// index -1 to use the surface for defaults only.
func WithSurface(surface Surface, index int) Option {
	return func(p *parser) {
		p.surface = surface
		p.index = index
	}
}

// WithPrintSeeding seeds the n-th emitted glyph from cell index+n instead of
// using its rune position, so glyphs pick up the cells they will be printed
// over. It only matters together with WithSurface.
func WithPrintSeeding() Option {
	return func(p *parser) {
		p.printSeeding = true
	}
}

// WithStacks parses against an existing stack set so that directives left
// open by an earlier call stay active.
func WithStacks(stacks *Stacks) Option {
	return func(p *parser) {
		p.stacks = stacks
	}
}

// WithResolver handles command names outside the built-in table.
func WithResolver(r Resolver) Option {
	return func(p *parser) {
		p.resolver = r
	}
}

// WithObserver reports executed commands and literal fallbacks.
func WithObserver(o Observer) Option {
	return func(p *parser) {
		p.observer = o
	}
}

// WithPalette replaces the colour table used for named colours.
func WithPalette(palette Palette) Option {
	return func(p *parser) {
		p.palette = palette
	}
}

// parser is the state of one Parse call.
type parser struct {
	surface  Surface
	index    int
	stacks   *Stacks
	resolver Resolver
	observer Observer
	palette  Palette

	printSeeding bool
}

// Parse converts value into glyphs, executing the commands it contains.
// It never fails: commands that cannot be resolved are kept as literal text.
func Parse(value string, opts ...Option) ColoredString {
	p := &parser{index: -1}
	for _, opt := range opts {
		opt(p)
	}
	if p.stacks == nil {
		p.stacks = NewStacks()
	}
	if p.observer == nil {
		p.observer = nopObserver{}
	}

	runes := []rune(value)
	glyphs := make(ColoredString, 0, len(runes))
	ctx := &ApplyContext{
		Surface: p.surface,
		Input:   runes,
		Stacks:  p.stacks,
	}

	for i := 0; i < len(runes); i++ {
		if runes[i] == '[' {
			if end, ok := p.command(runes, i); ok {
				i = end
				continue
			}
		}

		g := Glyph{Char: runes[i], Cell: DefaultCell()}
		offset := i
		if p.printSeeding {
			offset = len(glyphs)
		}
		ctx.SurfaceIndex = p.surfaceIndex(offset)
		if ctx.SurfaceIndex != -1 {
			g.Cell = p.surface.CellAt(ctx.SurfaceIndex)
		}
		ctx.Position = i

		for _, ch := range applyOrder {
			if d := p.stacks.Top(ch); d != nil {
				d.Apply(&g, ctx)
			}
		}
		glyphs = append(glyphs, g)

		// Directives may consume the characters that follow.
		i = min(max(ctx.Position, i), len(runes)-1)
	}

	return glyphs
}

// surfaceIndex maps an offset from the seed index to a surface cell, or -1.
func (p *parser) surfaceIndex(n int) int {
	if p.surface == nil || p.index < 0 {
		return -1
	}
	idx := p.index + n
	if idx >= p.surface.CellCount() {
		return -1
	}
	return idx
}

// command tries to execute the command starting at runes[start]. It returns
// the index of the closing ']' when the command was consumed.
func (p *parser) command(runes []rune, start int) (int, bool) {
	if start+4 >= len(runes) || runes[start+1] != 'c' || runes[start+2] != ':' {
		return 0, false
	}
	end := -1
	for j := start + 3; j < len(runes); j++ {
		if runes[j] == ']' {
			end = j
			break
		}
	}
	if end == -1 {
		return 0, false
	}

	text := string(runes[start+3 : end])
	name, remainder := splitCommand(text)

	d, err := p.resolve(name, remainder)
	if err != nil {
		p.observer.Fallback(text, err)
		return 0, false
	}

	p.stacks.Push(d)
	p.observer.Executed(name, d)
	return end, true
}

// splitCommand separates the command name from its subcommand at the first
// space or colon. The name is lower-cased.
func splitCommand(text string) (name, remainder string) {
	if i := strings.IndexAny(text, " :"); i != -1 {
		return strings.ToLower(text[:i]), text[i+1:]
	}
	return strings.ToLower(text), ""
}

// resolve builds the directive for a command. Any outcome other than a
// directive on a usable channel is returned as an error.
func (p *parser) resolve(name, remainder string) (Directive, error) {
	var (
		d   Directive
		err error
	)
	switch name {
	case "r":
		var r *Recolor
		if r, err = NewRecolor(remainder, p.palette); err == nil {
			d = r
		}
	case "s":
		var s *SpriteEffectDirective
		if s, err = NewSpriteEffect(remainder); err == nil {
			d = s
		}
	case "undo":
		var u *Undo
		if u, err = NewUndo(remainder, p.stacks); err == nil {
			d = u
		}
	default:
		return p.resolveCustom(name, remainder)
	}
	if err != nil {
		return nil, err
	}
	if d.Channel() == Invalid {
		return nil, ErrInvalidDirective(name, remainder)
	}
	return d, nil
}

// resolveCustom delegates to the resolver, turning panics into errors.
func (p *parser) resolveCustom(name, remainder string) (d Directive, err error) {
	if p.resolver == nil {
		return nil, ErrUnknownCommand(name)
	}

	defer func() {
		if r := recover(); r != nil {
			d, err = nil, ErrResolverFailed(name, fmt.Errorf("panic: %v", r))
		}
	}()

	d, err = p.resolver.Resolve(name, remainder, p.surface, p.stacks)
	if err != nil {
		return nil, ErrResolverFailed(name, err)
	}
	if d == nil {
		return nil, ErrUnknownCommand(name)
	}
	// Stacks match directives by identity, which needs comparable values.
	if reflect.TypeOf(d).Kind() != reflect.Pointer {
		return nil, ErrInvalidDirective(name, remainder)
	}
	// Channel is read inside the recover scope: a typed nil may panic here.
	switch ch := d.Channel(); {
	case ch == Invalid:
		return nil, ErrInvalidDirective(name, remainder)
	case !ch.Stacked() && ch != PureCommand:
		return nil, ErrInvalidDirective(name, remainder)
	}
	return d, nil
}
