// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package render runs markup over batches of lines against a configured
// surface. It is shared by the parse command and the HTTP render service.
package render

import (
	"context"
	"image/color"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/glyphmark/internal/config"
	"github.com/holomush/glyphmark/internal/logging"
	"github.com/holomush/glyphmark/internal/observability"
	"github.com/holomush/glyphmark/internal/surface"
	"github.com/holomush/glyphmark/pkg/markup"
)

var tracer = otel.Tracer("glyphmark/render")

// CodeInvalidRequest marks a request the engine refuses to render.
const CodeInvalidRequest = "INVALID_REQUEST"

// NoSurface as a request index parses without seeding or printing.
const NoSurface = -1

// Request is one batch of lines to render.
type Request struct {
	// Lines are parsed in order. Each line after the first starts on the row
	// following the previous line's last printed glyph.
	Lines []string `json:"lines" yaml:"lines"`
	// Index is the surface cell the first line starts at, or NoSurface.
	Index int `json:"index" yaml:"index"`
	// Carry keeps directives left open by one line active on the next.
	Carry bool `json:"carry" yaml:"carry"`
	// Source labels the request in metrics and traces.
	Source string `json:"-" yaml:"-"`
	// ID identifies the request in traces and logs; optional.
	ID string `json:"-" yaml:"-"`
}

// Result is the rendered batch.
type Result struct {
	Lines []Line `json:"lines" yaml:"lines"`
	// Open is the number of directives still stacked after the last line.
	Open int `json:"open" yaml:"open"`
	// Rows is the surface after printing; empty when nothing was printed.
	Rows []string `json:"rows,omitempty" yaml:"rows,omitempty"`
}

// Line is the outcome of parsing one input line.
type Line struct {
	Input string `json:"input" yaml:"input"`
	Text  string `json:"text" yaml:"text"`
	// Start is the first surface cell of the line, or NoSurface.
	Start     int         `json:"start" yaml:"start"`
	Printed   int         `json:"printed" yaml:"printed"`
	Glyphs    []GlyphView `json:"glyphs" yaml:"glyphs"`
	Fallbacks []Fallback  `json:"fallbacks,omitempty" yaml:"fallbacks,omitempty"`
}

// GlyphView is a glyph with its colours rendered as #rrggbbaa.
type GlyphView struct {
	Char       string `json:"char" yaml:"char"`
	Foreground string `json:"fg" yaml:"fg"`
	Background string `json:"bg" yaml:"bg"`
	Effect     string `json:"effect,omitempty" yaml:"effect,omitempty"`
}

// Fallback is a command that was kept as literal text.
type Fallback struct {
	Command string `json:"command" yaml:"command"`
	Reason  string `json:"reason" yaml:"reason"`
	Message string `json:"message" yaml:"message"`
}

// Engine renders requests. It is safe for concurrent use when its resolver is.
type Engine struct {
	palette  markup.Palette
	resolver markup.Resolver
	metrics  *observability.Metrics
	logger   *slog.Logger
	width    int
	height   int
	fg       color.RGBA
	bg       color.RGBA
}

// Option configures an Engine.
type Option func(*Engine)

// WithResolver handles commands outside the built-in table.
func WithResolver(r markup.Resolver) Option {
	return func(e *Engine) {
		e.resolver = r
	}
}

// WithMetrics records parses and command outcomes.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithLogger sets the logger used for command outcomes.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// NewEngine creates an engine for the surface and palette in cfg.
func NewEngine(cfg *config.Config, opts ...Option) (*Engine, error) {
	palette, err := cfg.MarkupPalette()
	if err != nil {
		return nil, err
	}
	fg, bg, err := cfg.SurfaceColors()
	if err != nil {
		return nil, err
	}

	e := &Engine{
		palette: palette,
		width:   cfg.Surface.Width,
		height:  cfg.Surface.Height,
		fg:      fg,
		bg:      bg,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	// Fail here rather than on the first request.
	if _, err := e.newGrid(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) newGrid() (*surface.Grid, error) {
	return surface.New(e.width, e.height, e.fg, e.bg)
}

// Render parses every line of req onto a fresh surface.
func (e *Engine) Render(ctx context.Context, req Request) (result *Result, err error) {
	source := req.Source
	if source == "" {
		source = "unknown"
	}

	ctx, span := tracer.Start(ctx, "render.batch",
		trace.WithAttributes(
			attribute.String("render.source", source),
			attribute.Int("render.lines", len(req.Lines)),
			attribute.Bool("render.carry", req.Carry),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	logger := e.logger
	if req.ID != "" {
		span.SetAttributes(attribute.String("render.request_id", req.ID))
		logger = logger.With("request_id", req.ID)
	}

	grid, err := e.newGrid()
	if err != nil {
		return nil, err
	}
	if req.Index < NoSurface || req.Index >= grid.CellCount() {
		return nil, oops.Code(CodeInvalidRequest).
			In("render").
			With("index", req.Index).
			With("cells", grid.CellCount()).
			Errorf("index %d is outside the %dx%d surface", req.Index, grid.Width(), grid.Height())
	}

	result = &Result{Lines: make([]Line, 0, len(req.Lines))}
	stacks := markup.NewStacks()
	cursor := req.Index
	printed := false

	for _, input := range req.Lines {
		if !req.Carry {
			stacks.Reset()
		}

		collect := &collector{}
		observers := []markup.Observer{collect, logging.NewObserver(ctx, logger)}
		if e.metrics != nil {
			observers = append(observers, e.metrics.Observer())
		}

		start := time.Now()
		glyphs := markup.Parse(input,
			markup.WithSurface(grid, cursor),
			markup.WithPrintSeeding(),
			markup.WithStacks(stacks),
			markup.WithResolver(e.resolver),
			markup.WithObserver(markup.Observers(observers...)),
			markup.WithPalette(e.palette),
		)
		if e.metrics != nil {
			e.metrics.RecordParse(source, time.Since(start), glyphs.Len())
		}

		line := Line{
			Input:     input,
			Text:      glyphs.String(),
			Start:     cursor,
			Glyphs:    views(glyphs),
			Fallbacks: collect.fallbacks,
		}
		if cursor != NoSurface {
			line.Printed = grid.Print(cursor, glyphs)
			printed = true
			cursor = nextRow(cursor, line.Printed, grid)
		}
		result.Lines = append(result.Lines, line)
	}

	result.Open = stacks.Total()
	if printed {
		result.Rows = make([]string, grid.Height())
		for y := range result.Rows {
			result.Rows[y] = grid.Row(y)
		}
	}

	span.SetAttributes(attribute.Int("render.open", result.Open))
	return result, nil
}

// nextRow returns the first cell of the row after a line of n glyphs printed
// at start, or NoSurface when that row is off the grid.
func nextRow(start, n int, grid *surface.Grid) int {
	last := start + max(n, 1) - 1
	next := (last/grid.Width() + 1) * grid.Width()
	if next >= grid.CellCount() {
		return NoSurface
	}
	return next
}

func views(glyphs markup.ColoredString) []GlyphView {
	out := make([]GlyphView, len(glyphs))
	for i, g := range glyphs {
		out[i] = GlyphView{
			Char:       string(g.Char),
			Foreground: config.FormatColor(g.Foreground),
			Background: config.FormatColor(g.Background),
		}
		if g.Effect != markup.SpriteNone {
			out[i].Effect = g.Effect.String()
		}
	}
	return out
}

// collector keeps the fallbacks of one line.
type collector struct {
	fallbacks []Fallback
}

func (c *collector) Executed(string, markup.Directive) {}

func (c *collector) Fallback(command string, err error) {
	c.fallbacks = append(c.fallbacks, Fallback{
		Command: command,
		Reason:  observability.FallbackReason(err),
		Message: err.Error(),
	})
}
