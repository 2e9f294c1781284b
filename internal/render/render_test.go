// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package render

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/glyphmark/internal/config"
	"github.com/holomush/glyphmark/internal/observability"
	"github.com/holomush/glyphmark/pkg/errutil"
	"github.com/holomush/glyphmark/pkg/markup"
)

const (
	white       = "#ffffffff"
	black       = "#000000ff"
	transparent = "#00000000"
	redHex      = "#ff0000ff"
)

// smallConfig is a 10x3 white-on-black surface.
func smallConfig() *config.Config {
	cfg := config.Default()
	cfg.Surface.Width = 10
	cfg.Surface.Height = 3
	return cfg
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(smallConfig(), opts...)
	require.NoError(t, err)
	return e
}

func TestRender_WithoutSurface(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Render(context.Background(), Request{Lines: []string{"hi"}, Index: NoSurface})
	require.NoError(t, err)

	require.Len(t, res.Lines, 1)
	line := res.Lines[0]
	assert.Equal(t, "hi", line.Input)
	assert.Equal(t, "hi", line.Text)
	assert.Equal(t, NoSurface, line.Start)
	assert.Equal(t, 0, line.Printed)
	assert.Equal(t, GlyphView{Char: "h", Foreground: white, Background: transparent}, line.Glyphs[0])
	assert.Empty(t, res.Rows)
}

func TestRender_SeedsFromSurface(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Render(context.Background(), Request{Lines: []string{"hi"}, Index: 0})
	require.NoError(t, err)

	line := res.Lines[0]
	assert.Equal(t, 0, line.Start)
	assert.Equal(t, 2, line.Printed)
	assert.Equal(t, black, line.Glyphs[0].Background, "unstyled glyphs take the surface background")
	require.Len(t, res.Rows, 3)
	assert.Equal(t, "hi        ", res.Rows[0])
	assert.Equal(t, strings.Repeat(" ", 10), res.Rows[1])
}

func TestRender_AppliesCommands(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Render(context.Background(), Request{
		Lines: []string{"[c:r f:255,0,0]a[c:s flip-both]b"},
		Index: NoSurface,
	})
	require.NoError(t, err)

	glyphs := res.Lines[0].Glyphs
	require.Len(t, glyphs, 2)
	assert.Equal(t, redHex, glyphs[0].Foreground)
	assert.Empty(t, glyphs[0].Effect)
	assert.Equal(t, "flip-both", glyphs[1].Effect)
	assert.Equal(t, 2, res.Open)
}

func TestRender_Carry(t *testing.T) {
	tests := []struct {
		name     string
		carry    bool
		wantFg   string
		wantOpen int
	}{
		{name: "carried", carry: true, wantFg: redHex, wantOpen: 1},
		{name: "reset per line", carry: false, wantFg: white, wantOpen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t)

			res, err := e.Render(context.Background(), Request{
				Lines: []string{"[c:r f:red]a", "b"},
				Index: NoSurface,
				Carry: tt.carry,
			})
			require.NoError(t, err)

			assert.Equal(t, tt.wantFg, res.Lines[1].Glyphs[0].Foreground)
			assert.Equal(t, tt.wantOpen, res.Open)
		})
	}
}

func TestRender_LinesStartOnNewRows(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Render(context.Background(), Request{
		Lines: []string{"abcdefghijkl", "", "z"},
		Index: 0,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, res.Lines[0].Start)
	assert.Equal(t, 12, res.Lines[0].Printed)
	assert.Equal(t, 20, res.Lines[1].Start, "wrapped line pushes the next one down")
	assert.Equal(t, NoSurface, res.Lines[2].Start, "rows past the surface are not printed")
	assert.Equal(t, 0, res.Lines[2].Printed)
	assert.Equal(t, "z", res.Lines[2].Text)
	assert.Equal(t, []string{"abcdefghij", "kl        ", strings.Repeat(" ", 10)}, res.Rows)
}

func TestRender_CollectsFallbacks(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Render(context.Background(), Request{
		Lines: []string{"[c:bogus]x[c:r f:1,2]"},
		Index: NoSurface,
	})
	require.NoError(t, err)

	line := res.Lines[0]
	assert.Equal(t, "[c:bogus]x[c:r f:1,2]", line.Text)
	require.Len(t, line.Fallbacks, 2)
	assert.Equal(t, "bogus", line.Fallbacks[0].Command)
	assert.Equal(t, markup.CodeUnknownCommand, line.Fallbacks[0].Reason)
	assert.Equal(t, "r f:1,2", line.Fallbacks[1].Command)
	assert.Equal(t, markup.CodeMalformedCommand, line.Fallbacks[1].Reason)
	assert.NotEmpty(t, line.Fallbacks[1].Message)
}

func TestRender_RejectsIndexOffSurface(t *testing.T) {
	e := newTestEngine(t)

	for _, index := range []int{-2, 30, 1000} {
		res, err := e.Render(context.Background(), Request{Lines: []string{"x"}, Index: index})
		require.Error(t, err, index)
		assert.Nil(t, res)
		errutil.AssertErrorCode(t, err, CodeInvalidRequest)
	}
}

func TestRender_UsesResolver(t *testing.T) {
	upper := markup.ResolverFunc(func(name, _ string, _ markup.Surface, _ *markup.Stacks) (markup.Directive, error) {
		if name != "up" {
			return nil, nil
		}
		return markup.NewCustom(name, markup.Effect, func(g *markup.Glyph, _ *markup.ApplyContext) {
			if g.Char >= 'a' && g.Char <= 'z' {
				g.Char -= 'a' - 'A'
			}
		}), nil
	})
	e := newTestEngine(t, WithResolver(upper))

	res, err := e.Render(context.Background(), Request{Lines: []string{"a[c:up]bc"}, Index: NoSurface})
	require.NoError(t, err)

	assert.Equal(t, "aBC", res.Lines[0].Text)
}

func TestRender_UsesConfiguredPalette(t *testing.T) {
	cfg := smallConfig()
	cfg.Palette = map[string]string{"ember": "#c85014"}
	e, err := NewEngine(cfg)
	require.NoError(t, err)

	res, err := e.Render(context.Background(), Request{Lines: []string{"[c:r f:ember]x"}, Index: NoSurface})
	require.NoError(t, err)

	assert.Equal(t, "#c85014ff", res.Lines[0].Glyphs[0].Foreground)
}

func TestRender_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	e := newTestEngine(t, WithMetrics(m))

	_, err := e.Render(context.Background(), Request{
		Lines:  []string{"[c:r f:red]ab", "[c:nope]"},
		Index:  NoSurface,
		Source: "cli",
	})
	require.NoError(t, err)

	assert.InDelta(t, 2, testutil.ToFloat64(m.ParsesTotal.WithLabelValues("cli")), 0)
	assert.InDelta(t, 10, testutil.ToFloat64(m.GlyphsTotal), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.DirectivesTotal.WithLabelValues("r", "foreground")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.FallbacksTotal.WithLabelValues(markup.CodeUnknownCommand)), 0)
}

func TestNewEngine_RejectsBadPalette(t *testing.T) {
	cfg := smallConfig()
	cfg.Palette = map[string]string{"bad name": "red"}

	e, err := NewEngine(cfg)

	require.Error(t, err)
	assert.Nil(t, e)
	errutil.AssertErrorCode(t, err, config.CodeInvalidConfig)
}

func TestRender_LogsCarryRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	e := newTestEngine(t, WithLogger(logger))

	_, err := e.Render(context.Background(), Request{
		Lines: []string{"[c:r f:red]a[c:zzz]"},
		Index: NoSurface,
		ID:    "01JTESTREQUEST",
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2, buf.String())
	for _, line := range lines {
		assert.Contains(t, line, `"request_id":"01JTESTREQUEST"`)
	}
}
