// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/glyphmark/pkg/errutil"
)

func TestParseSpriteEffect(t *testing.T) {
	tests := []struct {
		input string
		want  SpriteEffect
		ok    bool
	}{
		{input: "none", want: SpriteNone, ok: true},
		{input: "None", want: SpriteNone, ok: true},
		{input: "flip-horizontal", want: SpriteFlipHorizontal, ok: true},
		{input: "FlipHorizontally", want: SpriteFlipHorizontal, ok: true},
		{input: "flip_vertical", want: SpriteFlipVertical, ok: true},
		{input: "flipvertically", want: SpriteFlipVertical, ok: true},
		{input: " flip-both ", want: SpriteFlipBoth, ok: true},
		{input: "", ok: false},
		{input: "sideways", ok: false},
		{input: "1", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseSpriteEffect(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSpriteEffect_StringRoundTrips(t *testing.T) {
	for _, e := range []SpriteEffect{SpriteNone, SpriteFlipHorizontal, SpriteFlipVertical, SpriteFlipBoth} {
		got, ok := ParseSpriteEffect(e.String())
		require.True(t, ok, e.String())
		assert.Equal(t, e, got)
	}
	assert.Equal(t, "unknown", SpriteEffect(8).String())
}

func TestSpriteEffect_Has(t *testing.T) {
	assert.True(t, SpriteFlipBoth.Has(SpriteFlipHorizontal))
	assert.True(t, SpriteFlipBoth.Has(SpriteFlipVertical))
	assert.False(t, SpriteFlipVertical.Has(SpriteFlipHorizontal))
	assert.True(t, SpriteFlipVertical.Has(SpriteNone))
}

func TestNewSpriteEffect(t *testing.T) {
	d, err := NewSpriteEffect("flip-vertical")
	require.NoError(t, err)
	assert.Equal(t, SpriteEffectChannel, d.Channel())

	g := Glyph{Char: 'v', Cell: Cell{Effect: SpriteFlipHorizontal}}
	d.Apply(&g, nil)
	assert.Equal(t, SpriteFlipVertical, g.Effect, "flags are replaced, not merged")

	_, err = NewSpriteEffect("spin")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, CodeMalformedCommand)
}
