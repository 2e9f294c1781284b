// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package markup

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecolor(ch Channel) *Recolor {
	return NewRecolorSpec(ch, ColorSpec{Value: red})
}

func TestStacks_PushRoutesByChannel(t *testing.T) {
	s := NewStacks()
	fg := newTestRecolor(Foreground)
	bg := newTestRecolor(Background)
	sp := &SpriteEffectDirective{Effect: SpriteFlipBoth}
	fx := NewCustom("fx", Effect, nil)

	for _, d := range []Directive{fg, bg, sp, fx} {
		s.Push(d)
	}

	assert.Same(t, fg, s.Top(Foreground))
	assert.Same(t, bg, s.Top(Background))
	assert.Same(t, sp, s.Top(SpriteEffectChannel))
	assert.Same(t, fx, s.Top(Effect))
	assert.Equal(t, []Directive{fg, bg, sp, fx}, s.All())
	assert.Equal(t, 4, s.Total())
}

func TestStacks_PushIgnoresUnstackedChannels(t *testing.T) {
	s := NewStacks()

	s.Push(nil)
	s.Push(NewCustom("pure", PureCommand, nil))
	s.Push(NewCustom("bad", Invalid, nil))

	assert.Equal(t, 0, s.Total())
	for _, ch := range applyOrder {
		assert.Equal(t, 0, s.Len(ch))
	}
}

func TestStacks_PopAny(t *testing.T) {
	s := NewStacks()
	fg1 := newTestRecolor(Foreground)
	bg := newTestRecolor(Background)
	fg2 := newTestRecolor(Foreground)
	s.Push(fg1)
	s.Push(bg)
	s.Push(fg2)

	assert.Same(t, fg2, s.PopAny())
	assert.Same(t, fg1, s.Top(Foreground))
	assert.Same(t, bg, s.PopAny())
	assert.Nil(t, s.Top(Background))
	assert.Same(t, fg1, s.PopAny())
	assert.Nil(t, s.PopAny(), "empty stack pops nil")
	assert.Equal(t, 0, s.Total())
}

func TestStacks_PopChannelRemovesFromCombined(t *testing.T) {
	s := NewStacks()
	fg := newTestRecolor(Foreground)
	bg1 := newTestRecolor(Background)
	bg2 := newTestRecolor(Background)
	s.Push(bg1)
	s.Push(fg)
	s.Push(bg2)

	assert.Same(t, fg, s.PopChannel(Foreground))
	assert.Equal(t, []Directive{bg1, bg2}, s.All())
	assert.Nil(t, s.PopChannel(Foreground))
	assert.Nil(t, s.PopChannel(PureCommand))
	assert.Nil(t, s.PopChannel(Invalid))
}

func TestStacks_IdentityNotValue(t *testing.T) {
	s := NewStacks()
	// Same values, distinct instances.
	a := newTestRecolor(Foreground)
	x := newTestRecolor(Background)
	b := newTestRecolor(Foreground)
	s.Push(a)
	s.Push(x)
	s.Push(b)

	popped := s.PopChannel(Foreground)
	require.Same(t, b, popped)

	all := s.All()
	require.Len(t, all, 2)
	assert.Same(t, a, all[0])
	assert.Same(t, x, all[1])
}

func TestStacks_Reset(t *testing.T) {
	s := NewStacks()
	s.Push(newTestRecolor(Foreground))
	s.Push(newTestRecolor(Background))

	s.Reset()

	assert.Equal(t, 0, s.Total())
	assert.Nil(t, s.Top(Foreground))
	assert.Nil(t, s.Top(Background))
}

// TestStacks_RandomOperationsKeepInvariant checks that after any sequence of
// operations each channel stack is the chronological subsequence of the
// combined stack.
func TestStacks_RandomOperationsKeepInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s := NewStacks()
	// model is the expected combined stack.
	model := []Directive{}

	for step := 0; step < 2000; step++ {
		switch op := rng.Intn(3); op {
		case 0:
			ch := applyOrder[rng.Intn(len(applyOrder))]
			d := NewCustom("d", ch, nil)
			s.Push(d)
			model = append(model, d)
		case 1:
			got := s.PopAny()
			if len(model) == 0 {
				require.Nil(t, got)
				continue
			}
			require.Same(t, model[len(model)-1], got)
			model = model[:len(model)-1]
		case 2:
			ch := applyOrder[rng.Intn(len(applyOrder))]
			got := s.PopChannel(ch)
			idx := -1
			for i := len(model) - 1; i >= 0; i-- {
				if model[i].Channel() == ch {
					idx = i
					break
				}
			}
			if idx == -1 {
				require.Nil(t, got)
				continue
			}
			require.Same(t, model[idx], got)
			model = append(model[:idx], model[idx+1:]...)
		}

		require.Equal(t, model, s.All(), "combined stack diverged at step %d", step)
		for _, ch := range applyOrder {
			var want []Directive
			for _, d := range model {
				if d.Channel() == ch {
					want = append(want, d)
				}
			}
			if want == nil {
				want = []Directive{}
			}
			require.Equal(t, want, s.Channel(ch), "channel %s diverged at step %d", ch, step)
		}
	}
}
