// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package markup

// Channel selects which stack a directive occupies.
type Channel int

// Channels. Only the first four own a stack.
const (
	Foreground Channel = iota
	Background
	SpriteEffectChannel
	Effect
	PureCommand
	Invalid
)

// stackCount is the number of channels that own a stack.
const stackCount = 4

// applyOrder is the order in which active directives touch a glyph.
var applyOrder = [stackCount]Channel{Foreground, Background, SpriteEffectChannel, Effect}

// String returns the channel name.
func (c Channel) String() string {
	switch c {
	case Foreground:
		return "foreground"
	case Background:
		return "background"
	case SpriteEffectChannel:
		return "sprite_effect"
	case Effect:
		return "effect"
	case PureCommand:
		return "pure_command"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Stacked reports whether directives on this channel are pushed onto a stack.
func (c Channel) Stacked() bool {
	return c >= Foreground && c < stackCount
}

// ChannelFromCode maps the single-letter scope codes used by undo and by
// script resolvers: f, b, s, e.
func ChannelFromCode(code string) (Channel, bool) {
	switch code {
	case "f":
		return Foreground, true
	case "b":
		return Background, true
	case "s":
		return SpriteEffectChannel, true
	case "e":
		return Effect, true
	default:
		return Invalid, false
	}
}
