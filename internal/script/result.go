// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package script

import (
	"strings"
	"unicode"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"

	"github.com/holomush/glyphmark/pkg/markup"
)

// directive converts a table returned by a script into a directive.
//
//	{channel = "f" | "b", color = "<colour spec>"}
//	{channel = "s", effect = "<sprite effect>"}
//	{channel = "e", mask = "<char>", case = "upper" | "lower"}
func (r *Resolver) directive(scriptName, command string, ret lua.LValue) (markup.Directive, error) {
	invalid := func(format string, args ...any) error {
		return oops.Code(CodeInvalidResult).
			In("lua").
			With("script", scriptName).
			With("command", command).
			Errorf(format, args...)
	}

	table, ok := ret.(*lua.LTable)
	if !ok {
		return nil, invalid("resolve returned %s, want table or nil", ret.Type())
	}

	channel, ok := markup.ChannelFromCode(stringField(table, "channel"))
	if !ok {
		return nil, invalid("channel must be f, b, s or e")
	}

	switch channel {
	case markup.Foreground, markup.Background:
		spec := stringField(table, "color")
		if spec == "" {
			return nil, invalid("color is required for channel %s", channel)
		}
		cs, found, err := markup.ParseColorSpec(spec, r.palette)
		if err != nil {
			return nil, invalid("invalid colour %q: %v", spec, err)
		}
		if !found {
			return nil, invalid("unknown colour %q", spec)
		}
		return markup.NewRecolorSpec(channel, cs), nil

	case markup.SpriteEffectChannel:
		effect := stringField(table, "effect")
		d, err := markup.NewSpriteEffect(effect)
		if err != nil {
			return nil, invalid("unknown sprite effect %q", effect)
		}
		return d, nil

	default:
		apply, err := effectFunc(stringField(table, "mask"), stringField(table, "case"))
		if err != nil {
			return nil, invalid("%v", err)
		}
		return markup.NewCustom(command, markup.Effect, apply), nil
	}
}

// effectFunc builds the glyph function of an effect result.
func effectFunc(mask, letterCase string) (markup.ApplyFunc, error) {
	var convert func(rune) rune
	switch strings.ToLower(letterCase) {
	case "":
	case "upper":
		convert = unicode.ToUpper
	case "lower":
		convert = unicode.ToLower
	default:
		return nil, oops.Errorf("case must be upper or lower, got %q", letterCase)
	}

	var maskRune rune
	if mask != "" {
		maskRune = []rune(mask)[0]
	}
	if maskRune == 0 && convert == nil {
		return nil, oops.Errorf("effect needs a mask or a case")
	}

	return func(g *markup.Glyph, _ *markup.ApplyContext) {
		if maskRune != 0 {
			g.Char = maskRune
			return
		}
		g.Char = convert(g.Char)
	}, nil
}

// stringField returns a string field of t, or "" when it is missing or not a
// string.
func stringField(t *lua.LTable, key string) string {
	if s, ok := t.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return ""
}
