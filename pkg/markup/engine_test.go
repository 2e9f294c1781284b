// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package markup_test

import (
	"image/color"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/glyphmark/pkg/markup"
)

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

func foregrounds(s markup.ColoredString) []color.RGBA {
	out := make([]color.RGBA, len(s))
	for i, g := range s {
		out[i] = g.Foreground
	}
	return out
}

var _ = Describe("Parse", func() {
	Describe("text preservation", func() {
		It("drops every executed command from the output", func() {
			result := markup.Parse("[c:r f:red]He[c:r b:blue]llo[c:undo 2] [c:s flip-both]world[c:undo]")
			Expect(result.String()).To(Equal("Hello world"))
		})

		It("keeps rejected commands as literal characters", func() {
			result := markup.Parse("x[c:nope]y")
			Expect(result.String()).To(Equal("x[c:nope]y"))
			Expect(result).To(HaveLen(len("x[c:nope]y")))
		})

		It("keeps a trailing bracket without enough room for a command", func() {
			Expect(markup.Parse("ab[c:]").String()).To(Equal("ab[c:]"))
		})
	})

	Describe("stack discipline", func() {
		It("returns to the previous colour when the newest recolor is undone", func() {
			result := markup.Parse("[c:r f:red]a[c:r f:blue]b[c:undo]c[c:undo]d")
			Expect(foregrounds(result)).To(Equal([]color.RGBA{red, blue, red, markup.DefaultForeground}))
		})

		It("scopes undo to a single channel", func() {
			result := markup.Parse("[c:r f:red][c:r b:blue][c:undo 1:f]a")
			Expect(result[0].Foreground).To(Equal(markup.DefaultForeground))
			Expect(result[0].Background).To(Equal(blue))
		})

		It("ignores undo on empty stacks", func() {
			Expect(markup.Parse("[c:undo 5]a")[0].Cell).To(Equal(markup.DefaultCell()))
		})
	})

	Describe("carried state", func() {
		It("continues styling across calls that share stacks", func() {
			stacks := markup.NewStacks()

			markup.Parse("[c:r f:red]open", markup.WithStacks(stacks))
			second := markup.Parse("more[c:undo]done", markup.WithStacks(stacks))

			Expect(second[0].Foreground).To(Equal(red))
			Expect(second[len(second)-1].Foreground).To(Equal(markup.DefaultForeground))
			Expect(stacks.Total()).To(BeZero())
		})
	})

	Describe("custom resolvers", func() {
		var shout markup.Resolver

		BeforeEach(func() {
			shout = markup.ResolverFunc(func(name, _ string, _ markup.Surface, _ *markup.Stacks) (markup.Directive, error) {
				if name != "shout" {
					return nil, nil
				}
				return markup.NewCustom("shout", markup.Effect, func(g *markup.Glyph, _ *markup.ApplyContext) {
					if g.Char >= 'a' && g.Char <= 'z' {
						g.Char -= 'a' - 'A'
					}
				}), nil
			})
		})

		It("applies effect directives to following glyphs until undone", func() {
			result := markup.Parse("a[c:shout]bc[c:undo 1:e]d", markup.WithResolver(shout))
			Expect(result.String()).To(Equal("aBCd"))
		})

		It("falls back to literal text for names it does not know", func() {
			result := markup.Parse("[c:whisper]a", markup.WithResolver(shout))
			Expect(result.String()).To(Equal("[c:whisper]a"))
		})
	})
})
