// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package markup turns strings with embedded bracket commands into styled glyphs.
//
// A command has the shape [c:<name> <subcommand>] (a colon may replace the
// space). Built-in commands:
//
//	[c:r f:255,0,0]       foreground to RGB(255,0,0), alpha 255
//	[c:r b:default]       background back to the surface default
//	[c:r f:x,x,x,128]     keep RGB, set alpha 128
//	[c:r f:cornflowerblue] named palette colour
//	[c:s flip-horizontal] sprite orientation effect
//	[c:undo]              undo the most recent directive of any channel
//	[c:undo 2]            undo the two most recent directives
//	[c:undo 1:f]          undo the most recent foreground directive
//
// Directives stay active on their channel until undone. Each channel is a
// stack, and a combined stack records every push in order so that an
// unscoped undo removes the newest directive regardless of channel.
//
// Parsing is total: a command that cannot be resolved is emitted as literal
// text and Parse never fails. Unknown command names can be handled by a
// Resolver supplied per call with WithResolver.
package markup
