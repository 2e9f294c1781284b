// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package markup

import (
	"strconv"
	"strings"
)

// Undo pops directives off a stack set. It runs when it is constructed and is
// never pushed itself.
type Undo struct {
	// Times is the number of pops requested.
	Times int
	// Scope is the channel popped, or PureCommand for any channel.
	Scope Channel
	// Popped holds the directives removed, newest first.
	Popped []Directive
}

// NewUndo parses "<times>[:<scope>]" and immediately pops from stacks.
// Times defaults to 1. Scope is f, b, e, s, or a (any channel, the default).
// Popping an empty stack does nothing.
func NewUndo(subcommand string, stacks *Stacks) (*Undo, error) {
	parts := strings.SplitN(subcommand, ":", 3)

	u := &Undo{Times: 1, Scope: PureCommand}
	if len(parts) > 1 && parts[1] != "a" {
		scope, ok := ChannelFromCode(parts[1])
		if !ok {
			return nil, ErrMalformed("undo", subcommand, "scope must be f, b, e, s or a")
		}
		u.Scope = scope
	}

	if parts[0] != "" {
		times, err := strconv.Atoi(parts[0])
		if err != nil || times < 0 {
			return nil, ErrMalformed("undo", subcommand, "times must be a non-negative integer")
		}
		u.Times = times
	}

	u.run(stacks)
	return u, nil
}

func (u *Undo) run(stacks *Stacks) {
	if stacks == nil {
		return
	}
	for range u.Times {
		var d Directive
		if u.Scope == PureCommand {
			d = stacks.PopAny()
		} else {
			d = stacks.PopChannel(u.Scope)
		}
		if d == nil {
			// Every further pop is a no-op too.
			return
		}
		u.Popped = append(u.Popped, d)
	}
}

// Channel implements Directive. Undo is always a PureCommand.
func (u *Undo) Channel() Channel {
	return PureCommand
}

// Apply implements Directive and does nothing.
func (u *Undo) Apply(*Glyph, *ApplyContext) {}
