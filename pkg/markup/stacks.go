// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package markup

// Stacks holds the active directives of a parse: one LIFO stack per channel
// and a combined stack recording every push in chronological order.
//
// Each channel stack is the chronological subsequence of that channel's
// active pushes; the combined stack is their union. Entries are matched by
// identity. A Stacks may be reused across sequential Parse calls to carry
// open directives forward, but it is not safe for concurrent use.
type Stacks struct {
	channels [stackCount][]Directive
	all      []Directive
}

// NewStacks creates an empty stack set.
func NewStacks() *Stacks {
	return &Stacks{}
}

// Push adds d to its channel stack and to the combined stack. Directives on
// the PureCommand or Invalid channels are ignored.
func (s *Stacks) Push(d Directive) {
	if d == nil {
		return
	}
	ch := d.Channel()
	if !ch.Stacked() {
		return
	}
	s.channels[ch] = append(s.channels[ch], d)
	s.all = append(s.all, d)
}

// PopAny removes and returns the most recent directive of any channel.
// Returns nil when nothing is active.
func (s *Stacks) PopAny() Directive {
	n := len(s.all)
	if n == 0 {
		return nil
	}
	d := s.all[n-1]
	s.all[n-1] = nil
	s.all = s.all[:n-1]

	if ch := d.Channel(); ch.Stacked() {
		s.channels[ch] = removeNewest(s.channels[ch], d)
	}
	return d
}

// PopChannel removes and returns the most recent directive of channel c, and
// removes that same instance from the combined stack wherever it sits.
// Returns nil when the channel is empty or has no stack.
func (s *Stacks) PopChannel(c Channel) Directive {
	if !c.Stacked() {
		return nil
	}
	stack := s.channels[c]
	n := len(stack)
	if n == 0 {
		return nil
	}
	d := stack[n-1]
	stack[n-1] = nil
	s.channels[c] = stack[:n-1]

	s.all = removeNewest(s.all, d)
	return d
}

// Top returns the active directive of channel c, or nil.
func (s *Stacks) Top(c Channel) Directive {
	if !c.Stacked() {
		return nil
	}
	stack := s.channels[c]
	if len(stack) == 0 {
		return nil
	}
	return stack[len(stack)-1]
}

// Len returns the number of directives on channel c.
func (s *Stacks) Len(c Channel) int {
	if !c.Stacked() {
		return 0
	}
	return len(s.channels[c])
}

// Total returns the number of directives on the combined stack.
func (s *Stacks) Total() int {
	return len(s.all)
}

// All returns the combined stack, oldest first.
func (s *Stacks) All() []Directive {
	out := make([]Directive, len(s.all))
	copy(out, s.all)
	return out
}

// Channel returns the stack of channel c, oldest first.
func (s *Stacks) Channel(c Channel) []Directive {
	if !c.Stacked() {
		return nil
	}
	out := make([]Directive, len(s.channels[c]))
	copy(out, s.channels[c])
	return out
}

// Reset drops every directive.
func (s *Stacks) Reset() {
	for i := range s.channels {
		clear(s.channels[i])
		s.channels[i] = s.channels[i][:0]
	}
	clear(s.all)
	s.all = s.all[:0]
}

// removeNewest deletes the newest entry identical to d.
func removeNewest(stack []Directive, d Directive) []Directive {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == d {
			copy(stack[i:], stack[i+1:])
			stack[len(stack)-1] = nil
			return stack[:len(stack)-1]
		}
	}
	return stack
}
