// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package script

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"

	"github.com/holomush/glyphmark/pkg/markup"
)

// APIVersion is the script API version exposed to scripts as GLYPHMARK_API.
const APIVersion = "1.1.0"

// apiConstraint is the range of API_VERSION values a script may declare.
const apiConstraint = "^1"

const (
	apiGlobal     = "GLYPHMARK_API"
	versionGlobal = "API_VERSION"
	resolveGlobal = "resolve"
)

// Error codes.
const (
	CodeLoadFailed    = "SCRIPT_LOAD_FAILED"
	CodeIncompatible  = "SCRIPT_INCOMPATIBLE"
	CodeCallFailed    = "SCRIPT_CALL_FAILED"
	CodeInvalidResult = "SCRIPT_INVALID_RESULT"
	CodeClosed        = "SCRIPT_CLOSED"
)

// DefaultTimeout bounds a single resolve call.
const DefaultTimeout = 250 * time.Millisecond

// Compile-time interface check.
var _ markup.Resolver = (*Resolver)(nil)

// loadedScript is one script with its own long-lived state.
type loadedScript struct {
	name  string
	state *lua.LState
}

// Resolver resolves markup commands by calling the resolve function of each
// loaded script in load order. The first script returning a non-nil result
// wins.
//
// Calls are serialized; a Resolver may be shared between goroutines.
type Resolver struct {
	factory *StateFactory
	palette markup.Palette
	timeout time.Duration

	mu      sync.Mutex
	scripts []*loadedScript
	closed  bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithPalette sets the palette used for colour names returned by scripts.
func WithPalette(p markup.Palette) Option {
	return func(r *Resolver) {
		r.palette = p
	}
}

// WithTimeout bounds each call into a script.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		r.timeout = d
	}
}

// NewResolver creates a resolver with no scripts loaded.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		factory: NewStateFactory(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LoadFile reads and loads a script from disk.
func (r *Resolver) LoadFile(path string) error {
	code, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return oops.Code(CodeLoadFailed).In("lua").With("path", path).Hint("failed to read script").Wrap(err)
	}
	return r.LoadString(filepath.Base(path), string(code))
}

// LoadString loads a script from source. The script must define a global
// resolve function and, if it sets API_VERSION, a version satisfying ^1.
func (r *Resolver) LoadString(name, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return oops.Code(CodeClosed).In("lua").With("script", name).Errorf("resolver is closed")
	}

	L, err := r.factory.NewState()
	if err != nil {
		return oops.Code(CodeLoadFailed).In("lua").With("script", name).Wrap(err)
	}

	if err := r.withDeadline(L, func() error { return L.DoString(code) }); err != nil {
		L.Close()
		return oops.Code(CodeLoadFailed).In("lua").With("script", name).Hint("syntax or runtime error").Wrap(err)
	}

	if err := checkAPIVersion(L.GetGlobal(versionGlobal)); err != nil {
		L.Close()
		return oops.Code(CodeIncompatible).In("lua").With("script", name).With("constraint", apiConstraint).Wrap(err)
	}

	if L.GetGlobal(resolveGlobal).Type() != lua.LTFunction {
		L.Close()
		return oops.Code(CodeLoadFailed).In("lua").With("script", name).Errorf("script does not define a %s function", resolveGlobal)
	}

	r.scripts = append(r.scripts, &loadedScript{name: name, state: L})
	return nil
}

// checkAPIVersion accepts a missing API_VERSION or one inside apiConstraint.
func checkAPIVersion(v lua.LValue) error {
	if v.Type() == lua.LTNil {
		return nil
	}
	if v.Type() != lua.LTString {
		return oops.Errorf("%s must be a string, got %s", versionGlobal, v.Type())
	}
	version, err := semver.NewVersion(v.String())
	if err != nil {
		return oops.With("version", v.String()).Wrapf(err, "invalid %s", versionGlobal)
	}
	constraint, err := semver.NewConstraint(apiConstraint)
	if err != nil {
		return oops.Wrap(err)
	}
	if !constraint.Check(version) {
		return oops.With("version", version.String()).Errorf("script API version %s is not supported", version)
	}
	return nil
}

// Scripts returns the names of the loaded scripts in load order.
func (r *Resolver) Scripts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, len(r.scripts))
	for i, s := range r.scripts {
		names[i] = s.name
	}
	return names
}

// Resolve implements markup.Resolver.
func (r *Resolver) Resolve(name, remainder string, surface markup.Surface, stacks *markup.Stacks) (markup.Directive, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, oops.Code(CodeClosed).In("lua").With("command", name).Errorf("resolver is closed")
	}

	for _, s := range r.scripts {
		ret, err := r.call(s, name, remainder, surface, stacks)
		if err != nil {
			return nil, err
		}
		if ret.Type() == lua.LTNil {
			continue
		}
		return r.directive(s.name, name, ret)
	}
	return nil, nil
}

// call invokes resolve(name, args, info) in one script.
func (r *Resolver) call(s *loadedScript, name, remainder string, surface markup.Surface, stacks *markup.Stacks) (lua.LValue, error) {
	L := s.state
	info := L.NewTable()
	if surface != nil {
		L.SetField(info, "cells", lua.LNumber(surface.CellCount()))
	}
	if stacks != nil {
		L.SetField(info, "depth", lua.LNumber(stacks.Total()))
	}

	err := r.withDeadline(L, func() error {
		return L.CallByParam(lua.P{
			Fn:      L.GetGlobal(resolveGlobal),
			NRet:    1,
			Protect: true,
		}, lua.LString(name), lua.LString(remainder), info)
	})
	if err != nil {
		return nil, oops.Code(CodeCallFailed).In("lua").With("script", s.name).With("command", name).Wrap(err)
	}

	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

// withDeadline runs fn with the resolver timeout attached to L.
func (r *Resolver) withDeadline(L *lua.LState, fn func() error) error {
	if r.timeout <= 0 {
		return fn()
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	L.SetContext(ctx)
	defer L.RemoveContext()
	return fn()
}

// Close releases every script state. Further calls fail with SCRIPT_CLOSED.
func (r *Resolver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.scripts {
		s.state.Close()
	}
	r.scripts = nil
	r.closed = true
}
