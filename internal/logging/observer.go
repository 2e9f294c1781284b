// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package logging

import (
	"context"
	"log/slog"

	"github.com/holomush/glyphmark/pkg/errutil"
	"github.com/holomush/glyphmark/pkg/markup"
)

// Observer logs markup command outcomes at Debug level.
type Observer struct {
	ctx    context.Context
	logger *slog.Logger
}

// Compile-time interface check.
var _ markup.Observer = (*Observer)(nil)

// NewObserver creates an observer logging through logger with the trace
// context of ctx.
func NewObserver(ctx context.Context, logger *slog.Logger) *Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Observer{ctx: ctx, logger: logger}
}

// Executed implements markup.Observer.
func (o *Observer) Executed(name string, d markup.Directive) {
	o.logger.DebugContext(o.ctx, "markup command executed",
		"command", name,
		"channel", d.Channel().String())
}

// Fallback implements markup.Observer.
func (o *Observer) Fallback(command string, err error) {
	attrs := append([]any{"command", command}, errutil.Attrs(err)...)
	o.logger.DebugContext(o.ctx, "markup command kept as text", attrs...)
}
