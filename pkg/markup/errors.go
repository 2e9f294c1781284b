// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package markup

import (
	"github.com/samber/oops"
)

// Error codes reported for commands that fall back to literal text.
const (
	CodeMalformedCommand = "MALFORMED_COMMAND"
	CodeUnknownCommand   = "UNKNOWN_COMMAND"
	CodeInvalidDirective = "INVALID_DIRECTIVE"
	CodeResolverFailed   = "RESOLVER_FAILED"
)

// ErrMalformed creates an error for a subcommand a directive constructor rejected.
func ErrMalformed(command, subcommand, reason string) error {
	return oops.Code(CodeMalformedCommand).
		In("markup").
		With("command", command).
		With("subcommand", subcommand).
		Hint(reason).
		Errorf("command is invalid for %s: %s", command, subcommand)
}

// ErrUnknownCommand creates an error for a command nothing could resolve.
func ErrUnknownCommand(command string) error {
	return oops.Code(CodeUnknownCommand).
		In("markup").
		With("command", command).
		Errorf("unknown command: %s", command)
}

// ErrInvalidDirective creates an error for a directive that resolved to the
// Invalid channel, such as a colour name missing from the palette.
func ErrInvalidDirective(command, subcommand string) error {
	return oops.Code(CodeInvalidDirective).
		In("markup").
		With("command", command).
		With("subcommand", subcommand).
		Errorf("directive %s is invalid: %s", command, subcommand)
}

// ErrResolverFailed wraps an error or panic raised by a custom resolver.
func ErrResolverFailed(command string, cause error) error {
	return oops.Code(CodeResolverFailed).
		In("markup").
		With("command", command).
		Wrapf(cause, "resolver failed for %s", command)
}
