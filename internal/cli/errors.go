// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error handling shared by chatwatch commands.
//
// Handlers return errors; main prints them once and picks the exit code.

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jeranaias/chatwatch/internal/config"
	"github.com/jeranaias/chatwatch/internal/web"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitConfigError  = 3
	ExitAuthError    = 4
)

// ErrNoURL is returned when neither the command line nor the config names
// a chat page.
var ErrNoURL = errors.New("no chat page URL: pass one as an argument or run 'chatwatch config set server.url <url>'")

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError wraps a failure with the command that produced it.
type CommandError struct {
	Command string
	Action  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Action == "" {
		return fmt.Sprintf("%s: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Command, e.Action, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// UsageError reports invalid arguments.
type UsageError struct {
	Message string
	Example string
}

func (e *UsageError) Error() string {
	if e.Example != "" {
		return e.Message + "\nExample: " + e.Example
	}
	return e.Message
}

// NewCommandError creates a CommandError.
func NewCommandError(command, action string, err error) error {
	return &CommandError{Command: command, Action: action, Err: err}
}

// =============================================================================
// DISPLAY
// =============================================================================

// ExitCode maps err to a process exit code.
func ExitCode(err error) int {
	var usage *UsageError
	var invalid config.ValidateErrors
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &usage), errors.Is(err, ErrNoURL):
		return ExitUsageError
	case errors.As(err, &invalid):
		return ExitConfigError
	case errors.Is(err, web.ErrLoginRequired):
		return ExitAuthError
	default:
		return ExitGeneralError
	}
}

// DisplayError prints err as "Error: ..." or, in JSON mode, as an error
// response on stdout.
func DisplayError(command string, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		_ = NewJSONErrorResponse(command, err).Print()
		return
	}
	writeError(os.Stderr, err)
}

func writeError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %s\n", RenderConditional(ErrorStyle, "Error:"), err.Error())
	if errors.Is(err, web.ErrLoginRequired) {
		fmt.Fprintln(w, "Log in with a browser and pass the session cookie with --session or CHATWATCH_SESSION.")
	}
}

// Exit prints err and terminates the process with the matching exit code.
func Exit(command string, err error, jsonMode bool) {
	DisplayError(command, err, jsonMode)
	os.Exit(ExitCode(err))
}
