// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Exit code mapping for the grokchat CLI.
package cli

import (
	"errors"

	"github.com/jeranaias/grokchat/internal/client"
	"github.com/jeranaias/grokchat/internal/session"
)

// Exit codes. Scripts can distinguish configuration problems from
// upstream failures.
const (
	ExitSuccess  = 0
	ExitError    = 1
	ExitUsage    = 2
	ExitNoAPIKey = 3
	ExitUpstream = 4
)

// GetExitCode maps an error to a process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if errors.Is(err, session.ErrNoAPIKey) {
		return ExitNoAPIKey
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return ExitUpstream
	}
	return ExitError
}
