// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the grokchat command-line interface: argument
// parsing, the interactive chat REPL, and the command handlers for
// send, status, config, setup, serve, export, and clear.
package cli
