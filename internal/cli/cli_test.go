// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Tests for CLI argument parsing and exit code mapping.
package cli

import (
	"errors"
	"os"
	"testing"

	"github.com/jeranaias/grokchat/internal/client"
	"github.com/jeranaias/grokchat/internal/session"
)

// parseArgs runs Parse against a synthetic command line.
func parseArgs(t *testing.T, argv ...string) (Command, Args) {
	t.Helper()
	orig := os.Args
	os.Args = append([]string{"grokchat"}, argv...)
	defer func() { os.Args = orig }()
	return Parse()
}

// =============================================================================
// COMMAND DISPATCH
// =============================================================================

func TestParseCommands(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		want Command
	}{
		{"no args is chat", nil, CmdChat},
		{"explicit chat", []string{"chat"}, CmdChat},
		{"send", []string{"send", "hello"}, CmdSend},
		{"ask alias", []string{"ask", "hello"}, CmdSend},
		{"status", []string{"status"}, CmdStatus},
		{"status short", []string{"s"}, CmdStatus},
		{"config", []string{"config", "show"}, CmdConfig},
		{"setup", []string{"setup"}, CmdSetup},
		{"serve", []string{"serve"}, CmdServe},
		{"server alias", []string{"server"}, CmdServe},
		{"relay alias", []string{"relay"}, CmdServe},
		{"export", []string{"export"}, CmdExport},
		{"clear", []string{"clear"}, CmdClear},
		{"version", []string{"version"}, CmdVersion},
		{"version flag", []string{"--version"}, CmdVersion},
		{"help", []string{"help"}, CmdHelp},
		{"help flag", []string{"-h"}, CmdHelp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := parseArgs(t, tt.argv...)
			if got != tt.want {
				t.Errorf("Parse(%v) = %v, want %v", tt.argv, got, tt.want)
			}
		})
	}
}

func TestParseUnknownWordBecomesSend(t *testing.T) {
	cmd, args := parseArgs(t, "what", "is", "the", "capital", "of", "France")
	if cmd != CmdSend {
		t.Fatalf("Parse() = %v, want CmdSend", cmd)
	}
	if args.Query != "what is the capital of France" {
		t.Errorf("Query = %q", args.Query)
	}
}

func TestParseSendJoinsWords(t *testing.T) {
	cmd, args := parseArgs(t, "send", "hello", "there")
	if cmd != CmdSend {
		t.Fatalf("Parse() = %v, want CmdSend", cmd)
	}
	if args.Query != "hello there" {
		t.Errorf("Query = %q, want %q", args.Query, "hello there")
	}
}

// =============================================================================
// GLOBAL FLAGS
// =============================================================================

func TestParseGlobalFlags(t *testing.T) {
	cmd, args := parseArgs(t, "-q", "send", "hi")
	if cmd != CmdSend {
		t.Fatalf("Parse() = %v, want CmdSend", cmd)
	}
	if !args.Quiet {
		t.Error("Quiet should be true")
	}

	_, args = parseArgs(t, "--verbose", "serve")
	if !args.Verbose {
		t.Error("Verbose should be true")
	}
}

// =============================================================================
// SUBCOMMAND ARGS
// =============================================================================

func TestParseConfigArgs(t *testing.T) {
	_, args := parseArgs(t, "config", "set", "chat.model", "grok-2")
	if args.Subcommand != "set" {
		t.Errorf("Subcommand = %q, want %q", args.Subcommand, "set")
	}
	if args.ConfigKey != "chat.model" {
		t.Errorf("ConfigKey = %q, want %q", args.ConfigKey, "chat.model")
	}
	if args.ConfigVal != "grok-2" {
		t.Errorf("ConfigVal = %q, want %q", args.ConfigVal, "grok-2")
	}
}

func TestParseConfigValueWithSpaces(t *testing.T) {
	_, args := parseArgs(t, "config", "set", "system_prompt", "You", "are", "terse")
	if args.ConfigVal != "You are terse" {
		t.Errorf("ConfigVal = %q, want %q", args.ConfigVal, "You are terse")
	}
}

func TestParseExportArgs(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		want Args
	}{
		{"default format", []string{"export"}, Args{Format: "html"}},
		{"format flag", []string{"export", "--format", "md"}, Args{Format: "md"}},
		{"format short", []string{"export", "-f", "json"}, Args{Format: "json"}},
		{"format equals", []string{"export", "--format=md"}, Args{Format: "md"}},
		{"output", []string{"export", "-o", "/tmp/out"}, Args{Format: "html", Output: "/tmp/out"}},
		{"title", []string{"export", "--title", "Rust"}, Args{Format: "html", Title: "Rust"}},
		{"no-title", []string{"export", "--no-title"}, Args{Format: "html", NoTitle: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, args := parseArgs(t, tt.argv...)
			if args.Format != tt.want.Format {
				t.Errorf("Format = %q, want %q", args.Format, tt.want.Format)
			}
			if args.Output != tt.want.Output {
				t.Errorf("Output = %q, want %q", args.Output, tt.want.Output)
			}
			if args.Title != tt.want.Title {
				t.Errorf("Title = %q, want %q", args.Title, tt.want.Title)
			}
			if args.NoTitle != tt.want.NoTitle {
				t.Errorf("NoTitle = %v, want %v", args.NoTitle, tt.want.NoTitle)
			}
		})
	}
}

func TestParseServeArgs(t *testing.T) {
	_, args := parseArgs(t, "serve", "--listen", "127.0.0.1:9999", "--static=./web")
	if args.Listen != "127.0.0.1:9999" {
		t.Errorf("Listen = %q", args.Listen)
	}
	if args.StaticDir != "./web" {
		t.Errorf("StaticDir = %q", args.StaticDir)
	}
}

// =============================================================================
// EXIT CODES
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"generic", errors.New("boom"), ExitError},
		{"no api key", session.ErrNoAPIKey, ExitNoAPIKey},
		{"wrapped no api key", errors.Join(errors.New("context"), session.ErrNoAPIKey), ExitNoAPIKey},
		{"api error", &client.APIError{Status: 429, StatusText: "Too Many Requests"}, ExitUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.want {
				t.Errorf("GetExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

// =============================================================================
// FORMAT SELECTION
// =============================================================================

func TestExporterFor(t *testing.T) {
	for _, format := range []string{"", "html", "md", "markdown", "json"} {
		if _, err := exporterFor(format, nil); err != nil {
			t.Errorf("exporterFor(%q) returned error: %v", format, err)
		}
	}
	if _, err := exporterFor("pdf", nil); err == nil {
		t.Error("exporterFor(pdf) should fail")
	}
}
