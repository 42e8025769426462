// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command dispatch for grokchat.
package cli

import (
	"fmt"
	"os"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdChat Command = iota
	CmdSend
	CmdStatus
	CmdConfig
	CmdSetup
	CmdServe
	CmdExport
	CmdClear
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool

	// Command-specific
	Query      string
	Subcommand string
	ConfigKey  string
	ConfigVal  string

	// Export options
	Format  string
	Output  string
	Title   string
	NoTitle bool

	// Serve options
	Listen    string
	StaticDir string

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `grokchat - chat with Grok from the terminal

Grokchat is a client for the x.ai hosted API with a durable local
conversation log, cost tracking, HTML export, and an optional local
forwarding server that keeps the API key out of browser requests.

Usage:
  grokchat                      Interactive chat (default)
  grokchat chat                 Interactive chat
  grokchat send "message"       Send a single message and print the reply
  grokchat status, s            Show conversation and cost status
  grokchat config [show|get|set] Configuration and settings
  grokchat setup                Set the API key
  grokchat serve                Run the forwarding server
  grokchat export               Export the conversation
  grokchat clear                Clear the conversation log
  grokchat version              Show version
  grokchat help                 Show this help

Export:
  grokchat export                       Export as HTML (titled via the model)
  grokchat export --format md           Export as Markdown
  grokchat export --format json         Export as JSON
  grokchat export --title "my chat"     Use an explicit title
  grokchat export --no-title            Skip model titling, use dated filename
  grokchat export --output DIR          Write into DIR

Serve:
  grokchat serve                        Listen on the configured address
  grokchat serve --listen 127.0.0.1:9000
  grokchat serve --static ./web         Also serve the web client

Config and settings:
  grokchat config show                  Show configuration
  grokchat config get chat.model        Get a config value
  grokchat config set chat.model grok-2 Set a config value
  grokchat config set use_forwarder true   Route sends through the relay
  grokchat config set system_prompt "..."  Set the system prompt
  grokchat config path                  Print the config file path

Interactive Commands (during chat):
  /help, /h           Show available commands
  /clear, /c          Clear the conversation log
  /status, /s         Show conversation statistics
  /history            Show the conversation log
  /cost               Show total and projected cost
  /export [format]    Export the conversation
  /system [prompt]    Show or set the system prompt
  /forwarder [on|off] Show or toggle forwarder routing
  /quit, /q           Exit chat
  Ctrl+D              Exit chat

Global Flags:
  -q, --quiet     Minimal output
  -v, --verbose   Debug output

Examples:
  grokchat send "What is a goroutine?"
  grokchat export --format html --output ./exports
  grokchat serve --listen 127.0.0.1:8090
  grokchat config set use_forwarder true

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("grokchat version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	args := os.Args[1:]

	remaining, parsedArgs := parseGlobalFlags(args)

	// No arguments means interactive chat.
	if len(remaining) == 0 {
		return CmdChat, parsedArgs
	}

	first := remaining[0]
	cmd := strings.ToLower(first)
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "chat":
		return CmdChat, parsedArgs

	case "send", "ask":
		parsedArgs.Query = strings.Join(remaining, " ")
		return CmdSend, parsedArgs

	case "status", "s":
		return CmdStatus, parsedArgs

	case "config":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "setup":
		return CmdSetup, parsedArgs

	case "serve", "server", "relay":
		parseServeArgs(&parsedArgs, remaining)
		return CmdServe, parsedArgs

	case "export":
		parseExportArgs(&parsedArgs, remaining)
		return CmdExport, parsedArgs

	case "clear":
		return CmdClear, parsedArgs

	case "version", "-v", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		// Unknown word: treat the whole line as a message to send.
		parsedArgs.Query = strings.Join(append([]string{first}, remaining...), " ")
		return CmdSend, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	for _, arg := range args {
		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "--verbose":
			parsedArgs.Verbose = true
		default:
			remaining = append(remaining, arg)
		}
	}

	return remaining, parsedArgs
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) > 0 {
		args.Subcommand = remaining[0]
		if len(remaining) > 1 {
			args.ConfigKey = remaining[1]
		}
		if len(remaining) > 2 {
			args.ConfigVal = strings.Join(remaining[2:], " ")
		}
	}
}

// parseExportArgs parses export command specific arguments.
func parseExportArgs(args *Args, remaining []string) {
	args.Format = "html"
	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]
		switch {
		case arg == "--format" || arg == "-f":
			if i+1 < len(remaining) {
				i++
				args.Format = remaining[i]
			}
		case strings.HasPrefix(arg, "--format="):
			args.Format = strings.TrimPrefix(arg, "--format=")
		case arg == "--output" || arg == "-o":
			if i+1 < len(remaining) {
				i++
				args.Output = remaining[i]
			}
		case strings.HasPrefix(arg, "--output="):
			args.Output = strings.TrimPrefix(arg, "--output=")
		case arg == "--title" || arg == "-t":
			if i+1 < len(remaining) {
				i++
				args.Title = remaining[i]
			}
		case strings.HasPrefix(arg, "--title="):
			args.Title = strings.TrimPrefix(arg, "--title=")
		case arg == "--no-title":
			args.NoTitle = true
		}
	}
}

// parseServeArgs parses serve command specific arguments.
func parseServeArgs(args *Args, remaining []string) {
	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]
		switch {
		case arg == "--listen" || arg == "-l":
			if i+1 < len(remaining) {
				i++
				args.Listen = remaining[i]
			}
		case strings.HasPrefix(arg, "--listen="):
			args.Listen = strings.TrimPrefix(arg, "--listen=")
		case arg == "--static":
			if i+1 < len(remaining) {
				i++
				args.StaticDir = remaining[i]
			}
		case strings.HasPrefix(arg, "--static="):
			args.StaticDir = strings.TrimPrefix(arg, "--static=")
		}
	}
}

// HandleVersion handles the "version" command.
func HandleVersion() {
	PrintVersion()
}

// HandleHelp handles the "help" command.
func HandleHelp() {
	PrintUsage()
}
