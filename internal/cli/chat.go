// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat command handler for the grokchat CLI.
//
// Handles "grokchat chat" (interactive REPL) and "grokchat send"
// (single message). Replies render as markdown on a TTY via glamour;
// piped output stays plain.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/peterh/liner"

	"github.com/jeranaias/grokchat/internal/client"
	"github.com/jeranaias/grokchat/internal/config"
	"github.com/jeranaias/grokchat/internal/cost"
	"github.com/jeranaias/grokchat/internal/model"
	"github.com/jeranaias/grokchat/internal/session"
	"github.com/jeranaias/grokchat/internal/store"
	"github.com/jeranaias/grokchat/internal/util"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

var markdownRenderer *glamour.TermRenderer

func init() {
	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		markdownRenderer = nil
	}
}

// renderMarkdown renders reply markdown for terminal display, falling back
// to the raw text when the renderer is unavailable.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}
	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// displayReply prints a reply, rendered only when stdout is a TTY so piped
// output is not corrupted by ANSI sequences.
func displayReply(content string) {
	if IsStdoutTTY() {
		fmt.Print(renderMarkdown(content))
	} else {
		fmt.Println(content)
	}
}

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI with history persisted under the config dir.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	c.loadHistory()
	return c
}

func (c *ChatCLI) loadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line with the given prompt, recording history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

func (c *ChatCLI) saveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	// 0600: history can contain anything the user typed.
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and releases the terminal.
func (c *ChatCLI) Close() {
	c.saveHistory()
	c.line.Close()
}

// =============================================================================
// APP WIRING
// =============================================================================

// App bundles the pieces every chat-facing command needs.
type App struct {
	Config  *config.Config
	Store   *store.Store
	Client  *client.Client
	Session *session.Session
}

// NewApp loads configuration, opens the store, and wires the completion
// client and session.
func NewApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	st, err := store.OpenDefault()
	if err != nil {
		return nil, fmt.Errorf("failed to open conversation store: %w", err)
	}

	c := client.New("").
		WithEndpoint(cfg.Chat.Endpoint).
		WithModel(cfg.Chat.Model).
		WithTemperature(cfg.Chat.Temperature).
		WithForwarderURL(cfg.Chat.ForwarderURL)

	return &App{Config: cfg, Store: st, Client: c, Session: session.New(st, c)}, nil
}

// Close releases the store.
func (a *App) Close() {
	a.Store.Close()
}

// =============================================================================
// SEND COMMAND
// =============================================================================

// HandleSend handles the "send" command: one message, one printed reply.
func HandleSend(args Args) {
	if err := HandleSendCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(GetExitCode(err))
	}
}

// HandleSendCommand sends a single message and prints the reply.
func HandleSendCommand(args Args) error {
	app, err := NewApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()
	reply, err := app.Session.Send(ctx, args.Query)
	if err != nil {
		if errors.Is(err, session.ErrNoAPIKey) {
			return fmt.Errorf("%w; run 'grokchat setup' first", err)
		}
		return err
	}

	displayReply(reply.Content)

	if !args.Quiet && reply.HasUsage() {
		fmt.Fprintln(os.Stderr, costStyle.Render(fmt.Sprintf(
			"%d tokens | %s this message | %s total",
			reply.Tokens, cost.FormatUSD(reply.Cost), cost.FormatUSD(app.Session.TotalCost()))))
	}
	return nil
}

// =============================================================================
// CHAT COMMAND
// =============================================================================

// HandleChat handles the "chat" command.
func HandleChat(args Args) {
	if err := HandleChatCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(GetExitCode(err))
	}
}

// HandleChatCommand runs the interactive REPL.
func HandleChatCommand(args Args) error {
	app, err := NewApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if !args.Quiet {
		printWelcome(app)
	}

	input := NewChatCLI()
	defer input.Close()

	startCost := app.Session.TotalCost()
	startTime := time.Now()

	for {
		line, err := input.ReadInput(promptStyle.Render("grok> "))
		if err != nil {
			// Ctrl+C, Ctrl+D, or EOF all exit gracefully.
			fmt.Println()
			printExitSummary(app, startCost, startTime)
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			cont, err := handleSlashCommand(app, line)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
			}
			if !cont {
				printExitSummary(app, startCost, startTime)
				return nil
			}
			continue
		}

		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			printExitSummary(app, startCost, startTime)
			return nil
		}

		if err := processMessage(app, line, args.Quiet); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		}
	}
}

// processMessage sends one message through the session and displays the
// reply. Failed sends still produce a reply turn; only declined sends
// (empty draft, missing key, busy) come back as errors here.
func processMessage(app *App, input string, quiet bool) error {
	start := time.Now()

	ctx := context.Background()
	reply, err := app.Session.Send(ctx, input)
	if err != nil {
		if errors.Is(err, session.ErrNoAPIKey) {
			return fmt.Errorf("%w; run 'grokchat setup' first", err)
		}
		return err
	}

	fmt.Println()
	displayReply(reply.Content)
	fmt.Println()

	if !quiet && reply.HasUsage() {
		fmt.Fprintln(os.Stderr, costStyle.Render(fmt.Sprintf(
			"%d tokens | %s | %s",
			reply.Tokens, cost.FormatUSD(reply.Cost), time.Since(start).Round(time.Millisecond))))
	}
	return nil
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand processes slash commands.
// Returns (shouldContinue, error) where shouldContinue=false means exit.
func handleSlashCommand(app *App, cmd string) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return true, nil
	}

	command := strings.ToLower(parts[0])
	rest := parts[1:]

	switch command {
	case "/help", "/h", "/?", "/":
		printChatHelp()
		return true, nil

	case "/clear", "/c":
		if err := app.Session.Clear(); err != nil {
			return true, err
		}
		fmt.Println(successStyle.Render("[Conversation cleared]"))
		return true, nil

	case "/status", "/s":
		printChatStatus(app)
		return true, nil

	case "/history":
		printHistory(app)
		return true, nil

	case "/cost":
		printCost(app)
		return true, nil

	case "/export":
		format := "html"
		if len(rest) > 0 {
			format = rest[0]
		}
		return true, runExport(app, Args{Format: format})

	case "/system":
		return true, handleSystemCommand(app, rest)

	case "/forwarder":
		return true, handleForwarderCommand(app, rest)

	case "/quit", "/q", "/exit":
		return false, nil

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
}

// handleSystemCommand shows or sets the system prompt.
func handleSystemCommand(app *App, rest []string) error {
	if len(rest) == 0 {
		prompt := app.Store.SystemPrompt()
		if prompt == "" {
			fmt.Println(infoStyle.Render("[No system prompt set]"))
		} else {
			fmt.Printf("%s %s\n", infoStyle.Render("[System]"), prompt)
		}
		return nil
	}

	prompt := strings.Join(rest, " ")
	if prompt == "off" || prompt == "none" {
		if err := app.Store.SetSystemPrompt(""); err != nil {
			return err
		}
		fmt.Println(successStyle.Render("[System prompt cleared]"))
		return nil
	}
	if err := app.Store.SetSystemPrompt(prompt); err != nil {
		return err
	}
	fmt.Println(successStyle.Render("[System prompt set]"))
	return nil
}

// handleForwarderCommand shows or toggles forwarder routing.
func handleForwarderCommand(app *App, rest []string) error {
	if len(rest) == 0 {
		if app.Store.UseForwarder() {
			fmt.Printf("%s on (%s)\n", infoStyle.Render("[Forwarder]"), app.Config.Chat.ForwarderURL)
		} else {
			fmt.Printf("%s off (direct to %s)\n", infoStyle.Render("[Forwarder]"), app.Config.Chat.Endpoint)
		}
		return nil
	}

	switch strings.ToLower(rest[0]) {
	case "on", "true", "1":
		if err := app.Store.SetUseForwarder(true); err != nil {
			return err
		}
		fmt.Println(successStyle.Render("[Forwarder enabled]"))
	case "off", "false", "0":
		if err := app.Store.SetUseForwarder(false); err != nil {
			return err
		}
		fmt.Println(successStyle.Render("[Forwarder disabled]"))
	default:
		return fmt.Errorf("usage: /forwarder [on|off]")
	}
	return nil
}

// =============================================================================
// DISPLAY
// =============================================================================

// printWelcome prints the chat banner.
func printWelcome(app *App) {
	keySet := app.Client.IsConfigured() || app.Store.APIKey() != ""
	useForwarder := app.Store.UseForwarder()

	fmt.Println()
	fmt.Println(titleStyle.Render("grokchat"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 30)))
	fmt.Printf("%s %s\n", labelStyle.Render("Model:"), valueStyle.Render(app.Config.Chat.Model))

	if useForwarder {
		fmt.Printf("%s %s\n", labelStyle.Render("Route:"),
			valueStyle.Render("forwarder ("+app.Config.Chat.ForwarderURL+")"))
	} else {
		fmt.Printf("%s %s\n", labelStyle.Render("Route:"), valueStyle.Render("direct"))
	}

	if keySet {
		fmt.Printf("%s %s\n", labelStyle.Render("API key:"), successStyle.Render("configured"))
	} else {
		fmt.Printf("%s %s\n", labelStyle.Render("API key:"),
			warningStyle.Render("not set (run 'grokchat setup')"))
	}

	if n := app.Session.Len(); n > 0 {
		fmt.Printf("%s %d turns, %s spent\n", labelStyle.Render("History:"),
			n, cost.FormatUSD(app.Session.TotalCost()))
	}

	fmt.Println()
	fmt.Println(infoStyle.Render("Type a message and press Enter. Commands: /help, /quit"))
	fmt.Println()
}

// printChatHelp prints available slash commands.
func printChatHelp() {
	commands := []struct {
		cmd  string
		desc string
	}{
		{"/help, /h", "Show this help"},
		{"/clear, /c", "Clear the conversation log"},
		{"/status, /s", "Show conversation statistics"},
		{"/history", "Show the conversation log"},
		{"/cost", "Show total and projected cost"},
		{"/export [format]", "Export the conversation (html, md, json)"},
		{"/system [prompt]", "Show or set the system prompt ('off' clears)"},
		{"/forwarder [on|off]", "Show or toggle forwarder routing"},
		{"/quit, /q", "Exit chat"},
	}

	fmt.Println()
	fmt.Println(titleStyle.Render("Commands"))
	for _, c := range commands {
		fmt.Printf("  %s  %s\n",
			valueStyle.Render(fmt.Sprintf("%-20s", c.cmd)),
			infoStyle.Render(c.desc))
	}
	fmt.Println()
	fmt.Println(infoStyle.Render("Tip: Ctrl+D exits"))
	fmt.Println()
}

// printChatStatus prints conversation statistics.
func printChatStatus(app *App) {
	turns := app.Session.Turns()

	fmt.Println()
	fmt.Println(titleStyle.Render("Conversation"))
	fmt.Printf("  %s %d\n", labelStyle.Render("Turns:"), len(turns))
	fmt.Printf("  %s %d\n", labelStyle.Render("Tokens:"), model.FromTurns(turns).TotalTokens())
	fmt.Printf("  %s %s\n", labelStyle.Render("Total cost:"), cost.FormatUSD(app.Session.TotalCost()))
	fmt.Printf("  %s %s\n", labelStyle.Render("Next (est.):"), cost.FormatUSD(app.Session.EstimateNextCost()))
	fmt.Println()
}

// printHistory prints the conversation log, one preview line per turn.
func printHistory(app *App) {
	turns := app.Session.Turns()
	if len(turns) == 0 {
		fmt.Println(infoStyle.Render("[No turns yet]"))
		return
	}

	fmt.Println()
	fmt.Println(titleStyle.Render("History"))
	for i, t := range turns {
		preview := util.TruncateRunes(strings.ReplaceAll(t.Content, "\n", " "), 100)
		fmt.Printf("  %d. %s: %s\n", i+1, valueStyle.Render(t.Role.DisplayName()), preview)
	}
	fmt.Println()
}

// printCost prints cost totals and the projection for the next send.
func printCost(app *App) {
	fmt.Printf("%s %s spent, next message about %s\n",
		infoStyle.Render("[Cost]"),
		cost.FormatUSD(app.Session.TotalCost()),
		cost.FormatUSD(app.Session.EstimateNextCost()))
}

// printExitSummary prints the session summary on exit.
func printExitSummary(app *App, startCost float64, startTime time.Time) {
	spent := app.Session.TotalCost() - startCost
	if spent <= 0 {
		fmt.Println(infoStyle.Render("Goodbye!"))
		return
	}

	fmt.Println()
	fmt.Println(titleStyle.Render("Session"))
	fmt.Printf("  %s %s\n", labelStyle.Render("Spent:"), cost.FormatUSD(spent))
	fmt.Printf("  %s %s\n", labelStyle.Render("Duration:"), time.Since(startTime).Round(time.Second))
	fmt.Println()
	fmt.Println(infoStyle.Render("Goodbye!"))
}
