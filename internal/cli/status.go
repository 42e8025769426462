// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Status command for the grokchat CLI.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/jeranaias/grokchat/internal/cost"
	"github.com/jeranaias/grokchat/internal/model"
	"github.com/jeranaias/grokchat/internal/util"
)

// HandleStatus handles the "status" command.
func HandleStatus(args Args) {
	if err := HandleStatusCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(GetExitCode(err))
	}
}

// HandleStatusCommand prints configuration and conversation state.
func HandleStatusCommand(args Args) error {
	app, err := NewApp()
	if err != nil {
		return err
	}
	defer app.Close()

	turns := app.Session.Turns()
	conv := model.FromTurns(turns)

	fmt.Println()
	fmt.Println(titleStyle.Render("grokchat status"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 40)))

	// Connection
	fmt.Println(warningStyle.Render("Connection"))
	if key := app.Store.APIKey(); key != "" {
		fmt.Printf("  %s %s\n", labelStyle.Render("API key:"), valueStyle.Render(maskKey(key)))
	} else {
		fmt.Printf("  %s %s\n", labelStyle.Render("API key:"),
			errorStyle.Render("not set (run 'grokchat setup')"))
	}
	fmt.Printf("  %s %s\n", labelStyle.Render("Model:"), valueStyle.Render(app.Config.Chat.Model))
	if app.Store.UseForwarder() {
		fmt.Printf("  %s %s\n", labelStyle.Render("Route:"),
			valueStyle.Render("forwarder ("+app.Config.Chat.ForwarderURL+")"))
	} else {
		fmt.Printf("  %s %s\n", labelStyle.Render("Route:"),
			valueStyle.Render("direct ("+app.Config.Chat.Endpoint+")"))
	}
	if prompt := app.Store.SystemPrompt(); prompt != "" {
		fmt.Printf("  %s %s\n", labelStyle.Render("System:"),
			valueStyle.Render(util.TruncateRunes(prompt, 60)))
	}

	// Conversation
	fmt.Println()
	fmt.Println(warningStyle.Render("Conversation"))
	fmt.Printf("  %s %d\n", labelStyle.Render("Turns:"), conv.Len())
	fmt.Printf("  %s %d\n", labelStyle.Render("Tokens:"), conv.TotalTokens())
	fmt.Printf("  %s %s\n", labelStyle.Render("Total cost:"), cost.FormatUSD(cost.TotalCost(turns)))
	fmt.Printf("  %s %s\n", labelStyle.Render("Next (est.):"), cost.FormatUSD(cost.EstimateNextCost(turns)))
	if last := conv.Last(); last != nil {
		preview := util.TruncateRunes(strings.ReplaceAll(last.Content, "\n", " "), 80)
		fmt.Printf("  %s %s: %s\n", labelStyle.Render("Last turn:"),
			last.Role.DisplayName(), infoStyle.Render(preview))
	}

	// Storage
	fmt.Println()
	fmt.Println(warningStyle.Render("Storage"))
	fmt.Printf("  %s %s\n", labelStyle.Render("Database:"), valueStyle.Render(app.Store.Path()))
	fmt.Println()
	return nil
}

// HandleClear handles the "clear" command.
func HandleClear(args Args) {
	if err := HandleClearCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(GetExitCode(err))
	}
}

// HandleClearCommand clears the persisted conversation. Settings stay.
func HandleClearCommand(args Args) error {
	app, err := NewApp()
	if err != nil {
		return err
	}
	defer app.Close()

	n := app.Session.Len()
	if err := app.Session.Clear(); err != nil {
		return err
	}
	if !args.Quiet {
		fmt.Printf("%s cleared %d turns\n", successStyle.Render("[OK]"), n)
	}
	return nil
}
