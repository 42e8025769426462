// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// setup.go - Interactive API key setup for the grokchat CLI.
package cli

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/jeranaias/grokchat/internal/store"
)

// HandleSetup handles the "setup" command.
func HandleSetup(args Args) {
	if err := HandleSetupCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(GetExitCode(err))
	}
}

// HandleSetupCommand prompts for the x.ai API key and stores it. The key
// is read without echo and never written to the config file.
func HandleSetupCommand(args Args) error {
	if !IsTTY() {
		return fmt.Errorf("setup requires an interactive terminal; " +
			"to script it, use 'grokchat config set api_key <key>'")
	}

	st, err := store.OpenDefault()
	if err != nil {
		return fmt.Errorf("failed to open conversation store: %w", err)
	}
	defer st.Close()

	fmt.Println()
	fmt.Println(titleStyle.Render("grokchat setup"))
	fmt.Println()

	if existing := st.APIKey(); existing != "" {
		fmt.Printf("%s %s\n", labelStyle.Render("Current key:"), valueStyle.Render(maskKey(existing)))
	}

	fmt.Print(promptStyle.Render("x.ai API key (input hidden): "))
	// SECURITY: ReadPassword disables echo so the key never shows on
	// screen or lands in the scrollback buffer.
	keyBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read key: %w", err)
	}

	key := strings.TrimSpace(string(keyBytes))
	if key == "" {
		fmt.Println(infoStyle.Render("[No key entered, nothing changed]"))
		return nil
	}

	if err := st.SetAPIKey(key); err != nil {
		return fmt.Errorf("failed to save key: %w", err)
	}

	fmt.Printf("%s key %s saved to %s\n",
		successStyle.Render("[OK]"), valueStyle.Render(maskKey(key)), st.Path())
	fmt.Println(infoStyle.Render("Run 'grokchat chat' to start talking."))
	return nil
}

// maskKey shows just enough of a key to recognize it.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
