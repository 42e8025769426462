// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Configuration command for the grokchat CLI.
//
// Two backing stores sit behind one command: config.toml holds
// non-secret preferences addressed by dot-notation keys, while the
// local database holds the settings the browser-era client kept in
// storage (api_key, use_forwarder, system_prompt).
package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jeranaias/grokchat/internal/config"
	"github.com/jeranaias/grokchat/internal/store"
)

// storeKeys are settings that live in the database, not config.toml.
var storeKeys = map[string]bool{
	"api_key":       true,
	"use_forwarder": true,
	"system_prompt": true,
}

// HandleConfig handles the "config" command.
func HandleConfig(args Args) {
	if err := HandleConfigCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(GetExitCode(err))
	}
}

// HandleConfigCommand dispatches config subcommands.
func HandleConfigCommand(args Args) error {
	switch args.Subcommand {
	case "", "show":
		return configShow()
	case "get":
		if args.ConfigKey == "" {
			return fmt.Errorf("usage: grokchat config get <key>")
		}
		return configGet(args.ConfigKey)
	case "set":
		if args.ConfigKey == "" || args.ConfigVal == "" {
			return fmt.Errorf("usage: grokchat config set <key> <value>")
		}
		return configSet(args.ConfigKey, args.ConfigVal)
	case "path":
		path, err := config.ConfigPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	default:
		return fmt.Errorf("unknown config subcommand %q (want show, get, set, or path)", args.Subcommand)
	}
}

// configShow prints every setting from both stores.
func configShow() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(titleStyle.Render("Configuration"))
	if path, pathErr := config.ConfigPath(); pathErr == nil {
		fmt.Println(infoStyle.Render(path))
	}
	fmt.Println()

	for _, key := range config.GetAllKeys() {
		value, getErr := cfg.Get(key)
		if getErr != nil {
			continue
		}
		fmt.Printf("  %s %v\n", labelStyle.Render(key+":"), valueStyle.Render(fmt.Sprintf("%v", value)))
	}

	st, err := store.OpenDefault()
	if err != nil {
		return err
	}
	defer st.Close()

	fmt.Println()
	fmt.Println(titleStyle.Render("Settings"))
	fmt.Println(infoStyle.Render(st.Path()))
	fmt.Println()

	if key := st.APIKey(); key != "" {
		fmt.Printf("  %s %s\n", labelStyle.Render("api_key:"), valueStyle.Render(maskKey(key)))
	} else {
		fmt.Printf("  %s %s\n", labelStyle.Render("api_key:"), infoStyle.Render("(not set)"))
	}
	fmt.Printf("  %s %v\n", labelStyle.Render("use_forwarder:"), st.UseForwarder())
	if prompt := st.SystemPrompt(); prompt != "" {
		fmt.Printf("  %s %s\n", labelStyle.Render("system_prompt:"), valueStyle.Render(prompt))
	} else {
		fmt.Printf("  %s %s\n", labelStyle.Render("system_prompt:"), infoStyle.Render("(not set)"))
	}
	fmt.Println()
	return nil
}

// configGet prints one setting.
func configGet(key string) error {
	if storeKeys[key] {
		st, err := store.OpenDefault()
		if err != nil {
			return err
		}
		defer st.Close()

		switch key {
		case "api_key":
			// SECURITY: get prints the masked form; the full key never
			// leaves the database through this command.
			if k := st.APIKey(); k != "" {
				fmt.Println(maskKey(k))
			} else {
				fmt.Println("(not set)")
			}
		case "use_forwarder":
			fmt.Println(st.UseForwarder())
		case "system_prompt":
			fmt.Println(st.SystemPrompt())
		}
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	value, err := cfg.Get(key)
	if err != nil {
		return err
	}
	fmt.Printf("%v\n", value)
	return nil
}

// configSet updates one setting and persists it.
func configSet(key, value string) error {
	if storeKeys[key] {
		st, err := store.OpenDefault()
		if err != nil {
			return err
		}
		defer st.Close()

		switch key {
		case "api_key":
			err = st.SetAPIKey(value)
		case "use_forwarder":
			var enabled bool
			enabled, err = strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("use_forwarder wants true or false, got %q", value)
			}
			err = st.SetUseForwarder(enabled)
		case "system_prompt":
			if strings.EqualFold(value, "off") || strings.EqualFold(value, "none") {
				value = ""
			}
			err = st.SetSystemPrompt(value)
		}
		if err != nil {
			return err
		}
		fmt.Printf("%s %s updated\n", successStyle.Render("[OK]"), key)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return err
	}
	fmt.Printf("%s %s = %s\n", successStyle.Render("[OK]"), key, value)
	return nil
}
