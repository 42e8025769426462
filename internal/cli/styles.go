// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared lipgloss styles for all grokchat CLI commands.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

func init() {
	// Respects NO_COLOR, FORCE_COLOR, and TTY detection.
	lipgloss.SetColorProfile(GetColorProfile())
}

var (
	// titleStyle is used for command titles and the chat banner.
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")) // Cyan

	// promptStyle is the interactive input prompt.
	promptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	// labelStyle is used for field labels.
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")). // Light gray
			Width(16)

	// infoStyle is used for secondary information and hints.
	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	// valueStyle is used for regular values.
	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")) // Off-white

	// successStyle is used for success messages.
	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42")) // Green

	// errorStyle is used for error messages.
	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")) // Red

	// warningStyle is used for warnings.
	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // Amber

	// costStyle is used for token and cost lines.
	costStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242")) // Dim gray
)
