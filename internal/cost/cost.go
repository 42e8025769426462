// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cost computes dollar cost estimates from token counts.
package cost

import (
	"fmt"
	"strings"

	"github.com/jeranaias/grokchat/internal/model"
)

// =============================================================================
// PRICING
// =============================================================================

// Per-token rates in dollars, derived from the published per-million pricing.
// Input tokens are cheaper than output tokens.
const (
	// InputRate is the cost per prompt token ($5 per million).
	InputRate = 5.0 / 1_000_000

	// OutputRate is the cost per completion token ($15 per million).
	OutputRate = 15.0 / 1_000_000
)

// =============================================================================
// COST FUNCTIONS
// =============================================================================

// Cost returns the dollar cost of a request given its token split.
func Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)*InputRate + float64(outputTokens)*OutputRate
}

// TotalCost sums the per-turn costs across the conversation.
// Turns without a recorded cost contribute zero.
func TotalCost(turns []*model.Turn) float64 {
	total := 0.0
	for _, t := range turns {
		total += t.Cost
	}
	return total
}

// EstimateNextCost projects the cost of the next request: the entire
// current log is resent as input, and the output is assumed to be about
// the size of the last assistant reply. Returns zero when there are no
// turns or no prior assistant turn to project from.
func EstimateNextCost(turns []*model.Turn) float64 {
	if len(turns) == 0 {
		return 0
	}

	var lastAssistant *model.Turn
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == model.RoleAssistant {
			lastAssistant = turns[i]
			break
		}
	}
	if lastAssistant == nil {
		return 0
	}

	projectedInput := 0
	for _, t := range turns {
		projectedInput += t.Tokens
	}
	projectedOutput := lastAssistant.Tokens

	return Cost(projectedInput, projectedOutput)
}

// EstimateTokens gives a rough token estimate for arbitrary text,
// averaging a word count against the ~4 characters per token heuristic.
func EstimateTokens(text string) int {
	words := len(strings.Fields(text))
	chars := len(text)
	return (words + chars/4) / 2
}

// FormatUSD renders a cost for display, keeping sub-cent amounts legible.
func FormatUSD(cost float64) string {
	if cost == 0 {
		return "$0.00"
	}
	if cost < 0.01 {
		return fmt.Sprintf("$%.6f", cost)
	}
	return fmt.Sprintf("$%.4f", cost)
}
