// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cost

import (
	"math"
	"testing"

	"github.com/jeranaias/grokchat/internal/model"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-12
}

func TestCost(t *testing.T) {
	// 1M input tokens = $5, 1M output tokens = $15
	if got := Cost(1_000_000, 0); !almostEqual(got, 5.0) {
		t.Errorf("expected $5.00, got %f", got)
	}
	if got := Cost(0, 1_000_000); !almostEqual(got, 15.0) {
		t.Errorf("expected $15.00, got %f", got)
	}
	if got := Cost(0, 0); got != 0 {
		t.Errorf("expected zero cost, got %f", got)
	}
}

func TestInputCheaperThanOutput(t *testing.T) {
	if InputRate >= OutputRate {
		t.Errorf("input rate %f should be below output rate %f", InputRate, OutputRate)
	}
}

func TestTotalCostSumsPerTurnCosts(t *testing.T) {
	turns := []*model.Turn{
		model.NewUserTurn("q1"),
		model.NewAssistantTurn("a1"),
		model.NewAssistantTurn("a2"),
	}
	turns[1].Cost = 0.002
	turns[2].Cost = 0.003

	if got := TotalCost(turns); !almostEqual(got, 0.005) {
		t.Errorf("expected 0.005, got %f", got)
	}
}

func TestTotalCostIncreasesByAppendedCost(t *testing.T) {
	turns := []*model.Turn{model.NewAssistantTurn("a")}
	turns[0].Cost = 0.001

	before := TotalCost(turns)

	next := model.NewAssistantTurn("b")
	next.Cost = 0.0042
	turns = append(turns, next)

	if got := TotalCost(turns); !almostEqual(got, before+0.0042) {
		t.Errorf("expected total to grow by 0.0042, got %f (was %f)", got, before)
	}
}

func TestEstimateNextCostEmpty(t *testing.T) {
	if got := EstimateNextCost(nil); got != 0 {
		t.Errorf("expected zero for empty log, got %f", got)
	}
}

func TestEstimateNextCostNoAssistantTurn(t *testing.T) {
	turns := []*model.Turn{model.NewUserTurn("hello")}
	if got := EstimateNextCost(turns); got != 0 {
		t.Errorf("expected zero with no prior assistant turn, got %f", got)
	}
}

func TestEstimateNextCost(t *testing.T) {
	user := model.NewUserTurn("q")
	user.Tokens = 10
	asst := model.NewAssistantTurn("a")
	asst.Tokens = 30
	turns := []*model.Turn{user, asst}

	// Input projection: 10+30=40 tokens. Output projection: 30 tokens.
	want := Cost(40, 30)
	if got := EstimateNextCost(turns); !almostEqual(got, want) {
		t.Errorf("expected %f, got %f", want, got)
	}
}

func TestFormatUSD(t *testing.T) {
	cases := []struct {
		cost float64
		want string
	}{
		{0, "$0.00"},
		{0.000005, "$0.000005"},
		{0.05, "$0.0500"},
	}
	for _, tc := range cases {
		if got := FormatUSD(tc.cost); got != tc.want {
			t.Errorf("FormatUSD(%f): expected %q, got %q", tc.cost, tc.want, got)
		}
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := EstimateTokens(""); got != 0 {
		t.Errorf("expected 0 for empty text, got %d", got)
	}
	if got := EstimateTokens("hello world this is a test"); got <= 0 {
		t.Errorf("expected positive estimate, got %d", got)
	}
}
