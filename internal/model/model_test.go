// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"
	"time"
)

func TestNewTurn(t *testing.T) {
	turn := NewUserTurn("hello")

	if turn.Role != RoleUser {
		t.Errorf("expected role user, got %s", turn.Role)
	}
	if turn.Content != "hello" {
		t.Errorf("expected content 'hello', got %q", turn.Content)
	}
	if !strings.HasPrefix(turn.ID, "turn_") {
		t.Errorf("expected turn_ ID prefix, got %s", turn.ID)
	}
	if turn.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestTurnIDsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		turn := NewUserTurn("x")
		if seen[turn.ID] {
			t.Fatalf("duplicate turn ID: %s", turn.ID)
		}
		seen[turn.ID] = true
	}
}

func TestTurnHasUsage(t *testing.T) {
	turn := NewAssistantTurn("reply")
	if turn.HasUsage() {
		t.Error("expected no usage on fresh turn")
	}

	turn.Tokens = 42
	if !turn.HasUsage() {
		t.Error("expected usage after setting tokens")
	}
}

func TestTurnPreview(t *testing.T) {
	turn := NewUserTurn("short")
	if got := turn.Preview(50); got != "short" {
		t.Errorf("expected 'short', got %q", got)
	}

	turn = NewUserTurn(strings.Repeat("a", 100))
	got := turn.Preview(10)
	if len([]rune(got)) != 10 {
		t.Errorf("expected preview of 10 runes, got %d", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis suffix, got %q", got)
	}
}

func TestConversationAppendOrder(t *testing.T) {
	conv := NewConversation()
	conv.AppendUser("one")
	conv.AppendAssistant("two")
	conv.AppendUser("three")

	if conv.Len() != 3 {
		t.Fatalf("expected 3 turns, got %d", conv.Len())
	}
	contents := []string{"one", "two", "three"}
	for i, want := range contents {
		if conv.Turns[i].Content != want {
			t.Errorf("turn %d: expected %q, got %q", i, want, conv.Turns[i].Content)
		}
	}
}

func TestConversationLastAssistant(t *testing.T) {
	conv := NewConversation()
	if conv.LastAssistant() != nil {
		t.Error("expected nil LastAssistant on empty conversation")
	}

	conv.AppendUser("q1")
	conv.AppendAssistant("a1")
	conv.AppendUser("q2")
	conv.AppendAssistant("a2")
	conv.AppendUser("q3")

	last := conv.LastAssistant()
	if last == nil || last.Content != "a2" {
		t.Errorf("expected last assistant 'a2', got %+v", last)
	}
}

func TestConversationClear(t *testing.T) {
	conv := NewConversation()
	conv.AppendUser("hello")
	conv.AppendAssistant("hi")
	conv.Clear()

	if !conv.IsEmpty() {
		t.Error("expected empty conversation after Clear")
	}
	if conv.Turns == nil {
		t.Error("expected non-nil turn slice after Clear")
	}
}

func TestConversationTotalTokens(t *testing.T) {
	conv := NewConversation()
	conv.AppendUser("q")
	a1 := conv.AppendAssistant("a1")
	a1.Tokens = 10
	a2 := conv.AppendAssistant("a2")
	a2.Tokens = 25

	if got := conv.TotalTokens(); got != 35 {
		t.Errorf("expected 35 total tokens, got %d", got)
	}
}

func TestConversationClone(t *testing.T) {
	conv := NewConversation()
	conv.AppendUser("original")

	clone := conv.Clone()
	clone.Turns[0].Content = "modified"

	if conv.Turns[0].Content != "original" {
		t.Error("clone should not share turn pointers with original")
	}
}

func TestFromTurnsNil(t *testing.T) {
	conv := FromTurns(nil)
	if conv.Turns == nil {
		t.Error("expected non-nil turn slice")
	}
	if !conv.IsEmpty() {
		t.Error("expected empty conversation")
	}
}

func TestRoleDisplayName(t *testing.T) {
	cases := []struct {
		role Role
		want string
	}{
		{RoleUser, "You"},
		{RoleAssistant, "Grok"},
		{RoleSystem, "System"},
	}
	for _, tc := range cases {
		if got := tc.role.DisplayName(); got != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.role, tc.want, got)
		}
	}
}

func TestEstimateTokens(t *testing.T) {
	turn := NewUserTurn("12345678") // 8 chars -> 2 tokens
	if got := turn.EstimateTokens(); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
}

func TestConversationUpdatedAt(t *testing.T) {
	conv := NewConversation()
	before := conv.UpdatedAt
	time.Sleep(time.Millisecond)
	conv.AppendUser("x")
	if !conv.UpdatedAt.After(before) {
		t.Error("expected UpdatedAt to advance on append")
	}
}
