// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and turns.
package model

import (
	"time"
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds the single append-ordered turn log of a chat session.
// Turn order is insertion order and is never reordered.
type Conversation struct {
	Turns     []*Turn   `json:"turns"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewConversation creates an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{
		Turns:     make([]*Turn, 0),
		UpdatedAt: time.Now(),
	}
}

// FromTurns builds a conversation from an already-ordered turn slice,
// typically one decoded from the store.
func FromTurns(turns []*Turn) *Conversation {
	if turns == nil {
		turns = make([]*Turn, 0)
	}
	return &Conversation{
		Turns:     turns,
		UpdatedAt: time.Now(),
	}
}

// =============================================================================
// TURN MANAGEMENT
// =============================================================================

// Append adds a turn to the end of the log.
func (c *Conversation) Append(t *Turn) {
	c.Turns = append(c.Turns, t)
	c.UpdatedAt = time.Now()
}

// AppendUser creates and appends a user turn.
func (c *Conversation) AppendUser(content string) *Turn {
	t := NewUserTurn(content)
	c.Append(t)
	return t
}

// AppendAssistant creates and appends an assistant turn.
func (c *Conversation) AppendAssistant(content string) *Turn {
	t := NewAssistantTurn(content)
	c.Append(t)
	return t
}

// Last returns the most recent turn, or nil if empty.
func (c *Conversation) Last() *Turn {
	if len(c.Turns) == 0 {
		return nil
	}
	return c.Turns[len(c.Turns)-1]
}

// LastAssistant returns the most recent assistant turn, or nil.
func (c *Conversation) LastAssistant() *Turn {
	for i := len(c.Turns) - 1; i >= 0; i-- {
		if c.Turns[i].Role == RoleAssistant {
			return c.Turns[i]
		}
	}
	return nil
}

// LastUser returns the most recent user turn, or nil.
func (c *Conversation) LastUser() *Turn {
	for i := len(c.Turns) - 1; i >= 0; i-- {
		if c.Turns[i].Role == RoleUser {
			return c.Turns[i]
		}
	}
	return nil
}

// Clear removes all turns. Settings live elsewhere and are untouched.
func (c *Conversation) Clear() {
	c.Turns = make([]*Turn, 0)
	c.UpdatedAt = time.Now()
}

// Len returns the number of turns.
func (c *Conversation) Len() int {
	return len(c.Turns)
}

// IsEmpty returns true if there are no turns.
func (c *Conversation) IsEmpty() bool {
	return len(c.Turns) == 0
}

// =============================================================================
// AGGREGATES
// =============================================================================

// TotalTokens sums the reported token counts across all turns.
// Turns without reported usage count as zero.
func (c *Conversation) TotalTokens() int {
	total := 0
	for _, t := range c.Turns {
		total += t.Tokens
	}
	return total
}

// EstimateTokens estimates the total token count of the conversation
// using the ~4 characters per token approximation.
func (c *Conversation) EstimateTokens() int {
	total := 0
	for _, t := range c.Turns {
		total += t.EstimateTokens()
	}
	return total
}

// Preview returns a short preview of the conversation, taken from the
// first user turn.
func (c *Conversation) Preview(maxLen int) string {
	for _, t := range c.Turns {
		if t.Role == RoleUser {
			return t.Preview(maxLen)
		}
	}
	return ""
}

// Clone creates a deep copy of the conversation.
func (c *Conversation) Clone() *Conversation {
	clone := &Conversation{
		UpdatedAt: c.UpdatedAt,
		Turns:     make([]*Turn, len(c.Turns)),
	}
	for i, t := range c.Turns {
		cp := *t
		clone.Turns[i] = &cp
	}
	return clone
}
