// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session coordinates the send pipeline: the in-memory turn log,
// persistence, and the completion client.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jeranaias/grokchat/internal/client"
	"github.com/jeranaias/grokchat/internal/cost"
	"github.com/jeranaias/grokchat/internal/model"
	"github.com/jeranaias/grokchat/internal/store"
)

// Sentinel errors for declined sends. A declined send is a complete
// no-op: nothing is appended, persisted, or put on the network.
var (
	ErrEmptyMessage = errors.New("session: message is empty")
	ErrNoAPIKey     = errors.New("session: no API key configured")
	ErrBusy         = errors.New("session: a send is already in flight")
)

// forwarderHint is appended to failure turns on the direct path, where
// an unreachable or cross-origin-blocked API is the most common cause.
const forwarderHint = "Tip: enable the forwarding server with " +
	"'grokchat config set use_forwarder true' and run 'grokchat serve' " +
	"to route requests through the local relay."

// =============================================================================
// SESSION TYPE
// =============================================================================

// Session owns one conversation. At most one send is in flight at a
// time; concurrent sends are declined rather than queued.
type Session struct {
	mu       sync.Mutex
	inFlight bool

	conv   *model.Conversation
	store  *store.Store
	client *client.Client
}

// New creates a session over the given store and client, loading any
// persisted conversation.
func New(st *store.Store, c *client.Client) *Session {
	return &Session{
		conv:   model.FromTurns(st.LoadConversation()),
		store:  st,
		client: c,
	}
}

// Turns returns a snapshot of the current turn log.
func (s *Session) Turns() []*model.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	turns := make([]*model.Turn, len(s.conv.Turns))
	copy(turns, s.conv.Turns)
	return turns
}

// Len returns the number of turns.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Len()
}

// TotalCost returns the accumulated dollar cost of the conversation.
func (s *Session) TotalCost() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cost.TotalCost(s.conv.Turns)
}

// EstimateNextCost projects the cost of the next send.
func (s *Session) EstimateNextCost() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cost.EstimateNextCost(s.conv.Turns)
}

// CanSend reports whether a send of the given draft would be accepted.
func (s *Session) CanSend(draft string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.TrimSpace(draft) != "" && s.store.APIKey() != "" && !s.inFlight
}

// Clear discards the conversation, in memory and on disk. Settings are
// untouched.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conv.Clear()
	return s.store.ClearConversation()
}

// =============================================================================
// SEND PIPELINE
// =============================================================================

// Send runs one complete exchange: the user turn is appended and
// persisted before the request goes out, and every completed send
// appends exactly one assistant turn, carrying either the reply or a
// readable description of the failure. The returned turn is that
// assistant turn.
func (s *Session) Send(ctx context.Context, draft string) (*model.Turn, error) {
	draft = strings.TrimSpace(draft)

	s.mu.Lock()
	if draft == "" {
		s.mu.Unlock()
		return nil, ErrEmptyMessage
	}
	apiKey := s.store.APIKey()
	if apiKey == "" {
		s.mu.Unlock()
		return nil, ErrNoAPIKey
	}
	if s.inFlight {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.inFlight = true

	// Settings are read at send time so a key or routing change takes
	// effect on the very next message.
	useForwarder := s.store.UseForwarder()
	s.client.SetAPIKey(apiKey)
	s.client.SetUseForwarder(useForwarder)

	// Optimistic append: the user turn is part of the log even if the
	// request never comes back. A failed save here is non-fatal; the
	// turn stays in memory and the post-reply save retries.
	s.conv.AppendUser(draft)
	_ = s.store.SaveConversation(s.conv.Turns)
	messages := s.buildMessages()
	s.mu.Unlock()

	resp, err := s.client.Complete(ctx, messages)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false

	var reply *model.Turn
	if err != nil {
		reply = s.conv.AppendAssistant(failureContent(err, useForwarder))
	} else {
		reply = s.conv.AppendAssistant(resp.GetContent())
		if resp.HasUsage() {
			reply.Tokens = resp.Usage.PromptTokens + resp.Usage.CompletionTokens
			reply.Cost = cost.Cost(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
		}
	}

	if saveErr := s.store.SaveConversation(s.conv.Turns); saveErr != nil {
		return reply, fmt.Errorf("reply received but not persisted: %w", saveErr)
	}
	return reply, nil
}

// buildMessages assembles the outbound message list: the system prompt
// (when set) followed by every turn in log order. Callers must hold mu.
func (s *Session) buildMessages() []client.ChatMessage {
	messages := make([]client.ChatMessage, 0, s.conv.Len()+1)

	if prompt := s.store.SystemPrompt(); prompt != "" {
		messages = append(messages, client.NewSystemMessage(prompt))
	}

	for _, t := range s.conv.Turns {
		messages = append(messages, client.ChatMessage{
			Role:    string(t.Role),
			Content: t.Content,
		})
	}
	return messages
}

// failureContent renders a failed send as readable assistant-turn text,
// keeping the error in the conversation instead of a dialog the user
// dismisses and loses.
func failureContent(err error, usedForwarder bool) string {
	var sb strings.Builder

	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		sb.WriteString(fmt.Sprintf("Request failed: %d %s", apiErr.Status, apiErr.StatusText))
		if apiErr.Detail != "" {
			sb.WriteString(": ")
			sb.WriteString(apiErr.Detail)
		}
	} else {
		sb.WriteString("Request failed: ")
		sb.WriteString(err.Error())
	}

	if !usedForwarder {
		sb.WriteString("\n\n")
		sb.WriteString(forwarderHint)
	}
	return sb.String()
}
