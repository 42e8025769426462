// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and turns.
//
// This package defines the core domain types used throughout the application
// for representing a chat session as an append-ordered log of turns.
//
// # Key Types
//
//   - Conversation: Append-ordered turn log for a chat session
//   - Turn: Single user message or assistant reply with timestamp and usage
//   - Role: Turn author enumeration (user, assistant, system)
//
// # Usage
//
// Create a new conversation and append turns:
//
//	conv := model.NewConversation()
//	conv.AppendUser("Hello!")
//	conv.AppendAssistant("Hi there.")
package model
