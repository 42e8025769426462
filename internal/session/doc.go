// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session coordinates the send pipeline.
//
// A Session owns one conversation and enforces the send discipline:
// drafts must be non-empty and a credential must be set, at most one
// request is in flight at a time, the user turn is appended and
// persisted before the request is dispatched, and every completed send
// appends exactly one assistant turn whether the request succeeded or
// failed. Failures are rendered into the assistant turn's content so
// they stay part of the conversation record.
package session
