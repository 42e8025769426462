// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store provides durable local persistence for the conversation
// log and user settings.
//
// All state lives in one SQLite key/value table: the full turn log under
// a single key as a JSON blob, plus individual settings keys (API key,
// forwarder preference, system prompt). Every mutation is written through
// immediately so a crash can lose at most the in-flight write.
//
// Loading tolerates corruption: a malformed conversation blob decodes to
// an empty log instead of an error.
package store
