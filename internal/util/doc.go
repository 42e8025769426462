// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across grokchat: crash-safe
// file writing and UTF-8 aware string truncation.
package util
