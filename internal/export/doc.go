// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes the conversation out as a self-contained document.
//
// The HTML exporter produces a single static file with embedded CSS and
// no scripts, rendering turn content through the same transform pipeline
// the chat display uses. Markdown and JSON exporters are also available.
//
// Filenames come from an optional model-generated title: asking the
// model to summarize the conversation is best-effort, and any failure
// silently falls back to a dated filename. Titles are sanitized to a
// lowercase hyphenated slug before use.
//
// # Supported Formats
//
//   - HTML: Styled, self-contained, for viewing in browsers
//   - Markdown: Human-readable with formatting
//   - JSON: Machine-readable, faithful copy of the turn log
//
// # Usage
//
//	title := export.RequestTitle(ctx, chatClient, turns)
//	path, err := export.WriteFile(turns, title, export.NewHTMLExporter(nil), nil)
package export
