// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render converts raw assistant text into display HTML.
//
// This is a deliberately small dialect, not CommonMark: a fixed sequence
// of text transforms applied in a set order, one pass per rule, first
// match wins. Escaping runs before everything else, so later rules match
// against escaped text (a quote line is "&gt; ", not "> ").
package render

import (
	"fmt"
	"regexp"
	"strings"
)

// =============================================================================
// PATTERNS
// =============================================================================

var (
	codeBlockRe  = regexp.MustCompile("(?s)```([a-zA-Z0-9_+-]*)\\n?(.*?)```")
	inlineCodeRe = regexp.MustCompile("`([^`\n]+)`")
	h3Re         = regexp.MustCompile(`(?m)^### (.+)$`)
	h2Re         = regexp.MustCompile(`(?m)^## (.+)$`)
	h1Re         = regexp.MustCompile(`(?m)^# (.+)$`)
	boldRe       = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicRe     = regexp.MustCompile(`\*([^*\n]+)\*`)
	quoteRe      = regexp.MustCompile(`(?m)^&gt; (.+)$`)
	orderedRe    = regexp.MustCompile(`(?m)^\d+\. (.+)$`)
	bulletRe     = regexp.MustCompile(`(?m)^[-*] (.+)$`)
	linkRe       = regexp.MustCompile(`https?://[^\s<]+`)
	blankLineRe  = regexp.MustCompile(`\n[ \t]*\n+`)
)

// blockPrefixes mark chunks that must not be wrapped in a paragraph.
var blockPrefixes = []string{
	"<h1>", "<h2>", "<h3>", "<blockquote>", "<li", "\x00",
}

// =============================================================================
// RENDERING
// =============================================================================

// ToHTML renders raw assistant text as HTML. The function is pure: the
// same input always produces the same output, and the raw text is never
// mutated in place.
//
// Transform order is load-bearing. Escaping must run first so user text
// can never smuggle markup through, and headings run longest prefix
// first so "###" is not half-eaten by the "#" rule.
func ToHTML(raw string) string {
	s := escape(raw)

	// Code blocks are lifted out before the line-oriented rules run so
	// their bodies survive untouched, then spliced back at the end.
	s, blocks := extractCodeBlocks(s)

	s = inlineCodeRe.ReplaceAllString(s, `<code class="inline-code">$1</code>`)

	s = h3Re.ReplaceAllString(s, "<h3>$1</h3>")
	s = h2Re.ReplaceAllString(s, "<h2>$1</h2>")
	s = h1Re.ReplaceAllString(s, "<h1>$1</h1>")

	s = boldRe.ReplaceAllString(s, "<strong>$1</strong>")
	s = italicRe.ReplaceAllString(s, "<em>$1</em>")

	s = quoteRe.ReplaceAllString(s, "<blockquote>$1</blockquote>")

	s = orderedRe.ReplaceAllString(s, `<li class="numbered">$1</li>`)
	s = bulletRe.ReplaceAllString(s, `<li class="bulleted">$1</li>`)

	s = linkRe.ReplaceAllString(s, `<a href="$0" target="_blank" rel="noopener noreferrer">$0</a>`)

	s = paragraphs(s)

	return restoreCodeBlocks(s, blocks)
}

// escape neutralizes HTML metacharacters. Ampersand first, or the later
// replacements would be double-escaped.
func escape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// extractCodeBlocks replaces fenced code blocks with NUL-delimited
// placeholders and returns the rendered blocks for later splicing.
func extractCodeBlocks(s string) (string, []string) {
	var blocks []string
	out := codeBlockRe.ReplaceAllStringFunc(s, func(match string) string {
		sub := codeBlockRe.FindStringSubmatch(match)
		lang := sub[1]
		if lang == "" {
			lang = "code"
		}
		body := strings.TrimSuffix(sub[2], "\n")
		block := fmt.Sprintf(
			`<div class="code-block"><div class="code-lang">%s</div><pre><code>%s</code></pre></div>`,
			lang, body)
		blocks = append(blocks, block)
		return fmt.Sprintf("\x00%d\x00", len(blocks)-1)
	})
	return out, blocks
}

// restoreCodeBlocks splices rendered code blocks back over their
// placeholders.
func restoreCodeBlocks(s string, blocks []string) string {
	for i, block := range blocks {
		s = strings.Replace(s, fmt.Sprintf("\x00%d\x00", i), block, 1)
	}
	return s
}

// paragraphs applies the final two rules: blank-line-separated runs
// become paragraphs, remaining single newlines become line breaks, and
// block-level chunks pass through unwrapped. Plain text with no block
// elements at all ends up inside exactly one paragraph container.
func paragraphs(s string) string {
	chunks := blankLineRe.Split(s, -1)
	out := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		if isBlockChunk(chunk) {
			out = append(out, chunk)
			continue
		}
		out = append(out, "<p>"+strings.ReplaceAll(chunk, "\n", "<br>")+"</p>")
	}
	return strings.Join(out, "\n")
}

// isBlockChunk reports whether a chunk already starts with block-level
// markup (or a code block placeholder) and should not be wrapped.
func isBlockChunk(chunk string) bool {
	for _, prefix := range blockPrefixes {
		if strings.HasPrefix(chunk, prefix) {
			return true
		}
	}
	return false
}
