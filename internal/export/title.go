// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"context"
	"regexp"
	"strings"

	"github.com/jeranaias/grokchat/internal/client"
	"github.com/jeranaias/grokchat/internal/model"
)

// titlePrompt asks the model for a filename-worthy summary. Kept strict
// so the reply needs no post-editing beyond sanitization.
const titlePrompt = "Summarize this conversation in 3 to 6 words suitable for a filename. " +
	"Reply with only the title, no punctuation, no quotes."

// maxTitleContext bounds how much transcript is sent with the titling
// request, since the title only needs the gist.
const maxTitleContext = 4000

// Completer is the slice of the chat client the titler needs.
type Completer interface {
	Complete(ctx context.Context, messages []client.ChatMessage) (*client.ChatResponse, error)
}

// RequestTitle asks the model to title the conversation and returns the
// sanitized result. Titling is best-effort: any failure, or an answer
// that sanitizes down to nothing, returns "" and the caller falls back
// to the dated filename.
func RequestTitle(ctx context.Context, c Completer, turns []*model.Turn) string {
	if c == nil || len(turns) == 0 {
		return ""
	}

	var sb strings.Builder
	for _, t := range turns {
		if sb.Len() >= maxTitleContext {
			break
		}
		sb.WriteString(t.Role.DisplayName())
		sb.WriteString(": ")
		sb.WriteString(t.Preview(200))
		sb.WriteString("\n")
	}

	messages := []client.ChatMessage{
		client.NewSystemMessage(titlePrompt),
		client.NewUserMessage(sb.String()),
	}

	resp, err := c.Complete(ctx, messages)
	if err != nil {
		return ""
	}
	return SanitizeTitle(resp.GetContent())
}

// =============================================================================
// TITLE SANITIZATION
// =============================================================================

var (
	invalidTitleRe = regexp.MustCompile(`[^a-zA-Z0-9\s-]+`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
	hyphenRunRe    = regexp.MustCompile(`-+`)
)

// SanitizeTitle reduces arbitrary model output to a filename-safe slug:
// everything but letters, digits, spaces, and hyphens is dropped,
// whitespace runs and repeated hyphens collapse to single hyphens, and
// the result is lowercased with no leading or trailing hyphen.
//
// "My Cool Chat!! About C++" becomes "my-cool-chat-about-c".
func SanitizeTitle(s string) string {
	s = invalidTitleRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, "-")
	s = hyphenRunRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	return strings.ToLower(s)
}
