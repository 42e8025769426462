// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/grokchat/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports conversations to Markdown format.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a turn log to Markdown format.
func (e *MarkdownExporter) Export(turns []*model.Turn, title string) ([]byte, error) {
	if len(turns) == 0 {
		return nil, fmt.Errorf("conversation has no turns")
	}

	docTitle := title
	if docTitle == "" {
		docTitle = "Grok Chat"
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(docTitle)))
	sb.WriteString(fmt.Sprintf("- **Turns**: %d\n", len(turns)))
	sb.WriteString(fmt.Sprintf("- **Exported**: %s\n", formatTimestamp(time.Now())))
	sb.WriteString("\n---\n\n")

	for i, turn := range turns {
		if e.options.IncludeTimestamps {
			sb.WriteString(fmt.Sprintf("### %s <sub>%s</sub>\n\n",
				turn.Role.DisplayName(), formatTimestamp(turn.Timestamp)))
		} else {
			sb.WriteString(fmt.Sprintf("### %s\n\n", turn.Role.DisplayName()))
		}

		// Assistant text is already in the markup dialect; write it through.
		sb.WriteString(strings.TrimSpace(turn.Content))
		sb.WriteString("\n\n")

		if turn.HasUsage() {
			sb.WriteString(fmt.Sprintf("<sub>Tokens: %d</sub>\n\n", turn.Tokens))
		}

		if i < len(turns)-1 {
			sb.WriteString("---\n\n")
		}
	}

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// escapeMarkdown escapes characters that would break formatting in headings.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}
