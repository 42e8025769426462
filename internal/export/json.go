// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"

	"github.com/jeranaias/grokchat/internal/model"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports conversations to JSON format.
// NOTE: JSON exports always include the complete turn log and do not
// respect filtering options, so the exported file is a faithful copy of
// the stored conversation that can be re-imported.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter. The options parameter is
// accepted for consistency with other exporters but is not used.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// Export converts a turn log to JSON format.
func (e *JSONExporter) Export(turns []*model.Turn, title string) ([]byte, error) {
	if len(turns) == 0 {
		return nil, fmt.Errorf("conversation has no turns")
	}

	doc := struct {
		Title string        `json:"title,omitempty"`
		Turns []*model.Turn `json:"turns"`
	}{
		Title: title,
		Turns: turns,
	}

	return json.MarshalIndent(doc, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
