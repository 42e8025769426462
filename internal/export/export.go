// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes the conversation out as a self-contained document.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jeranaias/grokchat/internal/model"
	"github.com/jeranaias/grokchat/internal/util"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for conversation exporters.
type Exporter interface {
	// Export converts a turn log to the target format and returns the content.
	Export(turns []*model.Turn, title string) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g., ".md", ".html").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is the directory where files will be saved.
	// Default: current working directory
	OutputDir string

	// IncludeTimestamps includes per-turn timestamps.
	IncludeTimestamps bool

	// Theme for HTML export ("light" or "dark").
	// Default: "dark"
	Theme string
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeTimestamps: true,
		Theme:             "dark",
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// Filename builds the output filename. A usable title yields
// "chat-<title><ext>"; without one the filename falls back to the
// export date, "grok-chat-<YYYY-MM-DD><ext>".
func Filename(title, ext string, now time.Time) string {
	if title != "" {
		return "chat-" + title + ext
	}
	return "grok-chat-" + now.Format("2006-01-02") + ext
}

// WriteFile exports a turn log to a file using the given exporter and
// returns the output path. The title must already be sanitized; pass ""
// to use the dated fallback name.
func WriteFile(turns []*model.Turn, title string, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(turns, title)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	outputPath := filepath.Join(opts.OutputDir, Filename(title, exporter.FileExtension(), time.Now()))
	if err := util.AtomicWriteFile(outputPath, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	return outputPath, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// formatTimestamp formats a per-turn timestamp in local time for display.
func formatTimestamp(t time.Time) string {
	return t.Local().Format("Jan 2, 2006 3:04 PM")
}
