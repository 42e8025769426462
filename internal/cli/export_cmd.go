// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// export_cmd.go - Conversation export command for the grokchat CLI.
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jeranaias/grokchat/internal/cost"
	"github.com/jeranaias/grokchat/internal/export"
	"github.com/jeranaias/grokchat/internal/model"
)

// titleTimeout bounds the optional titling request so a slow upstream
// never blocks the export itself.
const titleTimeout = 15 * time.Second

// HandleExport handles the "export" command.
func HandleExport(args Args) {
	if err := HandleExportCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(GetExitCode(err))
	}
}

// HandleExportCommand exports the stored conversation to a file.
func HandleExportCommand(args Args) error {
	app, err := NewApp()
	if err != nil {
		return err
	}
	defer app.Close()

	return runExport(app, args)
}

// runExport performs the export. Shared by the export command and the
// /export slash command.
func runExport(app *App, args Args) error {
	turns := app.Session.Turns()
	if len(turns) == 0 {
		return fmt.Errorf("nothing to export: the conversation is empty")
	}

	opts := &export.Options{
		OutputDir:         app.Config.Export.OutputDir,
		IncludeTimestamps: app.Config.Export.IncludeTimestamps,
		Theme:             "dark",
	}
	if args.Output != "" {
		opts.OutputDir = args.Output
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}

	exporter, err := exporterFor(args.Format, opts)
	if err != nil {
		return err
	}

	title := resolveTitle(app, args, turns)

	path, err := export.WriteFile(turns, title, exporter, opts)
	if err != nil {
		return err
	}

	fmt.Printf("%s exported %d turns (%s) to %s\n",
		successStyle.Render("[OK]"),
		len(turns),
		cost.FormatUSD(cost.TotalCost(turns)),
		valueStyle.Render(path))
	return nil
}

// exporterFor maps a format name to an exporter.
func exporterFor(format string, opts *export.Options) (export.Exporter, error) {
	switch format {
	case "", "html":
		return export.NewHTMLExporter(opts), nil
	case "md", "markdown":
		return export.NewMarkdownExporter(opts), nil
	case "json":
		return export.NewJSONExporter(opts), nil
	default:
		return nil, fmt.Errorf("unknown export format %q (want html, md, or json)", format)
	}
}

// resolveTitle picks the export title: an explicit --title wins, then an
// upstream titling request unless --no-title, then the dated fallback
// (signalled by an empty string).
func resolveTitle(app *App, args Args, turns []*model.Turn) string {
	if args.Title != "" {
		return export.SanitizeTitle(args.Title)
	}
	if args.NoTitle {
		return ""
	}

	// Titling is best effort: no key or a failed request falls back to
	// the dated filename rather than failing the export.
	if app.Store.APIKey() == "" {
		return ""
	}
	app.Client.SetAPIKey(app.Store.APIKey())
	app.Client.SetUseForwarder(app.Store.UseForwarder())

	ctx, cancel := context.WithTimeout(context.Background(), titleTimeout)
	defer cancel()
	return export.RequestTitle(ctx, app.Client, turns)
}
