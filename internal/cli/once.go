// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// once.go - Fetch a chat page once and print its messages.
//
// Command: once [url] [--cached] [--export <format>] [--output <dir>]
// Short:   Print the current messages and exit
//
// Flags:
//   --json              Output in JSON format
//   --cached            Print the stored snapshot instead of fetching
//   --export <format>   Also write the messages to a file
//   --output <dir>      Directory for --export
//
// Examples:
//   chatwatch once http://localhost:5000/student/chat
//   chatwatch once --json http://localhost:5000/teacher/chat | jq '.data.messages'
//   chatwatch once --cached
//   chatwatch once --export markdown --output notes/

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/jeranaias/chatwatch/internal/config"
	"github.com/jeranaias/chatwatch/internal/export"
	"github.com/jeranaias/chatwatch/internal/fragment"
	"github.com/jeranaias/chatwatch/internal/refresh"
	"github.com/jeranaias/chatwatch/internal/storage"
	"github.com/jeranaias/chatwatch/internal/web"
)

// HandleOnce prints the chat page's messages once.
func HandleOnce(args Args) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}
	SetupStderrLogging(args)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if timeout := cfg.Server.Timeout(); timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	store, err := OpenSnapshots(ctx, cfg)
	if err != nil {
		if args.Cached {
			return err
		}
		log.Printf("SNAPSHOT_OPEN_FAILED | error=%v", err)
	}
	if store != nil {
		defer store.Close()
	}

	var exporter export.Exporter
	var exportOpts *export.Options
	if args.Export != "" {
		exportOpts = exportOptions(cfg, args)
		if exporter, err = export.ForFormat(args.Export, exportOpts); err != nil {
			return &UsageError{Message: err.Error(), Example: "chatwatch once --export markdown"}
		}
	}

	var page *PageData
	if args.Cached {
		if store == nil {
			return errors.New("snapshots are disabled (storage.snapshots = false)")
		}
		page, err = cachedPage(ctx, cfg, store)
	} else {
		var client *web.Client
		client, err = NewClient(cfg)
		if err != nil {
			return err
		}
		page, err = fetchPage(ctx, cfg, client, store)
	}
	if err != nil {
		return err
	}

	if exporter != nil {
		path, err := export.ExportToFile(page.Document(), exporter, exportOpts)
		if err != nil {
			return NewCommandError("once", "export", err)
		}
		page.ExportedTo = path
		log.Printf("EXPORTED | url=%s format=%s path=%s", page.URL, args.Export, path)
	}

	if args.JSON {
		return NewJSONResponse("once", page).Print()
	}
	printPage(os.Stdout, page, args.Quiet)
	if page.ExportedTo != "" && !args.Quiet {
		fmt.Fprintf(os.Stdout, "\n%s wrote %s\n", RenderConditional(SuccessStyle, "[OK]"), page.ExportedTo)
	}
	return nil
}

func exportOptions(cfg *config.Config, args Args) *export.Options {
	opts := export.DefaultOptions()
	if args.OutputDir != "" {
		opts.OutputDir = args.OutputDir
	}
	opts.IncludeTimestamps = cfg.UI.ShowTimestamps
	opts.Theme = cfg.UI.Theme
	return opts
}

// fetchPage loads the page and extracts what the chat view would show.
// The fragment is stored as the page's snapshot when store is non-nil.
func fetchPage(ctx context.Context, cfg *config.Config, client *web.Client, store *storage.SnapshotStore) (*PageData, error) {
	doc, err := client.FetchDocument(ctx, cfg.Server.URL)
	if err != nil {
		return nil, NewCommandError("once", "fetch", err)
	}

	fragSel, err := cfg.Fragment.FragmentSelector()
	if err != nil {
		return nil, err
	}
	frag := doc.Find(fragSel)
	if frag == nil {
		return nil, fmt.Errorf("page has no %s region: %w", fragSel, refresh.ErrRemoteFragmentMissing)
	}

	page, err := describePage(cfg, frag, time.Now())
	if err != nil {
		return nil, err
	}
	page.Title = doc.Title()
	if flashSel, err := cfg.Fragment.FlashSelector(); err == nil {
		page.Flashes = doc.Flashes(flashSel)
	}

	if store != nil {
		snap := storage.Snapshot{URL: cfg.Server.URL, HTML: frag.InnerHTML(), FetchedAt: page.FetchedAt}
		if err := store.Save(ctx, snap); err != nil {
			log.Printf("SNAPSHOT_SAVE_FAILED | url=%s error=%v", cfg.Server.URL, err)
		}
	}
	return page, nil
}

// cachedPage rebuilds the page from its stored snapshot.
func cachedPage(ctx context.Context, cfg *config.Config, store *storage.SnapshotStore) (*PageData, error) {
	snap, err := store.Load(ctx, cfg.Server.URL)
	if err != nil {
		if errors.Is(err, storage.ErrNoSnapshot) {
			return nil, fmt.Errorf("%s: %w", cfg.Server.URL, err)
		}
		return nil, err
	}
	frag, err := fragment.FromHTML(snap.HTML)
	if err != nil {
		return nil, err
	}
	return describePage(cfg, frag, snap.FetchedAt)
}

func describePage(cfg *config.Config, frag *fragment.Fragment, fetched time.Time) (*PageData, error) {
	entrySel, err := cfg.Fragment.EntrySelectors()
	if err != nil {
		return nil, err
	}
	polled, err := refresh.Polls(cfg.Server.URL, cfg.Refresh.TriggerPath)
	if err != nil {
		return nil, err
	}
	return &PageData{
		URL:       cfg.Server.URL,
		Polled:    polled,
		Messages:  frag.Entries(entrySel),
		FetchedAt: fetched,
	}, nil
}

func printPage(w io.Writer, page *PageData, quiet bool) {
	if !quiet {
		title := page.Title
		if title == "" {
			title = page.URL
		}
		fmt.Fprintln(w, RenderConditional(TitleStyle, title))
		fmt.Fprintln(w, RenderConditional(DimStyle, fmt.Sprintf("%d messages, fetched %s", len(page.Messages), page.FetchedAt.Format("15:04:05"))))
		fmt.Fprintln(w)
	}
	if len(page.Messages) == 0 && !quiet {
		fmt.Fprintln(w, RenderConditional(DimStyle, "No messages yet."))
	}
	for _, e := range page.Messages {
		fmt.Fprintln(w, RenderEntry(e))
	}
	for _, f := range page.Flashes {
		fmt.Fprintln(w, RenderFlash(f))
	}
}
