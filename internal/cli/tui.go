// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tui.go - The default command: a live chat view.
//
// Command: tui [url]
// Short:   Live chat view
//
// The refresher runs in the background and hands every container update to
// the Bubble Tea program through a Bridge, so the view is only touched from
// Update. Log lines go to the configured log file.

package cli

import (
	"context"
	"fmt"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatwatch/internal/config"
	"github.com/jeranaias/chatwatch/internal/ui/chat"
)

// HandleTUI runs the live chat view until the user quits.
func HandleTUI(args Args) error {
	if !IsStdoutTTY() {
		return &UsageError{
			Message: "the chat view needs a terminal",
			Example: "chatwatch tail " + args.URL,
		}
	}

	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}

	logPath, err := cfg.Log.LogPath()
	if err != nil {
		return err
	}
	logFile, err := tea.LogToFile(logPath, "chatwatch")
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	log.Printf("TUI_START | url=%s interval=%s version=%s", cfg.Server.URL, cfg.Refresh.Interval(), Version)

	client, err := NewClient(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	opts := chat.Options{Config: cfg, Client: client}

	store, err := OpenSnapshots(ctx, cfg)
	if err != nil {
		// Snapshots only speed up the first paint.
		log.Printf("SNAPSHOT_OPEN_FAILED | error=%v", err)
	}
	if store != nil {
		defer store.Close()
		opts.Snapshots = store
	}

	bridge := chat.NewBridge()
	opts.Dispatcher = bridge.Dispatch

	m, err := chat.New(opts)
	if err != nil {
		return err
	}
	defer m.Refresher().Stop()

	programOpts := []tea.ProgramOption{}
	if cfg.UI.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	if cfg.UI.Mouse {
		programOpts = append(programOpts, tea.WithMouseCellMotion())
	}
	p := tea.NewProgram(m, programOpts...)
	bridge.Attach(p)

	if w := watchConfig(args, bridge); w != nil {
		defer w.Close()
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat view: %w", err)
	}
	log.Printf("TUI_EXIT | url=%s stats=%+v", cfg.Server.URL, m.Refresher().Stats())
	return nil
}

// watchConfig forwards config file changes to the program. Command-line
// overrides are re-applied to every reloaded config.
func watchConfig(args Args, bridge *chat.Bridge) *config.Watcher {
	path, err := ConfigPath(args)
	if err != nil {
		return nil
	}
	w, err := config.Watch(path, config.DefaultWatchDebounce, func(cfg *config.Config, err error) {
		if err == nil {
			err = applyArgs(cfg, args)
		}
		if err != nil {
			log.Printf("CONFIG_RELOAD_FAILED | path=%s error=%v", path, err)
			bridge.Send(chat.ConfigReloadedMsg{Err: err})
			return
		}
		log.Printf("CONFIG_RELOADED | path=%s", path)
		config.SetGlobal(cfg)
		bridge.Send(chat.ConfigReloadedMsg{Config: cfg})
	})
	if err != nil {
		log.Printf("CONFIG_WATCH_DISABLED | path=%s error=%v", path, err)
		return nil
	}
	return w
}
