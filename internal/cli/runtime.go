// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// runtime.go - Setup shared by the tui, tail and once commands.

package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/jeranaias/chatwatch/internal/config"
	"github.com/jeranaias/chatwatch/internal/storage"
	"github.com/jeranaias/chatwatch/internal/web"
)

// ConfigPath returns the config file a command should use.
func ConfigPath(args Args) (string, error) {
	if args.ConfigPath != "" {
		return args.ConfigPath, nil
	}
	return config.ConfigPathTOML()
}

// LoadConfig loads the configuration and applies command-line overrides.
// A config file that fails to decode is reported on stderr and the defaults
// are used; invalid values are an error.
func LoadConfig(args Args) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(args.ConfigPath)
		if err != nil {
			return nil, err
		}
	} else {
		cfg, err = config.Load()
		if cfg == nil {
			return nil, err
		}
		if err != nil && !args.Quiet {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
	}

	if err := applyArgs(cfg, args); err != nil {
		return nil, err
	}
	config.SetGlobal(cfg)
	return cfg, nil
}

// applyArgs copies flag values over cfg and revalidates it.
func applyArgs(cfg *config.Config, args Args) error {
	if args.URL != "" {
		cfg.Server.URL = args.URL
	}
	if args.Session != "" {
		cfg.Server.Session = args.Session
	}
	if args.IntervalMs > 0 {
		cfg.Refresh.IntervalMs = args.IntervalMs
	}
	if args.Verbose {
		cfg.Log.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	if cfg.Server.URL == "" {
		return ErrNoURL
	}
	return nil
}

// NewClient builds the web client for cfg's chat page.
func NewClient(cfg *config.Config) (*web.Client, error) {
	client, err := web.New(web.Config{
		Session:       cfg.Server.Session,
		SessionCookie: cfg.Server.SessionCookie,
		UserAgent:     cfg.Server.UserAgent,
		Timeout:       cfg.Server.Timeout(),
	})
	if err != nil {
		return nil, err
	}
	if err := client.Authorize(cfg.Server.URL); err != nil {
		return nil, err
	}
	if !client.HasSession() {
		log.Printf("SESSION_MISSING | url=%s", cfg.Server.URL)
	}
	return client, nil
}

// OpenSnapshots opens the snapshot store and prunes expired entries. It
// returns nil when snapshots are disabled.
func OpenSnapshots(ctx context.Context, cfg *config.Config) (*storage.SnapshotStore, error) {
	if !cfg.Storage.Snapshots {
		return nil, nil
	}
	path, err := cfg.Storage.SnapshotPath()
	if err != nil {
		return nil, err
	}
	store, err := storage.OpenSnapshots(path)
	if err != nil {
		return nil, err
	}
	if maxAge := cfg.Storage.MaxAge(); maxAge > 0 {
		n, err := store.Prune(ctx, time.Now().Add(-maxAge))
		if err != nil {
			log.Printf("SNAPSHOT_PRUNE_FAILED | error=%v", err)
		} else if n > 0 {
			log.Printf("SNAPSHOT_PRUNED | count=%d", n)
		}
	}
	return store, nil
}

// SetupStderrLogging sends log output to stderr with -v and discards it
// otherwise.
func SetupStderrLogging(args Args) {
	if args.Verbose {
		log.SetOutput(os.Stderr)
		log.SetFlags(log.Ltime | log.Lmicroseconds)
		return
	}
	log.SetOutput(io.Discard)
}

// intervalLabel formats a polling interval for status lines.
func intervalLabel(d time.Duration) string {
	if d%time.Second == 0 {
		return strconv.Itoa(int(d/time.Second)) + "s"
	}
	return d.String()
}
