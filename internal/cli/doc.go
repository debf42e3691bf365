// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the chatwatch commands.
//
// # Key Types
//
//   - Command: the subcommand selected on the command line
//   - Args: parsed global and per-command flags
//   - ArgParser: flag and positional splitting for subcommands
//   - JSONResponse: the envelope printed by --json
//
// # Usage
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdTUI:
//	    err = cli.HandleTUI(args)
//	case cli.CmdTail:
//	    err = cli.HandleTail(args)
//	// ... other commands
//	}
//	if err != nil {
//	    cli.Exit(cmd.String(), err, args.JSON)
//	}
//
// # Commands Overview
//
//   - tui: live chat view (default)
//   - tail: print new messages as they arrive, optionally posting lines
//   - once: print the page's messages, or its stored snapshot, once;
//     --export also writes them to a file
//   - config: show, path, init, get, set
//   - version, help
package cli
