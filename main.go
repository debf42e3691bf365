// chatwatch - A live terminal view of a server-rendered classroom chat.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	"github.com/jeranaias/chatwatch/internal/cli"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	var err error
	switch cmd {
	case cli.CmdTUI:
		err = cli.HandleTUI(args)
	case cli.CmdTail:
		err = cli.HandleTail(args)
	case cli.CmdOnce:
		err = cli.HandleOnce(args)
	case cli.CmdConfig:
		err = cli.HandleConfig(args)
	case cli.CmdVersion:
		err = cli.HandleVersion(args)
	case cli.CmdHelp:
		cli.HandleHelp()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args.Unknown)
		cli.PrintUsage()
		os.Exit(cli.ExitUsageError)
	}

	if err != nil {
		cli.Exit(cmd.String(), err, args.JSON)
	}
}
