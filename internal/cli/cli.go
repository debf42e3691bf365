// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command-line parsing for chatwatch.
//
// Commands:
//   chatwatch [tui] [url]          Live chat view (default)
//   chatwatch tail [url]           Print new messages as they arrive
//   chatwatch once [url]           Fetch the page once and print it
//   chatwatch config [subcommand]  View and modify configuration
//   chatwatch version              Show version information
//   chatwatch help                 Show help

package cli

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Version information (set by main at startup).
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents a CLI command.
type Command int

const (
	CmdTUI Command = iota
	CmdTail
	CmdOnce
	CmdConfig
	CmdVersion
	CmdHelp
	CmdUnknown
)

// String returns the command name.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdTail:
		return "tail"
	case CmdOnce:
		return "once"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Args holds parsed command-line arguments.
type Args struct {
	// Global flags
	Verbose    bool
	Quiet      bool
	JSON       bool
	ConfigPath string
	IntervalMs int
	Session    string

	// URL of the chat page, when given on the command line
	URL string

	// tail
	Compose bool

	// once
	Cached    bool
	Export    string
	OutputDir string

	// config
	Subcommand string
	ConfigArgs []string

	// Unknown holds the unrecognised command word
	Unknown string

	// Raw arguments after the command word
	Raw []string
}

const usageText = `chatwatch %s - live view of a server-rendered chat page

USAGE:
    chatwatch [command] [options] [url]

COMMANDS:
    tui [url]            Live chat view (default)
    tail [url]           Print new messages as they arrive
    once [url]           Fetch the page once and print the messages
    config [cmd]         Manage configuration (show|path|init|get|set)
    version              Show version information
    help                 Show this help

GLOBAL OPTIONS:
    --config <path>      Use this config file instead of ~/.chatwatch/config.toml
    --interval <ms>      Refresh interval in milliseconds (default 5000)
    --session <cookie>   Session cookie value of a logged-in user
    --json               JSON output (once, config, version)
    -v, --verbose        Log to stderr (tail, once)
    -q, --quiet          Only print messages
    -h, --help           Show this help

TAIL OPTIONS:
    --compose            Read lines from the terminal and post them

ONCE OPTIONS:
    --cached             Print the stored snapshot instead of fetching
    --export <format>    Also write the messages to a file (markdown|html|json|text)
    --output <dir>       Directory for --export (default: current directory)

EXAMPLES:
    chatwatch http://localhost:5000/student/chat
    chatwatch tail --compose http://localhost:5000/student/chat
    chatwatch once --json http://localhost:5000/teacher/chat
    chatwatch once --cached --export html --output ~/chats
    chatwatch config set refresh.interval_ms 3000

The page is polled only when its path contains /chat.

ENVIRONMENT:
    CHATWATCH_URL, CHATWATCH_SESSION, CHATWATCH_INTERVAL_MS,
    CHATWATCH_SELECTOR, CHATWATCH_LOG_FILE, CHATWATCH_DEBUG
`

// PrintUsage prints the usage text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("chatwatch version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses os.Args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses args (without the program name) into a command.
func ParseArgs(args []string) (Command, Args) {
	remaining, parsedArgs := parseGlobalFlags(args)

	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	word := remaining[0]
	cmd := strings.ToLower(word)
	rest := remaining[1:]
	parsedArgs.Raw = rest

	switch cmd {
	case "tui":
		parseURLArgs(&parsedArgs, rest)
		return CmdTUI, parsedArgs

	case "tail", "watch":
		p := parseURLArgs(&parsedArgs, rest, "compose")
		parsedArgs.Compose = p.BoolFlag("compose")
		return CmdTail, parsedArgs

	case "once", "fetch":
		p := parseURLArgs(&parsedArgs, rest, "cached")
		parsedArgs.Cached = p.BoolFlag("cached")
		parsedArgs.Export = p.Flag("export")
		parsedArgs.OutputDir = p.Flag("output")
		return CmdOnce, parsedArgs

	case "config":
		p := NewArgParser(rest, "json")
		parsedArgs.Subcommand = strings.ToLower(p.Subcommand())
		parsedArgs.ConfigArgs = p.PositionalFrom(1)
		if p.BoolFlag("json") {
			parsedArgs.JSON = true
		}
		return CmdConfig, parsedArgs

	case "version", "--version":
		return CmdVersion, parsedArgs

	case "help", "--help", "-h":
		return CmdHelp, parsedArgs
	}

	// A bare URL opens the TUI.
	if looksLikeURL(word) {
		parseURLArgs(&parsedArgs, remaining)
		parsedArgs.Raw = remaining
		return CmdTUI, parsedArgs
	}

	parsedArgs.Unknown = word
	return CmdUnknown, parsedArgs
}

// parseGlobalFlags pulls global flags out of args, wherever they appear.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	value := func(i *int, arg, name string) (string, bool) {
		if arg == name {
			if *i+1 < len(args) {
				*i++
				return args[*i], true
			}
			return "", true
		}
		if strings.HasPrefix(arg, name+"=") {
			return strings.TrimPrefix(arg, name+"="), true
		}
		return "", false
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
			continue
		case "-v", "--verbose":
			parsedArgs.Verbose = true
			continue
		case "--json":
			parsedArgs.JSON = true
			continue
		}

		if v, ok := value(&i, arg, "--config"); ok {
			parsedArgs.ConfigPath = v
			continue
		}
		if v, ok := value(&i, arg, "--session"); ok {
			parsedArgs.Session = v
			continue
		}
		if v, ok := value(&i, arg, "--interval"); ok {
			if ms, err := strconv.Atoi(v); err == nil {
				parsedArgs.IntervalMs = ms
			}
			continue
		}

		remaining = append(remaining, arg)
	}

	return remaining, parsedArgs
}

// parseURLArgs takes the first positional as the page URL.
func parseURLArgs(args *Args, rest []string, boolNames ...string) *ArgParser {
	p := NewArgParser(rest, boolNames...)
	if url := p.Positional(0); url != "" {
		args.URL = url
	}
	return p
}

func looksLikeURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// =============================================================================
// VERSION AND HELP
// =============================================================================

// VersionData is the JSON form of the version command.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// HandleVersion handles the "version" command.
func HandleVersion(args Args) error {
	if args.JSON {
		return NewJSONResponse("version", VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
			Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		}).Print()
	}
	PrintVersion()
	return nil
}

// HandleHelp handles the "help" command.
func HandleHelp() {
	PrintUsage()
}
