// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation.
//
// Command: config [subcommand]
// Short:   View and modify configuration
//
// Subcommands:
//   show (default)      Display current configuration
//   path                Show configuration file path
//   init [--force]      Write a config file with the defaults
//   get <key>           Print one value
//   set <key> <value>   Set a configuration value
//
// Examples:
//   chatwatch config
//   chatwatch config show --json
//   chatwatch config set server.url http://localhost:5000/student/chat
//   chatwatch config set refresh.interval_ms 3000
//   chatwatch config set fragment.mine_classes sent,own
//   chatwatch config get refresh.trigger_path
//
// Keys use dot notation; "chatwatch config show" lists them all.

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jeranaias/chatwatch/internal/config"
)

// HandleConfig handles the "config" command.
func HandleConfig(args Args) error {
	path, err := ConfigPath(args)
	if err != nil {
		return err
	}

	switch args.Subcommand {
	case "", "show", "list":
		return configShow(os.Stdout, args, path)
	case "path":
		return configPath(os.Stdout, args, path)
	case "init":
		force := NewArgParser(args.Raw, "force").BoolFlag("force")
		return configInit(os.Stdout, args, path, force)
	case "get":
		return configGet(os.Stdout, args, path)
	case "set":
		return configSet(os.Stdout, args, path)
	default:
		return &UsageError{
			Message: "unknown config subcommand: " + args.Subcommand,
			Example: "chatwatch config show",
		}
	}
}

// readConfigFile loads the file at path over the defaults, without
// environment overrides, so that saving it back writes only what the file
// and the user put there.
func readConfigFile(path string) (*config.Config, bool, error) {
	cfg := config.Default()
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, false, nil
		}
		return nil, false, err
	}

	load := config.LoadTOML
	if strings.HasSuffix(path, ".json") {
		load = config.LoadJSON
	}
	if err := load(cfg, path); err != nil {
		return nil, true, err
	}
	cfg.SetDefaults()
	return cfg, true, nil
}

func writeConfigFile(cfg *config.Config, path string) error {
	if strings.HasSuffix(path, ".json") {
		return config.SaveJSON(cfg, path)
	}
	return config.SaveTOML(cfg, path)
}

// displayValue hides the session cookie.
func displayValue(key string, value interface{}) string {
	s := fmt.Sprint(value)
	if key == "server.session" && s != "" {
		return "[set]"
	}
	if list, ok := value.([]string); ok {
		s = strings.Join(list, ",")
	}
	if s == "" {
		return "(empty)"
	}
	return s
}

// =============================================================================
// SUBCOMMANDS
// =============================================================================

func configShow(w io.Writer, args Args, path string) error {
	cfg, _, err := readConfigFile(path)
	if err != nil {
		return NewCommandError("config", "show", err)
	}
	cfg.ApplyEnvOverrides()

	if args.JSON {
		values := make(map[string]interface{})
		for _, key := range config.GetAllKeys() {
			v, _ := cfg.Get(key)
			if key == "server.session" {
				v = displayValue(key, v)
			}
			values[key] = v
		}
		return NewJSONResponse("config show", map[string]interface{}{
			"path":   path,
			"values": values,
		}).Write(w)
	}

	fmt.Fprintln(w, RenderConditional(TitleStyle, "chatwatch configuration"))
	fmt.Fprintln(w, RenderConditional(DimStyle, path))

	section := ""
	for _, key := range config.GetAllKeys() {
		if i := strings.Index(key, "."); i > 0 && key[:i] != section {
			section = key[:i]
			fmt.Fprintln(w)
			fmt.Fprintln(w, RenderConditional(TitleStyle, "["+section+"]"))
		}
		v, err := cfg.Get(key)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "  %s%s\n", RenderLabel(key), RenderConditional(ValueStyle, displayValue(key, v)))
	}
	return nil
}

func configPath(w io.Writer, args Args, path string) error {
	_, err := os.Stat(path)
	exists := err == nil
	if args.JSON {
		return NewJSONResponse("config path", ConfigPathData{Path: path, Exists: exists}).Write(w)
	}
	fmt.Fprintln(w, path)
	if !exists && !args.Quiet {
		fmt.Fprintln(w, RenderConditional(DimStyle, "(not created yet; run 'chatwatch config init')"))
	}
	return nil
}

func configInit(w io.Writer, args Args, path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return &UsageError{
			Message: "config file already exists: " + path,
			Example: "chatwatch config init --force",
		}
	}
	if err := writeConfigFile(config.Default(), path); err != nil {
		return NewCommandError("config", "init", err)
	}
	if args.JSON {
		return NewJSONResponse("config init", ConfigPathData{Path: path, Exists: true}).Write(w)
	}
	fmt.Fprintf(w, "%s wrote %s\n", RenderConditional(SuccessStyle, "[OK]"), path)
	return nil
}

func configGet(w io.Writer, args Args, path string) error {
	if len(args.ConfigArgs) < 1 {
		return &UsageError{Message: "no config key provided", Example: "chatwatch config get refresh.interval_ms"}
	}
	key := strings.ToLower(args.ConfigArgs[0])

	cfg, _, err := readConfigFile(path)
	if err != nil {
		return NewCommandError("config", "get", err)
	}
	cfg.ApplyEnvOverrides()

	v, err := cfg.Get(key)
	if err != nil {
		return NewCommandError("config", "get", err)
	}
	if args.JSON {
		return NewJSONResponse("config get", ConfigValueData{Key: key, Value: displayValue(key, v)}).Write(w)
	}
	fmt.Fprintln(w, displayValue(key, v))
	return nil
}

func configSet(w io.Writer, args Args, path string) error {
	if len(args.ConfigArgs) < 2 {
		return &UsageError{Message: "usage: chatwatch config set <key> <value>", Example: "chatwatch config set refresh.interval_ms 3000"}
	}
	key := strings.ToLower(args.ConfigArgs[0])
	value := strings.Join(args.ConfigArgs[1:], " ")

	cfg, _, err := readConfigFile(path)
	if err != nil {
		return NewCommandError("config", "set", err)
	}
	if err := cfg.Set(key, value); err != nil {
		return NewCommandError("config", "set", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration value: %w", err)
	}
	if err := writeConfigFile(cfg, path); err != nil {
		return NewCommandError("config", "set", err)
	}

	v, _ := cfg.Get(key)
	if args.JSON {
		return NewJSONResponse("config set", ConfigValueData{Key: key, Value: displayValue(key, v)}).Write(w)
	}
	fmt.Fprintf(w, "%s %s = %s\n", RenderConditional(SuccessStyle, "[OK]"), key, displayValue(key, v))
	return nil
}
