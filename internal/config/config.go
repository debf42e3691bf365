// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/chatwatch/internal/fragment"
	"github.com/jeranaias/chatwatch/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete chatwatch configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	Server   ServerConfig   `toml:"server" json:"server"`
	Refresh  RefreshConfig  `toml:"refresh" json:"refresh"`
	Fragment FragmentConfig `toml:"fragment" json:"fragment"`
	UI       UIConfig       `toml:"ui" json:"ui"`
	Storage  StorageConfig  `toml:"storage" json:"storage"`
	Log      LogConfig      `toml:"log" json:"log"`
}

// ServerConfig describes how to reach the chat server.
type ServerConfig struct {
	// URL is the chat page, e.g. http://localhost:5000/student/chat
	URL string `toml:"url" json:"url"`
	// Session is the value of the logged-in session cookie
	Session string `toml:"session" json:"session"`
	// SessionCookie is the cookie name (Flask uses "session")
	SessionCookie string `toml:"session_cookie" json:"session_cookie"`
	// UserAgent sent with every request
	UserAgent string `toml:"user_agent" json:"user_agent"`
	// TimeoutSecs bounds whole requests outside the refresh loop (0 = none)
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
}

// RefreshConfig controls the polling loop.
type RefreshConfig struct {
	// IntervalMs is the period between refresh cycles
	IntervalMs int `toml:"interval_ms" json:"interval_ms"`
	// TriggerPath must appear in the page path for polling to run
	TriggerPath string `toml:"trigger_path" json:"trigger_path"`
	// NearBottom is the distance from the bottom, in pixels, that still
	// counts as following the conversation (at least 1; unset means 50)
	NearBottom int `toml:"near_bottom" json:"near_bottom"`
	// FetchTimeoutMs bounds one fetch (0 = no timeout)
	FetchTimeoutMs int `toml:"fetch_timeout_ms" json:"fetch_timeout_ms"`
	// DropStale discards cycles that finish after a newer one was applied
	DropStale bool `toml:"drop_stale" json:"drop_stale"`
	// ManualEveryMs spaces out manual refreshes
	ManualEveryMs int `toml:"manual_every_ms" json:"manual_every_ms"`
}

// FragmentConfig describes the chat page layout with CSS selectors.
type FragmentConfig struct {
	Selector    string   `toml:"selector" json:"selector"`
	Entry       string   `toml:"entry" json:"entry"`
	Author      string   `toml:"author" json:"author"`
	Time        string   `toml:"time" json:"time"`
	Body        string   `toml:"body" json:"body"`
	MineClasses []string `toml:"mine_classes" json:"mine_classes"`
	Flash       string   `toml:"flash" json:"flash"`
	Form        string   `toml:"form" json:"form"`
	// ComposeField is the form field the compose box fills in
	ComposeField string `toml:"compose_field" json:"compose_field"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	// Theme is "dark", "light" or "auto"
	Theme string `toml:"theme" json:"theme"`
	// RowPixels converts terminal rows into the pixel units of the
	// near-bottom threshold
	RowPixels int `toml:"row_pixels" json:"row_pixels"`
	// ShowTimestamps renders each entry's time column
	ShowTimestamps bool `toml:"show_timestamps" json:"show_timestamps"`
	// AltScreen runs the TUI in the alternate screen buffer
	AltScreen bool `toml:"alt_screen" json:"alt_screen"`
	// Mouse enables wheel scrolling
	Mouse bool `toml:"mouse" json:"mouse"`
}

// StorageConfig controls fragment snapshots.
type StorageConfig struct {
	// Snapshots keeps the last applied fragment per page
	Snapshots bool `toml:"snapshots" json:"snapshots"`
	// Path of the snapshot database (empty = ~/.chatwatch/snapshots.db)
	Path string `toml:"path" json:"path"`
	// MaxAgeHours prunes older snapshots on start (0 = keep forever)
	MaxAgeHours int `toml:"max_age_hours" json:"max_age_hours"`
}

// LogConfig controls the diagnostic log.
type LogConfig struct {
	// File receives log lines in TUI mode (empty = ~/.chatwatch/chatwatch.log)
	File string `toml:"file" json:"file"`
	// Debug enables verbose logging
	Debug bool `toml:"debug" json:"debug"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// CurrentVersion is written into new config files.
const CurrentVersion = "1"

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Server: ServerConfig{
			SessionCookie: "session",
			UserAgent:     "chatwatch",
		},
		Refresh: RefreshConfig{
			IntervalMs:    5000,
			TriggerPath:   "/chat",
			NearBottom:    50,
			ManualEveryMs: 1000,
		},
		Fragment: FragmentConfig{
			Selector:     ".chat-messages",
			Entry:        ".message",
			Author:       ".message-sender",
			Time:         ".message-time",
			Body:         ".message-content",
			MineClasses:  []string{"sent", "message-sent", "own"},
			Flash:        ".alert",
			Form:         "form[action*=\"send\"]",
			ComposeField: "content",
		},
		UI: UIConfig{
			Theme:          "dark",
			RowPixels:      16,
			ShowTimestamps: true,
			AltScreen:      true,
			Mouse:          true,
		},
		Storage: StorageConfig{
			Snapshots:   true,
			MaxAgeHours: 24 * 7,
		},
	}
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// Interval returns the polling period.
func (r RefreshConfig) Interval() time.Duration {
	return time.Duration(r.IntervalMs) * time.Millisecond
}

// FetchTimeout returns the per-fetch timeout, zero for none.
func (r RefreshConfig) FetchTimeout() time.Duration {
	return time.Duration(r.FetchTimeoutMs) * time.Millisecond
}

// ManualEvery returns the minimum spacing of manual refreshes.
func (r RefreshConfig) ManualEvery() time.Duration {
	return time.Duration(r.ManualEveryMs) * time.Millisecond
}

// Timeout returns the request timeout, zero for none.
func (s ServerConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSecs) * time.Second
}

// FragmentSelector compiles the chat-messages selector.
func (f FragmentConfig) FragmentSelector() (fragment.Selector, error) {
	return fragment.Compile(f.Selector)
}

// FlashSelector compiles the flash message selector.
func (f FragmentConfig) FlashSelector() (fragment.Selector, error) {
	return fragment.Compile(f.Flash)
}

// FormSelector compiles the chat form selector.
func (f FragmentConfig) FormSelector() (fragment.Selector, error) {
	return fragment.Compile(f.Form)
}

// EntrySelectors compiles the per-message selectors.
func (f FragmentConfig) EntrySelectors() (fragment.EntrySelectors, error) {
	return fragment.CompileEntrySelectors(f.Entry, f.Author, f.Time, f.Body, f.MineClasses)
}

// SnapshotPath returns where snapshots are stored.
func (s StorageConfig) SnapshotPath() (string, error) {
	if s.Path != "" {
		return s.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "snapshots.db"), nil
}

// MaxAge returns the snapshot retention, zero for forever.
func (s StorageConfig) MaxAge() time.Duration {
	return time.Duration(s.MaxAgeHours) * time.Hour
}

// LogPath returns the TUI log file.
func (l LogConfig) LogPath() (string, error) {
	if l.File != "" {
		return l.File, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "chatwatch.log"), nil
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the chatwatch configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".chatwatch"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// ensureSecurePermissions tightens a config file to 0600, since it may hold
// a session cookie.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
//
// A file that fails to decode does not stop loading: the defaults are
// returned together with the decode error.
func Load() (*Config, error) {
	var loadErr error

	for _, candidate := range []func() (string, error){ConfigPathTOML, ConfigPathJSON} {
		path, err := candidate()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		cfg := Default()
		if err := loadFile(cfg, path); err != nil {
			loadErr = err
			continue
		}
		return finalize(cfg)
	}

	cfg, err := finalize(Default())
	if err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// LoadFromPath loads configuration from a specific file with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := loadFile(cfg, path); err != nil {
		return nil, err
	}
	return finalize(cfg)
}

func loadFile(cfg *Config, path string) error {
	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
		return nil
	}
	if err := LoadTOML(cfg, path); err != nil {
		return fmt.Errorf("failed to load TOML config from %s: %w", path, err)
	}
	return nil
}

func finalize(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// SetDefaults fills zero values that have no meaningful zero.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Version == "" {
		c.Version = d.Version
	}
	if c.Server.SessionCookie == "" {
		c.Server.SessionCookie = d.Server.SessionCookie
	}
	if c.Server.UserAgent == "" {
		c.Server.UserAgent = d.Server.UserAgent
	}
	if c.Refresh.IntervalMs == 0 {
		c.Refresh.IntervalMs = d.Refresh.IntervalMs
	}
	if c.Refresh.TriggerPath == "" {
		c.Refresh.TriggerPath = d.Refresh.TriggerPath
	}
	if c.Refresh.NearBottom == 0 {
		c.Refresh.NearBottom = d.Refresh.NearBottom
	}
	if c.Refresh.ManualEveryMs == 0 {
		c.Refresh.ManualEveryMs = d.Refresh.ManualEveryMs
	}
	if c.Fragment.Selector == "" {
		c.Fragment.Selector = d.Fragment.Selector
	}
	if c.Fragment.Entry == "" {
		c.Fragment.Entry = d.Fragment.Entry
	}
	if c.Fragment.Flash == "" {
		c.Fragment.Flash = d.Fragment.Flash
	}
	if c.Fragment.Form == "" {
		c.Fragment.Form = d.Fragment.Form
	}
	if c.Fragment.ComposeField == "" {
		c.Fragment.ComposeField = d.Fragment.ComposeField
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.UI.RowPixels == 0 {
		c.UI.RowPixels = d.UI.RowPixels
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg to path with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("# chatwatch configuration file\n")
	b.WriteString("# server.session holds your login cookie; keep this file private.\n\n")
	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes cfg as indented JSON with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// MinIntervalMs is the shortest accepted polling period.
const MinIntervalMs = 250

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...interface{}) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if c.Server.URL != "" {
		u, err := url.Parse(c.Server.URL)
		switch {
		case err != nil:
			add("server.url", "invalid URL: %v", err)
		case u.Scheme != "http" && u.Scheme != "https":
			add("server.url", "must use http or https, got %q", u.Scheme)
		case u.Host == "":
			add("server.url", "missing host")
		}
	}
	if strings.ContainsAny(c.Server.SessionCookie, " ;=") {
		add("server.session_cookie", "invalid cookie name %q", c.Server.SessionCookie)
	}
	if c.Server.TimeoutSecs < 0 {
		add("server.timeout_secs", "must not be negative")
	}

	if c.Refresh.IntervalMs < MinIntervalMs {
		add("refresh.interval_ms", "must be at least %d, got %d", MinIntervalMs, c.Refresh.IntervalMs)
	}
	if !strings.HasPrefix(c.Refresh.TriggerPath, "/") {
		add("refresh.trigger_path", "must start with '/', got %q", c.Refresh.TriggerPath)
	}
	if c.Refresh.NearBottom < 1 {
		add("refresh.near_bottom", "must be at least 1, got %d", c.Refresh.NearBottom)
	}
	if c.Refresh.FetchTimeoutMs < 0 {
		add("refresh.fetch_timeout_ms", "must not be negative")
	}
	if c.Refresh.ManualEveryMs < 0 {
		add("refresh.manual_every_ms", "must not be negative")
	}

	for field, sel := range map[string]string{
		"fragment.selector": c.Fragment.Selector,
		"fragment.entry":    c.Fragment.Entry,
		"fragment.flash":    c.Fragment.Flash,
		"fragment.form":     c.Fragment.Form,
	} {
		if _, err := fragment.Compile(sel); err != nil {
			add(field, "%v", err)
		}
	}
	if _, err := c.Fragment.EntrySelectors(); err != nil {
		add("fragment", "%v", err)
	}

	switch c.UI.Theme {
	case "dark", "light", "auto":
	default:
		add("ui.theme", "must be dark, light or auto, got %q", c.UI.Theme)
	}
	if c.UI.RowPixels < 1 || c.UI.RowPixels > 100 {
		add("ui.row_pixels", "must be between 1 and 100, got %d", c.UI.RowPixels)
	}

	if c.Storage.MaxAgeHours < 0 {
		add("storage.max_age_hours", "must not be negative")
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - CHATWATCH_URL: overrides server.url
//   - CHATWATCH_SESSION: overrides server.session
//   - CHATWATCH_INTERVAL_MS: overrides refresh.interval_ms
//   - CHATWATCH_SELECTOR: overrides fragment.selector
//   - CHATWATCH_LOG_FILE: overrides log.file
//   - CHATWATCH_DEBUG: set to "1" or "true" to enable debug logging
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("CHATWATCH_URL"); v != "" {
		c.Server.URL = v
	}
	if v := os.Getenv("CHATWATCH_SESSION"); v != "" {
		c.Server.Session = v
	}
	if v := os.Getenv("CHATWATCH_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			c.Refresh.IntervalMs = ms
		}
	}
	if v := os.Getenv("CHATWATCH_SELECTOR"); v != "" {
		c.Fragment.Selector = v
	}
	if v := os.Getenv("CHATWATCH_LOG_FILE"); v != "" {
		c.Log.File = v
	}
	if v := os.Getenv("CHATWATCH_DEBUG"); v != "" {
		c.Log.Debug = v == "1" || strings.EqualFold(v, "true")
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "refresh.interval_ms").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "refresh.interval_ms").
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Bool:
			lower := strings.ToLower(strVal)
			field.SetBool(lower == "1" || lower == "true" || lower == "yes")
			return nil
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				var items []string
				for _, s := range strings.Split(strVal, ",") {
					if s = strings.TrimSpace(s); s != "" {
						items = append(items, s)
					}
				}
				field.Set(reflect.ValueOf(items))
				return nil
			}
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) && val.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	var keys []string
	collectKeys(reflect.TypeOf(Config{}), "", &keys)
	return keys
}

func collectKeys(t reflect.Type, prefix string, keys *[]string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := strings.Split(f.Tag.Get("toml"), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		if f.Type.Kind() == reflect.Struct {
			collectKeys(f.Type, prefix+name+".", keys)
			continue
		}
		*keys = append(*keys, prefix+name)
	}
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Fragment.MineClasses = append([]string(nil), c.Fragment.MineClasses...)
	return &clone
}

// String returns the config as JSON with the session cookie redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Server.Session != "" {
		safe.Server.Session = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		if cfg == nil {
			cfg = Default()
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
