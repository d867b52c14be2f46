// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/jeranaias/slashcmd/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete slashcmd configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Built-in command limits
	Commands CommandsConfig `toml:"commands" json:"commands"`

	// Invocation runner
	Runner RunnerConfig `toml:"runner" json:"runner"`

	// In-memory output cache
	Cache CacheConfig `toml:"cache" json:"cache"`

	// Symbol index backing /symbols
	Index IndexConfig `toml:"index" json:"index"`

	// Logging
	Log LogConfig `toml:"log" json:"log"`

	// Terminal rendering
	UI UIConfig `toml:"ui" json:"ui"`
}

// CommandsConfig contains limits for the built-in commands.
type CommandsConfig struct {
	// MaxFileSize is the largest file /file will include, in bytes
	MaxFileSize int64 `toml:"max_file_size" json:"max_file_size"`
	// MaxFileLines truncates included files after this many lines
	MaxFileLines int `toml:"max_file_lines" json:"max_file_lines"`
	// MaxFiles caps how many files one /file glob may expand to
	MaxFiles int `toml:"max_files" json:"max_files"`
	// TreeDepth is the default depth of /tree
	TreeDepth int `toml:"tree_depth" json:"tree_depth"`
	// IgnorePatterns are skipped by /file, /tree and the index
	IgnorePatterns []string `toml:"ignore_patterns" json:"ignore_patterns"`
	// GitTimeoutSecs bounds each git invocation made by /git
	GitTimeoutSecs int `toml:"git_timeout_secs" json:"git_timeout_secs"`
	// GitLogCount is the number of commits listed by /git
	GitLogCount int `toml:"git_log_count" json:"git_log_count"`
	// Disabled lists command names that are not registered
	Disabled []string `toml:"disabled" json:"disabled"`
	// CompletionLimit caps completions shown per request
	CompletionLimit int `toml:"completion_limit" json:"completion_limit"`
}

// RunnerConfig contains invocation runner settings.
type RunnerConfig struct {
	// MaxConcurrent is the number of commands allowed to run at once
	MaxConcurrent int `toml:"max_concurrent" json:"max_concurrent"`
	// TimeoutSecs bounds a single invocation
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// RatePerSecond limits invocation starts (0 = unlimited)
	RatePerSecond float64 `toml:"rate_per_second" json:"rate_per_second"`
	// Burst is the rate limiter burst size
	Burst int `toml:"burst" json:"burst"`
	// StreamBuffer is the event buffer between command and consumer
	StreamBuffer int `toml:"stream_buffer" json:"stream_buffer"`
}

// Timeout returns TimeoutSecs as a duration.
func (r RunnerConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSecs) * time.Second
}

// CacheConfig contains output cache settings.
type CacheConfig struct {
	// Enabled controls whether finished outputs are cached
	Enabled bool `toml:"enabled" json:"enabled"`
	// MaxEntries is the LRU capacity
	MaxEntries int `toml:"max_entries" json:"max_entries"`
	// TTLMinutes expires entries after this long (0 = never)
	TTLMinutes int `toml:"ttl_minutes" json:"ttl_minutes"`
}

// TTL returns TTLMinutes as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// IndexConfig contains symbol index settings.
type IndexConfig struct {
	// Enabled registers /symbols
	Enabled bool `toml:"enabled" json:"enabled"`
	// DBPath overrides the index database location. Empty means
	// <workspace>/.slashcmd/index.db
	DBPath string `toml:"db_path" json:"db_path"`
	// Watch keeps the index current with a file watcher
	Watch bool `toml:"watch" json:"watch"`
	// MaxFileSizeKB skips larger files when indexing
	MaxFileSizeKB int `toml:"max_file_size_kb" json:"max_file_size_kb"`
	// DebounceMs coalesces watcher events
	DebounceMs int `toml:"debounce_ms" json:"debounce_ms"`
}

// Debounce returns DebounceMs as a duration.
func (i IndexConfig) Debounce() time.Duration {
	return time.Duration(i.DebounceMs) * time.Millisecond
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of trace, debug, info, warn, error
	Level string `toml:"level" json:"level"`
	// JSON switches from console to JSON output
	JSON bool `toml:"json" json:"json"`
	// NoColor disables console colors
	NoColor bool `toml:"no_color" json:"no_color"`
}

// UIConfig contains terminal rendering settings.
type UIConfig struct {
	// Theme is "dark", "light" or "auto"
	Theme string `toml:"theme" json:"theme"`
	// Highlight enables syntax highlighting of code sections
	Highlight bool `toml:"highlight" json:"highlight"`
	// ChromaStyle is the highlighting style name
	ChromaStyle string `toml:"chroma_style" json:"chroma_style"`
	// WordWrap is the markdown rendering width
	WordWrap int `toml:"word_wrap" json:"word_wrap"`
	// HistoryFile stores REPL history (empty = ~/.slashcmd/history)
	HistoryFile string `toml:"history_file" json:"history_file"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Commands: CommandsConfig{
			MaxFileSize:  512 * 1024,
			MaxFileLines: 2000,
			MaxFiles:     50,
			TreeDepth:    3,
			IgnorePatterns: []string{
				".git", "node_modules", "vendor", "__pycache__", ".venv",
				"dist", "build", "target", ".idea", ".vscode", ".slashcmd",
			},
			GitTimeoutSecs:  10,
			GitLogCount:     10,
			CompletionLimit: 20,
		},

		Runner: RunnerConfig{
			MaxConcurrent: 4,
			TimeoutSecs:   60,
			RatePerSecond: 0,
			Burst:         4,
			StreamBuffer:  16,
		},

		Cache: CacheConfig{
			Enabled:    true,
			MaxEntries: 256,
			TTLMinutes: 0,
		},

		Index: IndexConfig{
			Enabled:       true,
			Watch:         false,
			MaxFileSizeKB: 512,
			DebounceMs:    500,
		},

		Log: LogConfig{
			Level: "info",
		},

		UI: UIConfig{
			Theme:       "auto",
			Highlight:   true,
			ChromaStyle: "monokai",
			WordWrap:    80,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the slashcmd configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".slashcmd"), nil
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

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
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
		cfg, err := LoadFromPath(path)
		if err != nil {
			loadErr = err
			continue
		}
		return cfg, nil
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Return defaults (with any load error for informational purposes)
	return cfg, loadErr
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return fillDefaults(cfg)
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return fillDefaults(cfg)
}

// LoadFromPath loads configuration from a specific file path with full
// validation. Keys missing from the file keep their defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills zeroed numeric and string fields with defaults.
func fillDefaults(cfg *Config) error {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}

	// Commands
	if cfg.Commands.MaxFileSize == 0 {
		cfg.Commands.MaxFileSize = defaults.Commands.MaxFileSize
	}
	if cfg.Commands.MaxFileLines == 0 {
		cfg.Commands.MaxFileLines = defaults.Commands.MaxFileLines
	}
	if cfg.Commands.MaxFiles == 0 {
		cfg.Commands.MaxFiles = defaults.Commands.MaxFiles
	}
	if cfg.Commands.TreeDepth == 0 {
		cfg.Commands.TreeDepth = defaults.Commands.TreeDepth
	}
	if cfg.Commands.IgnorePatterns == nil {
		cfg.Commands.IgnorePatterns = defaults.Commands.IgnorePatterns
	}
	if cfg.Commands.GitTimeoutSecs == 0 {
		cfg.Commands.GitTimeoutSecs = defaults.Commands.GitTimeoutSecs
	}
	if cfg.Commands.GitLogCount == 0 {
		cfg.Commands.GitLogCount = defaults.Commands.GitLogCount
	}
	if cfg.Commands.CompletionLimit == 0 {
		cfg.Commands.CompletionLimit = defaults.Commands.CompletionLimit
	}

	// Runner
	if cfg.Runner.MaxConcurrent == 0 {
		cfg.Runner.MaxConcurrent = defaults.Runner.MaxConcurrent
	}
	if cfg.Runner.TimeoutSecs == 0 {
		cfg.Runner.TimeoutSecs = defaults.Runner.TimeoutSecs
	}
	if cfg.Runner.Burst == 0 {
		cfg.Runner.Burst = defaults.Runner.Burst
	}
	if cfg.Runner.StreamBuffer == 0 {
		cfg.Runner.StreamBuffer = defaults.Runner.StreamBuffer
	}

	// Cache
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = defaults.Cache.MaxEntries
	}

	// Index
	if cfg.Index.MaxFileSizeKB == 0 {
		cfg.Index.MaxFileSizeKB = defaults.Index.MaxFileSizeKB
	}
	if cfg.Index.DebounceMs == 0 {
		cfg.Index.DebounceMs = defaults.Index.DebounceMs
	}

	// Log / UI
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}
	if cfg.UI.ChromaStyle == "" {
		cfg.UI.ChromaStyle = defaults.UI.ChromaStyle
	}
	if cfg.UI.WordWrap == 0 {
		cfg.UI.WordWrap = defaults.UI.WordWrap
	}

	return nil
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

// SaveTOML saves the configuration to a TOML file atomically.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# slashcmd configuration file")
	fmt.Fprintln(&buf, "# Generated by slashcmd - edit with care")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file atomically.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0644); err != nil {
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
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	positive := func(field string, v int64) {
		if v <= 0 {
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("must be positive, got %d", v)})
		}
	}

	positive("commands.max_file_size", c.Commands.MaxFileSize)
	positive("commands.max_file_lines", int64(c.Commands.MaxFileLines))
	positive("commands.max_files", int64(c.Commands.MaxFiles))
	positive("commands.git_timeout_secs", int64(c.Commands.GitTimeoutSecs))
	positive("commands.git_log_count", int64(c.Commands.GitLogCount))
	if c.Commands.TreeDepth < 1 || c.Commands.TreeDepth > 20 {
		errs = append(errs, ValidationError{
			Field:   "commands.tree_depth",
			Message: fmt.Sprintf("must be between 1 and 20, got %d", c.Commands.TreeDepth),
		})
	}

	positive("runner.max_concurrent", int64(c.Runner.MaxConcurrent))
	positive("runner.timeout_secs", int64(c.Runner.TimeoutSecs))
	if c.Runner.RatePerSecond < 0 {
		errs = append(errs, ValidationError{Field: "runner.rate_per_second", Message: "must not be negative"})
	}
	if c.Runner.StreamBuffer < 0 {
		errs = append(errs, ValidationError{Field: "runner.stream_buffer", Message: "must not be negative"})
	}

	if c.Cache.Enabled {
		positive("cache.max_entries", int64(c.Cache.MaxEntries))
	}
	if c.Cache.TTLMinutes < 0 {
		errs = append(errs, ValidationError{Field: "cache.ttl_minutes", Message: "must not be negative"})
	}

	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true, "disabled": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: trace, debug, info, warn, error, disabled", c.Log.Level),
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}
	if c.UI.WordWrap < 20 {
		errs = append(errs, ValidationError{Field: "ui.word_wrap", Message: fmt.Sprintf("must be at least 20, got %d", c.UI.WordWrap)})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides:
//   - SLASHCMD_MAX_CONCURRENT: overrides runner.max_concurrent
//   - SLASHCMD_TIMEOUT: overrides runner.timeout_secs
//   - SLASHCMD_CACHE_SIZE: overrides cache.max_entries
//   - SLASHCMD_INDEX_DB: overrides index.db_path
//   - SLASHCMD_LOG_LEVEL: overrides log.level
//   - SLASHCMD_LOG_JSON: overrides log.json
//   - SLASHCMD_NO_COLOR / NO_COLOR: overrides log.no_color
//   - SLASHCMD_THEME: overrides ui.theme
func (c *Config) ApplyEnvOverrides() {
	envInt := func(name string, dst *int) {
		if v := os.Getenv(name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	envBool := func(name string, dst *bool) {
		if v := os.Getenv(name); v != "" {
			*dst = v == "1" || strings.ToLower(v) == "true"
		}
	}

	envInt("SLASHCMD_MAX_CONCURRENT", &c.Runner.MaxConcurrent)
	envInt("SLASHCMD_TIMEOUT", &c.Runner.TimeoutSecs)
	envInt("SLASHCMD_CACHE_SIZE", &c.Cache.MaxEntries)

	if path := os.Getenv("SLASHCMD_INDEX_DB"); path != "" {
		c.Index.DBPath = path
	}
	if level := os.Getenv("SLASHCMD_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	envBool("SLASHCMD_LOG_JSON", &c.Log.JSON)
	if os.Getenv("NO_COLOR") != "" {
		c.Log.NoColor = true
	}
	envBool("SLASHCMD_NO_COLOR", &c.Log.NoColor)
	if theme := os.Getenv("SLASHCMD_THEME"); theme != "" {
		c.UI.Theme = theme
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "runner.timeout_secs").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookupField(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "runner.timeout_secs").
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookupField(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookupField(key string) (reflect.Value, error) {
	if key == "" {
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
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			lower := strings.ToLower(strVal)
			field.SetBool(strVal == "1" || lower == "true" || lower == "yes")
			return nil
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				var items []string
				for _, item := range strings.Split(strVal, ",") {
					if item = strings.TrimSpace(item); item != "" {
						items = append(items, item)
					}
				}
				field.Set(reflect.ValueOf(items))
				return nil
			}
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns all configuration keys in dot notation, derived from
// the TOML tags.
func GetAllKeys() []string {
	var keys []string
	var walk func(t reflect.Type, prefix string)
	walk = func(t reflect.Type, prefix string) {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			name := strings.Split(f.Tag.Get("toml"), ",")[0]
			if name == "" || name == "-" {
				continue
			}
			if f.Type.Kind() == reflect.Struct {
				walk(f.Type, prefix+name+".")
				continue
			}
			keys = append(keys, prefix+name)
		}
	}
	walk(reflect.TypeOf(Config{}), "")
	return keys
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Commands.IgnorePatterns = append([]string(nil), c.Commands.IgnorePatterns...)
	clone.Commands.Disabled = append([]string(nil), c.Commands.Disabled...)
	return &clone
}

// String returns the configuration as indented JSON.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// CommandEnabled reports whether name is not listed in commands.disabled.
func (c *Config) CommandEnabled(name string) bool {
	for _, d := range c.Commands.Disabled {
		if strings.EqualFold(strings.TrimPrefix(d, "/"), name) {
			return false
		}
	}
	return true
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

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
// This should only be used in tests to reset state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
