// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v, want nil", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"negative file size", func(c *Config) { c.Commands.MaxFileSize = -1 }, "commands.max_file_size"},
		{"tree too deep", func(c *Config) { c.Commands.TreeDepth = 99 }, "commands.tree_depth"},
		{"zero concurrency", func(c *Config) { c.Runner.MaxConcurrent = 0 }, "runner.max_concurrent"},
		{"negative rate", func(c *Config) { c.Runner.RatePerSecond = -2 }, "runner.rate_per_second"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
		{"cache without room", func(c *Config) { c.Cache.MaxEntries = 0 }, "cache.max_entries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			var verrs ValidateErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("Validate() = %v, want ValidateErrors", err)
			}
			found := false
			for _, e := range verrs {
				if e.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("Validate() = %v, want error on %s", err, tt.field)
			}
		})
	}
}

func TestLoadFromPathTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[commands]
tree_depth = 5
disabled = ["/git"]

[runner]
max_concurrent = 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Commands.TreeDepth)
	assert.Equal(t, 2, cfg.Runner.MaxConcurrent)
	// Missing keys keep defaults.
	assert.Equal(t, Default().Runner.TimeoutSecs, cfg.Runner.TimeoutSecs)
	assert.Equal(t, Default().Commands.IgnorePatterns, cfg.Commands.IgnorePatterns)
	assert.False(t, cfg.CommandEnabled("git"))
	assert.True(t, cfg.CommandEnabled("file"))
}

func TestLoadFromPathRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[log]\nlevel = \"shout\"\n"), 0644))

	_, err := LoadFromPath(path)
	assert.Error(t, err)
}

func TestSaveAndReloadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := Default()
	cfg.UI.Theme = "dark"
	cfg.Cache.MaxEntries = 9

	require.NoError(t, SaveJSON(cfg, path))
	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "dark", loaded.UI.Theme)
	assert.Equal(t, 9, loaded.Cache.MaxEntries)
}

func TestSaveTOMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := Default()
	cfg.Commands.Disabled = []string{"now"}
	cfg.Runner.RatePerSecond = 2.5

	require.NoError(t, SaveTOML(cfg, path))
	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"now"}, loaded.Commands.Disabled)
	assert.Equal(t, 2.5, loaded.Runner.RatePerSecond)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("SLASHCMD_MAX_CONCURRENT", "7")
	t.Setenv("SLASHCMD_TIMEOUT", "not-a-number")
	t.Setenv("SLASHCMD_LOG_LEVEL", "debug")
	t.Setenv("SLASHCMD_LOG_JSON", "true")
	t.Setenv("SLASHCMD_INDEX_DB", "/tmp/idx.db")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Runner.MaxConcurrent != 7 {
		t.Errorf("MaxConcurrent = %d, want 7", cfg.Runner.MaxConcurrent)
	}
	if cfg.Runner.TimeoutSecs != Default().Runner.TimeoutSecs {
		t.Errorf("TimeoutSecs = %d, want default on bad input", cfg.Runner.TimeoutSecs)
	}
	if cfg.Log.Level != "debug" || !cfg.Log.JSON {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Index.DBPath != "/tmp/idx.db" {
		t.Errorf("Index.DBPath = %q", cfg.Index.DBPath)
	}
}

func TestGetSet(t *testing.T) {
	cfg := Default()

	tests := []struct {
		key   string
		value string
		want  interface{}
	}{
		{"commands.tree_depth", "6", 6},
		{"runner.rate_per_second", "1.5", 1.5},
		{"cache.enabled", "false", false},
		{"ui.chroma_style", "dracula", "dracula"},
		{"commands.disabled", "git, now", []string{"git", "now"}},
		{"commands.max_file_size", "1024", int64(1024)},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if err := cfg.Set(tt.key, tt.value); err != nil {
				t.Fatalf("Set(%q) error = %v", tt.key, err)
			}
			got, err := cfg.Get(tt.key)
			if err != nil {
				t.Fatalf("Get(%q) error = %v", tt.key, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := cfg.Get("runner.nope")
	assert.Error(t, err)
	assert.Error(t, cfg.Set("runner", "x"))
	assert.Error(t, cfg.Set("commands.tree_depth", "deep"))
}

func TestGetAllKeys(t *testing.T) {
	keys := GetAllKeys()
	assert.Contains(t, keys, "version")
	assert.Contains(t, keys, "runner.max_concurrent")
	assert.Contains(t, keys, "index.debounce_ms")

	cfg := Default()
	for _, key := range keys {
		if _, err := cfg.Get(key); err != nil {
			t.Errorf("Get(%q) error = %v", key, err)
		}
	}
}

func TestClone(t *testing.T) {
	cfg := Default()
	clone := cfg.Clone()
	clone.Commands.IgnorePatterns[0] = "changed"
	if cfg.Commands.IgnorePatterns[0] == "changed" {
		t.Error("Clone() shares IgnorePatterns with the original")
	}
}

// TestConfig_ConcurrentAccess tests that Global(), SetGlobal(), and ReloadGlobal()
// can be safely called concurrently without race conditions.
// Run with: go test -race -v ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	ResetGlobalForTesting()
	t.Setenv("HOME", t.TempDir())

	var wg sync.WaitGroup

	// 50 writers using SetGlobal, 50 readers using Global
	for i := 0; i < 50; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()
			c := Default()
			c.Version = "test"
			SetGlobal(c)
		}()

		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}

	wg.Wait()
}

// TestConfig_ConcurrentReload tests concurrent ReloadGlobal and Global calls.
func TestConfig_ConcurrentReload(t *testing.T) {
	ResetGlobalForTesting()
	t.Setenv("HOME", t.TempDir())

	_ = Global()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = ReloadGlobal()
		}()
	}
	for i := 0; i < 80; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}
