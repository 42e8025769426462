// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.Chat.Model != "grok-beta" {
		t.Errorf("Chat.Model = %q", cfg.Chat.Model)
	}
	if cfg.Chat.Endpoint != "https://api.x.ai/v1/chat/completions" {
		t.Errorf("Chat.Endpoint = %q", cfg.Chat.Endpoint)
	}
	if cfg.Chat.Temperature != 0.7 {
		t.Errorf("Chat.Temperature = %v", cfg.Chat.Temperature)
	}
	if cfg.Chat.ForwarderURL != "http://127.0.0.1:8090" {
		t.Errorf("Chat.ForwarderURL = %q", cfg.Chat.ForwarderURL)
	}
	if cfg.Relay.Listen != "127.0.0.1:8090" {
		t.Errorf("Relay.Listen = %q", cfg.Relay.Listen)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Chat.Model = "grok-2"
	cfg.Relay.RateLimitPerMinute = 10
	cfg.Export.OutputDir = "/tmp/exports"

	if err := SaveToPath(cfg, path); err != nil {
		t.Fatalf("SaveToPath: %v", err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if loaded.Chat.Model != "grok-2" {
		t.Errorf("Chat.Model = %q", loaded.Chat.Model)
	}
	if loaded.Relay.RateLimitPerMinute != 10 {
		t.Errorf("Relay.RateLimitPerMinute = %d", loaded.Relay.RateLimitPerMinute)
	}
	if loaded.Export.OutputDir != "/tmp/exports" {
		t.Errorf("Export.OutputDir = %q", loaded.Export.OutputDir)
	}
	// Untouched fields keep their defaults.
	if loaded.Chat.Endpoint != Default().Chat.Endpoint {
		t.Errorf("Chat.Endpoint = %q", loaded.Chat.Endpoint)
	}
}

func TestSaveSetsRestrictivePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := SaveToPath(Default(), path); err != nil {
		t.Fatalf("SaveToPath: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("permissions = %o, want 0600", perm)
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[chat]\nmodel = \"grok-2-mini\"\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Chat.Model != "grok-2-mini" {
		t.Errorf("Chat.Model = %q", cfg.Chat.Model)
	}
	if cfg.Chat.Temperature != 0.7 {
		t.Errorf("Chat.Temperature = %v, want default", cfg.Chat.Temperature)
	}
	if cfg.Relay.Listen != "127.0.0.1:8090" {
		t.Errorf("Relay.Listen = %q, want default", cfg.Relay.Listen)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad endpoint", func(c *Config) { c.Chat.Endpoint = "not a url" }},
		{"bad forwarder url", func(c *Config) { c.Chat.ForwarderURL = "ftp://x" }},
		{"temperature too high", func(c *Config) { c.Chat.Temperature = 3.5 }},
		{"negative rate limit", func(c *Config) { c.Relay.RateLimitPerMinute = -1 }},
		{"missing static dir", func(c *Config) { c.Relay.StaticDir = "/does/not/exist" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate should fail")
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GROKCHAT_MODEL", "grok-env")
	t.Setenv("GROKCHAT_RELAY_LISTEN", "127.0.0.1:9999")
	t.Setenv("GROKCHAT_TEMPERATURE", "0.2")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Chat.Model != "grok-env" {
		t.Errorf("Chat.Model = %q", cfg.Chat.Model)
	}
	if cfg.Relay.Listen != "127.0.0.1:9999" {
		t.Errorf("Relay.Listen = %q", cfg.Relay.Listen)
	}
	if cfg.Chat.Temperature != 0.2 {
		t.Errorf("Chat.Temperature = %v", cfg.Chat.Temperature)
	}
}

func TestGetSetDotNotation(t *testing.T) {
	cfg := Default()

	if err := cfg.Set("chat.model", "grok-2"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := cfg.Get("chat.model")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "grok-2" {
		t.Errorf("Get = %v", got)
	}

	if err := cfg.Set("chat.temperature", "1.2"); err != nil {
		t.Fatalf("Set temperature: %v", err)
	}
	if cfg.Chat.Temperature != 1.2 {
		t.Errorf("Temperature = %v", cfg.Chat.Temperature)
	}

	if err := cfg.Set("export.include_timestamps", "false"); err != nil {
		t.Fatalf("Set bool: %v", err)
	}
	if cfg.Export.IncludeTimestamps {
		t.Error("IncludeTimestamps should be false")
	}

	if err := cfg.Set("relay.allowed_origins", "http://a.example, http://b.example"); err != nil {
		t.Fatalf("Set slice: %v", err)
	}
	if len(cfg.Relay.AllowedOrigins) != 2 || cfg.Relay.AllowedOrigins[1] != "http://b.example" {
		t.Errorf("AllowedOrigins = %v", cfg.Relay.AllowedOrigins)
	}

	if err := cfg.Set("no.such.key", "x"); err == nil {
		t.Error("Set of unknown key should fail")
	}
	if _, err := cfg.Get("chat.nope"); err == nil {
		t.Error("Get of unknown key should fail")
	}
}

func TestGetAllKeysResolve(t *testing.T) {
	cfg := Default()
	for _, key := range GetAllKeys() {
		if _, err := cfg.Get(key); err != nil {
			t.Errorf("Get(%q): %v", key, err)
		}
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := SaveToPath(Default(), path); err != nil {
		t.Fatalf("SaveToPath: %v", err)
	}

	var reloads atomic.Int32
	got := make(chan *Config, 1)
	w, err := Watch(path, func(cfg *Config) {
		reloads.Add(1)
		select {
		case got <- cfg:
		default:
		}
	})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	updated := Default()
	updated.Chat.Model = "grok-reloaded"
	if err := SaveToPath(updated, path); err != nil {
		t.Fatalf("SaveToPath: %v", err)
	}

	select {
	case cfg := <-got:
		if cfg.Chat.Model != "grok-reloaded" {
			t.Errorf("reloaded model = %q", cfg.Chat.Model)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("watcher never fired")
	}
}

func TestWatchIgnoresInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := SaveToPath(Default(), path); err != nil {
		t.Fatalf("SaveToPath: %v", err)
	}

	fired := make(chan struct{}, 1)
	w, err := Watch(path, func(cfg *Config) {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("not [valid toml"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	select {
	case <-fired:
		t.Error("watcher fired for an invalid file")
	case <-time.After(600 * time.Millisecond):
	}
}
