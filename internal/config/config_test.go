package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rickgao/odds-store/internal/connection"
)

func TestLoad(t *testing.T) {
	yaml := `
instance:
  id: test-store
feed:
  ws_url: wss://push.example.com/socket
  contents:
    - liveEvents/football
    - eventDetails/3921509.1
snapshot:
  rest_url: https://api.example.com/v1
  competition_ids: [football]
store:
  mode: list
  coalesce_window: 500ms
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "test-store" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "test-store")
	}
	if cfg.Feed.WSURL != "wss://push.example.com/socket" {
		t.Errorf("Feed.WSURL = %q", cfg.Feed.WSURL)
	}
	if len(cfg.Feed.Contents) != 2 || cfg.Feed.Contents[1] != "eventDetails/3921509.1" {
		t.Errorf("Feed.Contents = %v", cfg.Feed.Contents)
	}
	if len(cfg.Snapshot.Competitions) != 1 || cfg.Snapshot.Competitions[0] != "football" {
		t.Errorf("Snapshot.Competitions = %v", cfg.Snapshot.Competitions)
	}
	if cfg.Store.CoalesceWindow != 500*time.Millisecond {
		t.Errorf("Store.CoalesceWindow = %v, want 500ms", cfg.Store.CoalesceWindow)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_FEED_KEY", "secret123")

	yaml := `
instance:
  id: test-store
feed:
  ws_url: wss://push.example.com/socket
  api_key: ${TEST_FEED_KEY}
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Feed.APIKey != "secret123" {
		t.Errorf("Feed.APIKey = %q, want %q", cfg.Feed.APIKey, "secret123")
	}
	// The snapshot key falls back to the feed key.
	if cfg.Snapshot.APIKey != "secret123" {
		t.Errorf("Snapshot.APIKey = %q, want %q", cfg.Snapshot.APIKey, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
instance:
  id: test-store
snapshot:
  rest_url: https://api.example.com/v1
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Store.Mode != ModeList {
		t.Errorf("Store.Mode = %q, want %q", cfg.Store.Mode, ModeList)
	}
	if cfg.Store.CoalesceWindow != DefaultCoalesceWindow {
		t.Errorf("Store.CoalesceWindow = %v, want default %v", cfg.Store.CoalesceWindow, DefaultCoalesceWindow)
	}
	if cfg.Snapshot.Interval != DefaultPollInterval {
		t.Errorf("Snapshot.Interval = %v, want default %v", cfg.Snapshot.Interval, DefaultPollInterval)
	}
	if cfg.Snapshot.Concurrency != DefaultPollConcurrency {
		t.Errorf("Snapshot.Concurrency = %d, want default %d", cfg.Snapshot.Concurrency, DefaultPollConcurrency)
	}
	if cfg.Feed.ReconnectMaxDelay != DefaultReconnectMaxDelay {
		t.Errorf("Feed.ReconnectMaxDelay = %v, want default %v", cfg.Feed.ReconnectMaxDelay, DefaultReconnectMaxDelay)
	}
	if cfg.Metrics.Port != DefaultMetricsPort {
		t.Errorf("Metrics.Port = %d, want default %d", cfg.Metrics.Port, DefaultMetricsPort)
	}
	if cfg.Log.Format != DefaultLogFormat {
		t.Errorf("Log.Format = %q, want default %q", cfg.Log.Format, DefaultLogFormat)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load of missing file: expected error")
	}

	path := writeTempFile(t, "instance: [unterminated")
	if _, err := Load(path); err == nil {
		t.Error("Load of invalid yaml: expected error")
	}
}

func TestLoadAndValidate(t *testing.T) {
	path := writeTempFile(t, "instance:\n  id: test-store\n")
	_, err := LoadAndValidate(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	want := "validate config: feed.ws_url or snapshot.rest_url is required"
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func validConfig() Config {
	cfg := Config{
		Instance: InstanceConfig{ID: "test"},
		Feed: FeedConfig{
			WSURL:    "wss://push.example.com/socket",
			Contents: []string{"liveEvents/football"},
		},
	}
	cfg.applyDefaults()
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing instance id",
			mutate:  func(c *Config) { c.Instance.ID = "" },
			wantErr: "instance.id is required",
		},
		{
			name:    "unknown mode",
			mutate:  func(c *Config) { c.Store.Mode = "grid" },
			wantErr: `store.mode must be "list" or "detail", got "grid"`,
		},
		{
			name:    "detail mode without event",
			mutate:  func(c *Config) { c.Store.Mode = ModeDetail },
			wantErr: "store.event_id is required in detail mode",
		},
		{
			name:    "negative queue depth",
			mutate:  func(c *Config) { c.Store.QueueDepth = -1 },
			wantErr: "store.queue_depth must be >= 0",
		},
		{
			name:    "no sources",
			mutate:  func(c *Config) { c.Feed.WSURL = "" },
			wantErr: "feed.ws_url or snapshot.rest_url is required",
		},
		{
			name:    "feed without contents",
			mutate:  func(c *Config) { c.Feed.Contents = nil },
			wantErr: "feed.contents is required when feed.ws_url is set",
		},
		{
			name:    "reconnect delays inverted",
			mutate:  func(c *Config) { c.Feed.ReconnectBaseDelay = 2 * time.Minute },
			wantErr: "feed.reconnect_base_delay (2m0s) cannot exceed reconnect_max_delay (1m0s)",
		},
		{
			name: "list snapshot without targets",
			mutate: func(c *Config) {
				c.Snapshot.RestURL = "https://api.example.com/v1"
			},
			wantErr: "snapshot.competition_ids or snapshot.event_ids is required in list mode",
		},
		{
			name:    "metrics port out of range",
			mutate:  func(c *Config) { c.Metrics.Port = 70000 },
			wantErr: "metrics.port must be between 1 and 65535, got 70000",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: `log.format must be "text" or "json", got "xml"`,
		},
		{
			name: "valid detail config",
			mutate: func(c *Config) {
				c.Store.Mode = ModeDetail
				c.Store.EventID = "3921509.1"
				c.Snapshot.RestURL = "https://api.example.com/v1"
			},
		},
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func TestValidate_BadContent(t *testing.T) {
	cfg := validConfig()
	cfg.Feed.Contents = []string{"liveEvents/football", "nonsense"}

	err := cfg.Validate()
	if !errors.Is(err, connection.ErrInvalidContent) {
		t.Fatalf("Validate() error = %v, want ErrInvalidContent", err)
	}
}

func TestFeedConfig_ManagerConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Feed.APIKey = "k"

	mc, err := cfg.Feed.ManagerConfig()
	if err != nil {
		t.Fatalf("ManagerConfig failed: %v", err)
	}
	want := connection.ContentID{Type: "liveEvents", ID: "football"}
	if len(mc.Contents) != 1 || mc.Contents[0] != want {
		t.Errorf("Contents = %v, want [%v]", mc.Contents, want)
	}
	if mc.APIKey != "k" || mc.ReconnectBaseWait != DefaultReconnectBaseDelay || mc.MessageBufferSize != DefaultMessageBufferSize {
		t.Errorf("ManagerConfig = %+v", mc)
	}
}

func TestLogConfig_SlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := (LogConfig{Level: tt.level}).SlogLevel(); got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
