package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rickgao/odds-store/internal/connection"
)

// Store modes.
const (
	ModeList   = "list"
	ModeDetail = "detail"
)

// Config is the root configuration for an odds store instance.
type Config struct {
	Instance InstanceConfig `yaml:"instance"`
	Feed     FeedConfig     `yaml:"feed"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Store    StoreConfig    `yaml:"store"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Log      LogConfig      `yaml:"log"`
}

// InstanceConfig identifies this instance.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// FeedConfig holds push feed settings. An empty WSURL disables the feed.
type FeedConfig struct {
	WSURL              string        `yaml:"ws_url"`
	APIKey             string        `yaml:"api_key"`
	Contents           []string      `yaml:"contents"` // "type/id", e.g. "liveEvents/football"
	PingInterval       time.Duration `yaml:"ping_interval"`
	PingTimeout        time.Duration `yaml:"ping_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	SubscribeTimeout   time.Duration `yaml:"subscribe_timeout"`
	ReconnectBaseDelay time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay  time.Duration `yaml:"reconnect_max_delay"`
	ClientBufferSize   int           `yaml:"client_buffer_size"`
	MessageBufferSize  int           `yaml:"message_buffer_size"`
}

// Enabled reports whether a feed URL is configured.
func (f FeedConfig) Enabled() bool {
	return f.WSURL != ""
}

// ContentIDs parses the configured contents.
func (f FeedConfig) ContentIDs() ([]connection.ContentID, error) {
	ids := make([]connection.ContentID, 0, len(f.Contents))
	for i, s := range f.Contents {
		id, err := connection.ParseContentID(s)
		if err != nil {
			return nil, fmt.Errorf("feed.contents[%d]: %w", i, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ManagerConfig converts to connection manager settings.
func (f FeedConfig) ManagerConfig() (connection.ManagerConfig, error) {
	contents, err := f.ContentIDs()
	if err != nil {
		return connection.ManagerConfig{}, err
	}
	return connection.ManagerConfig{
		WSURL:             f.WSURL,
		APIKey:            f.APIKey,
		Contents:          contents,
		PingInterval:      f.PingInterval,
		PingTimeout:       f.PingTimeout,
		WriteTimeout:      f.WriteTimeout,
		SubscribeTimeout:  f.SubscribeTimeout,
		ReconnectBaseWait: f.ReconnectBaseDelay,
		ReconnectMaxWait:  f.ReconnectMaxDelay,
		ClientBufferSize:  f.ClientBufferSize,
		MessageBufferSize: f.MessageBufferSize,
	}, nil
}

// SnapshotConfig holds REST snapshot settings. An empty RestURL disables polling.
type SnapshotConfig struct {
	RestURL      string        `yaml:"rest_url"`
	APIKey       string        `yaml:"api_key"`
	Interval     time.Duration `yaml:"interval"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
	Concurrency  int           `yaml:"concurrency"`
	Competitions []string      `yaml:"competition_ids"`
	Events       []string      `yaml:"event_ids"`
}

// Enabled reports whether a REST URL is configured.
func (s SnapshotConfig) Enabled() bool {
	return s.RestURL != ""
}

// StoreConfig holds store settings.
type StoreConfig struct {
	Mode           string        `yaml:"mode"`     // list or detail
	EventID        string        `yaml:"event_id"` // detail mode only
	CoalesceWindow time.Duration `yaml:"coalesce_window"`
	QueueDepth     int           `yaml:"queue_depth"` // 0 = unbounded
}

// MetricsConfig holds the HTTP server settings for metrics, health and
// the debug endpoints.
type MetricsConfig struct {
	Port        int      `yaml:"port"`
	Path        string   `yaml:"path"`
	CORSOrigins []string `yaml:"cors_origins"` // empty allows any origin
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// SlogLevel maps Level to a slog level. Unknown levels are info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
