package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultPingInterval       = 30 * time.Second
	DefaultPingTimeout        = 90 * time.Second
	DefaultWriteTimeout       = 5 * time.Second
	DefaultSubscribeTimeout   = 10 * time.Second
	DefaultReconnectBaseDelay = 1 * time.Second
	DefaultReconnectMaxDelay  = 60 * time.Second
	DefaultClientBufferSize   = 10000
	DefaultMessageBufferSize  = 100000
	DefaultPollInterval       = 5 * time.Minute
	DefaultPollTimeout        = 30 * time.Second
	DefaultMaxRetries         = 3
	DefaultRetryBackoff       = 1 * time.Second
	DefaultPollConcurrency    = 4
	DefaultMode               = ModeList
	DefaultCoalesceWindow     = 800 * time.Millisecond
	DefaultMetricsPort        = 9090
	DefaultMetricsPath        = "/metrics"
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "text"
)

func (c *Config) applyDefaults() {
	// Feed defaults
	if c.Feed.PingInterval == 0 {
		c.Feed.PingInterval = DefaultPingInterval
	}
	if c.Feed.PingTimeout == 0 {
		c.Feed.PingTimeout = DefaultPingTimeout
	}
	if c.Feed.WriteTimeout == 0 {
		c.Feed.WriteTimeout = DefaultWriteTimeout
	}
	if c.Feed.SubscribeTimeout == 0 {
		c.Feed.SubscribeTimeout = DefaultSubscribeTimeout
	}
	if c.Feed.ReconnectBaseDelay == 0 {
		c.Feed.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Feed.ReconnectMaxDelay == 0 {
		c.Feed.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if c.Feed.ClientBufferSize == 0 {
		c.Feed.ClientBufferSize = DefaultClientBufferSize
	}
	if c.Feed.MessageBufferSize == 0 {
		c.Feed.MessageBufferSize = DefaultMessageBufferSize
	}

	// Snapshot defaults
	if c.Snapshot.APIKey == "" {
		c.Snapshot.APIKey = c.Feed.APIKey
	}
	if c.Snapshot.Interval == 0 {
		c.Snapshot.Interval = DefaultPollInterval
	}
	if c.Snapshot.Timeout == 0 {
		c.Snapshot.Timeout = DefaultPollTimeout
	}
	if c.Snapshot.MaxRetries == 0 {
		c.Snapshot.MaxRetries = DefaultMaxRetries
	}
	if c.Snapshot.RetryBackoff == 0 {
		c.Snapshot.RetryBackoff = DefaultRetryBackoff
	}
	if c.Snapshot.Concurrency == 0 {
		c.Snapshot.Concurrency = DefaultPollConcurrency
	}

	// Store defaults
	if c.Store.Mode == "" {
		c.Store.Mode = DefaultMode
	}
	if c.Store.CoalesceWindow == 0 {
		c.Store.CoalesceWindow = DefaultCoalesceWindow
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}
