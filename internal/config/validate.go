package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	switch c.Store.Mode {
	case ModeList:
	case ModeDetail:
		if c.Store.EventID == "" {
			return errors.New("store.event_id is required in detail mode")
		}
	default:
		return fmt.Errorf("store.mode must be %q or %q, got %q", ModeList, ModeDetail, c.Store.Mode)
	}
	if c.Store.CoalesceWindow < 0 {
		return errors.New("store.coalesce_window must be >= 0")
	}
	if c.Store.QueueDepth < 0 {
		return errors.New("store.queue_depth must be >= 0")
	}

	if !c.Feed.Enabled() && !c.Snapshot.Enabled() {
		return errors.New("feed.ws_url or snapshot.rest_url is required")
	}

	if c.Feed.Enabled() {
		if len(c.Feed.Contents) == 0 {
			return errors.New("feed.contents is required when feed.ws_url is set")
		}
		if _, err := c.Feed.ContentIDs(); err != nil {
			return err
		}
		if c.Feed.ReconnectBaseDelay > c.Feed.ReconnectMaxDelay {
			return fmt.Errorf("feed.reconnect_base_delay (%s) cannot exceed reconnect_max_delay (%s)",
				c.Feed.ReconnectBaseDelay, c.Feed.ReconnectMaxDelay)
		}
		if c.Feed.MessageBufferSize < 1 {
			return errors.New("feed.message_buffer_size must be >= 1")
		}
	}

	if c.Snapshot.Enabled() {
		if c.Store.Mode == ModeList && len(c.Snapshot.Competitions) == 0 && len(c.Snapshot.Events) == 0 {
			return errors.New("snapshot.competition_ids or snapshot.event_ids is required in list mode")
		}
		if c.Snapshot.Interval <= 0 {
			return errors.New("snapshot.interval must be > 0")
		}
		if c.Snapshot.Concurrency < 1 {
			return errors.New("snapshot.concurrency must be >= 1")
		}
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be \"text\" or \"json\", got %q", c.Log.Format)
	}

	return nil
}
