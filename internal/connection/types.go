package connection

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no frame within ping timeout)")
	ErrTimeout         = errors.New("operation timeout")
	ErrAlreadyClosed   = errors.New("already closed")
	ErrInvalidContent  = errors.New("invalid content id")
)

// Content types understood by the provider.
const (
	ContentLiveEvents    = "liveEvents"
	ContentPreLiveEvents = "preLiveEvents"
	ContentEventGroup    = "eventGroup"
	ContentEventDetails  = "eventDetails"
	ContentEventSummary  = "eventSummary"
	ContentMarket        = "market"
)

// ContentID names one subscribable provider content.
type ContentID struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

func (c ContentID) String() string {
	return c.Type + "/" + c.ID
}

// ParseContentID parses "type/id", e.g. "liveEvents/football".
func ParseContentID(s string) (ContentID, error) {
	typ, id, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || typ == "" || id == "" {
		return ContentID{}, fmt.Errorf("%w: %q", ErrInvalidContent, s)
	}
	return ContentID{Type: typ, ID: id}, nil
}

// TimestampedMessage wraps raw message data with receive timestamp.
type TimestampedMessage struct {
	Data       []byte    // Raw message bytes from WebSocket
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// RawMessage is a message from Connection Manager to the feed router.
type RawMessage struct {
	Data       []byte    // Raw message bytes from WebSocket
	ReceivedAt time.Time // Local timestamp when WS Client received message
	Session    int       // Connection generation, incremented on every reconnect
}

// Command is a WebSocket command to send to the server.
type Command struct {
	ID     int64  `json:"id"`
	Cmd    string `json:"cmd"`
	Params any    `json:"params"`
}

// SubscribeParams are parameters for a subscribe command.
type SubscribeParams struct {
	ContentID ContentID `json:"contentId"`
}

// UnsubscribeParams are parameters for an unsubscribe command.
type UnsubscribeParams struct {
	SIDs []int64 `json:"sids"`
}

// Response is a command response from the server.
type Response struct {
	ID   int64           `json:"id"`
	Type string          `json:"type"` // "subscribed", "unsubscribed", "error", "ok"
	Msg  json.RawMessage `json:"msg"`
}

// SubscribedMsg is the message content for a "subscribed" response.
type SubscribedMsg struct {
	SID       int64     `json:"sid"`
	ContentID ContentID `json:"contentId"`
}

// ErrorMsg is the message content for an "error" response.
type ErrorMsg struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ClientConfig configures a WebSocket client.
type ClientConfig struct {
	URL          string        // WebSocket URL
	APIKey       string        // Sent as a bearer token; empty disables auth
	PingInterval time.Duration // Interval between keepalive pings
	PingTimeout  time.Duration // Read deadline: max time without any frame from the provider
	WriteTimeout time.Duration // Write deadline for sends
	BufferSize   int           // Message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		PingInterval: 30 * time.Second,
		PingTimeout:  90 * time.Second,
		WriteTimeout: 5 * time.Second,
		BufferSize:   10000,
	}
}

// ManagerConfig configures the Connection Manager.
type ManagerConfig struct {
	WSURL             string        // WebSocket URL
	APIKey            string        // API key for authentication
	Contents          []ContentID   // Contents subscribed on every connection
	PingInterval      time.Duration // Keepalive ping interval
	PingTimeout       time.Duration // Stale connection threshold
	WriteTimeout      time.Duration // Write deadline for commands
	SubscribeTimeout  time.Duration // Timeout for subscribe commands
	ReconnectBaseWait time.Duration // Base wait time for reconnection
	ReconnectMaxWait  time.Duration // Max wait time for reconnection
	ClientBufferSize  int           // Per-connection read buffer
	MessageBufferSize int           // Buffer size for output message channel
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	cc := DefaultClientConfig()
	return ManagerConfig{
		PingInterval:      cc.PingInterval,
		PingTimeout:       cc.PingTimeout,
		WriteTimeout:      cc.WriteTimeout,
		SubscribeTimeout:  10 * time.Second,
		ReconnectBaseWait: 1 * time.Second,
		ReconnectMaxWait:  60 * time.Second,
		ClientBufferSize:  cc.BufferSize,
		MessageBufferSize: 100000,
	}
}

// clientConfig derives the per-connection client config.
func (c ManagerConfig) clientConfig() ClientConfig {
	return ClientConfig{
		URL:          c.WSURL,
		APIKey:       c.APIKey,
		PingInterval: c.PingInterval,
		PingTimeout:  c.PingTimeout,
		WriteTimeout: c.WriteTimeout,
		BufferSize:   c.ClientBufferSize,
	}
}
