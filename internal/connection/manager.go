package connection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Manager owns the push feed connection and its subscriptions.
type Manager interface {
	// Start begins connecting in the background.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the connection.
	Stop(ctx context.Context) error

	// Subscribe adds a content to the tracked set and subscribes it on the
	// live connection, if any. Tracked contents are re-subscribed on reconnect.
	Subscribe(ctx context.Context, content ContentID) error

	// Unsubscribe drops a content from the tracked set.
	Unsubscribe(ctx context.Context, content ContentID) error

	// Messages returns channel of raw messages for the feed router.
	Messages() <-chan RawMessage

	// Stats returns current connection and subscription statistics.
	Stats() ManagerStats
}

// ManagerStats provides statistics about the connection manager.
type ManagerStats struct {
	Connected     bool
	Session       int
	Subscriptions int    // Contents with a confirmed subscription id
	Tracked       int    // Contents that will be subscribed on connect
	Reconnects    int64
	Dropped       int64  // Messages dropped on a full output buffer
	SessionToken  string // Provider session of the live connection, "" until LISTENING_STARTED
}

// connState holds the state for one connection generation.
type connState struct {
	client  Client
	session int

	// Command/response correlation
	pendingMu sync.Mutex
	pending   map[int64]chan Response
	cmdID     int64 // Atomic counter
}

// manager implements the Manager interface.
type manager struct {
	cfg    ManagerConfig
	logger *slog.Logger

	out chan RawMessage

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	conn    *connState
	session int
	order   []ContentID         // tracked contents in subscription order
	sids    map[ContentID]int64 // 0 until confirmed on the current connection

	reconnects atomic.Int64
	dropped    atomic.Int64
}

// NewManager creates a new Connection Manager.
func NewManager(cfg ManagerConfig, logger *slog.Logger) Manager {
	if logger == nil {
		logger = slog.Default()
	}

	m := &manager{
		cfg:    cfg,
		logger: logger,
		out:    make(chan RawMessage, cfg.MessageBufferSize),
		sids:   make(map[ContentID]int64),
	}
	for _, c := range cfg.Contents {
		m.trackLocked(c)
	}
	return m
}

// Start begins the connection loop.
func (m *manager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	m.wg.Add(1)
	go m.run()

	m.logger.Info("connection manager started",
		"url", m.cfg.WSURL,
		"contents", len(m.cfg.Contents),
	)

	return nil
}

// Stop gracefully shuts down.
func (m *manager) Stop(ctx context.Context) error {
	m.logger.Info("stopping connection manager")

	if m.cancel != nil {
		m.cancel()
	}

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn != nil {
		conn.client.Close()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("shutdown timeout, forcing close")
		return ctx.Err()
	}

	close(m.out)

	m.logger.Info("connection manager stopped")
	return nil
}

// Messages returns the output channel for the feed router.
func (m *manager) Messages() <-chan RawMessage {
	return m.out
}

// Stats returns current statistics.
func (m *manager) Stats() ManagerStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	confirmed := 0
	for _, sid := range m.sids {
		if sid != 0 {
			confirmed++
		}
	}

	token := ""
	if m.conn != nil {
		token = m.conn.client.SessionToken()
	}

	return ManagerStats{
		Connected:     m.conn != nil && m.conn.client.IsConnected(),
		Session:       m.session,
		Subscriptions: confirmed,
		Tracked:       len(m.order),
		Reconnects:    m.reconnects.Load(),
		Dropped:       m.dropped.Load(),
		SessionToken:  token,
	}
}

// Subscribe tracks content and subscribes it on the live connection.
func (m *manager) Subscribe(ctx context.Context, content ContentID) error {
	m.mu.Lock()
	added := m.trackLocked(content)
	conn := m.conn
	m.mu.Unlock()

	if !added {
		return nil
	}
	if conn == nil || !conn.client.IsConnected() {
		// Subscribed once the connection comes up.
		return nil
	}
	return m.subscribe(ctx, conn, content)
}

// Unsubscribe stops tracking content and releases its subscription id.
func (m *manager) Unsubscribe(ctx context.Context, content ContentID) error {
	m.mu.Lock()
	sid, ok := m.sids[content]
	if !ok {
		m.mu.Unlock()
		return nil
	}
	delete(m.sids, content)
	for i, c := range m.order {
		if c == content {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	conn := m.conn
	m.mu.Unlock()

	if sid == 0 || conn == nil || !conn.client.IsConnected() {
		return nil
	}

	if _, err := m.request(ctx, conn, "unsubscribe", UnsubscribeParams{SIDs: []int64{sid}}); err != nil {
		return fmt.Errorf("unsubscribe %s: %w", content, err)
	}
	return nil
}

// trackLocked adds content to the tracked set, reporting whether it was new.
func (m *manager) trackLocked(content ContentID) bool {
	if _, ok := m.sids[content]; ok {
		return false
	}
	m.sids[content] = 0
	m.order = append(m.order, content)
	return true
}

// run connects, serves until the connection fails, then reconnects with
// exponential backoff until the context is cancelled.
func (m *manager) run() {
	defer m.wg.Done()

	wait := m.cfg.ReconnectBaseWait
	first := true

	for {
		if !first {
			select {
			case <-m.ctx.Done():
				return
			case <-time.After(wait):
			}
			m.logger.Info("attempting reconnection", "wait", wait)
		}
		first = false

		conn, contents, err := m.connect()
		if err != nil {
			if m.ctx.Err() != nil {
				return
			}
			m.logger.Warn("connection failed", "error", err)
			wait = nextBackoff(wait, m.cfg.ReconnectBaseWait, m.cfg.ReconnectMaxWait)
			continue
		}
		wait = m.cfg.ReconnectBaseWait

		m.serve(conn, contents)

		conn.client.Close()
		if m.ctx.Err() != nil {
			return
		}
		m.reconnects.Add(1)
	}
}

// connect dials a new connection generation and makes it current. It
// returns the contents tracked at that moment; later additions are
// subscribed by Subscribe itself.
func (m *manager) connect() (*connState, []ContentID, error) {
	m.mu.Lock()
	m.session++
	session := m.session
	for c := range m.sids {
		m.sids[c] = 0
	}
	m.mu.Unlock()

	conn := &connState{
		client:  NewClient(m.cfg.clientConfig(), m.logger.With("session", session)),
		session: session,
		pending: make(map[int64]chan Response),
	}
	if err := conn.client.Connect(m.ctx); err != nil {
		return nil, nil, err
	}

	m.mu.Lock()
	m.conn = conn
	contents := make([]ContentID, len(m.order))
	copy(contents, m.order)
	m.mu.Unlock()

	m.logger.Info("connected", "session", session)
	return conn, contents, nil
}

// serve runs the read loop for conn and subscribes contents on it.
// It returns when the connection fails or the manager stops.
func (m *manager) serve(conn *connState, contents []ContentID) {
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		m.readLoop(conn)
	}()

	for _, c := range contents {
		if err := m.subscribe(m.ctx, conn, c); err != nil {
			m.logger.Warn("failed to subscribe",
				"content", c.String(),
				"session", conn.session,
				"error", err,
			)
		}
	}

	<-readDone
}

// readLoop reads messages from a connection and routes them.
func (m *manager) readLoop(conn *connState) {
	defer conn.failPending()

	for {
		select {
		case <-m.ctx.Done():
			return

		case err := <-conn.client.Errors():
			m.logger.Warn("connection error",
				"session", conn.session,
				"error", err,
			)
			return

		case msg, ok := <-conn.client.Messages():
			if !ok {
				return
			}

			if resp, ok := tryParseResponse(msg.Data); ok {
				conn.routeResponse(resp)
				continue
			}

			raw := RawMessage{
				Data:       msg.Data,
				ReceivedAt: msg.ReceivedAt,
				Session:    conn.session,
			}

			select {
			case m.out <- raw:
			case <-m.ctx.Done():
				return
			default:
				m.dropped.Add(1)
				m.logger.Warn("message buffer full, dropping",
					"session", conn.session,
				)
			}
		}
	}
}

// subscribe sends a subscribe command and records the returned sid.
func (m *manager) subscribe(ctx context.Context, conn *connState, content ContentID) error {
	resp, err := m.request(ctx, conn, "subscribe", SubscribeParams{ContentID: content})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", content, err)
	}

	var sub SubscribedMsg
	if err := json.Unmarshal(resp.Msg, &sub); err != nil {
		return fmt.Errorf("subscribe %s: decode response: %w", content, err)
	}

	m.mu.Lock()
	if _, tracked := m.sids[content]; tracked && m.conn == conn {
		m.sids[content] = sub.SID
	}
	m.mu.Unlock()

	m.logger.Debug("subscribed",
		"content", content.String(),
		"sid", sub.SID,
		"session", conn.session,
	)
	return nil
}

// request sends a command on conn and waits for its correlated response.
func (m *manager) request(ctx context.Context, conn *connState, cmd string, params any) (Response, error) {
	id := atomic.AddInt64(&conn.cmdID, 1)
	respCh := make(chan Response, 1)

	conn.pendingMu.Lock()
	if conn.pending == nil {
		conn.pendingMu.Unlock()
		return Response{}, ErrNotConnected
	}
	conn.pending[id] = respCh
	conn.pendingMu.Unlock()

	defer func() {
		conn.pendingMu.Lock()
		delete(conn.pending, id)
		conn.pendingMu.Unlock()
	}()

	data, err := json.Marshal(Command{ID: id, Cmd: cmd, Params: params})
	if err != nil {
		return Response{}, err
	}
	if err := conn.client.Send(data); err != nil {
		return Response{}, err
	}

	timer := time.NewTimer(m.cfg.SubscribeTimeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return Response{}, ctx.Err()
	case <-timer.C:
		return Response{}, ErrTimeout
	case resp, ok := <-respCh:
		if !ok {
			return Response{}, ErrNotConnected
		}
		if resp.Type == "error" {
			var errMsg ErrorMsg
			json.Unmarshal(resp.Msg, &errMsg)
			return Response{}, fmt.Errorf("%s: %s", errMsg.Code, errMsg.Message)
		}
		return resp, nil
	}
}

// tryParseResponse attempts to parse a message as a command response.
func tryParseResponse(data []byte) (Response, bool) {
	// Quick check for response markers
	if !bytes.Contains(data, []byte(`"id"`)) || !bytes.Contains(data, []byte(`"type"`)) {
		return Response{}, false
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return Response{}, false
	}

	if resp.ID == 0 {
		return Response{}, false
	}

	switch resp.Type {
	case "subscribed", "unsubscribed", "error", "ok":
		return resp, true
	}

	return Response{}, false
}

// routeResponse sends a response to the waiting goroutine.
func (c *connState) routeResponse(resp Response) {
	c.pendingMu.Lock()
	ch, ok := c.pending[resp.ID]
	if ok {
		delete(c.pending, resp.ID)
	}
	c.pendingMu.Unlock()

	if ok {
		select {
		case ch <- resp:
		default:
		}
	}
}

// failPending releases every waiter once the connection is gone.
func (c *connState) failPending() {
	c.pendingMu.Lock()
	pending := c.pending
	c.pending = nil
	c.pendingMu.Unlock()

	for _, ch := range pending {
		close(ch)
	}
}

// nextBackoff doubles wait, clamped to [base, maxWait].
func nextBackoff(wait, base, maxWait time.Duration) time.Duration {
	wait *= 2
	if wait < base {
		wait = base
	}
	if maxWait > 0 && wait > maxWait {
		wait = maxWait
	}
	return wait
}
