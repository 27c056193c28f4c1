package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewClient(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := NewClient("https://odds.example.com", "test-key")

		if c.baseURL != "https://odds.example.com" {
			t.Errorf("baseURL = %q", c.baseURL)
		}
		if c.apiKey != "test-key" {
			t.Errorf("apiKey = %q, want %q", c.apiKey, "test-key")
		}
		if c.httpClient.Timeout != 30*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 30*time.Second)
		}
		if c.maxRetries != 3 || c.retryBackoff != time.Second {
			t.Errorf("retries = %d/%v, want 3/1s", c.maxRetries, c.retryBackoff)
		}
		if c.pageSize != DefaultPageSize {
			t.Errorf("pageSize = %d, want %d", c.pageSize, DefaultPageSize)
		}
		if c.logger == nil {
			t.Error("logger should not be nil")
		}
	})

	t.Run("with options", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		hc := &http.Client{Timeout: 10 * time.Second}
		c := NewClient("https://odds.example.com", "",
			WithHTTPClient(hc),
			WithTimeout(15*time.Second),
			WithRetries(10, 500*time.Millisecond),
			WithLogger(logger),
			WithPageSize(50),
			WithUserAgent("oddsstore/dev"),
		)
		if c.httpClient != hc || hc.Timeout != 15*time.Second {
			t.Errorf("http client not configured: %v", c.httpClient.Timeout)
		}
		if c.maxRetries != 10 || c.retryBackoff != 500*time.Millisecond {
			t.Errorf("retries = %d/%v", c.maxRetries, c.retryBackoff)
		}
		if c.logger != logger {
			t.Error("logger not set correctly")
		}
		if c.pageSize != 50 {
			t.Errorf("pageSize = %d, want 50", c.pageSize)
		}
		if c.userAgent != "oddsstore/dev" {
			t.Errorf("userAgent = %q", c.userAgent)
		}
	})

	t.Run("nil logger keeps default", func(t *testing.T) {
		c := NewClient("https://odds.example.com", "", WithLogger(nil))
		if c.logger == nil {
			t.Error("logger should not be nil")
		}
	})
}

func TestAPIError(t *testing.T) {
	err := &APIError{StatusCode: 404, Message: "Not Found"}
	if got, want := err.Error(), "odds api error 404: Not Found"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	tests := []struct {
		code int
		want bool
	}{
		{500, true},
		{502, true},
		{503, true},
		{429, true},
		{400, false},
		{401, false},
		{404, false},
		{200, false},
	}
	for _, tt := range tests {
		err := &APIError{StatusCode: tt.code}
		if got := err.IsRetryable(); got != tt.want {
			t.Errorf("IsRetryable() for status %d = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestFetch(t *testing.T) {
	t.Run("sends headers", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Accept") != "application/json" {
				t.Errorf("Accept = %q", r.Header.Get("Accept"))
			}
			if r.Header.Get("Authorization") != "Bearer test-key" {
				t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
			}
			if r.Header.Get("User-Agent") != "oddsstore/test" {
				t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
			}
			w.Write([]byte(`{"status": "ok"}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, "test-key", WithUserAgent("oddsstore/test"))
		body, err := c.fetch(context.Background(), "/test", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(body) != `{"status": "ok"}` {
			t.Errorf("body = %q", string(body))
		}
	})

	t.Run("no API key omits authorization", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "" {
				t.Errorf("Authorization should be empty, got %q", r.Header.Get("Authorization"))
			}
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, "")
		if _, err := c.fetch(context.Background(), "/test", nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("error status returns APIError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error": "event not found"}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, "key")
		_, err := c.fetch(context.Background(), "/test", nil)

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *APIError, got %T", err)
		}
		if apiErr.StatusCode != 404 {
			t.Errorf("StatusCode = %d, want 404", apiErr.StatusCode)
		}
		if !strings.Contains(string(apiErr.Body), "event not found") {
			t.Errorf("Body = %q", string(apiErr.Body))
		}
	})

	t.Run("context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
		}))
		defer server.Close()

		c := NewClient(server.URL, "key")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := c.fetch(ctx, "/test", nil)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	})
}

func TestReadSnapshot(t *testing.T) {
	tests := []struct {
		name         string
		failures     int32
		failStatus   int
		maxRetries   int
		wantErr      bool
		wantAttempts int32
	}{
		{"succeeds first try", 0, 0, 3, false, 1},
		{"retries 5xx then succeeds", 2, http.StatusInternalServerError, 3, false, 3},
		{"retries 429 then succeeds", 1, http.StatusTooManyRequests, 3, false, 2},
		{"no retry on 400", 10, http.StatusBadRequest, 3, true, 1},
		{"no retry on 404", 10, http.StatusNotFound, 3, true, 1},
		{"max retries exceeded", 10, http.StatusServiceUnavailable, 2, true, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var served int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := atomic.AddInt32(&served, 1)
				if n <= tt.failures {
					w.WriteHeader(tt.failStatus)
					return
				}
				w.Write([]byte(`{"ok": true}`))
			}))
			defer server.Close()

			c := NewClient(server.URL, "key", WithRetries(tt.maxRetries, 10*time.Millisecond))
			ctx, attempts := WithAttempts(context.Background())

			var out struct {
				OK bool `json:"ok"`
			}
			err := c.readSnapshot(ctx, "/test", nil, &out)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !out.OK {
				t.Error("body not decoded")
			}
			if got := atomic.LoadInt32(&served); got != tt.wantAttempts {
				t.Errorf("served = %d, want %d", got, tt.wantAttempts)
			}
			if got := attempts.Load(); got != int(tt.wantAttempts) {
				t.Errorf("attempts = %d, want %d", got, tt.wantAttempts)
			}
		})
	}

	t.Run("context cancellation during retry", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		c := NewClient(server.URL, "key", WithRetries(5, 50*time.Millisecond))
		ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
		defer cancel()

		var out map[string]any
		err := c.readSnapshot(ctx, "/test", nil, &out)
		if err == nil || !strings.Contains(err.Error(), "context") {
			t.Errorf("error should be context-related, got %v", err)
		}
	})

	t.Run("honours retry-after", func(t *testing.T) {
		var served int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&served, 1) == 1 {
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, "key", WithRetries(1, time.Millisecond))
		start := time.Now()
		var out map[string]any
		if err := c.readSnapshot(context.Background(), "/test", nil, &out); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if elapsed := time.Since(start); elapsed < time.Second {
			t.Errorf("retried after %v, want at least 1s", elapsed)
		}
	})
}

func TestAPIError_NotFound(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{http.StatusNotFound, true},
		{http.StatusBadRequest, false},
		{http.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		err := fmt.Errorf("get event e1: %w", &APIError{StatusCode: tt.code})
		if got := errors.Is(err, ErrNotFound); got != tt.want {
			t.Errorf("errors.Is(%d, ErrNotFound) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", 0},
		{"3", 3 * time.Second},
		{"-1", 0},
		{"Wed, 21 Oct 2015 07:28:00 GMT", 0},
	}
	for _, tt := range tests {
		if got := retryAfter(tt.in); got != tt.want {
			t.Errorf("retryAfter(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

const eventJSON = `{
	"idfoevent": "3921509.1",
	"participantname_home": "Benfica",
	"participantname_away": "Porto",
	"idfotournament": "t1",
	"tournamentname": "Primeira Liga",
	"tsstart": "2024-05-01T19:45:00.000+0000",
	"numMarkets": 87,
	"markets": [{
		"idfomarket": "m1",
		"name": "Match Result",
		"istradable": true,
		"selections": [
			{"idfoselection": "o1", "name": "Benfica", "currentpriceup": "2", "currentpricedown": "1", "istradable": true},
			{"idfoselection": "o2", "name": "Porto", "currentpriceup": "x", "istradable": false}
		]
	}],
	"liveDataSummary": {
		"status": "1st_half",
		"matchTime": "23:41",
		"serve": "2",
		"scores": {
			"MATCH_SCORE": {"home": 1, "away": 0},
			"SET_2": {"home": 3, "away": 4},
			"PENALTIES": {"home": 0, "away": 0}
		}
	}
}`

func TestGetEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/events" {
			t.Errorf("path = %q, want /events", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("competition") != "t1" || q.Get("limit") != "25" || q.Get("live") != "true" {
			t.Errorf("query = %v", q)
		}
		w.Write([]byte(`{"data": [` + eventJSON + `], "cursor": "next"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "key")
	resp, err := c.GetEvents(context.Background(), GetEventsOptions{Limit: 25, CompetitionID: "t1", Live: true})
	if err != nil {
		t.Fatalf("GetEvents: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].ID != "3921509.1" {
		t.Errorf("Data = %+v", resp.Data)
	}
	if resp.Cursor != "next" {
		t.Errorf("Cursor = %q, want next", resp.Cursor)
	}
}

func TestGetAllEvents(t *testing.T) {
	t.Run("multiple pages", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			switch r.URL.Query().Get("cursor") {
			case "":
				w.Write([]byte(`{"data": [{"idfoevent": "e1"}, {"idfoevent": "e2"}], "cursor": "p2"}`))
			case "p2":
				w.Write([]byte(`{"data": [{"idfoevent": "e3"}], "cursor": ""}`))
			default:
				t.Errorf("unexpected cursor %q", r.URL.Query().Get("cursor"))
			}
		}))
		defer server.Close()

		c := NewClient(server.URL, "key", WithPageSize(2))
		events, err := c.GetAllEvents(context.Background(), "t1")
		if err != nil {
			t.Fatalf("GetAllEvents: %v", err)
		}
		if len(events) != 3 {
			t.Errorf("len = %d, want 3", len(events))
		}
		if calls != 2 {
			t.Errorf("calls = %d, want 2", calls)
		}
	})

	t.Run("repeated cursor stops", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.Write([]byte(`{"data": [{"idfoevent": "e1"}], "cursor": "same"}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, "key")
		if _, err := c.GetAllEvents(context.Background(), "t1"); err != nil {
			t.Fatalf("GetAllEvents: %v", err)
		}
		if calls != 2 {
			t.Errorf("calls = %d, want 2", calls)
		}
	})
}

func TestGetEvent(t *testing.T) {
	t.Run("successful fetch", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/events/3921509.1" {
				t.Errorf("path = %q", r.URL.Path)
			}
			w.Write([]byte(`{"data": ` + eventJSON + `}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, "key")
		ev, err := c.GetEvent(context.Background(), "3921509.1")
		if err != nil {
			t.Fatalf("GetEvent: %v", err)
		}
		if ev.HomeName != "Benfica" || len(ev.Markets) != 1 {
			t.Errorf("event = %+v", ev)
		}
	})

	t.Run("empty data is not found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data": null}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, "key")
		if _, err := c.GetEvent(context.Background(), "e1"); !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestGetMarket(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets/m1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"data": {"idfomarket": "m1", "istradable": true, "selections": [{"idfoselection": "o1"}]}}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "key")
	m, err := c.GetMarket(context.Background(), "m1")
	if err != nil {
		t.Fatalf("GetMarket: %v", err)
	}
	if !m.IsTradable || len(m.Outcomes) != 1 {
		t.Errorf("market = %+v", m)
	}
}

func TestInvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "key")
	_, err := c.GetEvents(context.Background(), GetEventsOptions{})
	if err == nil || !strings.Contains(err.Error(), "unmarshal response") {
		t.Errorf("err = %v, want unmarshal error", err)
	}
}
