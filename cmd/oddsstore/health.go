package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/rickgao/odds-store/internal/config"
	"github.com/rickgao/odds-store/internal/connection"
	"github.com/rickgao/odds-store/internal/feed"
	"github.com/rickgao/odds-store/internal/model"
	"github.com/rickgao/odds-store/internal/store"
)

// defaultDebugLimit caps /debug/events unless ?limit= is given.
const defaultDebugLimit = 100

// storeView is the read side of either store mode.
type storeView interface {
	Mode() string
	Counts() (events, markets, outcomes int)
	Events() []model.Event
	Event(id string) (model.Event, bool)
	Market(id string) (model.Market, bool)
	Outcome(id string) (model.Outcome, bool)
}

type listView struct{ s *store.ListStore }

func (v listView) Mode() string { return config.ModeList }

func (v listView) Counts() (events, markets, outcomes int) { return v.s.Counts() }

func (v listView) Events() []model.Event { return v.s.Events() }

func (v listView) Event(id string) (model.Event, bool) { return v.s.Event(id) }

func (v listView) Market(id string) (model.Market, bool) { return v.s.Market(id) }

func (v listView) Outcome(id string) (model.Outcome, bool) { return v.s.Outcome(id) }

type detailView struct{ s *store.DetailStore }

func (v detailView) Mode() string { return config.ModeDetail }

func (v detailView) Counts() (events, markets, outcomes int) {
	e, ok := v.s.Event()
	if !ok {
		return 0, 0, 0
	}
	for _, m := range e.Markets {
		outcomes += len(m.Outcomes)
	}
	return 1, len(e.Markets), outcomes
}

func (v detailView) Events() []model.Event {
	e, ok := v.s.Event()
	if !ok {
		return nil
	}
	return []model.Event{e}
}

func (v detailView) Event(id string) (model.Event, bool) {
	e, ok := v.s.Event()
	if !ok || e.ID != id {
		return model.Event{}, false
	}
	return e, true
}

func (v detailView) Market(id string) (model.Market, bool) { return v.s.Market(id) }

func (v detailView) Outcome(id string) (model.Outcome, bool) { return v.s.Outcome(id) }

// healthHandler reports store, feed and router state. manager and router
// are nil when the feed is disabled.
func healthHandler(view storeView, manager connection.Manager, router feed.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := struct {
			Status     string                 `json:"status"`
			Components map[string]interface{} `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]interface{}),
		}

		events, markets, outcomes := view.Counts()
		health.Components["store"] = map[string]interface{}{
			"mode":     view.Mode(),
			"events":   events,
			"markets":  markets,
			"outcomes": outcomes,
		}
		if events == 0 {
			health.Status = "degraded"
		}

		if manager != nil {
			stats := manager.Stats()
			health.Components["feed"] = map[string]interface{}{
				"connected":     stats.Connected,
				"session":       stats.Session,
				"subscriptions": stats.Subscriptions,
				"tracked":       stats.Tracked,
				"reconnects":    stats.Reconnects,
				"dropped":       stats.Dropped,
				"listening":     stats.SessionToken != "",
			}
			if !stats.Connected {
				if events == 0 {
					health.Status = "unhealthy"
				} else {
					health.Status = "degraded"
				}
			}
		}

		if router != nil {
			stats := router.Stats()
			health.Components["router"] = map[string]interface{}{
				"messages_received": stats.MessagesReceived,
				"updates_applied":   stats.UpdatesApplied,
				"unsupported":       stats.Unsupported,
				"ignored":           stats.Ignored,
				"parse_errors":      stats.ParseErrors,
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	}
}

// debugEventsHandler dumps the cached events.
func debugEventsHandler(view storeView) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultDebugLimit
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}

		all := view.Events()
		events := all
		if len(events) > limit {
			events = events[:limit]
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"mode":    view.Mode(),
			"count":   len(all),
			"showing": len(events),
			"events":  events,
		})
	}
}

// entityHandler serves one cached entity by its {id} route variable.
func entityHandler[T any](kind string, get func(id string) (T, bool)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		v, ok := get(id)
		if !ok {
			http.Error(w, kind+" not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	}
}

// outcomeDetail is the debug payload for one outcome.
type outcomeDetail struct {
	model.Outcome
	DecimalOdd decimal.Decimal `json:"decimal_odd"`
}

func outcomeDetails(get func(id string) (model.Outcome, bool)) func(id string) (outcomeDetail, bool) {
	return func(id string) (outcomeDetail, bool) {
		o, ok := get(id)
		if !ok {
			return outcomeDetail{}, false
		}
		return outcomeDetail{Outcome: o, DecimalOdd: o.Odd.Decimal()}, true
	}
}
