package feed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rickgao/odds-store/internal/api"
	"github.com/rickgao/odds-store/internal/connection"
	"github.com/rickgao/odds-store/internal/model"
)

// suspensionNotOffered marks an outcome that is no longer offered.
const suspensionNotOffered = "N/O"

// Decode parses one feed message. A container that fails to decode is
// recorded in Notification.Errors and does not affect the others.
func Decode(data []byte) (Notification, error) {
	var wire notificationWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return Notification{}, fmt.Errorf("decode notification: %w", err)
	}

	n := Notification{Type: wire.NotificationType}

	switch wire.NotificationType {
	case NotificationListeningStarted:
		// The session token is informational only.
		json.Unmarshal(wire.Data, &n.Session)

	case NotificationContentChanges:
		var raws []json.RawMessage
		if err := json.Unmarshal(wire.Data, &raws); err != nil {
			return n, fmt.Errorf("decode content changes: %w", err)
		}
		for _, raw := range raws {
			var c containerWire
			if err := json.Unmarshal(raw, &c); err != nil {
				n.Errors = append(n.Errors, fmt.Errorf("decode container: %w", err))
				continue
			}
			updates, err := decodeContainer(c)
			switch {
			case errors.Is(err, ErrIgnored):
				n.Ignored++
			case err != nil:
				n.Errors = append(n.Errors, err)
			default:
				n.Updates = append(n.Updates, updates...)
			}
		}

	default:
		n.Ignored++
	}

	return n, nil
}

// decodeContainer maps one content container to updates.
func decodeContainer(c containerWire) ([]Update, error) {
	if c.Path == "" && c.ChangeType == "" {
		return decodeInitial(c)
	}

	var (
		updates []Update
		err     error
	)
	switch strings.ToLower(c.ChangeType) {
	case ChangeUpdated:
		updates, err = decodeUpdated(c)
	case ChangeAdded:
		updates, err = decodeAdded(c)
	case ChangeRemoved:
		updates, err = decodeRemoved(c)
	default:
		return nil, ErrIgnored
	}
	if err != nil && !errors.Is(err, ErrIgnored) {
		return nil, fmt.Errorf("%s %s %q: %w", c.ContentID, c.ChangeType, c.Path, err)
	}
	for i := range updates {
		updates[i].Content = c.ContentID
	}
	return updates, err
}

// decodeInitial decodes the initial value of a content.
func decodeInitial(c containerWire) ([]Update, error) {
	if isNull(c.Change) {
		return nil, ErrIgnored
	}

	switch c.ContentID.Type {
	case connection.ContentLiveEvents, connection.ContentPreLiveEvents, connection.ContentEventGroup:
		events, err := decodeEvents(c.Change)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.ContentID, err)
		}
		return []Update{{Op: OpEvents, Content: c.ContentID, Events: events}}, nil

	case connection.ContentEventDetails, connection.ContentEventSummary:
		events, err := decodeEvents(c.Change)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.ContentID, err)
		}
		updates := make([]Update, 0, len(events))
		for _, e := range events {
			updates = append(updates, Update{Op: OpEvent, Content: c.ContentID, EventID: e.ID, Event: e})
		}
		if len(updates) == 0 {
			return nil, ErrIgnored
		}
		return updates, nil

	case connection.ContentMarket:
		var w api.MarketWire
		if err := json.Unmarshal(c.Change, &w); err != nil {
			return nil, fmt.Errorf("%s: %w", c.ContentID, err)
		}
		if w.ID == "" {
			return nil, ErrIgnored
		}
		m := w.ToModel()
		return []Update{{Op: OpAddMarket, Content: c.ContentID, EventID: m.EventID, MarketID: m.ID, Market: m}}, nil
	}

	return nil, ErrIgnored
}

// decodeEvents accepts a single event or a list. Entries that fail to
// decode or carry no id are skipped.
func decodeEvents(raw json.RawMessage) ([]model.Event, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var w api.EventWire
		if err := json.Unmarshal(trimmed, &w); err != nil {
			return nil, err
		}
		if w.ID == "" {
			return nil, nil
		}
		return []model.Event{w.ToModel()}, nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(trimmed, &raws); err != nil {
		return nil, err
	}
	events := make([]model.Event, 0, len(raws))
	for _, r := range raws {
		var w api.EventWire
		if err := json.Unmarshal(r, &w); err != nil || w.ID == "" {
			continue
		}
		events = append(events, w.ToModel())
	}
	return events, nil
}

func decodeUpdated(c containerWire) ([]Update, error) {
	path := c.Path

	switch {
	case strings.Contains(path, "idfomarket") && strings.Contains(path, "istradable") && !strings.Contains(path, "idfoselection"):
		id, ok := MarketIDFromPath(path)
		if !ok {
			return nil, ErrIgnored
		}
		var tradable bool
		if err := json.Unmarshal(c.Change, &tradable); err != nil {
			return nil, err
		}
		return []Update{{Op: OpMarketTradability, MarketID: id, Tradable: tradable}}, nil

	case strings.Contains(path, "idfoselection"):
		return decodeSelection(c)

	case strings.Contains(path, "numMarkets"):
		id, ok := eventIDFor(c)
		if !ok {
			return nil, ErrIgnored
		}
		var n int
		if err := json.Unmarshal(c.Change, &n); err != nil {
			return nil, err
		}
		return []Update{{Op: OpMarketCount, EventID: id, Count: n}}, nil

	case strings.Contains(path, "liveDataSummary"):
		return decodeLiveData(c)

	case strings.Contains(path, "istradable"):
		id, ok := marketIDFor(c)
		if !ok {
			return nil, ErrIgnored
		}
		var tradable bool
		if err := json.Unmarshal(c.Change, &tradable); err != nil {
			return nil, err
		}
		if tradable {
			return []Update{{Op: OpEnableMarket, MarketID: id}}, nil
		}
		return []Update{{Op: OpRemoveMarket, MarketID: id}}, nil
	}

	return nil, ErrIgnored
}

// decodeSelection handles outcome price and tradability changes.
func decodeSelection(c containerWire) ([]Update, error) {
	if strings.Contains(c.Path, "istradable") {
		var tradable bool
		if err := json.Unmarshal(c.Change, &tradable); err == nil {
			id, ok := SelectionIDFromPath(c.Path)
			if !ok {
				return nil, ErrIgnored
			}
			return []Update{{Op: OpOutcomeTradability, OutcomeID: id, Tradable: tradable}}, nil
		}
	}

	var w selectionChangeWire
	if err := json.Unmarshal(c.Change, &w); err != nil {
		return nil, err
	}

	id := w.SelectionID
	if id == "" {
		id, _ = SelectionIDFromPath(c.Path)
	}
	if id == "" {
		return nil, ErrIgnored
	}
	marketID := w.MarketID
	if marketID == "" {
		marketID, _ = MarketIDFromPath(c.Path)
	}

	if w.PriceUp == nil && w.PriceDown == nil {
		if w.SuspensionType == nil {
			return nil, ErrIgnored
		}
		return []Update{{
			Op:        OpOutcomeTradability,
			MarketID:  marketID,
			OutcomeID: id,
			Tradable:  *w.SuspensionType != suspensionNotOffered,
		}}, nil
	}

	return []Update{{
		Op:          OpOutcomeOdd,
		MarketID:    marketID,
		OutcomeID:   id,
		Numerator:   deref(w.PriceUp),
		Denominator: deref(w.PriceDown),
	}}, nil
}

// decodeLiveData handles score, clock, status and serve changes.
func decodeLiveData(c containerWire) ([]Update, error) {
	eventID, ok := eventIDFor(c)
	if !ok {
		return nil, ErrIgnored
	}
	path := c.Path

	switch {
	case strings.Contains(path, "scores"):
		return decodeScores(eventID, scoreKey(path), c.Change)

	case strings.Contains(path, "matchTime"):
		var clock string
		if err := json.Unmarshal(c.Change, &clock); err != nil {
			return nil, err
		}
		minutes, ok := api.MatchMinutes(clock)
		if !ok {
			return nil, ErrIgnored
		}
		return []Update{{Op: OpMatchTime, EventID: eventID, MatchTime: minutes}}, nil

	case strings.Contains(path, "status"):
		var status string
		if err := json.Unmarshal(c.Change, &status); err != nil {
			return nil, err
		}
		return []Update{{Op: OpStatus, EventID: eventID, Status: status}}, nil

	case strings.Contains(path, "serve"):
		return []Update{{Op: OpServing, EventID: eventID, Serving: api.ParseServe(c.Change)}}, nil
	}

	return nil, ErrIgnored
}

// decodeScores handles a single score key or, when key is empty, the whole
// score map. MATCH_SCORE and CURRENT_SCORE also move the headline score.
func decodeScores(eventID, key string, raw json.RawMessage) ([]Update, error) {
	scores := make(map[string]api.ScoreWire)
	if key == "" {
		if err := json.Unmarshal(raw, &scores); err != nil {
			return nil, err
		}
	} else {
		var w api.ScoreWire
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		scores[key] = w
	}

	keys := make([]string, 0, len(scores))
	for k := range scores {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var updates []Update
	for _, k := range keys {
		if s, ok := api.ScoreFromWire(k, scores[k]); ok {
			updates = append(updates, Update{Op: OpDetailedScore, EventID: eventID, Score: s})
		}
	}

	headline, ok := scores[api.ScoreKeyCurrent]
	if !ok {
		headline, ok = scores[api.ScoreKeyMatch]
	}
	if ok {
		updates = append(updates, Update{Op: OpScore, EventID: eventID, Home: headline.Home, Away: headline.Away})
	}

	if len(updates) == 0 {
		return nil, ErrIgnored
	}
	return updates, nil
}

func decodeAdded(c containerWire) ([]Update, error) {
	switch {
	case strings.Contains(c.Path, "idfoselection"):
		return nil, ErrIgnored

	case strings.Contains(c.Path, "idfomarket"):
		var w api.MarketWire
		if err := json.Unmarshal(c.Change, &w); err != nil {
			return nil, err
		}
		if w.ID == "" {
			return nil, ErrIgnored
		}
		m := w.ToModel()
		if id, ok := eventIDFor(c); ok {
			m.EventID = id
		}
		return []Update{{Op: OpAddMarket, EventID: m.EventID, MarketID: m.ID, Market: m}}, nil

	case strings.Contains(c.Path, "idfoevent"):
		var w api.EventWire
		if err := json.Unmarshal(c.Change, &w); err != nil {
			return nil, err
		}
		if w.ID == "" {
			return nil, ErrIgnored
		}
		e := w.ToModel()
		return []Update{{Op: OpAddEvent, EventID: e.ID, Event: e}}, nil
	}

	return nil, ErrIgnored
}

func decodeRemoved(c containerWire) ([]Update, error) {
	switch {
	case c.ContentID.Type == connection.ContentMarket && c.ContentID.ID != "":
		return []Update{{Op: OpRemoveMarket, MarketID: c.ContentID.ID}}, nil

	case strings.Contains(c.Path, "idfoselection"):
		// Outcomes only leave together with their market.
		return nil, ErrIgnored

	case strings.Contains(c.Path, "idfomarket"):
		if id, ok := MarketIDFromPath(c.Path); ok {
			return []Update{{Op: OpRemoveMarket, MarketID: id}}, nil
		}

	case strings.Contains(c.Path, "idfoevent"):
		if id, ok := EventIDFromPath(c.Path); ok {
			return []Update{{Op: OpRemoveEvent, EventID: id}}, nil
		}
	}

	return nil, ErrIgnored
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
