package api

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/rickgao/odds-store/internal/model"
)

// Provider score keys.
const (
	ScoreKeyMatch   = "MATCH_SCORE"
	ScoreKeyCurrent = "CURRENT_SCORE"
	scoreKeySet     = "SET_"
)

var startDateLayouts = []string{
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05Z0700",
	time.RFC3339Nano,
}

// ToModel converts the wire event, including its markets and live data.
func (w EventWire) ToModel() model.Event {
	e := model.Event{
		ID:              w.ID,
		HomeTeam:        w.HomeName,
		AwayTeam:        w.AwayName,
		CompetitionID:   w.CompetitionID,
		CompetitionName: w.CompetitionName,
		StartDate:       ParseStartDate(w.StartDate),
		NumberMarkets:   w.NumberMarkets,
	}

	if len(w.Markets) > 0 {
		e.Markets = make([]model.Market, len(w.Markets))
		for i, m := range w.Markets {
			e.Markets[i] = m.ToModel()
			e.Markets[i].EventID = w.ID
		}
	}

	if ld := w.LiveData; ld != nil {
		e.Status = model.ParseEventStatus(ld.Status)
		if minutes, ok := MatchMinutes(ld.MatchTime); ok {
			e.MatchTime = minutes
		}
		e.ActivePlayerServing = ParseServe(ld.Serve)
		e.HomeScore, e.AwayScore = headlineScore(ld.Scores)
		for key, sw := range ld.Scores {
			s, ok := ScoreFromWire(key, sw)
			if !ok {
				continue
			}
			if e.Scores == nil {
				e.Scores = make(map[string]model.Score)
			}
			e.Scores[s.Key()] = s
		}
	}

	return e
}

// ToModel converts the wire market and its outcomes.
func (w MarketWire) ToModel() model.Market {
	m := model.Market{
		ID:         w.ID,
		EventID:    w.EventID,
		Name:       w.Name,
		IsTradable: w.IsTradable,
	}
	if len(w.Outcomes) > 0 {
		m.Outcomes = make([]model.Outcome, len(w.Outcomes))
		for i, o := range w.Outcomes {
			m.Outcomes[i] = o.ToModel()
			m.Outcomes[i].MarketID = w.ID
		}
	}
	return m
}

// ToModel converts the wire outcome. Missing or malformed prices yield an
// invalid (zero) odd.
func (w OutcomeWire) ToModel() model.Outcome {
	return model.Outcome{
		ID:         w.ID,
		MarketID:   w.MarketID,
		Name:       w.Name,
		Odd:        model.ParseOdd(deref(w.PriceNumerator), deref(w.PriceDenominator), model.Odd{}),
		IsTradable: w.IsTradable,
	}
}

// ParseStartDate parses the provider's tsstart format.
// Returns the zero time for empty or unrecognised input.
func ParseStartDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range startDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// MatchMinutes returns the minutes part of a "mm:ss" match clock.
// "45:12" -> "45", "90+3:00" -> "90+3". Reports false if there is none.
func MatchMinutes(matchTime string) (string, bool) {
	matchTime = strings.TrimSpace(matchTime)
	if matchTime == "" {
		return "", false
	}
	minutes, _, _ := strings.Cut(matchTime, ":")
	minutes = strings.TrimSpace(minutes)
	if minutes == "" || minutes[0] < '0' || minutes[0] > '9' {
		return "", false
	}
	return minutes, true
}

// ParseServe maps the provider serve flag ("1"/"2" or 1/2) to a side.
func ParseServe(raw json.RawMessage) model.ServingSide {
	if len(raw) == 0 {
		return model.ServingNone
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return model.ServingNone
	}
	var code string
	switch t := v.(type) {
	case string:
		code = t
	case float64:
		code = strconv.Itoa(int(t))
	}
	switch code {
	case "1":
		return model.ServingHome
	case "2":
		return model.ServingAway
	default:
		return model.ServingNone
	}
}

// ScoreFromWire maps a provider score key to a model score.
// MATCH_SCORE is the whole match, CURRENT_SCORE the current game part and
// SET_<n> set n. Other keys are not tracked.
func ScoreFromWire(key string, w ScoreWire) (model.Score, bool) {
	switch {
	case key == ScoreKeyMatch:
		return model.MatchFullScore(w.Home, w.Away), true
	case key == ScoreKeyCurrent:
		return model.GamePartScore(w.Home, w.Away), true
	case strings.HasPrefix(key, scoreKeySet):
		n, err := strconv.Atoi(strings.TrimPrefix(key, scoreKeySet))
		if err != nil || n < 1 {
			return model.Score{}, false
		}
		return model.SetScore(n, w.Home, w.Away), true
	default:
		return model.Score{}, false
	}
}

// headlineScore prefers the current score, then the match score.
func headlineScore(scores map[string]ScoreWire) (home, away *int) {
	if s, ok := scores[ScoreKeyCurrent]; ok {
		return s.Home, s.Away
	}
	if s, ok := scores[ScoreKeyMatch]; ok {
		return s.Home, s.Away
	}
	return nil, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
