package model

import (
	"slices"
	"sort"
	"time"
)

// ServingSide identifies the participant currently serving (tennis, volleyball).
type ServingSide string

const (
	ServingNone ServingSide = ""
	ServingHome ServingSide = "home"
	ServingAway ServingSide = "away"
)

// Event is one sports fixture.
//
// Markets is a derived copy reconciled against the registry; it is never the
// source of truth for market or outcome state.
type Event struct {
	ID              string    `json:"id"`
	HomeTeam        string    `json:"home_team"`
	AwayTeam        string    `json:"away_team"`
	CompetitionID   string    `json:"competition_id"`
	CompetitionName string    `json:"competition_name"`
	StartDate       time.Time `json:"start_date"`

	// Live fields
	Status              EventStatus      `json:"status"`
	MatchTime           string           `json:"match_time,omitempty"`
	HomeScore           *int             `json:"home_score,omitempty"`
	AwayScore           *int             `json:"away_score,omitempty"`
	Scores              map[string]Score `json:"scores,omitempty"`
	ActivePlayerServing ServingSide      `json:"active_player_serving,omitempty"`
	NumberMarkets       *int             `json:"number_markets,omitempty"`

	Markets []Market `json:"markets"`
}

// Market is one betting market on an event.
type Market struct {
	ID         string    `json:"id"`
	EventID    string    `json:"event_id,omitempty"`
	Name       string    `json:"name"`
	IsTradable bool      `json:"is_tradable"` // false = suspended
	Outcomes   []Outcome `json:"outcomes"`
}

// Outcome is one selectable price within a market.
type Outcome struct {
	ID         string `json:"id"`
	MarketID   string `json:"market_id,omitempty"`
	Name       string `json:"name"`
	Odd        Odd    `json:"odd"`
	IsTradable bool   `json:"is_tradable"`
}

// Clone returns a deep copy of the event.
func (e Event) Clone() Event {
	c := e
	c.HomeScore = cloneInt(e.HomeScore)
	c.AwayScore = cloneInt(e.AwayScore)
	c.NumberMarkets = cloneInt(e.NumberMarkets)
	if e.Scores != nil {
		c.Scores = make(map[string]Score, len(e.Scores))
		for k, s := range e.Scores {
			c.Scores[k] = s.Clone()
		}
	}
	if e.Markets != nil {
		c.Markets = make([]Market, len(e.Markets))
		for i, m := range e.Markets {
			c.Markets[i] = m.Clone()
		}
	}
	return c
}

// MarketIDs returns the ids of the event's markets, in order.
func (e Event) MarketIDs() []string {
	ids := make([]string, len(e.Markets))
	for i, m := range e.Markets {
		ids[i] = m.ID
	}
	return ids
}

// SortedScores returns the detailed scores ordered by Score.SortValue.
func (e Event) SortedScores() []Score {
	scores := make([]Score, 0, len(e.Scores))
	for _, s := range e.Scores {
		scores = append(scores, s)
	}
	sort.Slice(scores, func(i, j int) bool {
		return scores[i].SortValue() < scores[j].SortValue()
	})
	return scores
}

// Clone returns a deep copy of the market.
func (m Market) Clone() Market {
	c := m
	if m.Outcomes != nil {
		c.Outcomes = make([]Outcome, len(m.Outcomes))
		copy(c.Outcomes, m.Outcomes)
	}
	return c
}

// Equal reports whether m and other hold the same fields and outcomes.
func (m Market) Equal(other Market) bool {
	return m.ID == other.ID &&
		m.EventID == other.EventID &&
		m.Name == other.Name &&
		m.IsTradable == other.IsTradable &&
		slices.Equal(m.Outcomes, other.Outcomes)
}

// OutcomeIDs returns the ids of the market's outcomes, in order.
func (m Market) OutcomeIDs() []string {
	ids := make([]string, len(m.Outcomes))
	for i, o := range m.Outcomes {
		ids[i] = o.ID
	}
	return ids
}

// Clone returns a copy of the outcome. Outcomes hold no references.
func (o Outcome) Clone() Outcome {
	return o
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
