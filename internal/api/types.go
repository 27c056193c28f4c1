package api

import (
	"encoding/json"
	"time"
)

// DefaultPaginationTimeout bounds GetAllEvents when the caller sets no deadline.
const DefaultPaginationTimeout = 2 * time.Minute

// DefaultPageSize is the page size GetAllEvents requests.
const DefaultPageSize = 200

// EventsResponse from GET /events
type EventsResponse struct {
	Data   []EventWire `json:"data"`
	Cursor string      `json:"cursor"`
}

// EventResponse from GET /events/{id}
type EventResponse struct {
	Data *EventWire `json:"data"`
}

// MarketResponse from GET /markets/{id}
type MarketResponse struct {
	Data *MarketWire `json:"data"`
}

// EventWire is the provider representation of an event.
type EventWire struct {
	ID              string        `json:"idfoevent"`
	HomeName        string        `json:"participantname_home"`
	AwayName        string        `json:"participantname_away"`
	CompetitionID   string        `json:"idfotournament"`
	CompetitionName string        `json:"tournamentname"`
	StartDate       string        `json:"tsstart"` // e.g. 2024-05-01T19:45:00.000+0000
	NumberMarkets   *int          `json:"numMarkets"`
	Markets         []MarketWire  `json:"markets"`
	LiveData        *LiveDataWire `json:"liveDataSummary"`
}

// LiveDataWire is the live section of an event.
type LiveDataWire struct {
	Status    string               `json:"status"`
	MatchTime string               `json:"matchTime"` // "mm:ss"
	Scores    map[string]ScoreWire `json:"scores"`    // MATCH_SCORE, CURRENT_SCORE, SET_1...
	Serve     json.RawMessage      `json:"serve"`     // "1"/"2" or 1/2
}

// ScoreWire is one score dimension.
type ScoreWire struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

// MarketWire is the provider representation of a market.
type MarketWire struct {
	ID         string        `json:"idfomarket"`
	EventID    string        `json:"idfoevent"`
	Name       string        `json:"name"`
	IsTradable bool          `json:"istradable"`
	Outcomes   []OutcomeWire `json:"selections"`
}

// OutcomeWire is the provider representation of an outcome ("selection").
type OutcomeWire struct {
	ID               string  `json:"idfoselection"`
	MarketID         string  `json:"idfomarket"`
	Name             string  `json:"name"`
	PriceNumerator   *string `json:"currentpriceup"`
	PriceDenominator *string `json:"currentpricedown"`
	IsTradable       bool    `json:"istradable"`
}

// GetEventsOptions configures a GetEvents request.
type GetEventsOptions struct {
	Limit         int
	Cursor        string
	CompetitionID string
	Live          bool
}
