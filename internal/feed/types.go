package feed

import (
	"encoding/json"
	"errors"

	"github.com/rickgao/odds-store/internal/connection"
	"github.com/rickgao/odds-store/internal/model"
)

// Notification types.
const (
	NotificationListeningStarted = "LISTENING_STARTED"
	NotificationContentChanges   = "CONTENT_CHANGES"
)

// Change types of a content container.
const (
	ChangeAdded   = "added"
	ChangeRemoved = "removed"
	ChangeUpdated = "updated"
)

// ErrIgnored marks a container that maps to no update.
var ErrIgnored = errors.New("ignored content change")

// Op names the store operation an Update maps to.
type Op string

const (
	OpEvents             Op = "events"              // bulk event list
	OpEvent              Op = "event"               // one full event
	OpAddEvent           Op = "add_event"
	OpRemoveEvent        Op = "remove_event"
	OpAddMarket          Op = "add_market"
	OpRemoveMarket       Op = "remove_market"
	OpEnableMarket       Op = "enable_market"
	OpMarketTradability  Op = "market_tradability"
	OpOutcomeOdd         Op = "outcome_odd"
	OpOutcomeTradability Op = "outcome_tradability"
	OpMarketCount        Op = "market_count"
	OpScore              Op = "score"
	OpDetailedScore      Op = "detailed_score"
	OpMatchTime          Op = "match_time"
	OpStatus             Op = "status"
	OpServing            Op = "serving"
)

// Update is one decoded store operation. Only the fields relevant to Op
// are set.
type Update struct {
	Op      Op
	Content connection.ContentID

	EventID   string
	MarketID  string
	OutcomeID string

	Events []model.Event
	Event  model.Event
	Market model.Market

	// Odds components as received; empty means absent.
	Numerator   string
	Denominator string

	Tradable  bool
	Count     int
	Home      *int
	Away      *int
	Score     model.Score
	MatchTime string
	Status    string
	Serving   model.ServingSide
}

// Notification is a decoded feed message.
type Notification struct {
	Type    string
	Session string // LISTENING_STARTED session token
	Updates []Update
	Ignored int     // containers that mapped to no update
	Errors  []error // containers that failed to decode
}

// notificationWire is the outer feed message.
type notificationWire struct {
	NotificationType string          `json:"notificationType"`
	Data             json.RawMessage `json:"data"`
}

// containerWire is one content change.
type containerWire struct {
	ContentID  connection.ContentID `json:"contentId"`
	Path       string               `json:"path"`
	ChangeType string               `json:"changeType"`
	Change     json.RawMessage      `json:"change"`
}

// selectionChangeWire is the change body of an outcome update.
type selectionChangeWire struct {
	SelectionID    string  `json:"idfoselection"`
	MarketID       string  `json:"idfomarket"`
	PriceUp        *string `json:"currentpriceup"`
	PriceDown      *string `json:"currentpricedown"`
	SuspensionType *string `json:"suspensiontype"`
}
