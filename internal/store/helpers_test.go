package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rickgao/odds-store/internal/broadcast"
	"github.com/rickgao/odds-store/internal/model"
)

// testEvent builds an event whose markets each carry two tradable outcomes,
// "<market>-home" at 2/1 and "<market>-away" at 6/4.
func testEvent(id string, marketIDs ...string) model.Event {
	e := model.Event{
		ID:       id,
		HomeTeam: "Home " + id,
		AwayTeam: "Away " + id,
		Status:   model.ParseEventStatus("not_started"),
	}
	for _, mid := range marketIDs {
		e.Markets = append(e.Markets, testMarket(mid))
	}
	return e
}

func testMarket(id string) model.Market {
	return model.Market{
		ID:         id,
		Name:       fmt.Sprintf("Market %s", id),
		IsTradable: true,
		Outcomes: []model.Outcome{
			{ID: id + "-home", Name: "Home", Odd: model.NewOdd(2, 1), IsTradable: true},
			{ID: id + "-away", Name: "Away", Odd: model.NewOdd(6, 4), IsTradable: true},
		},
	}
}

func drain[T any](sub *broadcast.Subscription[T]) []T {
	var out []T
	for {
		v, ok := sub.TryRecv()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

func recvWithin[T any](t *testing.T, sub *broadcast.Subscription[T], d time.Duration) T {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	v, err := sub.Recv(ctx)
	if err != nil {
		t.Fatalf("Recv() error = %v", err)
	}
	return v
}

func marketIDs(markets []model.Market) []string {
	ids := make([]string, len(markets))
	for i, m := range markets {
		ids[i] = m.ID
	}
	return ids
}

func eventIDs(events []model.Event) []string {
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	return ids
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
