package api

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rickgao/odds-store/internal/model"
)

func TestEventWire_ToModel(t *testing.T) {
	var w EventWire
	if err := json.Unmarshal([]byte(eventJSON), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	e := w.ToModel()

	if e.ID != "3921509.1" || e.HomeTeam != "Benfica" || e.AwayTeam != "Porto" {
		t.Errorf("identity = %q %q %q", e.ID, e.HomeTeam, e.AwayTeam)
	}
	if want := time.Date(2024, 5, 1, 19, 45, 0, 0, time.UTC); !e.StartDate.Equal(want) {
		t.Errorf("StartDate = %v, want %v", e.StartDate, want)
	}
	if e.NumberMarkets == nil || *e.NumberMarkets != 87 {
		t.Errorf("NumberMarkets = %v", e.NumberMarkets)
	}
	if e.Status.Kind != model.StatusInProgress || e.Status.Code != "1st_half" {
		t.Errorf("Status = %+v", e.Status)
	}
	if e.MatchTime != "23" {
		t.Errorf("MatchTime = %q, want 23", e.MatchTime)
	}
	if e.ActivePlayerServing != model.ServingAway {
		t.Errorf("ActivePlayerServing = %q", e.ActivePlayerServing)
	}
	if e.HomeScore == nil || *e.HomeScore != 1 || *e.AwayScore != 0 {
		t.Errorf("score = %v-%v", e.HomeScore, e.AwayScore)
	}
	if len(e.Scores) != 2 {
		t.Errorf("Scores = %+v, want matchFull and set2", e.Scores)
	}
	if s, ok := e.Scores["set2"]; !ok || *s.Away != 4 {
		t.Errorf("set2 = %+v", s)
	}

	if len(e.Markets) != 1 {
		t.Fatalf("Markets = %d, want 1", len(e.Markets))
	}
	m := e.Markets[0]
	if m.EventID != "3921509.1" || !m.IsTradable {
		t.Errorf("market = %+v", m)
	}
	if m.Outcomes[0].MarketID != "m1" || m.Outcomes[0].Odd.String() != "2/1" {
		t.Errorf("outcome o1 = %+v", m.Outcomes[0])
	}
	if m.Outcomes[1].Odd.IsValid() {
		t.Errorf("outcome o2 odd = %s, want invalid", m.Outcomes[1].Odd)
	}
}

func TestEventWire_ToModelWithoutLiveData(t *testing.T) {
	e := EventWire{ID: "e1"}.ToModel()
	if e.Status.Kind != model.StatusUnknown || e.Scores != nil || e.Markets != nil {
		t.Errorf("event = %+v", e)
	}
}

func TestParseStartDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-05-01T19:45:00.000+0000", time.Date(2024, 5, 1, 19, 45, 0, 0, time.UTC)},
		{"2024-05-01T20:45:00+0100", time.Date(2024, 5, 1, 19, 45, 0, 0, time.UTC)},
		{"2024-05-01T19:45:00Z", time.Date(2024, 5, 1, 19, 45, 0, 0, time.UTC)},
		{"", time.Time{}},
		{"yesterday", time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseStartDate(tt.in); !got.Equal(tt.want) {
				t.Errorf("ParseStartDate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMatchMinutes(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"45:12", "45", true},
		{"90+3:00", "90+3", true},
		{"7", "7", true},
		{" 12:00 ", "12", true},
		{"", "", false},
		{"HT", "", false},
		{":30", "", false},
	}
	for _, tt := range tests {
		got, ok := MatchMinutes(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("MatchMinutes(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseServe(t *testing.T) {
	tests := []struct {
		raw  string
		want model.ServingSide
	}{
		{`"1"`, model.ServingHome},
		{`"2"`, model.ServingAway},
		{`1`, model.ServingHome},
		{`2`, model.ServingAway},
		{`0`, model.ServingNone},
		{`null`, model.ServingNone},
		{``, model.ServingNone},
	}
	for _, tt := range tests {
		if got := ParseServe(json.RawMessage(tt.raw)); got != tt.want {
			t.Errorf("ParseServe(%s) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestScoreFromWire(t *testing.T) {
	home, away := model.IntPtr(2), model.IntPtr(1)
	tests := []struct {
		key     string
		wantKey string
		wantOK  bool
	}{
		{ScoreKeyMatch, "matchFull", true},
		{ScoreKeyCurrent, "gamePart", true},
		{"SET_3", "set3", true},
		{"SET_0", "", false},
		{"SET_X", "", false},
		{"CORNERS", "", false},
	}
	for _, tt := range tests {
		s, ok := ScoreFromWire(tt.key, ScoreWire{Home: home, Away: away})
		if ok != tt.wantOK {
			t.Errorf("ScoreFromWire(%q) ok = %v, want %v", tt.key, ok, tt.wantOK)
			continue
		}
		if ok && s.Key() != tt.wantKey {
			t.Errorf("ScoreFromWire(%q).Key() = %q, want %q", tt.key, s.Key(), tt.wantKey)
		}
	}
}
