package store

import (
	"github.com/rickgao/odds-store/internal/model"
)

// Field updates shared by both stores. Each returns the next value and
// whether anything changed, in the shape broadcast.Cell.Update expects.

func setOdd(numerator, denominator string) func(model.Outcome) (model.Outcome, bool) {
	return func(o model.Outcome) (model.Outcome, bool) {
		odd := model.ParseOdd(numerator, denominator, o.Odd)
		if odd == o.Odd {
			return o, false
		}
		o.Odd = odd
		return o, true
	}
}

func setOutcomeTradable(tradable bool) func(model.Outcome) (model.Outcome, bool) {
	return func(o model.Outcome) (model.Outcome, bool) {
		if o.IsTradable == tradable {
			return o, false
		}
		o.IsTradable = tradable
		return o, true
	}
}

func setMarketTradable(tradable bool) func(model.Market) (model.Market, bool) {
	return func(m model.Market) (model.Market, bool) {
		if m.IsTradable == tradable {
			return m, false
		}
		m = m.Clone()
		m.IsTradable = tradable
		return m, true
	}
}

func setStatus(code string) func(model.Event) (model.Event, bool) {
	return func(e model.Event) (model.Event, bool) {
		status := model.ParseEventStatus(code)
		if e.Status == status {
			return e, false
		}
		e = e.Clone()
		e.Status = status
		return e, true
	}
}

func setMatchTime(matchTime string) func(model.Event) (model.Event, bool) {
	return func(e model.Event) (model.Event, bool) {
		if e.MatchTime == matchTime {
			return e, false
		}
		e = e.Clone()
		e.MatchTime = matchTime
		return e, true
	}
}

// setScore applies the non-nil sides only.
func setScore(home, away *int) func(model.Event) (model.Event, bool) {
	return func(e model.Event) (model.Event, bool) {
		nextHome, nextAway := e.HomeScore, e.AwayScore
		if home != nil {
			nextHome = home
		}
		if away != nil {
			nextAway = away
		}
		if intEqual(nextHome, e.HomeScore) && intEqual(nextAway, e.AwayScore) {
			return e, false
		}
		e = e.Clone()
		e.HomeScore = cloneInt(nextHome)
		e.AwayScore = cloneInt(nextAway)
		return e, true
	}
}

func setDetailedScore(s model.Score) func(model.Event) (model.Event, bool) {
	return func(e model.Event) (model.Event, bool) {
		key := s.Key()
		if cur, ok := e.Scores[key]; ok && scoreEqual(cur, s) {
			return e, false
		}
		e = e.Clone()
		if e.Scores == nil {
			e.Scores = make(map[string]model.Score)
		}
		e.Scores[key] = s.Clone()
		return e, true
	}
}

func setFullDetailedScore(scores map[string]model.Score) func(model.Event) (model.Event, bool) {
	return func(e model.Event) (model.Event, bool) {
		if scoresEqual(e.Scores, scores) {
			return e, false
		}
		e = e.Clone()
		e.Scores = make(map[string]model.Score, len(scores))
		for k, s := range scores {
			e.Scores[k] = s.Clone()
		}
		return e, true
	}
}

func setMarketCount(n int) func(model.Event) (model.Event, bool) {
	return func(e model.Event) (model.Event, bool) {
		if e.NumberMarkets != nil && *e.NumberMarkets == n {
			return e, false
		}
		e = e.Clone()
		e.NumberMarkets = model.IntPtr(n)
		return e, true
	}
}

func setServing(side model.ServingSide) func(model.Event) (model.Event, bool) {
	return func(e model.Event) (model.Event, bool) {
		if e.ActivePlayerServing == side {
			return e, false
		}
		e = e.Clone()
		e.ActivePlayerServing = side
		return e, true
	}
}

func intEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func scoreEqual(a, b model.Score) bool {
	return a.Kind == b.Kind && a.Index == b.Index &&
		intEqual(a.Home, b.Home) && intEqual(a.Away, b.Away)
}

func scoresEqual(a, b map[string]model.Score) bool {
	if len(a) != len(b) {
		return false
	}
	for k, sa := range a {
		sb, ok := b[k]
		if !ok || !scoreEqual(sa, sb) {
			return false
		}
	}
	return true
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
