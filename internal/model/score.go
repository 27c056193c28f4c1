package model

import (
	"strconv"
	"strings"
)

// ScoreKind is the dimension a Score measures.
type ScoreKind string

const (
	ScoreSet       ScoreKind = "set"
	ScoreGamePart  ScoreKind = "gamePart"
	ScoreMatchFull ScoreKind = "matchFull"
)

// Score is one score dimension of an event (whole match, one set, current game).
type Score struct {
	Kind  ScoreKind `json:"kind"`
	Index int       `json:"index,omitempty"` // set number, only for ScoreSet
	Home  *int      `json:"home,omitempty"`
	Away  *int      `json:"away,omitempty"`
}

// SetScore returns the score of set index.
func SetScore(index int, home, away *int) Score {
	return Score{Kind: ScoreSet, Index: index, Home: home, Away: away}
}

// GamePartScore returns the score of the current game part.
func GamePartScore(home, away *int) Score {
	return Score{Kind: ScoreGamePart, Home: home, Away: away}
}

// MatchFullScore returns the whole-match score.
func MatchFullScore(home, away *int) Score {
	return Score{Kind: ScoreMatchFull, Home: home, Away: away}
}

// Key is the map key under which the score is stored on an Event.
func (s Score) Key() string {
	switch s.Kind {
	case ScoreSet:
		return "set" + strconv.Itoa(s.Index)
	case ScoreGamePart:
		return "gamePart"
	default:
		return "matchFull"
	}
}

// SortValue orders sets first (by index), then game part, then full match.
func (s Score) SortValue() int {
	switch s.Kind {
	case ScoreSet:
		return s.Index
	case ScoreGamePart:
		return 100
	default:
		return 200
	}
}

// Clone returns a deep copy of the score.
func (s Score) Clone() Score {
	c := s
	c.Home = cloneInt(s.Home)
	c.Away = cloneInt(s.Away)
	return c
}

// ScoreFromKey builds an empty score for a provider key such as "set2",
// "gamePart" or "matchFull". Unknown keys map to matchFull.
func ScoreFromKey(key string) Score {
	switch {
	case strings.HasPrefix(key, "set"):
		if n, err := strconv.Atoi(strings.TrimPrefix(key, "set")); err == nil {
			return Score{Kind: ScoreSet, Index: n}
		}
	case key == string(ScoreGamePart):
		return Score{Kind: ScoreGamePart}
	}
	return Score{Kind: ScoreMatchFull}
}
