package feed

import (
	"regexp"
	"strings"

	"github.com/rickgao/odds-store/internal/connection"
)

var (
	eventIDRe     = regexp.MustCompile(`idfoevent\[([^\]]+)\]`)
	marketIDRe    = regexp.MustCompile(`idfomarket\[([^\]]+)\]`)
	selectionIDRe = regexp.MustCompile(`idfoselection\[([^\]]+)\]`)
)

// EventIDFromPath extracts the event id from a change path.
func EventIDFromPath(path string) (string, bool) {
	return submatch(eventIDRe, path)
}

// MarketIDFromPath extracts the market id from a change path.
func MarketIDFromPath(path string) (string, bool) {
	return submatch(marketIDRe, path)
}

// SelectionIDFromPath extracts the outcome id from a change path.
func SelectionIDFromPath(path string) (string, bool) {
	return submatch(selectionIDRe, path)
}

func submatch(re *regexp.Regexp, s string) (string, bool) {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 || m[1] == "" {
		return "", false
	}
	return m[1], true
}

// scoreKey returns the score key following "scores." in path, e.g.
// "MATCH_SCORE". Empty when the path addresses the whole score map.
func scoreKey(path string) string {
	_, rest, ok := strings.Cut(path, "scores.")
	if !ok {
		return ""
	}
	key, _, _ := strings.Cut(rest, ".")
	return key
}

// eventIDFor resolves the event a change applies to: the path first, then
// the content id for event-scoped contents.
func eventIDFor(c containerWire) (string, bool) {
	if id, ok := EventIDFromPath(c.Path); ok {
		return id, true
	}
	switch c.ContentID.Type {
	case connection.ContentEventDetails, connection.ContentEventSummary:
		return c.ContentID.ID, c.ContentID.ID != ""
	}
	return "", false
}

// marketIDFor resolves the market a change applies to: the path first,
// then a market content id.
func marketIDFor(c containerWire) (string, bool) {
	if id, ok := MarketIDFromPath(c.Path); ok {
		return id, true
	}
	if c.ContentID.Type == connection.ContentMarket && c.ContentID.ID != "" {
		return c.ContentID.ID, true
	}
	return "", false
}
