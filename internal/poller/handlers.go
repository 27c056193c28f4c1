package poller

import (
	"errors"

	"github.com/rickgao/odds-store/internal/model"
)

// ErrEmptySnapshot is returned by DetailHandler for a snapshot without events.
var ErrEmptySnapshot = errors.New("empty snapshot")

// ListStore is the subset of store.ListStore a snapshot is merged into.
type ListStore interface {
	StoreEvents(events []model.Event)
}

// DetailStore is the subset of store.DetailStore a snapshot replaces.
type DetailStore interface {
	StoreEvent(e model.Event)
}

// ListHandler merges every snapshot into s.
func ListHandler(s ListStore) SnapshotHandler {
	return SnapshotHandlerFunc(func(snap Snapshot) error {
		s.StoreEvents(snap.Events)
		return nil
	})
}

// DetailHandler replaces the tracked event of s with the first snapshot
// event. Snapshots of other events are ignored.
func DetailHandler(s DetailStore, eventID string) SnapshotHandler {
	return SnapshotHandlerFunc(func(snap Snapshot) error {
		if len(snap.Events) == 0 {
			return ErrEmptySnapshot
		}
		for _, e := range snap.Events {
			if e.ID == eventID {
				s.StoreEvent(e)
				return nil
			}
		}
		return nil
	})
}
