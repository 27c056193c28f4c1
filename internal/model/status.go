package model

// StatusKind classifies a provider status code.
type StatusKind int

const (
	StatusUnknown StatusKind = iota
	StatusNotStarted
	StatusInProgress
	StatusEnded
)

func (k StatusKind) String() string {
	switch k {
	case StatusNotStarted:
		return "not_started"
	case StatusInProgress:
		return "in_progress"
	case StatusEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// EventStatus wraps the provider status code with its classification.
type EventStatus struct {
	Kind StatusKind `json:"kind"`
	Code string     `json:"code,omitempty"` // raw provider code, e.g. "1st_half"
}

// ParseEventStatus classifies a provider status code. Anything other than
// "not_started" or "ended" is an in-progress period name; empty is unknown.
func ParseEventStatus(code string) EventStatus {
	switch code {
	case "":
		return EventStatus{Kind: StatusUnknown}
	case "not_started":
		return EventStatus{Kind: StatusNotStarted, Code: code}
	case "ended":
		return EventStatus{Kind: StatusEnded, Code: code}
	default:
		return EventStatus{Kind: StatusInProgress, Code: code}
	}
}

// IsLive reports whether the event is in progress.
func (s EventStatus) IsLive() bool {
	return s.Kind == StatusInProgress
}
