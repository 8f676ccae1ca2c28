package request

import (
	"github.com/rs/zerolog"
)

// State is the lifecycle state of a Request
type State int32

const (
	Idle State = iota
	Cleared
	InProgress
	Completed
	Cancelled
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Cleared:
		return "cleared"
	case InProgress:
		return "in-progress"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Terminal returns whether the transfer is over. Cleared is not terminal, it is the absence of a transfer
func (s State) Terminal() bool {
	return s == Completed || s == Cancelled || s == Failed
}

func (s State) MarshalZerologObject(e *zerolog.Event) {
	e.Str("state", s.String())
}

func stateNames(states []State) []string {
	ret := make([]string, 0, len(states))
	for _, v := range states {
		ret = append(ret, v.String())
	}
	return ret
}
