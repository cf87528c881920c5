package pullsync

import (
	"time"
)

type ActionType uint8

const (
	ActionSkip ActionType = iota
	ActionFetch
	ActionFetchThenDelete
	ActionDeleteOnly
)

func (a ActionType) String() string {
	switch a {
	case ActionSkip:
		return "skip"
	case ActionFetch:
		return "fetch"
	case ActionFetchThenDelete:
		return "fetch+delete"
	case ActionDeleteOnly:
		return "delete"
	default:
		return "unknown"
	}
}

func (a ActionType) fetches() bool {
	return a == ActionFetch || a == ActionFetchThenDelete
}

func (a ActionType) deletes() bool {
	return a == ActionFetchThenDelete || a == ActionDeleteOnly
}

// Reason records which rule produced a decision.
type Reason uint8

const (
	ReasonTempFile Reason = iota
	ReasonExcluded
	ReasonNew
	ReasonStale
	ReasonUpToDate
	// ReasonLocalError means the local path could not be inspected, so no
	// rule was applied.
	ReasonLocalError
)

func (r Reason) String() string {
	switch r {
	case ReasonTempFile:
		return "temp file"
	case ReasonExcluded:
		return "excluded"
	case ReasonNew:
		return "new"
	case ReasonStale:
		return "stale"
	case ReasonUpToDate:
		return "up to date"
	case ReasonLocalError:
		return "local error"
	default:
		return "unknown"
	}
}

type Decision struct {
	Action ActionType
	Reason Reason
}

// State is the terminal state of one file in a mirror run.
type State uint8

const (
	StateSkipped State = iota
	StateFetched
	StateDeleted
	StateFetchFailed
	StateDeleteFailed
)

func (s State) String() string {
	switch s {
	case StateSkipped:
		return "skipped"
	case StateFetched:
		return "fetched"
	case StateDeleted:
		return "deleted"
	case StateFetchFailed:
		return "fetch failed"
	case StateDeleteFailed:
		return "delete failed"
	default:
		return "unknown"
	}
}

// Result is emitted once per remote file when it reaches a terminal state.
// Fetched reports whether content landed locally, which is also true for a
// fetch followed by a deletion.
type Result struct {
	Path     string
	Decision Decision
	State    State
	Fetched  bool
	Bytes    int64
	Duration time.Duration
	Err      error
}
