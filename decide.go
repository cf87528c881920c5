package pullsync

import (
	"time"

	"github.com/b1naryth1ef/pullsync/transport"
)

// LocalEntry is the local view of a remote file's path.
type LocalEntry struct {
	Exists  bool
	ModTime time.Time
	Size    int64
}

// Decide picks the action for one remote regular file. relPath is slash
// separated and relative to the remote root.
//
// Staleness is any modification time mismatch, in either direction, so a
// locally newer file is overwritten too.
func Decide(entry transport.DirEntry, relPath string, local LocalEntry, policy Policy) Decision {
	if IsTempFile(entry.Name) {
		return Decision{Action: ActionSkip, Reason: ReasonTempFile}
	}
	if policy.Excludes(entry.Name, relPath) {
		return Decision{Action: ActionSkip, Reason: ReasonExcluded}
	}

	fetch := ActionFetch
	if policy.MoveAfterFetch {
		fetch = ActionFetchThenDelete
	}

	if !local.Exists {
		return Decision{Action: fetch, Reason: ReasonNew}
	}

	stale := !local.ModTime.Equal(entry.ModTime)
	if policy.CheckSize && local.Size != entry.Size {
		stale = true
	}
	if stale {
		return Decision{Action: fetch, Reason: ReasonStale}
	}

	if policy.MoveAfterFetch {
		return Decision{Action: ActionDeleteOnly, Reason: ReasonUpToDate}
	}
	return Decision{Action: ActionSkip, Reason: ReasonUpToDate}
}
