package follow

import (
	"context"
	"fmt"
	"time"
)

// ChangeKind classifies what happened to the watched file between two
// observations.
type ChangeKind int

const (
	Unchanged ChangeKind = iota
	Grown
	Truncated
	Gone
)

func (k ChangeKind) String() string {
	switch k {
	case Unchanged:
		return "unchanged"
	case Grown:
		return "grown"
	case Truncated:
		return "truncated"
	case Gone:
		return "gone"
	default:
		return fmt.Sprintf("ChangeKind(%d)", int(k))
	}
}

// BackendKind selects the change-detection strategy.
type BackendKind string

const (
	BackendPoll   BackendKind = "poll"
	BackendNotify BackendKind = "notify"
)

// Backend detects changes to a single file. WaitForChange blocks until
// the file state differs from the cursor, the context is cancelled, or
// an unrecoverable error occurs. The returned identity is the state
// the classification was made against; the caller owns the cursor and
// decides how to advance it.
type Backend interface {
	WaitForChange(ctx context.Context, cur Cursor) (ChangeKind, FileIdentity, error)
	Close() error
}

// NewBackend builds the backend selected by kind. The interval is only
// meaningful for the poll backend.
func NewBackend(kind BackendKind, path string, interval time.Duration) (Backend, error) {
	switch kind {
	case BackendPoll, "":
		return newPollBackend(path, interval), nil
	case BackendNotify:
		return newNotifyBackend(path)
	default:
		return nil, fmt.Errorf("unknown backend %q (supported: poll, notify)", kind)
	}
}

// classify compares a freshly observed identity against the cursor.
// Both backends share it so they agree on semantics: a fingerprint
// change or a size below the read offset means the previous offset is
// no longer valid.
func classify(cur Cursor, id FileIdentity) ChangeKind {
	switch {
	case !id.SameFile(cur.Identity):
		return Truncated
	case id.Size < cur.Offset:
		return Truncated
	case id.Size > cur.Offset:
		return Grown
	default:
		return Unchanged
	}
}
