package pullsync

import (
	"errors"
	"fmt"
)

var ErrUnsupportedTransport = errors.New("unsupported transport")

// ListError means a directory could not be enumerated or mirrored locally.
// It abandons that directory's subtree.
type ListError struct {
	Path string
	Err  error
}

func (e *ListError) Error() string {
	return fmt.Sprintf("failed to list %s: %v", e.Path, e.Err)
}

func (e *ListError) Unwrap() error {
	return e.Err
}

// TransferError means one file could not be fetched. The local file keeps
// whatever timestamp it had so the next run sees it as stale or absent.
type TransferError struct {
	Path string
	Err  error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("failed to get %s: %v", e.Path, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// DeleteError means a remote file could not be removed. A successful fetch
// that preceded it is kept.
type DeleteError struct {
	Path string
	Err  error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("failed to remove %s: %v", e.Path, e.Err)
}

func (e *DeleteError) Unwrap() error {
	return e.Err
}
