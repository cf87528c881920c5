package pullsync

import (
	"context"
	"errors"
	"path"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/b1naryth1ef/pullsync/transport"
)

// FileHandler receives every regular file found by a Walker along with its
// slash separated path relative to the remote root.
type FileHandler func(entry transport.DirEntry, rel string)

// Walker traverses the remote tree depth first, one listing per directory,
// keeping the local tree's directories in step with it.
type Walker struct {
	tp         transport.Transport
	local      *LocalFS
	remoteRoot string
	dryRun     bool

	onFile      FileHandler
	onListError func(*ListError)
}

func NewWalker(tp transport.Transport, local *LocalFS, remoteRoot string, onFile FileHandler) *Walker {
	return &Walker{
		tp:          tp,
		local:       local,
		remoteRoot:  remoteRoot,
		onFile:      onFile,
		onListError: func(*ListError) {},
	}
}

func (w *Walker) remotePath(rel string) string {
	return path.Join(w.remoteRoot, rel)
}

// Walk mirrors the directory at rel. Failures on individual files are left to
// the FileHandler. A subdirectory that cannot be listed is reported and
// skipped; only a failure at rel itself is returned.
func (w *Walker) Walk(ctx context.Context, rel string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if !w.dryRun {
		if err := w.local.Mkdir(rel); err != nil {
			return &ListError{Path: w.remotePath(rel), Err: err}
		}
	}

	entries, err := w.tp.List(w.remotePath(rel))
	if err != nil {
		return &ListError{Path: w.remotePath(rel), Err: err}
	}
	log.WithField("path", w.remotePath(rel)).Debugf("listed %d entries", len(entries))

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !validName(entry.Name) {
			log.WithField("name", entry.Name).Warn("ignoring entry with invalid name")
			continue
		}
		childRel := path.Join(rel, entry.Name)

		switch entry.Kind {
		case transport.KindDir:
			err := w.Walk(ctx, childRel)
			var listErr *ListError
			if errors.As(err, &listErr) {
				log.WithError(listErr.Err).WithField("path", listErr.Path).Error("failed to list directory")
				w.onListError(listErr)
				continue
			} else if err != nil {
				return err
			}
		case transport.KindFile:
			w.onFile(entry, childRel)
		default:
			log.WithField("path", w.remotePath(childRel)).Debug("ignoring special file")
		}
	}

	return nil
}

// validName rejects names that would step outside the directory being
// listed.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}
