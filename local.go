package pullsync

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// LocalFS is the local side of a mirror run, rooted at the destination
// directory. Paths passed to it are slash separated and relative to the root.
type LocalFS struct {
	fs   afero.Fs
	root string
}

func NewLocalFS(fs afero.Fs, root string) *LocalFS {
	return &LocalFS{fs: fs, root: root}
}

func (l *LocalFS) path(rel string) string {
	return filepath.Join(l.root, filepath.FromSlash(rel))
}

// Mkdir creates the directory for rel if it is missing.
func (l *LocalFS) Mkdir(rel string) error {
	if err := l.fs.MkdirAll(l.path(rel), 0o755); err != nil {
		return err
	}

	isDir, err := afero.IsDir(l.fs, l.path(rel))
	if err != nil {
		return err
	}
	if !isDir {
		return fmt.Errorf("%s exists and is not a directory", l.path(rel))
	}
	return nil
}

// Stat reads the local entry for rel without following a final symlink when
// the filesystem allows it. A missing file is not an error; anything other
// than a regular file in its place is, since it can never be up to date.
func (l *LocalFS) Stat(rel string) (LocalEntry, error) {
	var (
		info os.FileInfo
		err  error
	)
	if lstater, ok := l.fs.(afero.Lstater); ok {
		info, _, err = lstater.LstatIfPossible(l.path(rel))
	} else {
		info, err = l.fs.Stat(l.path(rel))
	}

	if errors.Is(err, os.ErrNotExist) {
		return LocalEntry{}, nil
	} else if err != nil {
		return LocalEntry{}, err
	}
	if !info.Mode().IsRegular() {
		return LocalEntry{}, fmt.Errorf("%s exists and is not a regular file", l.path(rel))
	}

	return LocalEntry{
		Exists:  true,
		ModTime: info.ModTime(),
		Size:    info.Size(),
	}, nil
}

// Create opens rel for writing, truncating any existing file.
func (l *LocalFS) Create(rel string) (afero.File, error) {
	return l.fs.OpenFile(l.path(rel), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
}

func (l *LocalFS) Chtimes(rel string, atime, mtime time.Time) error {
	return l.fs.Chtimes(l.path(rel), atime, mtime)
}
