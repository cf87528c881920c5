package transport

import (
	"errors"
	"io"
	"os"
	"time"
)

// Kind classifies a listing entry. Only files and directories take part in a
// mirror run.
type Kind uint8

const (
	KindOther Kind = iota
	KindFile
	KindDir
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	default:
		return "other"
	}
}

// KindOf maps a file mode onto a Kind. Symlinks and special files are KindOther.
func KindOf(mode os.FileMode) Kind {
	switch {
	case mode.IsRegular():
		return KindFile
	case mode.IsDir():
		return KindDir
	default:
		return KindOther
	}
}

type DirEntry struct {
	Name    string
	Kind    Kind
	Mode    os.FileMode
	Size    int64
	ModTime time.Time
	ATime   time.Time
}

// File is the local destination of a fetch.
type File interface {
	io.Writer
	io.WriterAt
}

// Transport is the remote half of a mirror run. Paths are slash separated and
// already joined with the remote root.
type Transport interface {
	List(path string) ([]DirEntry, error)
	Fetch(path string, size int64, dst File) (int64, error)
	Remove(path string) error
	Close() error
}

var ErrNotFound = errors.New("not found")
