package transport

import (
	"errors"
	"io"
	"os"

	"github.com/spf13/afero"
)

// DirTransport serves a directory tree from an afero filesystem. The HTTP
// agent uses it with a base path filesystem rooted at the served directory.
type DirTransport struct {
	fs afero.Fs
}

func NewDirTransport(fs afero.Fs) *DirTransport {
	return &DirTransport{fs: fs}
}

func (d *DirTransport) List(path string) ([]DirEntry, error) {
	infos, err := afero.ReadDir(d.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	result := make([]DirEntry, 0, len(infos))
	for _, info := range infos {
		result = append(result, entryFromInfo(info))
	}
	return result, nil
}

// entryFromInfo has no portable access time, so ATime mirrors ModTime.
func entryFromInfo(info os.FileInfo) DirEntry {
	return DirEntry{
		Name:    info.Name(),
		Kind:    KindOf(info.Mode()),
		Mode:    info.Mode(),
		Size:    info.Size(),
		ModTime: info.ModTime().UTC(),
		ATime:   info.ModTime().UTC(),
	}
}

func (d *DirTransport) Open(path string) (afero.File, os.FileInfo, error) {
	f, err := d.fs.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, nil, ErrNotFound
	}
	return f, info, nil
}

func (d *DirTransport) Fetch(path string, size int64, dst File) (int64, error) {
	src, _, err := d.Open(path)
	if err != nil {
		return -1, err
	}
	defer src.Close()

	return io.Copy(dst, src)
}

func (d *DirTransport) Remove(path string) error {
	info, err := d.fs.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	if info.IsDir() {
		return errors.New("refusing to remove a directory")
	}
	return d.fs.Remove(path)
}

func (d *DirTransport) Close() error {
	return nil
}
