package transport

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// SFTPTransport lists, fetches and removes files through an sftp subsystem
// session. All requests share the one session and are issued sequentially by
// the caller.
type SFTPTransport struct {
	client *sftp.Client
}

func NewSFTPTransport(conn *ssh.Client) (*SFTPTransport, error) {
	client, err := sftp.NewClient(conn, sftp.UseConcurrentReads(true))
	if err != nil {
		return nil, fmt.Errorf("failed to start sftp subsystem: %w", err)
	}
	return NewSFTPClientTransport(client), nil
}

// NewSFTPClientTransport wraps an sftp client that is already connected, such
// as one from sftp.NewClientPipe.
func NewSFTPClientTransport(client *sftp.Client) *SFTPTransport {
	return &SFTPTransport{client: client}
}

func (s *SFTPTransport) List(path string) ([]DirEntry, error) {
	infos, err := s.client.ReadDir(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	result := make([]DirEntry, 0, len(infos))
	for _, info := range infos {
		entry := DirEntry{
			Name:    info.Name(),
			Kind:    KindOf(info.Mode()),
			Mode:    info.Mode(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			ATime:   info.ModTime(),
		}
		if stat, ok := info.Sys().(*sftp.FileStat); ok {
			entry.ModTime = time.Unix(int64(stat.Mtime), 0)
			entry.ATime = time.Unix(int64(stat.Atime), 0)
		}
		result = append(result, entry)
	}
	return result, nil
}

func (s *SFTPTransport) Fetch(path string, size int64, dst File) (int64, error) {
	src, err := s.client.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return -1, ErrNotFound
		}
		return -1, err
	}
	defer src.Close()

	return src.WriteTo(dst)
}

func (s *SFTPTransport) Remove(path string) error {
	err := s.client.Remove(path)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

func (s *SFTPTransport) Close() error {
	return s.client.Close()
}
