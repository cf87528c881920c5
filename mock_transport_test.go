package pullsync

import (
	"errors"
	"path"
	"sort"
	"time"

	"github.com/b1naryth1ef/pullsync/transport"
)

type mockFile struct {
	contents string
	modTime  time.Time
	kind     transport.Kind
}

// mockTransport is an in-memory remote tree keyed by absolute slash path.
type mockTransport struct {
	files map[string]mockFile

	listErrs   map[string]error
	fetchErrs  map[string]error
	removeErrs map[string]error

	lists   []string
	fetches []string
	removes []string
}

func newMockTransport() *mockTransport {
	return &mockTransport{
		files:      map[string]mockFile{},
		listErrs:   map[string]error{},
		fetchErrs:  map[string]error{},
		removeErrs: map[string]error{},
	}
}

func (m *mockTransport) addFile(p, contents string, modTime time.Time) {
	m.files[p] = mockFile{contents: contents, modTime: modTime, kind: transport.KindFile}
	m.addParents(p)
}

func (m *mockTransport) addDir(p string) {
	m.files[p] = mockFile{kind: transport.KindDir}
	m.addParents(p)
}

func (m *mockTransport) addOther(p string) {
	m.files[p] = mockFile{kind: transport.KindOther}
	m.addParents(p)
}

func (m *mockTransport) addParents(p string) {
	for dir := path.Dir(p); dir != "/" && dir != "."; dir = path.Dir(dir) {
		if _, ok := m.files[dir]; !ok {
			m.files[dir] = mockFile{kind: transport.KindDir}
		}
	}
}

func (m *mockTransport) List(p string) ([]transport.DirEntry, error) {
	m.lists = append(m.lists, p)
	if err := m.listErrs[p]; err != nil {
		return nil, err
	}
	if f, ok := m.files[p]; (!ok || f.kind != transport.KindDir) && p != "/" {
		return nil, transport.ErrNotFound
	}

	var entries []transport.DirEntry
	for name, f := range m.files {
		if path.Dir(name) != p || name == p {
			continue
		}
		entries = append(entries, transport.DirEntry{
			Name:    path.Base(name),
			Kind:    f.kind,
			Size:    int64(len(f.contents)),
			ModTime: f.modTime,
			ATime:   f.modTime.Add(time.Hour),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (m *mockTransport) Fetch(p string, size int64, dst transport.File) (int64, error) {
	m.fetches = append(m.fetches, p)
	if err := m.fetchErrs[p]; err != nil {
		return -1, err
	}
	f, ok := m.files[p]
	if !ok || f.kind != transport.KindFile {
		return -1, transport.ErrNotFound
	}
	n, err := dst.Write([]byte(f.contents))
	return int64(n), err
}

func (m *mockTransport) Remove(p string) error {
	m.removes = append(m.removes, p)
	if err := m.removeErrs[p]; err != nil {
		return err
	}
	if _, ok := m.files[p]; !ok {
		return transport.ErrNotFound
	}
	delete(m.files, p)
	return nil
}

func (m *mockTransport) Close() error {
	return nil
}

var errPermission = errors.New("permission denied")
