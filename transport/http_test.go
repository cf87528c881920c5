package transport

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, fs afero.Fs) *httptest.Server {
	srv := httptest.NewServer(NewHTTPServer(fs))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPList(t *testing.T) {
	srv := newTestServer(t, newTestFs(t))
	tp := NewHTTPClientTransport(srv.URL, nil)
	defer tp.Close()

	entries, err := tp.List("/root")
	require.NoError(t, err)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	require.Len(t, entries, 2)

	assert.Equal(t, "a.txt", entries[0].Name)
	assert.Equal(t, KindFile, entries[0].Kind)
	assert.Equal(t, int64(5), entries[0].Size)
	assert.True(t, time.Unix(100, 0).Equal(entries[0].ModTime))
	assert.Equal(t, KindDir, entries[1].Kind)

	_, err = tp.List("/missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPFetch(t *testing.T) {
	srv := newTestServer(t, newTestFs(t))
	tp := NewHTTPClientTransport(srv.URL, nil)

	var dst buffer
	n, err := tp.Fetch("/root/sub/b.txt", 6, &dst)
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)
	assert.Equal(t, "bravo!", dst.String())

	_, err = tp.Fetch("/root/missing.txt", 0, &dst)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPRemove(t *testing.T) {
	fs := newTestFs(t)
	srv := newTestServer(t, fs)
	tp := NewHTTPClientTransport(srv.URL, nil)

	require.NoError(t, tp.Remove("/root/a.txt"))
	exists, err := afero.Exists(fs, "/root/a.txt")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.ErrorIs(t, tp.Remove("/root/a.txt"), ErrNotFound)
	assert.Error(t, tp.Remove("/root/sub"))
}

func TestHTTPServerMethods(t *testing.T) {
	srv := newTestServer(t, newTestFs(t))

	resp, err := http.Get(srv.URL + "/rm?path=/root/a.txt")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHTTPConcurrentFetch(t *testing.T) {
	contents := strings.Repeat("0123456789", 100)

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/big.bin", []byte(contents), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/small.bin", []byte("tiny"), 0o644))
	srv := newTestServer(t, fs)

	tp := NewHTTPConcurrentClientTransport(srv.URL, nil, ConcurrentTransferOpts{
		Threshold:   100,
		Concurrency: 3,
	})

	dst, err := os.Create(filepath.Join(t.TempDir(), "big.bin"))
	require.NoError(t, err)
	defer dst.Close()

	n, err := tp.Fetch("/big.bin", int64(len(contents)), dst)
	require.NoError(t, err)
	assert.Equal(t, int64(len(contents)), n)

	data, err := os.ReadFile(dst.Name())
	require.NoError(t, err)
	assert.Equal(t, contents, string(data))

	var small buffer
	n, err = tp.Fetch("/small.bin", 4, &small)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.Equal(t, "tiny", small.String())

	entries, err := tp.List("/")
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	require.NoError(t, tp.Remove("/small.bin"))
}

func TestHTTPConcurrentFetchShortFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/big.bin", []byte(strings.Repeat("x", 300)), 0o644))
	srv := newTestServer(t, fs)

	tp := NewHTTPConcurrentClientTransport(srv.URL, nil, ConcurrentTransferOpts{
		Threshold:   100,
		Concurrency: 2,
	})

	dst, err := os.Create(filepath.Join(t.TempDir(), "big.bin"))
	require.NoError(t, err)
	defer dst.Close()

	// the listing claimed a larger file than the server has
	_, err = tp.Fetch("/big.bin", 600, dst)
	assert.Error(t, err)
}
