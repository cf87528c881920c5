package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/alioygur/gores"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// DialFunc opens the connection an HTTP transport talks over. It is how the
// agent is reached through an ssh client.
type DialFunc func(network, addr string) (net.Conn, error)

type HTTPClientTransport struct {
	target string
	client http.Client
}

func newHTTPClient(dial DialFunc) http.Client {
	if dial == nil {
		return http.Client{}
	}
	return http.Client{
		Transport: &http.Transport{
			DialContext: func(_ context.Context, network, addr string) (net.Conn, error) {
				return dial(network, addr)
			},
		},
	}
}

func NewHTTPClientTransport(target string, dial DialFunc) *HTTPClientTransport {
	return &HTTPClientTransport{target: target, client: newHTTPClient(dial)}
}

func (h *HTTPClientTransport) Fetch(path string, size int64, dst File) (int64, error) {
	return fetchWhole(&h.client, h.target, path, dst)
}

func fetchWhole(client *http.Client, target, path string, dst File) (int64, error) {
	u := target + "/fetch?path=" + url.QueryEscape(path)
	resp, err := client.Get(u)
	if err != nil {
		return -1, err
	}
	defer resp.Body.Close()

	if err := statusError(resp, u); err != nil {
		return -1, err
	}

	n, err := io.Copy(dst, resp.Body)
	if err != nil {
		return -1, err
	}

	return n, nil
}

func (h *HTTPClientTransport) List(path string) ([]DirEntry, error) {
	return listDir(&h.client, h.target, path)
}

func listDir(client *http.Client, target, path string) ([]DirEntry, error) {
	u := target + "/ls?path=" + url.QueryEscape(path)
	resp, err := client.Get(u)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := statusError(resp, u); err != nil {
		return nil, err
	}

	var result ListDirectoryResponse
	err = json.NewDecoder(resp.Body).Decode(&result)
	if err != nil {
		return nil, fmt.Errorf("failed to decode json response: %w", err)
	}

	return result.Entries, nil
}

func (h *HTTPClientTransport) Remove(path string) error {
	return removeFile(&h.client, h.target, path)
}

func removeFile(client *http.Client, target, path string) error {
	u := target + "/rm?path=" + url.QueryEscape(path)
	req, err := http.NewRequest(http.MethodDelete, u, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return statusError(resp, u)
}

func (h *HTTPClientTransport) Close() error {
	h.client.CloseIdleConnections()
	return nil
}

func statusError(resp *http.Response, u string) error {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w (%v)", ErrNotFound, u)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("bad status code: %v (%v)", resp.StatusCode, u)
	}
	return nil
}

type ListDirectoryResponse struct {
	Entries []DirEntry
}

// HTTPServer is the agent side of the HTTP transport. It exposes a directory
// tree with three endpoints: /ls, /fetch and /rm.
type HTTPServer struct {
	mux *http.ServeMux
	dir *DirTransport
}

func NewHTTPServer(fs afero.Fs) *HTTPServer {
	s := &HTTPServer{mux: http.NewServeMux(), dir: NewDirTransport(fs)}
	s.mux.HandleFunc("GET /ls", s.handleList)
	s.mux.HandleFunc("GET /fetch", s.handleFetch)
	s.mux.HandleFunc("DELETE /rm", s.handleRemove)
	return s
}

func (s *HTTPServer) handleList(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")

	entries, err := s.dir.List(path)
	if err != nil && errors.Is(err, ErrNotFound) {
		gores.Error(w, http.StatusNotFound, "not found")
		return
	} else if err != nil {
		log.WithError(err).WithField("path", path).Warn("failed to list directory")
		gores.Error(w, http.StatusInternalServerError, "failed to list directory")
		return
	}

	gores.JSON(w, http.StatusOK, ListDirectoryResponse{
		Entries: entries,
	})
}

func (s *HTTPServer) handleFetch(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")

	f, info, err := s.dir.Open(path)
	if err != nil && errors.Is(err, ErrNotFound) {
		gores.Error(w, http.StatusNotFound, "not found")
		return
	} else if err != nil {
		log.WithError(err).WithField("path", path).Warn("failed to open file")
		gores.Error(w, http.StatusInternalServerError, "failed to open file")
		return
	}
	defer f.Close()

	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func (s *HTTPServer) handleRemove(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")

	err := s.dir.Remove(path)
	if err != nil && errors.Is(err, ErrNotFound) {
		gores.Error(w, http.StatusNotFound, "not found")
		return
	} else if err != nil {
		log.WithError(err).WithField("path", path).Warn("failed to remove file")
		gores.Error(w, http.StatusInternalServerError, "failed to remove file")
		return
	}

	log.WithField("path", path).Info("removed")
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe runs the agent until ctx is done.
func (s *HTTPServer) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
