package pullsync

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/b1naryth1ef/pullsync/transport"
)

type ServerOpts struct {
	Path   string
	Listen string
}

// Server is the agent a client reaches with the http transport. It serves
// Path read-write: files may be listed, fetched and removed.
type Server struct {
	opts ServerOpts
	http *transport.HTTPServer
}

func NewServer(fs afero.Fs, opts ServerOpts) (*Server, error) {
	info, err := fs.Stat(opts.Path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", opts.Path)
	}

	http := transport.NewHTTPServer(afero.NewBasePathFs(fs, opts.Path))
	return &Server{opts: opts, http: http}, nil
}

func (s *Server) Handler() *transport.HTTPServer {
	return s.http
}

func (s *Server) Run(ctx context.Context) error {
	log.WithFields(log.Fields{
		"path":   s.opts.Path,
		"listen": s.opts.Listen,
	}).Info("serving")
	return s.http.ListenAndServe(ctx, s.opts.Listen)
}
