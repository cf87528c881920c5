package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/sync/errgroup"
)

type ConcurrentTransferOpts struct {
	Threshold   int64
	Concurrency int64
}

// HTTPConcurrentClientTransport behaves like HTTPClientTransport but splits
// fetches of files larger than Threshold into Concurrency ranged requests
// written in place with WriteAt.
type HTTPConcurrentClientTransport struct {
	target string
	opts   ConcurrentTransferOpts
	client http.Client
}

func NewHTTPConcurrentClientTransport(target string, dial DialFunc, opts ConcurrentTransferOpts) *HTTPConcurrentClientTransport {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &HTTPConcurrentClientTransport{target: target, opts: opts, client: newHTTPClient(dial)}
}

type chunk struct {
	URL        string
	Start, End int64
	Target     File
}

func (h *HTTPConcurrentClientTransport) List(path string) ([]DirEntry, error) {
	return listDir(&h.client, h.target, path)
}

func (h *HTTPConcurrentClientTransport) Remove(path string) error {
	return removeFile(&h.client, h.target, path)
}

func (h *HTTPConcurrentClientTransport) Close() error {
	h.client.CloseIdleConnections()
	return nil
}

func (h *HTTPConcurrentClientTransport) Fetch(path string, size int64, dst File) (int64, error) {
	if size <= h.opts.Threshold || size < h.opts.Concurrency {
		return fetchWhole(&h.client, h.target, path, dst)
	}

	u := h.target + "/fetch?path=" + url.QueryEscape(path)
	chunkSize := size / h.opts.Concurrency

	wg, ctx := errgroup.WithContext(context.Background())
	for i := int64(0); i < h.opts.Concurrency; i++ {
		chunk := &chunk{
			URL:    u,
			Start:  chunkSize * i,
			End:    chunkSize * (i + 1),
			Target: dst,
		}

		if i == h.opts.Concurrency-1 {
			chunk.End = size
		}

		wg.Go(func() error {
			return h.fetchChunk(ctx, chunk)
		})
	}

	err := wg.Wait()
	if err != nil {
		return 0, err
	}

	return size, nil
}

func (h *HTTPConcurrentClientTransport) fetchChunk(ctx context.Context, chunk *chunk) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, chunk.URL, nil)
	if err != nil {
		return err
	}

	// Range is inclusive of its last byte.
	req.Header.Add("Range", fmt.Sprintf("bytes=%d-%d", chunk.Start, chunk.End-1))

	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusPartialContent {
		return fmt.Errorf("bad status code for range request: %v (%v)", resp.StatusCode, chunk.URL)
	}

	read := int64(0)
	offset := chunk.Start
	buf := make([]byte, 32*1024)
	for {
		nr, err := resp.Body.Read(buf)

		if nr > 0 {
			nw, err := chunk.Target.WriteAt(buf[:nr], offset)
			if err != nil {
				return err
			}
			if nr != nw {
				return fmt.Errorf("error writing chunk. written %d, but expected %d", nw, nr)
			}

			read += int64(nr)
			offset += int64(nw)
		}

		if err != nil {
			if errors.Is(err, io.EOF) && read == chunk.End-chunk.Start {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("short chunk: read %d of %d bytes", read, chunk.End-chunk.Start)
			}
			return err
		}
	}
}
