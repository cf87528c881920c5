package pullsync

import (
	"context"
	"path"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/b1naryth1ef/pullsync/transport"
)

type ClientOpts struct {
	RemotePath string
	LocalPath  string
	Policy     Policy
	// DryRun logs decisions without transferring, deleting or creating
	// anything.
	DryRun bool
	// OnResult, if set, is called once per remote file when it reaches a
	// terminal state.
	OnResult func(Result)
}

// Stats counts terminal states over one run.
type Stats struct {
	Skipped      uint64
	Fetched      uint64
	Deleted      uint64
	FetchFailed  uint64
	DeleteFailed uint64
	ListFailed   uint64
	Bytes        uint64
}

// Client performs mirror runs from a transport into a local directory.
type Client struct {
	opts  ClientOpts
	tp    transport.Transport
	local *LocalFS
	start time.Time

	totalSkipped      uint64
	totalFetched      uint64
	totalDeleted      uint64
	totalFetchFailed  uint64
	totalDeleteFailed uint64
	totalListFailed   uint64
	totalBytes        uint64
}

func NewClient(tp transport.Transport, fs afero.Fs, opts ClientOpts) *Client {
	return &Client{
		opts:  opts,
		tp:    tp,
		local: NewLocalFS(fs, opts.LocalPath),
	}
}

func (c *Client) Stats() Stats {
	return Stats{
		Skipped:      atomic.LoadUint64(&c.totalSkipped),
		Fetched:      atomic.LoadUint64(&c.totalFetched),
		Deleted:      atomic.LoadUint64(&c.totalDeleted),
		FetchFailed:  atomic.LoadUint64(&c.totalFetchFailed),
		DeleteFailed: atomic.LoadUint64(&c.totalDeleteFailed),
		ListFailed:   atomic.LoadUint64(&c.totalListFailed),
		Bytes:        atomic.LoadUint64(&c.totalBytes),
	}
}

func (c *Client) totalBytesPerSecond() uint64 {
	bytes := atomic.LoadUint64(&c.totalBytes)
	elapsed := time.Since(c.start).Seconds()
	if bytes == 0 || elapsed <= 0 {
		return 0
	}
	return uint64(float64(bytes) / elapsed)
}

// Run performs one mirror run. It returns an error only when the root
// directory cannot be listed or the run is cancelled; per-file failures are
// reported through the log, OnResult and Stats.
func (c *Client) Run(ctx context.Context) error {
	if err := c.opts.Policy.Validate(); err != nil {
		return err
	}

	walker := NewWalker(c.tp, c.local, c.opts.RemotePath, c.handleFile)
	walker.dryRun = c.opts.DryRun
	walker.onListError = func(*ListError) {
		atomic.AddUint64(&c.totalListFailed, 1)
	}

	c.start = time.Now()
	err := walker.Walk(ctx, ".")

	stats := c.Stats()
	log.WithFields(log.Fields{
		"fetched":       stats.Fetched,
		"deleted":       stats.Deleted,
		"skipped":       stats.Skipped,
		"fetch_failed":  stats.FetchFailed,
		"delete_failed": stats.DeleteFailed,
		"list_failed":   stats.ListFailed,
	}).Infof("%s in %v (%s/s)",
		humanize.Bytes(stats.Bytes),
		time.Since(c.start).Round(time.Millisecond),
		humanize.Bytes(c.totalBytesPerSecond()),
	)
	return err
}

func (c *Client) handleFile(entry transport.DirEntry, rel string) {
	remotePath := path.Join(c.opts.RemotePath, rel)

	// filtered files never look at the local side
	if IsTempFile(entry.Name) || c.opts.Policy.Excludes(entry.Name, rel) {
		c.report(Result{Path: remotePath, Decision: Decide(entry, rel, LocalEntry{}, c.opts.Policy), State: StateSkipped})
		return
	}

	local, err := c.local.Stat(rel)
	if err != nil {
		c.report(Result{
			Path:     remotePath,
			Decision: Decision{Action: ActionSkip, Reason: ReasonLocalError},
			State:    StateFetchFailed,
			Err:      &TransferError{Path: remotePath, Err: err},
		})
		return
	}

	decision := Decide(entry, rel, local, c.opts.Policy)
	if c.opts.DryRun {
		c.report(Result{Path: remotePath, Decision: decision, State: StateSkipped})
		return
	}

	c.report(c.execute(entry, rel, remotePath, decision))
}

// execute carries out a decision. Deletion only follows a fetch whose
// content and timestamps both landed.
func (c *Client) execute(entry transport.DirEntry, rel, remotePath string, decision Decision) Result {
	result := Result{Path: remotePath, Decision: decision, State: StateSkipped}
	if decision.Action == ActionSkip {
		return result
	}

	if decision.Action.fetches() {
		log.WithField("path", remotePath).Debug("getting")
		start := time.Now()
		n, err := c.fetch(entry, rel, remotePath)
		result.Duration = time.Since(start)
		if err != nil {
			result.State = StateFetchFailed
			result.Err = &TransferError{Path: remotePath, Err: err}
			return result
		}
		result.State = StateFetched
		result.Fetched = true
		result.Bytes = n
	}

	if decision.Action.deletes() {
		if err := c.tp.Remove(remotePath); err != nil {
			result.State = StateDeleteFailed
			result.Err = &DeleteError{Path: remotePath, Err: err}
			return result
		}
		result.State = StateDeleted
	}

	return result
}

func (c *Client) fetch(entry transport.DirEntry, rel, remotePath string) (int64, error) {
	f, err := c.local.Create(rel)
	if err != nil {
		return 0, err
	}

	n, err := c.tp.Fetch(remotePath, entry.Size, f)
	closeErr := f.Close()
	if err != nil {
		return 0, err
	}
	if closeErr != nil {
		return 0, closeErr
	}

	atime := entry.ATime
	if atime.IsZero() {
		atime = entry.ModTime
	}
	if err := c.local.Chtimes(rel, atime, entry.ModTime); err != nil {
		return 0, err
	}
	return n, nil
}

func (c *Client) report(result Result) {
	entry := log.WithField("path", result.Path)

	switch result.State {
	case StateSkipped:
		atomic.AddUint64(&c.totalSkipped, 1)
		switch {
		case c.opts.DryRun:
			entry.WithField("reason", result.Decision.Reason).Infof("would %v", result.Decision.Action)
		case result.Decision.Reason == ReasonUpToDate:
			entry.Debug("up to date")
		default:
			entry.WithField("reason", result.Decision.Reason).Info("skipping")
		}
	case StateFetched:
		atomic.AddUint64(&c.totalFetched, 1)
		atomic.AddUint64(&c.totalBytes, uint64(result.Bytes))
		entry.WithField("size", humanize.Bytes(uint64(result.Bytes))).Info("got")
	case StateDeleted:
		atomic.AddUint64(&c.totalDeleted, 1)
		if result.Fetched {
			atomic.AddUint64(&c.totalFetched, 1)
			atomic.AddUint64(&c.totalBytes, uint64(result.Bytes))
			entry.WithField("size", humanize.Bytes(uint64(result.Bytes))).Info("got and removed")
		} else {
			entry.Info("removed")
		}
	case StateFetchFailed:
		atomic.AddUint64(&c.totalFetchFailed, 1)
		entry.WithError(result.Err).Error("failed to get file")
	case StateDeleteFailed:
		atomic.AddUint64(&c.totalDeleteFailed, 1)
		if result.Fetched {
			atomic.AddUint64(&c.totalFetched, 1)
			atomic.AddUint64(&c.totalBytes, uint64(result.Bytes))
		}
		entry.WithError(result.Err).Error("failed to remove remote file")
	}

	if c.opts.OnResult != nil {
		c.opts.OnResult(result)
	}
}
