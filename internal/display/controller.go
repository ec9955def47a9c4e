package display

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"edge-status/internal/trace"

	"github.com/google/uuid"
)

// ErrToggleDisabled is returned by Click when the controller was built without Toggle.
var ErrToggleDisabled = errors.New("display: toggle disabled")

// ErrClosed is returned once the controller has been closed.
var ErrClosed = errors.New("display: controller closed")

// DefaultFallbackText replaces the status line when a refresh fails.
const DefaultFallbackText = "获取节点信息失败"

// State is the toggle mode of the status target.
type State int

const (
	ShowingOriginal State = iota
	ShowingStatus
)

func (s State) String() string {
	if s == ShowingStatus {
		return "showing_status"
	}
	return "showing_original"
}

// Fetcher returns raw trace text. *trace.Fetcher implements it.
type Fetcher interface {
	Fetch(ctx context.Context) (string, error)
}

// Recorder persists refresh snapshots.
type Recorder interface {
	Add(snap trace.Snapshot) error
}

// Notifier is told about every successfully formatted status.
type Notifier interface {
	Notify(status string, rec trace.Record)
}

// Options configures a Controller. Fetcher and Status are required.
type Options struct {
	Status Target
	Time   Target

	Fetcher   Fetcher
	Formatter trace.Formatter
	// URL is stamped on snapshots.
	URL string

	FallbackText string
	Interval     time.Duration
	Toggle       bool
	SingleFlight bool

	Recorder Recorder
	Notifier Notifier
	Logger   *slog.Logger

	// Start is the navigation start the load time is measured from.
	// Zero means the time New is called.
	Start time.Time
	Now   func() time.Time
}

// Controller owns the status and load-time targets for one page lifetime.
type Controller struct {
	opts  Options
	start time.Time

	clickMu  sync.Mutex
	mu       sync.Mutex
	state    State
	original string
	closed   bool

	loadOnce sync.Once
	inflight atomic.Bool
	wg       sync.WaitGroup
}

// New builds a Controller. The status target's current text becomes the cached original.
func New(opts Options) (*Controller, error) {
	if opts.Fetcher == nil {
		return nil, errors.New("display: fetcher is required")
	}
	if opts.Status == nil {
		return nil, errors.New("display: status target is required")
	}
	if opts.FallbackText == "" {
		opts.FallbackText = DefaultFallbackText
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	start := opts.Start
	if start.IsZero() {
		start = opts.Now()
	}
	return &Controller{
		opts:     opts,
		start:    start,
		original: opts.Status.Text(),
	}, nil
}

// State reports the current toggle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// FallbackText is the text written when a refresh fails.
func (c *Controller) FallbackText() string {
	return c.opts.FallbackText
}

// Original returns the cached placeholder text.
func (c *Controller) Original() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.original
}

// SetOriginal replaces the cached placeholder, rewriting the status target
// when it currently shows the placeholder.
func (c *Controller) SetOriginal(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.original = text
	if c.opts.Toggle && c.state == ShowingOriginal {
		c.opts.Status.SetText(text)
	}
}

// MarkLoaded writes the load-time line. Only the first call has any effect.
func (c *Controller) MarkLoaded() {
	c.loadOnce.Do(func() {
		if c.opts.Time == nil {
			return
		}
		elapsed := c.opts.Now().Sub(c.start)
		ms := math.Round(float64(elapsed) / float64(time.Millisecond))
		c.opts.Time.SetText(fmt.Sprintf("页面加载耗时 %d 毫秒", int64(ms)))
	})
}

// Refresh runs fetch, parse and format and writes the result, or the
// fallback text, to the status target. It reports false when the refresh was
// skipped: controller closed, ctx cancelled, single-flight busy, or toggle
// showing the placeholder.
func (c *Controller) Refresh(ctx context.Context) (string, bool) {
	if c.isClosed() {
		return "", false
	}
	if c.opts.SingleFlight {
		if !c.inflight.CompareAndSwap(false, true) {
			c.opts.Logger.Debug("refresh skipped, previous still in flight")
			return "", false
		}
		defer c.inflight.Store(false)
	}

	text, ok := c.resolve(ctx)
	if !ok {
		return "", false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || (c.opts.Toggle && c.state == ShowingOriginal) {
		return text, false
	}
	c.opts.Status.SetText(text)
	return text, true
}

// Click flips the toggle. Moving to ShowingStatus fetches a fresh status;
// moving back restores the cached placeholder without fetching.
func (c *Controller) Click(ctx context.Context) (string, error) {
	if !c.opts.Toggle {
		return "", ErrToggleDisabled
	}
	c.clickMu.Lock()
	defer c.clickMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return "", ErrClosed
	}
	if c.state == ShowingStatus {
		c.state = ShowingOriginal
		c.opts.Status.SetText(c.original)
		text := c.original
		c.mu.Unlock()
		return text, nil
	}
	c.mu.Unlock()

	text, ok := c.resolve(ctx)
	if !ok {
		return "", ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return "", ErrClosed
	}
	c.state = ShowingStatus
	c.opts.Status.SetText(text)
	return text, nil
}

// Run performs the on-load refresh (periodic mode only), marks the page
// loaded, then refreshes every Interval until ctx is done. Ticks do not wait
// for an earlier refresh to finish.
func (c *Controller) Run(ctx context.Context) error {
	defer c.wg.Wait()

	if !c.opts.Toggle {
		if !c.acquire() {
			return nil
		}
		c.Refresh(ctx)
		c.wg.Done()
	}
	c.MarkLoaded()

	if c.opts.Interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(c.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !c.acquire() {
				return nil
			}
			go func() {
				defer c.wg.Done()
				c.Refresh(ctx)
			}()
		}
	}
}

// acquire counts one refresh in c.wg, or reports false once closed. The
// caller must call c.wg.Done when the refresh returns.
func (c *Controller) acquire() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.wg.Add(1)
	return true
}

// Close stops further writes to the targets and waits for refreshes started by Run.
func (c *Controller) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.wg.Wait()
	return nil
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// resolve maps errors to the fallback text after logging them. It reports
// false, recording nothing, when ctx ended before the status was known.
func (c *Controller) resolve(ctx context.Context) (string, bool) {
	snap := trace.Snapshot{
		ID:        uuid.NewString(),
		StartedAt: c.opts.Now(),
		URL:       c.opts.URL,
	}

	status, rec, err := c.status(ctx)
	snap.DurationMs = c.opts.Now().Sub(snap.StartedAt).Milliseconds()
	snap.Record = rec
	if err != nil && ctx.Err() != nil {
		c.opts.Logger.Debug("trace refresh abandoned", "url", c.opts.URL, "err", err)
		return "", false
	}
	if err != nil {
		c.opts.Logger.Error("update trace status failed", "url", c.opts.URL, "err", err)
		snap.Error = err.Error()
		var fe *trace.FetchError
		if errors.As(err, &fe) {
			snap.ErrorKind = fe.Kind.String()
			snap.StatusCode = fe.StatusCode
		}
		status = c.opts.FallbackText
	}
	snap.Status = status

	if c.opts.Recorder != nil {
		if rerr := c.opts.Recorder.Add(snap); rerr != nil {
			c.opts.Logger.Warn("record snapshot failed", "id", snap.ID, "err", rerr)
		}
	}
	if err == nil && c.opts.Notifier != nil {
		c.opts.Notifier.Notify(status, rec)
	}
	return status, true
}

func (c *Controller) status(ctx context.Context) (string, trace.Record, error) {
	text, err := c.opts.Fetcher.Fetch(ctx)
	if err != nil {
		return "", nil, err
	}
	rec := trace.Parse(text)
	status, err := c.opts.Formatter.Check(rec)
	if err != nil {
		return "", rec, err
	}
	return status, rec, nil
}
