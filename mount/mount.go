// Package mount keeps the panel attached to a host document that destroys
// and rebuilds its own subtree at will. Two mechanisms make the remount
// loop safe and both are required: the idempotence guard (a remount is a
// no-op while the panel is connected) and the debounce window (a burst of
// host mutations collapses into at most one remount per quiescence window).
// Without the guard, a remount's own mutations could feed back into an
// infinite mount/notify loop; without the debounce, every burst would
// hammer the document with remount attempts.
package mount

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"mailpanel/hostdoc"
	"mailpanel/panel"
	"mailpanel/store"
)

// Anchor search strategies, in fixed priority order.
var anchorSelectors = []string{
	`[role="navigation"]`,
	"nav",
	"aside",
}

// labelsHeading is the label-text landmark used both as a last-resort
// anchor and as the preferred insertion point.
const labelsHeading = "Labels"

// Options tunes the controller.
type Options struct {
	// Debounce is the quiescence window for remount scheduling.
	Debounce time.Duration
	// MaxAttempts bounds the startup wait for the anchor to appear.
	MaxAttempts int
	// Backoff is the delay between startup attempts.
	Backoff time.Duration
}

// DefaultOptions returns the production tuning.
func DefaultOptions() Options {
	return Options{
		Debounce:    100 * time.Millisecond,
		MaxAttempts: 10,
		Backoff:     250 * time.Millisecond,
	}
}

// Controller owns the panel's attachment state for one host document. The
// conceptual state machine is DETACHED/ATTACHED; ATTACHED is never stored,
// it is re-derived from the document on every decision, so the host tearing
// the panel out from under us is just another DETACHED observation.
type Controller struct {
	doc   *hostdoc.Document
	store *store.Adapter
	log   *zap.Logger
	opts  Options

	mounts atomic.Int64

	mu        sync.Mutex
	sub       *hostdoc.Subscription
	stopWatch context.CancelFunc
}

// New creates a controller. Zero option fields take defaults.
func New(doc *hostdoc.Document, st *store.Adapter, log *zap.Logger, opts Options) *Controller {
	def := DefaultOptions()
	if opts.Debounce <= 0 {
		opts.Debounce = def.Debounce
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = def.MaxAttempts
	}
	if opts.Backoff <= 0 {
		opts.Backoff = def.Backoff
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{doc: doc, store: st, log: log, opts: opts}
}

// FindAnchor locates the navigation landmark the panel attaches to. It
// tries each selector in priority order, then falls back to the label-text
// landmark. It returns nil, never an error, on documents that look nothing
// like expected.
func (c *Controller) FindAnchor() *html.Node {
	for _, sel := range anchorSelectors {
		if n := c.doc.Query(sel); n != nil {
			return n
		}
	}
	if heading := c.doc.FindByText("h2", labelsHeading); heading != nil {
		if heading.Parent != nil {
			return heading.Parent
		}
		return heading
	}
	return nil
}

// IsMounted reports whether the panel element is currently connected to the
// host document.
func (c *Controller) IsMounted() bool {
	return c.doc.Connected(panel.RootID)
}

// Insert attaches a built panel. Preferred placement is immediately after
// the labels landmark's container; otherwise the panel is appended to the
// anchor. It reports false when neither placement is possible.
func (c *Controller) Insert(p *html.Node) bool {
	if heading := c.doc.FindByText("h2", labelsHeading); heading != nil && heading.Parent != nil {
		if c.doc.InsertAfter(heading.Parent, p) {
			return true
		}
	}
	if anchor := c.FindAnchor(); anchor != nil {
		c.doc.AppendChild(anchor, p)
		return true
	}
	return false
}

// RenderAndMount loads, builds, and inserts the panel. It is a no-op while
// the panel is already mounted; that guard is what keeps the remount loop
// from feeding itself.
func (c *Controller) RenderAndMount(ctx context.Context) {
	if c.IsMounted() {
		return
	}

	records := c.store.Load(ctx)
	p := panel.Build(records)
	if !c.Insert(p) {
		c.log.Warn("panel anchor not found")
		return
	}
	c.mounts.Add(1)
}

// Refresh rebuilds the mounted panel in place after a collection change.
func (c *Controller) Refresh(ctx context.Context) {
	c.doc.Detach(panel.RootID)
	c.RenderAndMount(ctx)
}

// Mounts returns how many times the panel has been inserted. Diagnostic.
func (c *Controller) Mounts() int64 {
	return c.mounts.Load()
}

// Start waits for the anchor with a bounded retry loop, performs the first
// mount, and begins watching. Exhausting the retry budget is a soft
// failure: it logs and reports false, it does not panic or error out.
func (c *Controller) Start(ctx context.Context) bool {
	found := false
	for attempt := 0; attempt < c.opts.MaxAttempts; attempt++ {
		if c.FindAnchor() != nil {
			found = true
			break
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(c.opts.Backoff):
		}
	}
	if !found {
		c.log.Warn("host navigation never appeared, giving up")
		return false
	}

	c.RenderAndMount(ctx)
	c.Watch(ctx)
	return true
}

// Watch subscribes to mutation notifications scoped to the anchor subtree
// and schedules a debounced remount whenever a notification arrives while
// the panel is detached. Calling Watch again disposes the previous
// subscription first; there are never two live watchers.
func (c *Controller) Watch(ctx context.Context) {
	c.mu.Lock()
	if c.stopWatch != nil {
		c.stopWatch()
		c.stopWatch = nil
	}
	if c.sub != nil {
		c.sub.Cancel()
		c.sub = nil
	}

	anchor := c.FindAnchor()
	if anchor == nil {
		c.mu.Unlock()
		c.log.Warn("panel anchor not found")
		return
	}

	sub := c.doc.Observe(anchor)
	watchCtx, cancel := context.WithCancel(ctx)
	c.sub = sub
	c.stopWatch = cancel
	c.mu.Unlock()

	go c.watchLoop(watchCtx, sub)
}

// Unwatch stops the active watcher, if any.
func (c *Controller) Unwatch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopWatch != nil {
		c.stopWatch()
		c.stopWatch = nil
	}
	if c.sub != nil {
		c.sub.Cancel()
		c.sub = nil
	}
}

// watchLoop is the single consumer of the mutation channel: notifications
// reset a quiescence timer, and only the timer firing triggers a remount.
// Scheduling a new remount supersedes any pending one. Remount is therefore
// at-most-once per quiescence window, not once per notification.
func (c *Controller) watchLoop(ctx context.Context, sub *hostdoc.Subscription) {
	var timer *time.Timer
	var fire <-chan time.Time

	defer func() {
		if timer != nil {
			timer.Stop()
		}
		sub.Cancel()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case <-sub.C:
			if c.IsMounted() {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(c.opts.Debounce)
				fire = timer.C
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(c.opts.Debounce)

		case <-fire:
			timer = nil
			fire = nil
			c.RenderAndMount(ctx)
		}
	}
}
