package query

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-catalog-admin/errs"
)

// Status is the fetch state of a key.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot is the observable state of one key.
type Snapshot struct {
	Key    Key
	Status Status
	// Data is the last page fetched or patched. It survives refetches and failed fetches.
	Data         *Page
	ErrorMessage string
	Err          error
	// Fetching is set while a remote call for the key is outstanding.
	Fetching  bool
	Stale     bool
	UpdatedAt time.Time
}

// Config tunes the cache.
type Config struct {
	// StaleTime is how long a Ready page is served without a background refresh. Zero
	// refreshes on every read.
	StaleTime time.Duration

	// RefetchConcurrency bounds the refetches scheduled by one invalidation.
	RefetchConcurrency int
}

// DefaultConfig returns the defaults.
func DefaultConfig() Config {
	return Config{StaleTime: 0, RefetchConcurrency: 4}
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

type flight struct {
	seq        uint64
	generation uint64
	done       chan struct{}
}

type entry struct {
	mu sync.Mutex

	key       Key
	status    Status
	page      *Page
	err       error
	stale     bool
	updatedAt time.Time

	// invalidatedAt is the generation of the last invalidation that reached this entry.
	invalidatedAt uint64
	issued        uint64
	// flight is the most recently issued fetch while it is outstanding.
	flight *flight
	purged bool
}

func (e *entry) snapshot() Snapshot {
	s := Snapshot{
		Key:       e.key,
		Status:    e.status,
		Err:       e.err,
		Fetching:  e.flight != nil,
		Stale:     e.stale,
		UpdatedAt: e.updatedAt,
	}
	if e.page != nil {
		p := e.page.Clone()
		s.Data = &p
	}
	if e.err != nil {
		s.ErrorMessage = errs.Message(e.err)
	}
	return s
}

type observerSet struct {
	mu  sync.Mutex
	fns map[uint64]func(Snapshot)
}

// Cache maps query keys to pages. It is safe for concurrent use; one instance is shared
// by every reader and writer of the process.
type Cache struct {
	fetcher Fetcher
	cfg     Config
	logger  *zap.Logger
	now     func() time.Time

	entries      *xsync.MapOf[Key, *entry]
	observers    *xsync.MapOf[Key, *observerSet]
	generation   atomic.Uint64
	nextObserver atomic.Uint64
}

// New builds an empty cache reading through fetcher. Non-positive settings fall back to
// DefaultConfig.
func New(fetcher Fetcher, cfg Config, opts ...Option) *Cache {
	def := DefaultConfig()
	if cfg.StaleTime < 0 {
		cfg.StaleTime = def.StaleTime
	}
	if cfg.RefetchConcurrency <= 0 {
		cfg.RefetchConcurrency = def.RefetchConcurrency
	}

	c := &Cache{
		fetcher:   fetcher,
		cfg:       cfg,
		logger:    zap.NewNop(),
		now:       time.Now,
		entries:   xsync.NewMapOf[Key, *entry](),
		observers: xsync.NewMapOf[Key, *observerSet](),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) entry(key Key) *entry {
	e, _ := c.entries.LoadOrCompute(key, func() *entry {
		return &entry{key: key}
	})
	return e
}

func (c *Cache) needsFetch(e *entry) bool {
	if e.flight != nil {
		return false
	}
	switch e.status {
	case StatusIdle, StatusError:
		return true
	}
	return e.stale || c.now().Sub(e.updatedAt) >= c.cfg.StaleTime
}

// start issues a fetch for e. It must be called with e.mu held. The fetch outlives ctx
// cancellation; its result is only dropped when a newer fetch was issued.
func (c *Cache) start(ctx context.Context, e *entry) *flight {
	e.issued++
	f := &flight{
		seq:        e.issued,
		generation: c.generation.Load(),
		done:       make(chan struct{}),
	}
	e.flight = f
	if e.page == nil {
		e.status = StatusLoading
	}
	go c.run(context.WithoutCancel(ctx), e, f)
	return f
}

func (c *Cache) run(ctx context.Context, e *entry, f *flight) {
	page, err := c.fetcher.FetchPage(ctx, e.key)

	e.mu.Lock()
	if e.purged || f.seq != e.issued {
		e.mu.Unlock()
		close(f.done)
		c.logger.Debug("dropping obsolete page",
			zap.Stringer("key", e.key),
			zap.Uint64("seq", f.seq),
		)
		return
	}

	e.flight = nil
	if err != nil {
		e.status = StatusError
		e.err = err
		e.stale = true
	} else {
		page.PageSize = e.key.PageSize
		page.Offset = e.key.Offset
		page = page.bounded()
		e.page = &page
		e.status = StatusReady
		e.err = nil
		e.updatedAt = c.now()
		e.stale = f.generation < e.invalidatedAt
	}
	snap := e.snapshot()
	e.mu.Unlock()

	if err != nil {
		c.logger.Warn("page fetch failed", zap.Stringer("key", e.key), zap.Error(err))
	}
	c.notify(snap)
	close(f.done)
}

// Get returns the state of key without blocking. A missing, failed or stale entry
// triggers a background fetch unless one is already outstanding; callers arriving while
// a fetch is outstanding share it.
func (c *Cache) Get(ctx context.Context, key Key) Snapshot {
	e := c.entry(key)
	e.mu.Lock()
	defer e.mu.Unlock()

	if c.needsFetch(e) {
		c.start(ctx, e)
	}
	return e.snapshot()
}

// Fetch is the blocking form of Get: it waits for the latest outstanding fetch of key to
// settle and returns the resulting snapshot. The error is the fetch failure, if any.
func (c *Cache) Fetch(ctx context.Context, key Key) (Snapshot, error) {
	c.Get(ctx, key)
	return c.await(ctx, key)
}

// Refresh issues a new fetch for key even when one is outstanding. The older fetch's
// response is discarded when it arrives.
func (c *Cache) Refresh(ctx context.Context, key Key) Snapshot {
	e := c.entry(key)
	e.mu.Lock()
	defer e.mu.Unlock()

	c.start(ctx, e)
	return e.snapshot()
}

func (c *Cache) await(ctx context.Context, key Key) (Snapshot, error) {
	for {
		e := c.entry(key)
		e.mu.Lock()
		f := e.flight
		if f == nil && e.status == StatusIdle {
			f = c.start(ctx, e)
		}
		if f == nil {
			snap := e.snapshot()
			e.mu.Unlock()
			if snap.Status == StatusError {
				return snap, snap.Err
			}
			return snap, nil
		}
		e.mu.Unlock()

		select {
		case <-ctx.Done():
			return c.Peek(key), errs.Wrap(ctx.Err(), errs.KindNetwork, errs.MsgNetwork)
		case <-f.done:
		}
	}
}

// Peek returns the state of key without triggering a fetch. Unknown keys are Idle.
func (c *Cache) Peek(key Key) Snapshot {
	e, ok := c.entries.Load(key)
	if !ok {
		return Snapshot{Key: key, Status: StatusIdle}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot()
}

// Keys returns every cached key.
func (c *Cache) Keys() []Key {
	out := make([]Key, 0, c.entries.Size())
	c.entries.Range(func(k Key, _ *entry) bool {
		out = append(out, k)
		return true
	})
	return out
}

// Patch applies fn to a copy of the page cached at key and stores the result, bounded by
// the page size. It reports false, leaving the cache untouched, when key holds no page.
// The patched page stands until the next fetch of key settles.
func (c *Cache) Patch(key Key, fn func(Page) Page) bool {
	e, ok := c.entries.Load(key)
	if !ok {
		return false
	}

	e.mu.Lock()
	if e.page == nil {
		e.mu.Unlock()
		return false
	}
	next := fn(e.page.Clone())
	next.PageSize = e.key.PageSize
	next.Offset = e.key.Offset
	next = next.bounded()
	e.page = &next
	snap := e.snapshot()
	e.mu.Unlock()

	c.notify(snap)
	return true
}

// Invalidate marks every entry under prefix as stale, keeping its data, and refetches the
// observed ones in the background. Unobserved entries refetch on their next Get.
func (c *Cache) Invalidate(prefix string) {
	keys := c.markStale(prefix)
	if len(keys) == 0 {
		return
	}
	go func() {
		if err := c.refetch(context.Background(), keys); err != nil {
			c.logger.Warn("refetch after invalidation failed", zap.String("prefix", prefix), zap.Error(err))
		}
	}()
}

// InvalidateAndWait is Invalidate that waits for the scheduled refetches. It returns the
// first refetch failure.
func (c *Cache) InvalidateAndWait(ctx context.Context, prefix string) error {
	return c.refetch(ctx, c.markStale(prefix))
}

func (c *Cache) markStale(prefix string) []Key {
	gen := c.generation.Add(1)

	var observed []Key
	c.entries.Range(func(k Key, e *entry) bool {
		if !k.InNamespace(prefix) {
			return true
		}
		e.mu.Lock()
		e.stale = true
		e.invalidatedAt = gen
		e.mu.Unlock()
		if c.observed(k) {
			observed = append(observed, k)
		}
		return true
	})

	c.logger.Debug("invalidated",
		zap.String("prefix", prefix),
		zap.Uint64("generation", gen),
		zap.Int("refetch", len(observed)),
	)
	return observed
}

func (c *Cache) refetch(ctx context.Context, keys []Key) error {
	var g errgroup.Group
	g.SetLimit(c.cfg.RefetchConcurrency)

	for _, k := range keys {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			c.Refresh(ctx, k)
			_, err := c.await(ctx, k)
			return err
		})
	}
	return g.Wait()
}

// PurgeAll drops every entry. Outstanding fetches complete but their results are
// discarded, and observers are told their key is Idle. Subscriptions are kept.
func (c *Cache) PurgeAll() {
	var purged []Key
	c.entries.Range(func(k Key, e *entry) bool {
		e.mu.Lock()
		e.purged = true
		c.entries.Delete(k)
		e.mu.Unlock()
		purged = append(purged, k)
		return true
	})

	c.logger.Debug("purged query cache", zap.Int("entries", len(purged)))
	for _, k := range purged {
		c.notify(Snapshot{Key: k, Status: StatusIdle})
	}
}

// Subscribe registers fn to receive every settled state of key. A key with at least one
// subscriber is observed and gets refetched on invalidation. The returned function
// removes the subscription.
func (c *Cache) Subscribe(key Key, fn func(Snapshot)) (unsubscribe func()) {
	id := c.nextObserver.Add(1)
	set, _ := c.observers.LoadOrCompute(key, func() *observerSet {
		return &observerSet{fns: map[uint64]func(Snapshot){}}
	})

	set.mu.Lock()
	set.fns[id] = fn
	set.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			set.mu.Lock()
			delete(set.fns, id)
			set.mu.Unlock()
		})
	}
}

func (c *Cache) observed(key Key) bool {
	set, ok := c.observers.Load(key)
	if !ok {
		return false
	}
	set.mu.Lock()
	defer set.mu.Unlock()
	return len(set.fns) > 0
}

func (c *Cache) notify(snap Snapshot) {
	set, ok := c.observers.Load(snap.Key)
	if !ok {
		return
	}
	set.mu.Lock()
	fns := make([]func(Snapshot), 0, len(set.fns))
	for _, fn := range set.fns {
		fns = append(fns, fn)
	}
	set.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
