package query

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pullsense/internal/shared"
	"golang.org/x/sync/singleflight"
)

// Status is the load state of an entry.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Entry is a snapshot of one cached query.
//
// Data survives failed loads, so an entry in [StatusError] may still carry the last good value.
type Entry struct {
	Key       Key
	Data      any
	Status    Status
	FetchedAt time.Time
	Err       error
	Stale     bool
}

// Loader produces the value for a key.
type Loader func(ctx context.Context) (any, error)

// Options configures a [Cache].
type Options struct {
	// Retry is how many times a failed load is repeated.
	Retry      int
	RetryDelay time.Duration
	Logger     *log.Logger
}

// DefaultOptions retries once after one second.
func DefaultOptions() Options {
	return Options{Retry: 1, RetryDelay: time.Second}
}

// OptionsFromConfig maps the [query] config section onto Options.
func OptionsFromConfig(c shared.QueryConfig, logger *log.Logger) Options {
	return Options{Retry: c.Retry, RetryDelay: c.RetryDelay(), Logger: logger}
}

type entry struct {
	Entry
	// generation counts invalidations; a load that sees it change stays stale.
	generation uint64
}

// Cache is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	group   singleflight.Group

	subMu   sync.Mutex
	subs    map[int]func([]Key)
	nextSub int

	retry      int
	retryDelay time.Duration
	logger     *log.Logger
	now        func() time.Time
}

// NewCache creates an empty Cache.
func NewCache(opts Options) *Cache {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &Cache{
		entries:    make(map[string]*entry),
		subs:       make(map[int]func([]Key)),
		retry:      max(opts.Retry, 0),
		retryDelay: max(opts.RetryDelay, 0),
		logger:     logger,
		now:        time.Now,
	}
}

// Fetch returns the value for key, loading it when the entry is missing, stale or failed.
//
// On a failed load the error is returned together with the last good value, if any.
// Cancelling ctx abandons the wait but not the shared load.
func (c *Cache) Fetch(ctx context.Context, key Key, loader Loader) (any, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: empty query key", shared.ErrInvalidArgument)
	}

	c.mu.Lock()
	e := c.lookup(key)
	if e.Status == StatusSuccess && !e.Stale {
		data := e.Data
		c.mu.Unlock()
		return data, nil
	}
	c.mu.Unlock()

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key.String(), func() (any, error) {
		return c.load(loadCtx, key, loader)
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Get is [Cache.Fetch] with a typed loader.
func Get[T any](ctx context.Context, c *Cache, key Key, load func(context.Context) (T, error)) (T, error) {
	var zero T
	data, err := c.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		return load(ctx)
	})

	value, ok := data.(T)
	if err != nil {
		return value, err
	}
	if !ok {
		return zero, fmt.Errorf("query %s holds %T", key, data)
	}
	return value, nil
}

func (c *Cache) load(ctx context.Context, key Key, loader Loader) (any, error) {
	c.mu.Lock()
	e := c.lookup(key)
	// a load that finished after the caller's check already filled the entry
	if e.Status == StatusSuccess && !e.Stale {
		data := e.Data
		c.mu.Unlock()
		return data, nil
	}
	generation := e.generation
	e.Status = StatusLoading
	c.mu.Unlock()

	c.logger.Debug("loading query", "key", key)
	data, err := c.run(ctx, key, loader)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		e.Status = StatusError
		e.Err = err
		c.logger.Warn("query failed", "key", key, "err", err)
	} else {
		e.Data = data
		e.Status = StatusSuccess
		e.Err = nil
		e.FetchedAt = c.now()
	}
	e.Stale = e.generation != generation

	if err != nil {
		return e.Data, err
	}
	return data, nil
}

func (c *Cache) run(ctx context.Context, key Key, loader Loader) (any, error) {
	var err error
	for attempt := 0; attempt <= c.retry; attempt++ {
		if attempt > 0 {
			c.logger.Debug("retrying query", "key", key, "attempt", attempt, "err", err)
			if werr := wait(ctx, c.retryDelay); werr != nil {
				return nil, err
			}
		}

		var data any
		data, err = loader(ctx)
		if err == nil {
			return data, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
	}
	return nil, err
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// lookup returns the entry for key, creating an idle one. Callers hold c.mu.
func (c *Cache) lookup(key Key) *entry {
	id := key.String()
	e, ok := c.entries[id]
	if !ok {
		e = &entry{Entry: Entry{Key: key.clone(), Status: StatusIdle}}
		c.entries[id] = e
	}
	return e
}

// Invalidate marks every entry whose key starts with one of keys as stale and notifies subscribers.
//
// No load is started.
func (c *Cache) Invalidate(keys ...Key) {
	if len(keys) == 0 {
		return
	}

	c.mu.Lock()
	for _, e := range c.entries {
		for _, k := range keys {
			if e.Key.HasPrefix(k) {
				e.Stale = true
				e.generation++
				break
			}
		}
	}
	c.mu.Unlock()

	c.logger.Debug("invalidated queries", "keys", keys)
	c.notify(keys)
}

// Mutate runs a write once and invalidates keys when it succeeds.
func (c *Cache) Mutate(ctx context.Context, fn func(context.Context) (any, error), invalidate ...Key) (any, error) {
	result, err := fn(ctx)
	if err != nil {
		return nil, err
	}
	c.Invalidate(invalidate...)
	return result, nil
}

// Peek returns a snapshot of the entry for key without loading.
func (c *Cache) Peek(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key.String()]
	if !ok {
		return Entry{Key: key.clone(), Status: StatusIdle}, false
	}
	snapshot := e.Entry
	snapshot.Key = e.Key.clone()
	return snapshot, true
}

// Subscribe registers fn to be called with the keys of every invalidation.
//
// fn runs on the invalidating goroutine and must not block. The returned func unsubscribes.
func (c *Cache) Subscribe(fn func(keys []Key)) (unsubscribe func()) {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			c.subMu.Unlock()
		})
	}
}

func (c *Cache) notify(keys []Key) {
	c.subMu.Lock()
	fns := make([]func([]Key), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(keys)
	}
}
