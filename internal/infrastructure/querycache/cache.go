package querycache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/FR-TheFury/medic-ai-sub000/internal/logger"
	"github.com/dgraph-io/ristretto"
	"golang.org/x/sync/singleflight"
)

// MaxRetries is how many times a failed read is retried before giving up.
const MaxRetries = 1

type Config struct {
	MaxSizeMB   int
	CounterSize int
	DefaultTTL  time.Duration
	// FetchTimeout bounds a shared fetch, which outlives the caller that
	// started it.
	FetchTimeout time.Duration
	// TTLs overrides the staleness window per entity name.
	TTLs map[string]time.Duration
}

// Key identifies a read: the entity name plus its filter parameters.
type Key struct {
	Entity string
	Params []interface{}
}

func NewKey(entity string, params ...interface{}) Key {
	return Key{Entity: entity, Params: params}
}

func (k Key) String() string {
	if len(k.Params) == 0 {
		return k.Entity
	}
	parts := make([]string, 0, len(k.Params)+1)
	parts = append(parts, k.Entity)
	for _, p := range k.Params {
		parts = append(parts, fmt.Sprint(p))
	}
	return strings.Join(parts, "|")
}

// Cache stores read results for a staleness window and drops every entry of
// an entity on Invalidate. Identical reads in flight share one fetch.
type Cache struct {
	store  *ristretto.Cache
	cfg    Config
	group  singleflight.Group
	logger *logger.Logger

	mu          sync.Mutex
	keys        map[string]map[string]struct{}
	generations map[string]uint64
}

func New(cfg Config, log *logger.Logger) (*Cache, error) {
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 32
	}
	if cfg.CounterSize <= 0 {
		cfg.CounterSize = 100000
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 30 * time.Second
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}

	store, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: int64(cfg.CounterSize),
		MaxCost:     int64(cfg.MaxSizeMB) * 1024 * 1024,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create query cache: %w", err)
	}

	log.Info("Query cache initialized",
		"max_size_mb", cfg.MaxSizeMB,
		"default_ttl", cfg.DefaultTTL,
	)

	return &Cache{
		store:       store,
		cfg:         cfg,
		logger:      log.With("component", "querycache"),
		keys:        make(map[string]map[string]struct{}),
		generations: make(map[string]uint64),
	}, nil
}

func (c *Cache) ttl(entity string) time.Duration {
	if d, ok := c.cfg.TTLs[entity]; ok && d > 0 {
		return d
	}
	return c.cfg.DefaultTTL
}

func (c *Cache) generation(entity string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[entity]
}

// put keeps value unless the entity was invalidated since gen was read.
func (c *Cache) put(key Key, gen uint64, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[key.Entity] != gen {
		return
	}
	k := key.String()
	if c.store.SetWithTTL(k, value, 1, c.ttl(key.Entity)) {
		if c.keys[key.Entity] == nil {
			c.keys[key.Entity] = make(map[string]struct{})
		}
		c.keys[key.Entity][k] = struct{}{}
	}
	c.store.Wait()
}

func (c *Cache) lookup(key Key) (interface{}, bool) {
	return c.store.Get(key.String())
}

// Invalidate forgets every cached read of the given entities.
func (c *Cache) Invalidate(entities ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, entity := range entities {
		c.generations[entity]++
		for k := range c.keys[entity] {
			c.store.Del(k)
		}
		delete(c.keys, entity)
	}
	c.store.Wait()
	c.logger.Debug("Query cache invalidated", "entities", entities)
}

func (c *Cache) Close() {
	c.store.Close()
}

// Fetch returns the cached value for key, or runs fn (retrying once on
// error) and caches its result. Errors are never cached. Cached values are
// shared between callers and must not be mutated.
//
// Callers of the same key share one run of fn. That run is detached from any
// single caller's cancellation and bounded by FetchTimeout; a caller whose
// ctx ends stops waiting and gets ctx.Err().
func Fetch[T any](ctx context.Context, c *Cache, key Key, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if v, ok := c.lookup(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	gen := c.generation(key.Entity)
	flight := fmt.Sprintf("%s#%d", key.String(), gen)
	ch := c.group.DoChan(flight, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.FetchTimeout)
		defer cancel()

		var (
			out T
			err error
		)
		for attempt := 0; attempt <= MaxRetries; attempt++ {
			if attempt > 0 {
				c.logger.Warn("Retrying query", "key", key.String(), "error", err)
			}
			out, err = fn(fetchCtx)
			if err == nil {
				break
			}
			if fetchCtx.Err() != nil {
				break
			}
		}
		if err != nil {
			return nil, err
		}
		c.put(key, gen, out)
		return out, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		typed, _ := res.Val.(T)
		return typed, nil
	}
}

// FetchIf runs Fetch only when enabled is true; otherwise it returns the zero
// value without touching the backend.
func FetchIf[T any](ctx context.Context, c *Cache, enabled bool, key Key, fn func(context.Context) (T, error)) (T, error) {
	if !enabled {
		var zero T
		return zero, nil
	}
	return Fetch(ctx, c, key, fn)
}
