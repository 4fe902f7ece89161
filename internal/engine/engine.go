// Package engine orchestrates the backing store, the query planner and the
// result cache behind the station read and write operations.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"bikeshare-backend/internal/cache"
	"bikeshare-backend/internal/model"
	"bikeshare-backend/internal/query"
	"bikeshare-backend/internal/store"
)

// maxUpdateAttempts bounds the read-modify-write retries of UpdateStation.
const maxUpdateAttempts = 3

// Default capacity range drawn by RandomizeAll, upper bound exclusive.
const (
	DefaultMinStands = 5
	DefaultMaxStands = 40
)

// Engine is the station query-and-mutation engine. It is safe for
// concurrent use by request handlers and the live mutator.
type Engine struct {
	store store.Store
	cache *cache.ResultCache
	now   func() time.Time

	randMu    sync.Mutex
	rnd       *rand.Rand
	minStands int
	maxStands int
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used to stamp writes.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRand sets the random source used by RandomizeAll.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rnd = r }
}

// WithStandsRange sets the capacity range [min, max) drawn by RandomizeAll.
func WithStandsRange(lo, hi int) Option {
	return func(e *Engine) {
		if lo >= 0 && hi > lo {
			e.minStands, e.maxStands = lo, hi
		}
	}
}

// New creates an engine over s, memoizing list pages in c.
func New(s store.Store, c *cache.ResultCache, opts ...Option) *Engine {
	e := &Engine{
		store:     s,
		cache:     c,
		now:       time.Now,
		rnd:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		minStands: DefaultMinStands,
		maxStands: DefaultMaxStands,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ListStations returns one page of stations matching p.
func (e *Engine) ListStations(ctx context.Context, p query.Params) ([]model.Station, error) {
	sig := p.Signature()
	if page, ok := e.cache.Get(sig); ok {
		return page, nil
	}

	all, err := e.store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	page := query.Run(all, p)
	e.cache.Set(sig, page)
	return page, nil
}

// GetStation looks a station up by number. It is never cached.
func (e *Engine) GetStation(ctx context.Context, number int) (model.Station, error) {
	return e.store.FindByNumber(ctx, number)
}

// GetSummary aggregates the full station set on every call.
func (e *Engine) GetSummary(ctx context.Context) (model.Summary, error) {
	all, err := e.store.LoadAll(ctx)
	if err != nil {
		return model.Summary{}, err
	}
	return model.Summarize(all), nil
}

// CreateStation stores a new station after deriving its computed fields.
// Any number is accepted; it returns store.ErrDuplicateNumber if the number
// is taken.
func (e *Engine) CreateStation(ctx context.Context, candidate model.Station) (model.Station, error) {
	candidate.ID = ""
	candidate.Version = 0
	candidate.LastUpdate = 0
	candidate.Normalize()
	candidate.Touch(e.now())

	created, err := e.store.Insert(ctx, candidate)
	if err != nil {
		return model.Station{}, err
	}
	e.cache.Clear()
	return created, nil
}

// UpdateStation overwrites the editable fields of the station carrying
// number. Available bikes are clamped to the new capacity.
func (e *Engine) UpdateStation(ctx context.Context, number int, patch model.Station) (model.Station, error) {
	updated, err := e.updateStation(ctx, number, patch)
	if err != nil {
		return model.Station{}, err
	}
	e.cache.Clear()
	return updated, nil
}

// updateStation applies the patch atomically when the store supports it.
// Otherwise it reads, applies and writes back conditionally on the version
// it read, starting over when a concurrent writer got there first.
func (e *Engine) updateStation(ctx context.Context, number int, patch model.Station) (model.Station, error) {
	if m, ok := e.store.(store.StationMutator); ok {
		return m.MutateByNumber(ctx, number, func(s *model.Station) {
			s.ApplyUpdate(patch, e.now())
		})
	}

	var err error
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		var current, updated model.Station
		current, err = e.store.FindByNumber(ctx, number)
		if err != nil {
			return model.Station{}, err
		}
		current.ApplyUpdate(patch, e.now())
		updated, err = e.store.ReplaceByNumber(ctx, number, current)
		if !errors.Is(err, store.ErrConcurrentUpdate) {
			return updated, err
		}
	}
	return model.Station{}, err
}

// RandomizeAll draws a new capacity and occupancy for every station and
// persists the pass, clearing the cache once. It returns the number of
// stations touched.
func (e *Engine) RandomizeAll(ctx context.Context) (int, error) {
	now := e.now()

	if bulk, ok := e.store.(store.BulkMutator); ok {
		var n int
		err := bulk.MutateAll(ctx, func(s *model.Station) {
			e.randomize(s, now)
			n++
		})
		if err != nil {
			return 0, fmt.Errorf("randomize stations: %w", err)
		}
		e.cache.Clear()
		return n, nil
	}

	all, err := e.store.LoadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("randomize stations: %w", err)
	}
	for i := range all {
		e.randomize(&all[i], now)
	}
	if err := e.store.UpsertAll(ctx, all); err != nil {
		return 0, fmt.Errorf("randomize stations: %w", err)
	}
	e.cache.Clear()
	return len(all), nil
}

func (e *Engine) randomize(s *model.Station, now time.Time) {
	e.randMu.Lock()
	stands := e.minStands + e.rnd.IntN(e.maxStands-e.minStands)
	bikes := e.rnd.IntN(stands + 1)
	e.randMu.Unlock()

	s.Resize(stands, bikes, now)
}

// CacheStats reports result cache traffic.
func (e *Engine) CacheStats() cache.Stats {
	return e.cache.Stats()
}
