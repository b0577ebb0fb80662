// Package catalog supplies the course-mapping rows the eligibility engine runs on.
// Rows come from a Source, are cached for a TTL, and degrade to the last good
// snapshot or a built-in fallback list when the source is unavailable.
package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/exchangeintake/internal/pkg/eligibility"
)

// DefaultTTL is how long a fetched snapshot is served before refetching
const DefaultTTL = 60 * time.Second

// Provider serves catalog snapshots
type Provider interface {
	Snapshot(ctx context.Context) ([]eligibility.CourseMappingRow, error)
	Refresh(ctx context.Context) ([]eligibility.CourseMappingRow, error)
	Info() Info
}

// Source fetches the full catalog from its origin
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]eligibility.CourseMappingRow, error)
}

// SnapshotStore shares fetched snapshots between service instances
type SnapshotStore interface {
	Load(ctx context.Context) ([]eligibility.CourseMappingRow, bool, error)
	Save(ctx context.Context, rows []eligibility.CourseMappingRow, ttl time.Duration) error
}

// Info describes the snapshot currently held by a provider
type Info struct {
	Source    string    `json:"source"`
	Rows      int       `json:"rows"`
	FetchedAt time.Time `json:"fetchedAt"`
	Fallback  bool      `json:"fallback"`
}

// Options configures a CachedProvider
type Options struct {
	TTL    time.Duration
	Store  SnapshotStore
	Logger zerolog.Logger
	Now    func() time.Time
}

// CachedProvider wraps a Source with a TTL cache
type CachedProvider struct {
	source Source
	store  SnapshotStore
	ttl    time.Duration
	now    func() time.Time
	logger zerolog.Logger

	mu        sync.Mutex
	rows      []eligibility.CourseMappingRow
	fetchedAt time.Time
	fallback  bool
}

// NewCachedProvider creates a provider over source
func NewCachedProvider(source Source, opts Options) *CachedProvider {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &CachedProvider{
		source: source,
		store:  opts.Store,
		ttl:    opts.TTL,
		now:    opts.Now,
		logger: opts.Logger.With().Str("component", "catalog").Str("source", source.Name()).Logger(),
	}
}

// Snapshot returns the cached rows while fresh, fetching otherwise
func (p *CachedProvider) Snapshot(ctx context.Context) ([]eligibility.CourseMappingRow, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.rows != nil && !p.fallback && p.now().Sub(p.fetchedAt) < p.ttl {
		return cloneRows(p.rows), nil
	}

	if p.store != nil {
		rows, ok, err := p.store.Load(ctx)
		if err != nil {
			p.logger.Warn().Err(err).Msg("Failed to load shared catalog snapshot")
		} else if ok && len(rows) > 0 {
			p.keep(rows)
			return cloneRows(p.rows), nil
		}
	}

	return p.fetchLocked(ctx)
}

// Refresh fetches from the source regardless of the cache state
func (p *CachedProvider) Refresh(ctx context.Context) ([]eligibility.CourseMappingRow, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fetchLocked(ctx)
}

// Info reports on the held snapshot
func (p *CachedProvider) Info() Info {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Info{
		Source:    p.source.Name(),
		Rows:      len(p.rows),
		FetchedAt: p.fetchedAt,
		Fallback:  p.fallback,
	}
}

func (p *CachedProvider) fetchLocked(ctx context.Context) ([]eligibility.CourseMappingRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := p.source.Fetch(ctx)
	if err != nil || len(rows) == 0 {
		if err != nil {
			p.logger.Error().Err(err).Msg("Catalog fetch failed")
		} else {
			p.logger.Warn().Msg("Catalog source returned no rows")
		}
		if p.rows != nil && !p.fallback {
			// Serve the last good snapshot without resetting its age so the next call retries.
			return cloneRows(p.rows), nil
		}
		p.rows = FallbackRows()
		p.fallback = true
		return cloneRows(p.rows), nil
	}

	p.keep(rows)
	p.logger.Info().Int("rows", len(rows)).Msg("Catalog refreshed")

	if p.store != nil {
		if err := p.store.Save(ctx, rows, p.ttl); err != nil {
			p.logger.Warn().Err(err).Msg("Failed to save shared catalog snapshot")
		}
	}
	return cloneRows(p.rows), nil
}

func (p *CachedProvider) keep(rows []eligibility.CourseMappingRow) {
	p.rows = cloneRows(rows)
	p.fetchedAt = p.now()
	p.fallback = false
}

func cloneRows(rows []eligibility.CourseMappingRow) []eligibility.CourseMappingRow {
	out := make([]eligibility.CourseMappingRow, len(rows))
	for i, row := range rows {
		out[i] = row
		if row.Notes != nil {
			notes := *row.Notes
			out[i].Notes = &notes
		}
	}
	return out
}
