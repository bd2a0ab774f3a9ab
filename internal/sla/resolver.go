package sla

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// Source records which level of the configuration hierarchy produced a
// resolved SLA.
type Source string

const (
	SourceSpecific          Source = "specific"
	SourceDepartmentDefault Source = "department_default"
	SourceCompanyDefault    Source = "company_default"
)

// Config is a resolved SLA duration pair. Immutable once resolved.
type Config struct {
	ResponseHours   float64 `json:"response_hours"`
	ResolutionHours float64 `json:"resolution_hours"`
	Source          Source  `json:"source"`
	ConfigID        string  `json:"config_id"`
}

// ResolutionKey identifies one resolution context. Priority is stored in its
// external spelling; matching variants are tried inside Resolve.
type ResolutionKey struct {
	CompanyID      string `json:"company_id"`
	DepartmentID   string `json:"department_id"`
	IncidentTypeID string `json:"incident_type_id"`
	Priority       string `json:"priority"`
}

// ConfigStore loads raw SLA configuration rows. Implementations return
// (nil, nil) when no row matches; errors are reserved for storage failures.
type ConfigStore interface {
	SpecificConfig(ctx context.Context, company, department, incidentType, priority string) (*Config, error)
	DepartmentDefault(ctx context.Context, company, department, incidentType string) (*Config, error)
	CompanyDefault(ctx context.Context, company, priority string) (*Config, error)
}

// Resolver decides which SLA duration applies to a ticket by walking a
// three-level hierarchy: specific configuration, then department default,
// then company default. A nil Config with nil error means no SLA is
// configured anywhere; callers must surface "unconfigured" rather than
// substitute a guessed duration.
type Resolver struct {
	store ConfigStore
	cache *configCache

	hits   atomic.Uint64
	misses atomic.Uint64
}

// ResolverOption customizes a Resolver.
type ResolverOption func(*Resolver)

// WithClock injects the time source used for cache expiry. Tests use this to
// step a fake clock.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) { r.cache.now = now }
}

// NewResolver constructs a Resolver with its own cache. Construct once at
// startup and share; the cache is safe for concurrent use.
func NewResolver(store ConfigStore, opts ...ResolverOption) *Resolver {
	r := &Resolver{store: store, cache: newConfigCache(nil)}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve returns the SLA configuration for key, or (nil, nil) when none is
// configured at any level.
func (r *Resolver) Resolve(ctx context.Context, key ResolutionKey) (*Config, error) {
	if cfg, ok := r.cache.get(key); ok {
		r.hits.Add(1)
		return cfg, nil
	}
	r.misses.Add(1)
	cfg, err := r.lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	r.cache.set(key, cfg)
	src := "none"
	if cfg != nil {
		src = string(cfg.Source)
	}
	log.Debug().
		Str("company", key.CompanyID).
		Str("department", key.DepartmentID).
		Str("priority", key.Priority).
		Str("source", src).
		Msg("sla config resolved")
	return cfg, nil
}

func (r *Resolver) lookup(ctx context.Context, key ResolutionKey) (*Config, error) {
	for _, p := range PriorityCandidates(key.Priority) {
		cfg, err := r.store.SpecificConfig(ctx, key.CompanyID, key.DepartmentID, key.IncidentTypeID, p)
		if err != nil {
			return nil, err
		}
		if cfg != nil {
			cfg.Source = SourceSpecific
			return cfg, nil
		}
	}
	cfg, err := r.store.DepartmentDefault(ctx, key.CompanyID, key.DepartmentID, key.IncidentTypeID)
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		cfg.Source = SourceDepartmentDefault
		return cfg, nil
	}
	for _, p := range PriorityCandidates(key.Priority) {
		cfg, err := r.store.CompanyDefault(ctx, key.CompanyID, p)
		if err != nil {
			return nil, err
		}
		if cfg != nil {
			cfg.Source = SourceCompanyDefault
			return cfg, nil
		}
	}
	return nil, nil
}

// Purge drops expired cache entries and returns how many were removed.
func (r *Resolver) Purge() int { return r.cache.purge() }

// Preload re-resolves the n most-accessed keys so hot entries stay warm past
// their TTL. Storage errors abort the pass; already-refreshed entries keep
// their new value.
func (r *Resolver) Preload(ctx context.Context, n int) (int, error) {
	keys := r.cache.topKeys(n)
	for i, key := range keys {
		cfg, err := r.lookup(ctx, key)
		if err != nil {
			return i, err
		}
		r.cache.set(key, cfg)
	}
	return len(keys), nil
}

// CacheStats reports cumulative hit/miss counts and the current entry count.
func (r *Resolver) CacheStats() (hits, misses uint64, size int) {
	return r.hits.Load(), r.misses.Load(), r.cache.len()
}
