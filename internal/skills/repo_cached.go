package skills

import (
	"context"
	"time"

	"cvio-backend/internal/shared/storage/cache"
	"cvio-backend/internal/shared/telemetry"
)

const catalogCacheKey = "cvio:skills:catalog"

// CachedRepo keeps a snapshot of the full catalog in Redis. Cache failures
// are logged and the underlying repo is used instead.
type CachedRepo struct {
	Repo  Repo
	Cache *cache.Cache
	TTL   time.Duration
}

// NewCachedRepo wraps repo. A nil cache returns repo unchanged.
func NewCachedRepo(repo Repo, c *cache.Cache, ttl time.Duration) Repo {
	if c == nil {
		return repo
	}
	return &CachedRepo{Repo: repo, Cache: c, TTL: ttl}
}

// Create writes through and drops the cached snapshot.
func (r *CachedRepo) Create(ctx context.Context, s Skill) error {
	if err := r.Repo.Create(ctx, s); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

// Save writes through and drops the cached snapshot.
func (r *CachedRepo) Save(ctx context.Context, s Skill) error {
	if err := r.Repo.Save(ctx, s); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

// Get reads from the underlying repo.
func (r *CachedRepo) Get(ctx context.Context, id string) (Skill, error) {
	return r.Repo.Get(ctx, id)
}

// List serves the catalog from the cache when present.
func (r *CachedRepo) List(ctx context.Context) ([]Skill, error) {
	var cached []Skill
	hit, err := r.Cache.GetJSON(ctx, catalogCacheKey, &cached)
	if err != nil {
		telemetry.Warn("skills.cache.read_failed", map[string]any{"error": err})
	} else if hit {
		return cached, nil
	}

	list, err := r.Repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.Cache.SetJSON(ctx, catalogCacheKey, list, r.TTL); err != nil {
		telemetry.Warn("skills.cache.write_failed", map[string]any{"error": err})
	}
	return list, nil
}

func (r *CachedRepo) invalidate(ctx context.Context) {
	if err := r.Cache.Del(ctx, catalogCacheKey); err != nil {
		telemetry.Warn("skills.cache.invalidate_failed", map[string]any{"error": err})
	}
}

var _ Repo = (*CachedRepo)(nil)
