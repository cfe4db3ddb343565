package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"creatorstribe/internal/creators"
	"creatorstribe/internal/models"
)

const statsCacheKey = "dashboard"

type CreatorLister interface {
	All(ctx context.Context) ([]models.Creator, error)
}

type StatsCache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// StatsService serves dashboard aggregates, caching them between refreshes.
type StatsService struct {
	creators CreatorLister
	cache    StatsCache
	ttl      time.Duration
	log      zerolog.Logger
}

func NewStatsService(lister CreatorLister, cache StatsCache, ttl time.Duration, log zerolog.Logger) *StatsService {
	return &StatsService{
		creators: lister,
		cache:    cache,
		ttl:      ttl,
		log:      log.With().Str("component", "stats").Logger(),
	}
}

func (s *StatsService) Get(ctx context.Context) (creators.Stats, error) {
	var stats creators.Stats
	hit, err := s.cache.Get(ctx, statsCacheKey, &stats)
	if err != nil {
		s.log.Warn().Err(err).Msg("stats cache read failed")
	}
	if hit {
		return stats, nil
	}
	return s.Refresh(ctx)
}

// Refresh recomputes from the table store and replaces the cached copy.
func (s *StatsService) Refresh(ctx context.Context) (creators.Stats, error) {
	all, err := s.creators.All(ctx)
	if err != nil {
		return creators.Stats{}, err
	}
	stats := creators.ComputeStats(all)
	if err := s.cache.Set(ctx, statsCacheKey, stats, s.ttl); err != nil {
		s.log.Warn().Err(err).Msg("stats cache write failed")
	}
	return stats, nil
}

// Invalidate drops the cached copy after a write.
func (s *StatsService) Invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, statsCacheKey); err != nil {
		s.log.Warn().Err(err).Msg("stats cache invalidate failed")
	}
}
