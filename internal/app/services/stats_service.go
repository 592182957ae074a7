package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/unitime/internal/app/repositories"
	"github.com/yigit/unitime/internal/pkg/cache"
)

const statsCacheKey = "stats:dashboard"

// StatsService serves the admin dashboard counters
type StatsService interface {
	GetStats(ctx context.Context) (*repositories.Stats, error)
	StatsInvalidator
}

// StatsReader computes the counters from the database.
type StatsReader interface {
	Get(ctx context.Context, now time.Time) (*repositories.Stats, error)
}

type statsServiceImpl struct {
	repo   StatsReader
	cache  cache.Cache
	ttl    time.Duration
	now    func() time.Time
	logger zerolog.Logger
}

// NewStatsService creates a stats service. Counters are cached for ttl; a
// nil cache disables caching.
func NewStatsService(repo StatsReader, c cache.Cache, ttl time.Duration, logger zerolog.Logger) StatsService {
	if c == nil {
		c = cache.Noop{}
	}
	return &statsServiceImpl{repo: repo, cache: c, ttl: ttl, now: time.Now, logger: logger}
}

// GetStats returns cached counters, recomputing them on a miss. Cache
// failures only cost a database round trip.
func (s *statsServiceImpl) GetStats(ctx context.Context) (*repositories.Stats, error) {
	var cached repositories.Stats
	err := s.cache.Get(ctx, statsCacheKey, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn().Err(err).Msg("Stats cache read failed")
	}

	stats, err := s.repo.Get(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("error computing stats: %w", err)
	}

	if err := s.cache.Set(ctx, statsCacheKey, stats, s.ttl); err != nil {
		s.logger.Warn().Err(err).Msg("Stats cache write failed")
	}
	return stats, nil
}

// Invalidate drops the cached counters
func (s *statsServiceImpl) Invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, statsCacheKey); err != nil {
		s.logger.Warn().Err(err).Msg("Stats cache invalidation failed")
	}
}
