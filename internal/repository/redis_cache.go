package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/metinatakli/movie-info-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

func movieInfoCacheKey(id string) string {
	return "movieinfo:" + id
}

// CachedMovieInfoRepository serves FindByID from Redis and falls back to the
// wrapped repository on a miss. Entries are dropped on Update and Delete.
// Cache failures are logged and never fail the request.
type CachedMovieInfoRepository struct {
	domain.MovieInfoRepository
	cache  redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedMovieInfoRepository(
	next domain.MovieInfoRepository,
	cache redis.UniversalClient,
	ttl time.Duration,
	logger *slog.Logger) *CachedMovieInfoRepository {

	return &CachedMovieInfoRepository{
		MovieInfoRepository: next,
		cache:               cache,
		ttl:                 ttl,
		logger:              logger,
	}
}

func (c *CachedMovieInfoRepository) FindByID(ctx context.Context, id string) (*domain.MovieInfo, error) {
	key := movieInfoCacheKey(id)

	data, err := c.cache.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var movieInfo domain.MovieInfo
		if err := json.Unmarshal(data, &movieInfo); err == nil {
			return &movieInfo, nil
		}
		c.logger.Warn("discarding undecodable cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("movie info cache read failed", "key", key, "error", err)
	}

	movieInfo, err := c.MovieInfoRepository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err = json.Marshal(movieInfo)
	if err != nil {
		return movieInfo, nil
	}

	if err := c.cache.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("movie info cache write failed", "key", key, "error", err)
	}

	return movieInfo, nil
}

func (c *CachedMovieInfoRepository) Update(ctx context.Context, movieInfo *domain.MovieInfo) error {
	err := c.MovieInfoRepository.Update(ctx, movieInfo)
	if err != nil {
		return err
	}

	c.evict(ctx, movieInfo.ID)

	return nil
}

func (c *CachedMovieInfoRepository) Delete(ctx context.Context, id string) error {
	err := c.MovieInfoRepository.Delete(ctx, id)
	if err != nil {
		return err
	}

	c.evict(ctx, id)

	return nil
}

func (c *CachedMovieInfoRepository) evict(ctx context.Context, id string) {
	key := movieInfoCacheKey(id)

	if err := c.cache.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("movie info cache eviction failed", "key", key, "error", err)
	}
}
