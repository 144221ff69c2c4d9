package store

import (
	"context"
	"errors"
	"time"

	"finora/api/logger"
	"finora/api/models"

	"go.uber.org/zap"
)

// cacheTimeout bounds how long a cache lookup may delay a load.
const cacheTimeout = 50 * time.Millisecond

// Cached serves loads from cache when possible and keeps the cache in step
// with saves. Cache failures are logged and never fail the operation.
type Cached struct {
	next  ProfileStore
	cache ProfileCache
	ttl   time.Duration
}

func NewCached(next ProfileStore, cache ProfileCache, ttl time.Duration) *Cached {
	return &Cached{next: next, cache: cache, ttl: ttl}
}

func (c *Cached) LoadProfile(ctx context.Context, userID string) (*models.Profile, error) {
	cacheCtx, cancel := context.WithTimeout(ctx, cacheTimeout)
	cached, err := c.cache.Get(cacheCtx, userID)
	cancel()
	if err == nil && cached != nil {
		return cached, nil
	}
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logger.Get().Warn("profile cache get failed",
			zap.String("user_id", userID),
			zap.Error(err))
	}

	profile, err := c.next.LoadProfile(ctx, userID)
	if err != nil || profile == nil {
		return profile, err
	}

	if err := c.cache.Set(ctx, userID, *profile, c.ttl); err != nil {
		logger.Get().Warn("profile cache set failed",
			zap.String("user_id", userID),
			zap.Error(err))
	}
	return profile, nil
}

func (c *Cached) SaveProfile(ctx context.Context, userID string, profile models.Profile) error {
	if err := c.next.SaveProfile(ctx, userID, profile); err != nil {
		return err
	}
	if err := c.cache.Set(ctx, userID, profile, c.ttl); err != nil {
		logger.Get().Warn("profile cache refresh failed, evicting",
			zap.String("user_id", userID),
			zap.Error(err))
		if err := c.cache.Delete(ctx, userID); err != nil {
			logger.Get().Error("profile cache evict failed",
				zap.String("user_id", userID),
				zap.Error(err))
		}
	}
	return nil
}
