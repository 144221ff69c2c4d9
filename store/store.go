// Package store defines the profile persistence contract and the backends
// that do not need an external service.
package store

import (
	"context"
	"time"

	"finora/api/models"
)

// ProfileStore persists one profile document per user. SaveProfile replaces
// the whole document; there are no partial updates. LoadProfile returns
// nil, nil when the user has no profile.
type ProfileStore interface {
	LoadProfile(ctx context.Context, userID string) (*models.Profile, error)
	SaveProfile(ctx context.Context, userID string, profile models.Profile) error
}

// ProfileCache is a best-effort read-through cache in front of a store.
// Get returns nil, nil on a miss.
type ProfileCache interface {
	Get(ctx context.Context, userID string) (*models.Profile, error)
	Set(ctx context.Context, userID string, profile models.Profile, ttl time.Duration) error
	Delete(ctx context.Context, userID string) error
}
