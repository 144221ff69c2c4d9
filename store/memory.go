package store

import (
	"context"
	"sync"

	"finora/api/models"
)

// Memory keeps profiles in process. It backs the server when no MongoDB is
// configured and is the store used in tests.
type Memory struct {
	mu       sync.RWMutex
	profiles map[string]models.Profile
}

func NewMemory() *Memory {
	return &Memory{profiles: make(map[string]models.Profile)}
}

func (m *Memory) LoadProfile(ctx context.Context, userID string) (*models.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	p, ok := m.profiles[userID]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	clone := p.Clone()
	return &clone, nil
}

func (m *Memory) SaveProfile(ctx context.Context, userID string, profile models.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.profiles[userID] = profile.Clone()
	m.mu.Unlock()
	return nil
}
