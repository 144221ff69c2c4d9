package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"finora/api/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func profileWithIncome(income string) models.Profile {
	p := models.Empty()
	p.Income = decimal.RequireFromString(income)
	p.Goals = []models.Goal{{Type: "home", TargetAmount: decimal.NewFromInt(1000), TimelineYears: decimal.NewFromInt(1)}}
	return p
}

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	got, err := m.LoadProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)

	want := profileWithIncome("65000")
	require.NoError(t, m.SaveProfile(ctx, "u1", want))

	got, err = m.LoadProfile(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, want.Equal(*got))
}

func TestMemorySaveReplacesWholeDocument(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.SaveProfile(ctx, "u1", profileWithIncome("1")))
	require.NoError(t, m.SaveProfile(ctx, "u1", models.Empty()))

	got, err := m.LoadProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got.Goals)
	assert.True(t, got.Income.IsZero())
}

func TestMemoryIsolatesCallers(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	p := profileWithIncome("10")
	require.NoError(t, m.SaveProfile(ctx, "u1", p))
	p.Goals[0].Type = "mutated"

	got, err := m.LoadProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "home", got.Goals[0].Type)
}

func TestMemoryHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NewMemory().SaveProfile(ctx, "u1", models.Empty()), context.Canceled)
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]models.Profile
	getErr  error
	setErr  error
	gets    int
	deletes int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]models.Profile{}}
}

func (f *fakeCache) Get(_ context.Context, userID string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.entries[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *fakeCache) Set(_ context.Context, userID string, p models.Profile, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.entries[userID] = p
	return nil
}

func (f *fakeCache) Delete(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	delete(f.entries, userID)
	return nil
}

type countingStore struct {
	*Memory
	loads int
}

func (s *countingStore) LoadProfile(ctx context.Context, userID string) (*models.Profile, error) {
	s.loads++
	return s.Memory.LoadProfile(ctx, userID)
}

func TestCachedReadThrough(t *testing.T) {
	ctx := context.Background()
	backend := &countingStore{Memory: NewMemory()}
	require.NoError(t, backend.Memory.SaveProfile(ctx, "u1", profileWithIncome("500")))
	cache := newFakeCache()
	c := NewCached(backend, cache, time.Minute)

	first, err := c.LoadProfile(ctx, "u1")
	require.NoError(t, err)
	second, err := c.LoadProfile(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, 1, backend.loads)
	assert.True(t, first.Equal(*second))
}

func TestCachedMissForUnknownUser(t *testing.T) {
	c := NewCached(NewMemory(), newFakeCache(), time.Minute)
	got, err := c.LoadProfile(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCachedFallsBackWhenCacheFails(t *testing.T) {
	ctx := context.Background()
	backend := NewMemory()
	require.NoError(t, backend.SaveProfile(ctx, "u1", profileWithIncome("7")))
	cache := newFakeCache()
	cache.getErr = errors.New("redis down")
	cache.setErr = errors.New("redis down")

	got, err := NewCached(backend, cache, time.Minute).LoadProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "7", got.Income.String())
}

func TestCachedSaveRefreshesOrEvicts(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	c := NewCached(NewMemory(), cache, time.Minute)

	require.NoError(t, c.SaveProfile(ctx, "u1", profileWithIncome("9")))
	assert.Equal(t, "9", cache.entries["u1"].Income.String())

	cache.setErr = errors.New("redis down")
	require.NoError(t, c.SaveProfile(ctx, "u1", profileWithIncome("10")))
	assert.Equal(t, 1, cache.deletes)
	assert.NotContains(t, cache.entries, "u1")
}
