// Package session holds the per-user view the rest of the API reads from:
// who is signed in, their profile, and whether one exists. Snapshots are
// immutable; every change produces a new one with the next version.
// Change notifications travel as profile events to the user's streams.
package session

import (
	"sync"

	"finora/api/models"
)

// Snapshot is a point-in-time view of one user's session. Profile is nil
// until loaded; HasProfile tells a loaded empty profile apart from none.
type Snapshot struct {
	User       models.User
	Profile    *models.Profile
	HasProfile bool
	Version    uint64
}

// WithProfile returns a copy of s carrying p.
func (s Snapshot) WithProfile(p models.Profile) Snapshot {
	clone := p.Clone()
	s.Profile = &clone
	s.HasProfile = true
	return s
}

// WithoutProfile returns a copy of s recording that the user has no
// profile stored.
func (s Snapshot) WithoutProfile() Snapshot {
	s.Profile = nil
	s.HasProfile = false
	return s
}

// record keeps the version and generation across Clear so versions only
// grow for the life of the process.
type record struct {
	snap Snapshot
	live bool
	gen  uint64
}

type Store struct {
	mu    sync.Mutex
	users map[string]*record
}

func NewStore() *Store {
	return &Store{users: make(map[string]*record)}
}

func (s *Store) record(userID string) *record {
	r, ok := s.users[userID]
	if !ok {
		r = &record{snap: Snapshot{User: models.User{UserID: userID}}}
		s.users[userID] = r
	}
	return r
}

// Get returns the current snapshot and whether the user has one.
func (s *Store) Get(userID string) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.users[userID]
	if !ok || !r.live {
		return Snapshot{}, false
	}
	return r.snap, true
}

// Generation changes every time the user's snapshot is cleared. Read it
// before loading from the profile store and pass it to Fill.
func (s *Store) Generation(userID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.users[userID]; ok {
		return r.gen
	}
	return 0
}

// Fill is Update for a snapshot built from a store read. It stores nothing
// and reports false when the user was cleared after gen was taken, since
// the read may predate the change that caused the clear.
func (s *Store) Fill(userID string, gen uint64, fn func(Snapshot) Snapshot) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.record(userID)
	if r.gen != gen {
		return Snapshot{}, false
	}
	return r.update(userID, fn), true
}

// Update applies fn to the current snapshot and stores the result with the
// next version. fn must not call back into s.
func (s *Store) Update(userID string, fn func(Snapshot) Snapshot) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record(userID).update(userID, fn)
}

func (r *record) update(userID string, fn func(Snapshot) Snapshot) Snapshot {
	next := fn(r.snap)
	next.User.UserID = userID
	next.Version = r.snap.Version + 1
	r.snap = next
	r.live = true
	return next
}

// Clear forgets the user's snapshot. The next read goes back to the
// profile store; versions carry on from where they were.
func (s *Store) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.users[userID]
	if !ok {
		return
	}
	r.snap = Snapshot{User: models.User{UserID: userID}, Version: r.snap.Version}
	r.live = false
	r.gen++
}
