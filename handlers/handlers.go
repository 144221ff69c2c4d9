package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"finora/api/agents"
	"finora/api/auth"
	"finora/api/form"
	"finora/api/models"
	"finora/api/session"
	"finora/api/sse"
	"finora/api/store"

	"github.com/gorilla/websocket"
)

// Publisher announces saved profiles to the user's other connections.
type Publisher interface {
	PublishProfileEvent(ctx context.Context, event models.ProfileEvent) error
}

// UserRecorder keeps the account table in step with the identity provider.
// GetUserByID returns nil, nil for an unknown user.
type UserRecorder interface {
	UpsertUser(ctx context.Context, user models.User) error
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
}

type Options struct {
	Profiles      store.ProfileStore
	Sessions      *session.Store
	Identity      auth.Provider
	Users         UserRecorder // optional
	Events        Publisher    // optional
	Hub           *sse.Hub
	Agents        agents.Config
	AllowedOrigin string
}

// Handler serves the HTTP API. All state lives in the collaborators it is
// built with.
type Handler struct {
	profiles store.ProfileStore
	sessions *session.Store
	identity auth.Provider
	users    UserRecorder
	events   Publisher
	hub      *sse.Hub
	agents   agents.Config
	upgrader websocket.Upgrader

	readWait   time.Duration
	pingPeriod time.Duration

	mu      sync.Mutex
	editors map[string]*form.Editor
}

func New(opts Options) *Handler {
	h := &Handler{
		profiles:   opts.Profiles,
		sessions:   opts.Sessions,
		identity:   opts.Identity,
		users:      opts.Users,
		events:     opts.Events,
		hub:        opts.Hub,
		agents:     opts.Agents,
		readWait:   readWait,
		pingPeriod: pingPeriod,
		editors:    make(map[string]*form.Editor),
	}
	if h.users == nil {
		h.users = noopUsers{}
	}
	if h.events == nil {
		h.events = noopEvents{}
	}
	if h.sessions == nil {
		h.sessions = session.NewStore()
	}
	if h.hub == nil {
		h.hub = sse.NewHub()
	}

	origin := opts.AllowedOrigin
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			o := r.Header.Get("Origin")
			return o == "" || origin == "" || o == origin
		},
	}
	return h
}

// editor returns the user's profile editor. Sharing one editor per user is
// what limits each user to a single save in flight.
func (h *Handler) editor(userID string) *form.Editor {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.editors[userID]
	if !ok {
		e = form.New(h.saver(userID))
		h.editors[userID] = e
	}
	return e
}

// draftEditor is editor for the step-by-step routes: a user without one
// gets an editor prefilled from their stored profile.
func (h *Handler) draftEditor(ctx context.Context, claims *models.SupabaseClaims) (*form.Editor, error) {
	userID := claims.UserID()
	h.mu.Lock()
	e, ok := h.editors[userID]
	h.mu.Unlock()
	if ok {
		return e, nil
	}

	snap, err := h.loadSnapshot(ctx, claims)
	if err != nil {
		return nil, err
	}
	if snap.HasProfile {
		e = form.Edit(h.saver(userID), *snap.Profile)
	} else {
		e = form.New(h.saver(userID))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.editors[userID]; ok {
		return cur, nil
	}
	h.editors[userID] = e
	return e, nil
}

func (h *Handler) saver(userID string) form.Saver {
	return form.SaverFunc(func(ctx context.Context, p models.Profile) error {
		return h.profiles.SaveProfile(ctx, userID, p)
	})
}

// discard drops the user's editor unless a save is running through it.
func (h *Handler) discard(userID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.editors[userID]
	if ok && e.Saving() {
		return false
	}
	delete(h.editors, userID)
	return true
}

func (h *Handler) forget(userID string) {
	h.discard(userID)
	h.sessions.Clear(userID)
}

type noopUsers struct{}

func (noopUsers) UpsertUser(context.Context, models.User) error { return nil }

func (noopUsers) GetUserByID(context.Context, string) (*models.User, error) { return nil, nil }

type noopEvents struct{}

func (noopEvents) PublishProfileEvent(context.Context, models.ProfileEvent) error { return nil }
