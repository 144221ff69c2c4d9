package sse

import (
	"sync"

	"finora/api/logger"

	"go.uber.org/zap"
)

type ClientStream struct {
	Messages chan string
	Done     chan struct{}
}

// Hub tracks the open event streams of every user. A user may have several
// tabs open; each gets its own stream.
type Hub struct {
	mu      sync.RWMutex
	streams map[string]map[*ClientStream]struct{}
}

func NewHub() *Hub {
	return &Hub{streams: make(map[string]map[*ClientStream]struct{})}
}

// Register opens a stream for userID. The caller must Unregister it when
// the client goes away.
func (h *Hub) Register(userID string) *ClientStream {
	cs := &ClientStream{
		Messages: make(chan string, 100),
		Done:     make(chan struct{}),
	}
	h.mu.Lock()
	if h.streams[userID] == nil {
		h.streams[userID] = make(map[*ClientStream]struct{})
	}
	h.streams[userID][cs] = struct{}{}
	h.mu.Unlock()

	logger.Get().Debug("SSE stream registered", zap.String("user_id", userID))
	return cs
}

func (h *Hub) Unregister(userID string, cs *ClientStream) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.streams[userID]
	if !ok {
		return
	}
	if _, ok := set[cs]; !ok {
		return
	}
	delete(set, cs)
	if len(set) == 0 {
		delete(h.streams, userID)
	}
	close(cs.Done)
	logger.Get().Debug("SSE stream unregistered", zap.String("user_id", userID))
}

// Connected reports how many streams userID has open.
func (h *Hub) Connected(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.streams[userID])
}

// Send delivers msg to every stream of userID and returns how many took
// it. A full stream misses the message instead of blocking the sender.
func (h *Hub) Send(userID, msg string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	set, ok := h.streams[userID]
	if !ok {
		logger.Get().Debug("no client stream found", zap.String("user_id", userID))
		return 0
	}

	delivered := 0
	for cs := range set {
		select {
		case cs.Messages <- msg:
			delivered++
		default:
			logger.Get().Warn("client stream is full, message dropped",
				zap.String("user_id", userID))
		}
	}
	return delivered
}
