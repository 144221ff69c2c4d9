package agents

import (
	"context"
	"math/rand/v2"
	"time"
)

// Connection is a marker travelling from one agent to another. Progress
// runs from 0 to the network's MaxTicks, after which it is discarded.
type Connection struct {
	ID       uint64 `json:"id"`
	From     int    `json:"from"`
	To       int    `json:"to"`
	Progress int    `json:"progress"`
	Status   string `json:"status"`
}

// Frame is what the client draws on one tick.
type Frame struct {
	Tick        uint64       `json:"tick"`
	MaxTicks    int          `json:"max_ticks"`
	Connections []Connection `json:"connections"`
}

type Config struct {
	TickInterval   time.Duration
	SpawnEvery     int // ticks between new connections
	MaxTicks       int
	MaxConnections int
	Rand           *rand.Rand
}

func DefaultConfig() Config {
	return Config{
		TickInterval:   50 * time.Millisecond,
		SpawnEvery:     16,
		MaxTicks:       20,
		MaxConnections: 6,
	}
}

// Network owns its connections and tick counter. It is not safe for
// concurrent use; Run drives it from a single goroutine.
type Network struct {
	cfg    Config
	rng    *rand.Rand
	tick   uint64
	nextID uint64
	conns  []Connection
}

func NewNetwork(cfg Config) *Network {
	def := DefaultConfig()
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = def.TickInterval
	}
	if cfg.SpawnEvery <= 0 {
		cfg.SpawnEvery = def.SpawnEvery
	}
	if cfg.MaxTicks <= 0 {
		cfg.MaxTicks = def.MaxTicks
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = def.MaxConnections
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Network{cfg: cfg, rng: rng}
}

// Step advances the animation by one tick: existing markers move one step,
// finished ones are dropped, and every SpawnEvery ticks a new marker starts
// between two distinct random agents.
func (n *Network) Step() Frame {
	n.tick++

	live := n.conns[:0]
	for _, c := range n.conns {
		c.Progress++
		if c.Progress < n.cfg.MaxTicks {
			live = append(live, c)
		}
	}
	n.conns = live

	if (n.tick-1)%uint64(n.cfg.SpawnEvery) == 0 && len(n.conns) < n.cfg.MaxConnections {
		n.spawn()
	}

	frame := Frame{
		Tick:        n.tick,
		MaxTicks:    n.cfg.MaxTicks,
		Connections: make([]Connection, len(n.conns)),
	}
	copy(frame.Connections, n.conns)
	return frame
}

func (n *Network) spawn() {
	count := len(Catalog)
	from := n.rng.IntN(count)
	to := n.rng.IntN(count - 1)
	if to >= from {
		to++
	}
	n.nextID++
	n.conns = append(n.conns, Connection{
		ID:     n.nextID,
		From:   Catalog[from].ID,
		To:     Catalog[to].ID,
		Status: Statuses[n.rng.IntN(len(Statuses))],
	})
}

// Run ticks the network until ctx is done and delivers each frame on the
// returned channel, which is closed on exit. A reader that falls behind
// blocks the ticker rather than skipping frames.
func (n *Network) Run(ctx context.Context) <-chan Frame {
	frames := make(chan Frame)
	go func() {
		defer close(frames)
		ticker := time.NewTicker(n.cfg.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			select {
			case frames <- n.Step():
			case <-ctx.Done():
				return
			}
		}
	}()
	return frames
}
