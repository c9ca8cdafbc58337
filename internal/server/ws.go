package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/airjuggler/internal/game"
)

// BroadcastInterval is the pause between state pushes (~30 FPS).
const BroadcastInterval = 33 * time.Millisecond

const writeTimeout = time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// StateMessage is one push to websocket clients. Events accumulates every
// tick event since the previous push.
type StateMessage struct {
	Snapshot  game.Snapshot `json:"snapshot"`
	Events    []string      `json:"events"`
	Timestamp int64         `json:"timestamp"`
}

type pending struct {
	snap   game.Snapshot
	events game.Event
}

// StateHub broadcasts session snapshots to websocket clients. Observe is
// called on the loop goroutine and never blocks on the network.
type StateHub struct {
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex

	pmu     sync.Mutex
	latest  *pending
	version atomic.Uint64

	stop     chan struct{}
	stopOnce sync.Once
}

// NewStateHub creates a hub and starts its broadcast goroutine.
func NewStateHub() *StateHub {
	h := &StateHub{
		clients: make(map[*websocket.Conn]bool),
		stop:    make(chan struct{}),
	}
	go h.broadcast()
	return h
}

// Observe records a tick. It matches game.Observer.
func (h *StateHub) Observe(snap game.Snapshot, ev game.Event) {
	h.pmu.Lock()
	if h.latest == nil {
		h.latest = &pending{}
	}
	h.latest.snap = snap
	h.latest.events |= ev
	h.pmu.Unlock()
	h.version.Add(1)
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *StateHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Clients returns the number of connected clients.
func (h *StateHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close stops broadcasting.
func (h *StateHub) Close() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// take returns the pending state and resets its events.
func (h *StateHub) take() (pending, bool) {
	h.pmu.Lock()
	defer h.pmu.Unlock()
	if h.latest == nil {
		return pending{}, false
	}
	p := *h.latest
	h.latest.events = 0
	return p, true
}

// broadcast sends the latest snapshot to all connected clients whenever it
// has changed.
func (h *StateHub) broadcast() {
	ticker := time.NewTicker(BroadcastInterval)
	defer ticker.Stop()

	var sent uint64
	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
		}

		if h.Clients() == 0 {
			continue
		}
		version := h.version.Load()
		if version == sent {
			continue
		}

		p, ok := h.take()
		if !ok {
			continue
		}
		sent = version

		msg, err := json.Marshal(StateMessage{
			Snapshot:  p.snap,
			Events:    p.events.Names(),
			Timestamp: time.Now().UnixMilli(),
		})
		if err != nil {
			log.Printf("Failed to encode state: %v", err)
			continue
		}

		h.mu.RLock()
		for conn := range h.clients {
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("websocket write error: %v", err)
			}
		}
		h.mu.RUnlock()
	}
}
