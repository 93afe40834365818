package devserver

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// Time allowed to write a frame to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512
	sendBuffer     = 64
)

// Event is one push frame: {"type": "...", "data": {...}}.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Hub fans push events out to every connected websocket peer.
type Hub struct {
	mu        sync.RWMutex
	peers     map[*peer]struct{}
	broadcast chan Event
	log       zerolog.Logger
}

// NewHub creates a hub. Call Run to start delivering events.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		peers:     make(map[*peer]struct{}),
		broadcast: make(chan Event, 256),
		log:       log,
	}
}

// Run delivers broadcast events until ctx is done, then disconnects
// every peer.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for p := range h.peers {
				h.dropLocked(p)
			}
			h.mu.Unlock()
			return

		case ev := <-h.broadcast:
			h.mu.Lock()
			for p := range h.peers {
				select {
				case p.send <- ev:
				default:
					h.log.Warn().Str("peer_id", p.id).Msg("peer too slow, disconnecting")
					h.dropLocked(p)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues ev for every peer. It never blocks.
func (h *Hub) Broadcast(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	select {
	case h.broadcast <- ev:
	default:
		h.log.Warn().Str("type", ev.Type).Msg("broadcast queue full, event dropped")
	}
}

// PeerCount returns the number of connected peers.
func (h *Hub) PeerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// Attach registers conn and starts its pumps.
func (h *Hub) Attach(conn *websocket.Conn) {
	p := &peer{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan Event, sendBuffer),
	}

	h.mu.Lock()
	h.peers[p] = struct{}{}
	n := len(h.peers)
	h.mu.Unlock()
	h.log.Info().Str("peer_id", p.id).Int("peers", n).Msg("websocket peer connected")

	go p.writePump()
	go p.readPump()
}

func (h *Hub) detach(p *peer) {
	h.mu.Lock()
	h.dropLocked(p)
	n := len(h.peers)
	h.mu.Unlock()
	h.log.Info().Str("peer_id", p.id).Int("peers", n).Msg("websocket peer disconnected")
}

// dropLocked removes p and closes its queue once. The caller holds mu.
func (h *Hub) dropLocked(p *peer) {
	if _, ok := h.peers[p]; !ok {
		return
	}
	delete(h.peers, p)
	close(p.send)
}

type peer struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan Event
}

// readPump discards inbound frames. It only exists to process control
// frames and notice the peer going away.
func (p *peer) readPump() {
	defer func() {
		p.hub.detach(p)
		_ = p.conn.Close()
	}()

	p.conn.SetReadLimit(maxMessageSize)
	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := p.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				p.hub.log.Debug().Err(err).Str("peer_id", p.id).Msg("websocket read")
			}
			return
		}
	}
}

func (p *peer) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = p.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-p.send:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = p.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				p.hub.log.Error().Err(err).Str("type", ev.Type).Msg("encoding push event")
				continue
			}
			if err := p.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
