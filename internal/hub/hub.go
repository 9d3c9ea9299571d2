// Package hub delivers named push events to every connected session of a
// principal. Delivery is best-effort and at-most-once: a failed write drops
// the session, and no acknowledgment is tracked. Because the push channel and
// the synchronous HTTP response travel independently, clients deduplicate by
// chat id.
package hub

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// writeWait bounds a single push write. A session that cannot take a frame
// within this window is treated as dead, so Emit never blocks a caller
// indefinitely on a stalled client.
var writeWait = 10 * time.Second

// Event is the envelope written to websocket clients.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// joinMessage is the first frame a client must send to start receiving
// events for a principal.
type joinMessage struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

type session struct {
	conn *websocket.Conn
	mu   sync.Mutex // serializes writes
}

func (s *session) write(e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(e)
}

// Hub tracks the delivery group of each principal. One principal may hold
// several concurrent sessions (multiple devices); an Emit reaches all of them.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger

	mu       sync.RWMutex
	sessions map[string]map[*session]struct{}
}

// New creates an empty Hub.
func New(logger *zap.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:   logger,
		sessions: make(map[string]map[*session]struct{}),
	}
}

// ServeWS upgrades the connection and waits for the client's join frame
// before adding it to a delivery group. The connection stays registered until
// the read loop fails.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	var join joinMessage
	if err := conn.ReadJSON(&join); err != nil || join.Type != "join" || join.UserID == "" {
		h.logger.Warn("websocket closed before join")
		return
	}

	sess := &session{conn: conn}
	h.register(join.UserID, sess)
	defer h.unregister(join.UserID, sess)

	h.logger.Info("session joined", zap.String("user_id", join.UserID))

	// Drain the connection; incoming frames after join are ignored.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read failed", zap.String("user_id", join.UserID), zap.Error(err))
			}
			return
		}
	}
}

// Emit sends an event to every session of the given principal. Sessions whose
// write fails are dropped. A principal with no sessions is a no-op.
func (h *Hub) Emit(userID, event string, payload any) {
	h.mu.RLock()
	group := make([]*session, 0, len(h.sessions[userID]))
	for s := range h.sessions[userID] {
		group = append(group, s)
	}
	h.mu.RUnlock()

	e := Event{Event: event, Data: payload}
	for _, s := range group {
		if err := s.write(e); err != nil {
			h.logger.Warn("push delivery failed",
				zap.String("user_id", userID),
				zap.String("event", event),
				zap.Error(err))
			h.unregister(userID, s)
			s.conn.Close()
		}
	}
}

// SessionCount returns the number of live sessions for a principal.
func (h *Hub) SessionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[userID])
}

func (h *Hub) register(userID string, s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sessions[userID] == nil {
		h.sessions[userID] = make(map[*session]struct{})
	}
	h.sessions[userID][s] = struct{}{}
}

func (h *Hub) unregister(userID string, s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions[userID], s)
	if len(h.sessions[userID]) == 0 {
		delete(h.sessions, userID)
	}
}
