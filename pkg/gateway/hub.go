package gateway

import (
	"sync"

	"github.com/kyberchat/kyberchat/internal/logger"
	"github.com/kyberchat/kyberchat/pkg/chat"
	"github.com/kyberchat/kyberchat/pkg/metrics"
)

// Hub is the event dispatcher: a room → sessions index over the registry.
// It implements chat.Notifier, so the chat service fans out through it
// without knowing about websockets.
//
// Fan-out never sends while holding an index lock: targets are snapshotted
// under RLock, then frames are enqueued lock-free. A slow session drops
// itself in enqueue rather than stalling the loop.
type Hub struct {
	registry *Registry
	metrics  metrics.GatewayMetrics

	mu    sync.RWMutex
	rooms map[uint]map[string]*Session
}

func NewHub() *Hub {
	return &Hub{
		registry: NewRegistry(),
		rooms:    make(map[uint]map[string]*Session),
	}
}

// Registry exposes the session registry for the gateway's handshake and
// teardown paths.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// SetMetrics installs gateway metrics. Call before serving; a nil value
// disables collection.
func (h *Hub) SetMetrics(m metrics.GatewayMetrics) {
	h.metrics = m
}

// Attach registers a freshly authenticated session.
func (h *Hub) Attach(s *Session) {
	s.metrics = h.metrics
	h.registry.Add(s)

	if h.metrics != nil {
		h.metrics.RecordSessionConnected()
	}
}

// Detach removes a session from the registry and from every room feed.
// Called from the read loop's exit path, exactly once per session.
func (h *Hub) Detach(s *Session) {
	h.registry.Remove(s)

	if h.metrics != nil {
		h.metrics.RecordSessionDisconnected()
	}

	h.mu.Lock()
	for roomID, members := range h.rooms {
		if _, ok := members[s.ID]; ok {
			delete(members, s.ID)
			if len(members) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	h.mu.Unlock()
}

// Subscribe adds one session to a room feed.
func (h *Hub) Subscribe(sessionID string, roomID uint) {
	s, ok := h.registry.Get(sessionID)
	if !ok {
		return
	}

	h.mu.Lock()
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[string]*Session)
	}
	h.rooms[roomID][s.ID] = s
	h.mu.Unlock()
}

// Unsubscribe removes one session from a room feed.
func (h *Hub) Unsubscribe(sessionID string, roomID uint) {
	h.mu.Lock()
	if members := h.rooms[roomID]; members != nil {
		delete(members, sessionID)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
	h.mu.Unlock()
}

// SubscribeUser adds all of a user's live sessions to a room feed.
func (h *Hub) SubscribeUser(userID, roomID uint) {
	sessions := h.registry.SessionsOf(userID)
	if len(sessions) == 0 {
		return
	}

	h.mu.Lock()
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[string]*Session)
	}
	for _, s := range sessions {
		h.rooms[roomID][s.ID] = s
	}
	h.mu.Unlock()
}

// UnsubscribeUser removes all of a user's sessions from a room feed.
func (h *Hub) UnsubscribeUser(userID, roomID uint) {
	h.mu.Lock()
	if members := h.rooms[roomID]; members != nil {
		for id, s := range members {
			if s.UserID == userID {
				delete(members, id)
			}
		}
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
	h.mu.Unlock()
}

// Broadcast sends an event to every session subscribed to the room and
// returns how many accepted it.
func (h *Hub) Broadcast(roomID uint, event string, payload any) int {
	return h.broadcast(roomID, "", event, payload)
}

// BroadcastExcept is Broadcast minus one session.
func (h *Hub) BroadcastExcept(roomID uint, exceptSession string, event string, payload any) int {
	return h.broadcast(roomID, exceptSession, event, payload)
}

func (h *Hub) broadcast(roomID uint, exceptSession string, event string, payload any) int {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		logger.Error("failed to encode event",
			logger.Event(event),
			logger.RoomID(roomID),
			logger.Err(err))
		return 0
	}

	h.mu.RLock()
	targets := make([]*Session, 0, len(h.rooms[roomID]))
	for id, s := range h.rooms[roomID] {
		if id == exceptSession {
			continue
		}
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	n := 0
	for _, s := range targets {
		if s.enqueue(frame) {
			n++
			if h.metrics != nil {
				h.metrics.RecordEventSent(event)
			}
		}
	}
	return n
}

// ToUser sends an event to every live session of one user, subscribed or
// not. Used for targeted deliveries like key_rotated and invited_to_room.
func (h *Hub) ToUser(userID uint, event string, payload any) int {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		logger.Error("failed to encode event",
			logger.Event(event),
			logger.UserID(userID),
			logger.Err(err))
		return 0
	}

	n := 0
	for _, s := range h.registry.SessionsOf(userID) {
		if s.enqueue(frame) {
			n++
			if h.metrics != nil {
				h.metrics.RecordEventSent(event)
			}
		}
	}
	return n
}

// ToSession sends an event to a single session.
func (h *Hub) ToSession(sessionID string, event string, payload any) bool {
	s, ok := h.registry.Get(sessionID)
	if !ok {
		return false
	}

	frame, err := encodeFrame(event, payload)
	if err != nil {
		logger.Error("failed to encode event",
			logger.Event(event),
			logger.SessionID(sessionID),
			logger.Err(err))
		return false
	}

	ok = s.enqueue(frame)
	if ok && h.metrics != nil {
		h.metrics.RecordEventSent(event)
	}
	return ok
}

// FirstOnline returns the first of the given users with a live session.
func (h *Hub) FirstOnline(userIDs []uint) (uint, bool) {
	return h.registry.FirstOnline(userIDs)
}

// IsOnline reports whether the user has a live session.
func (h *Hub) IsOnline(userID uint) bool {
	return h.registry.IsOnline(userID)
}

var _ chat.Notifier = (*Hub)(nil)
