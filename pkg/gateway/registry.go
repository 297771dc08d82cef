package gateway

import "sync"

// Registry tracks live sessions by id and by user. It answers the presence
// queries the chat layer needs (who is online, first online of a set) and
// nothing else; room subscriptions live in the Hub.
type Registry struct {
	mu     sync.RWMutex
	byID   map[string]*Session
	byUser map[uint]map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[string]*Session),
		byUser: make(map[uint]map[string]*Session),
	}
}

// Add registers a session.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID[s.ID] = s
	if r.byUser[s.UserID] == nil {
		r.byUser[s.UserID] = make(map[string]*Session)
	}
	r.byUser[s.UserID][s.ID] = s
}

// Remove forgets a session. Safe to call for a session that is already
// gone.
func (r *Registry) Remove(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byID, s.ID)
	if sessions := r.byUser[s.UserID]; sessions != nil {
		delete(sessions, s.ID)
		if len(sessions) == 0 {
			delete(r.byUser, s.UserID)
		}
	}
}

// Get returns a session by id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]
	return s, ok
}

// SessionsOf returns a snapshot of one user's live sessions.
func (r *Registry) SessionsOf(userID uint) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Session, 0, len(r.byUser[userID]))
	for _, s := range r.byUser[userID] {
		out = append(out, s)
	}
	return out
}

// IsOnline reports whether the user has at least one live session.
func (r *Registry) IsOnline(userID uint) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byUser[userID]) > 0
}

// FirstOnline returns the first user in the given order that has a live
// session.
func (r *Registry) FirstOnline(userIDs []uint) (uint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range userIDs {
		if len(r.byUser[id]) > 0 {
			return id, true
		}
	}
	return 0, false
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byID)
}
