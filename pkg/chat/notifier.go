package chat

// Notifier delivers events to connected sessions. The websocket gateway
// implements it; tests substitute a recording fake.
//
// Delivery methods return how many live sessions received the event (or
// whether the one targeted session did). They never block on slow clients
// and never return errors: a session that cannot keep up is the gateway's
// problem, not the caller's.
type Notifier interface {
	// Broadcast sends the event to every session subscribed to the room.
	Broadcast(roomID uint, event string, payload any) int

	// BroadcastExcept is Broadcast minus one session, used when the
	// originating session gets a different (or separately ordered) frame.
	BroadcastExcept(roomID uint, exceptSession string, event string, payload any) int

	// ToUser sends the event to every live session of one user.
	ToUser(userID uint, event string, payload any) int

	// ToSession sends the event to a single session. Returns false if the
	// session is gone.
	ToSession(sessionID string, event string, payload any) bool

	// Subscribe adds one session to a room feed.
	Subscribe(sessionID string, roomID uint)

	// SubscribeUser adds all of a user's live sessions to a room feed and
	// remembers the membership for sessions that connect later.
	SubscribeUser(userID, roomID uint)

	// UnsubscribeUser removes all of a user's sessions from a room feed.
	UnsubscribeUser(userID, roomID uint)

	// FirstOnline returns the first of the given users that has at least
	// one live session, in the order given.
	FirstOnline(userIDs []uint) (uint, bool)

	// IsOnline reports whether the user has at least one live session.
	IsOnline(userID uint) bool
}
