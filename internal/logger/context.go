package logger

import (
	"context"
	"time"
)

// logContextKey is unexported so only this package can attach a LogContext.
type logContextKey struct{}

// LogContext is the request-scoped state the *Ctx logging functions fold
// into every record. The gateway builds one per connection and narrows it
// per event; see WithEvent.
type LogContext struct {
	TraceID   string // OpenTelemetry trace ID
	SpanID    string // OpenTelemetry span ID
	Event     string // gateway event name (create_room, send_message, ...)
	SessionID string
	RoomID    uint
	UserID    uint // zero until the session is bound to an account
	Username  string
	ClientIP  string    // remote address without the port
	StartTime time.Time // basis for DurationMs
}

// NewLogContext starts a LogContext for a connection from the given client,
// with the clock running.
func NewLogContext(clientIP string) *LogContext {
	return &LogContext{
		ClientIP:  clientIP,
		StartTime: time.Now(),
	}
}

// WithContext attaches lc to the context.
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey{}, lc)
}

// FromContext returns the attached LogContext, or nil. A nil ctx is allowed.
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey{}).(*LogContext)
	return lc
}

// Clone returns an independent copy. All fields are values, so a shallow
// copy is a full one. Cloning nil yields nil.
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	dup := *lc
	return &dup
}

// WithEvent copies lc with the event name set and the clock restarted, so
// DurationMs measures the single event rather than the whole connection.
func (lc *LogContext) WithEvent(event string) *LogContext {
	if lc == nil {
		return nil
	}
	dup := *lc
	dup.Event = event
	dup.StartTime = time.Now()
	return &dup
}

// WithSession copies lc with the session ID set.
func (lc *LogContext) WithSession(sessionID string) *LogContext {
	if lc == nil {
		return nil
	}
	dup := *lc
	dup.SessionID = sessionID
	return &dup
}

// WithRoom copies lc with the room ID set.
func (lc *LogContext) WithRoom(roomID uint) *LogContext {
	if lc == nil {
		return nil
	}
	dup := *lc
	dup.RoomID = roomID
	return &dup
}

// WithUser copies lc with the authenticated identity set.
func (lc *LogContext) WithUser(userID uint, username string) *LogContext {
	if lc == nil {
		return nil
	}
	dup := *lc
	dup.UserID = userID
	dup.Username = username
	return &dup
}

// WithTrace copies lc with the trace and span IDs set.
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	if lc == nil {
		return nil
	}
	dup := *lc
	dup.TraceID = traceID
	dup.SpanID = spanID
	return &dup
}

// DurationMs returns the time elapsed since StartTime in milliseconds,
// or 0 when the clock never started.
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return time.Since(lc.StartTime).Seconds() * 1000
}
