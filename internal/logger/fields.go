package logger

import (
	"log/slog"
)

// Shared attribute keys. Using the constants everywhere keeps emitted field
// names consistent, so logs stay queryable after aggregation.
const (
	// Tracing
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// Gateway protocol
	KeyEvent     = "event" // create_room, send_message, ...
	KeySessionID = "session_id"
	KeyReason    = "reason"
	KeyCode      = "code" // websocket close or protocol error code

	// Rooms, keys, and messages
	KeyRoomID      = "room_id"
	KeyRoomName    = "room_name"
	KeyVersion     = "key_version"
	KeyMessageID   = "message_id"
	KeyMessageType = "message_type" // "user" or "system"

	// Identity
	KeyClientIP = "client_ip"
	KeyUserID   = "user_id"
	KeyUsername = "username"

	// HTTP
	KeyMethod    = "method"
	KeyPath      = "path"
	KeyStatus    = "status"
	KeyRequestID = "request_id"
	KeyPort      = "port"

	// Storage
	KeyStoreType = "store_type" // sqlite, postgres, filesystem, s3
	KeyBucket    = "bucket"
	KeyKey       = "key"
	KeyFilename  = "filename"
	KeySize      = "size"

	// Operation metadata
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyCount      = "count"
	KeyAttempt    = "attempt"
)

// Typed constructors for the keys above. They exist so call sites cannot
// misspell a field name or pass the wrong kind of value.

// TraceID tags a record with the OpenTelemetry trace ID.
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID tags a record with the OpenTelemetry span ID.
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// Event names the gateway event being handled.
func Event(name string) slog.Attr {
	return slog.String(KeyEvent, name)
}

// SessionID identifies the websocket session.
func SessionID(id string) slog.Attr {
	return slog.String(KeySessionID, id)
}

// Reason describes why a state change or disconnect happened.
func Reason(r string) slog.Attr {
	return slog.String(KeyReason, r)
}

// Code carries a protocol or close code.
func Code(c string) slog.Attr {
	return slog.String(KeyCode, c)
}

// RoomID identifies a chat room.
func RoomID(id uint) slog.Attr {
	return slog.Uint64(KeyRoomID, uint64(id))
}

// RoomName carries a room's display name.
func RoomName(name string) slog.Attr {
	return slog.String(KeyRoomName, name)
}

// KeyVer carries a room key version.
func KeyVer(v int) slog.Attr {
	return slog.Int(KeyVersion, v)
}

// MessageID identifies a stored message.
func MessageID(id uint) slog.Attr {
	return slog.Uint64(KeyMessageID, uint64(id))
}

// MessageType distinguishes user messages from system notices.
func MessageType(t string) slog.Attr {
	return slog.String(KeyMessageType, t)
}

// ClientIP carries the remote client address.
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// UserID identifies the authenticated user.
func UserID(id uint) slog.Attr {
	return slog.Uint64(KeyUserID, uint64(id))
}

// Username carries the authenticated username.
func Username(name string) slog.Attr {
	return slog.String(KeyUsername, name)
}

// Method carries the HTTP method.
func Method(m string) slog.Attr {
	return slog.String(KeyMethod, m)
}

// Path carries the request path.
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Status carries the HTTP response status.
func Status(code int) slog.Attr {
	return slog.Int(KeyStatus, code)
}

// RequestID carries the request correlation ID.
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// Port carries a listen port.
func Port(p int) slog.Attr {
	return slog.Int(KeyPort, p)
}

// StoreType names a storage backend.
func StoreType(t string) slog.Attr {
	return slog.String(KeyStoreType, t)
}

// Bucket names a cloud storage bucket.
func Bucket(name string) slog.Attr {
	return slog.String(KeyBucket, name)
}

// Key carries an object key in blob storage.
func Key(k string) slog.Attr {
	return slog.String(KeyKey, k)
}

// Filename carries an uploaded file's name.
func Filename(name string) slog.Attr {
	return slog.String(KeyFilename, name)
}

// Size carries a payload size in bytes.
func Size(s int64) slog.Attr {
	return slog.Int64(KeySize, s)
}

// DurationMs carries an elapsed time in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err turns a non-nil error into an error attribute. A nil error yields the
// zero Attr, which slog drops.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Count carries a generic item count.
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

// Attempt carries a retry attempt number.
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}
