package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for chat operations.
// These follow OpenTelemetry semantic conventions where applicable.
// Domain-specific keys use "chat." or "blob." prefixes.
const (
	// ========================================================================
	// Client attributes
	// ========================================================================
	AttrClientIP   = "client.ip"
	AttrClientAddr = "client.address"

	// ========================================================================
	// User/Auth attributes
	// ========================================================================
	AttrUserID   = "user.id"
	AttrUsername = "user.name"

	// ========================================================================
	// Room attributes
	// ========================================================================
	AttrRoomID     = "chat.room_id"
	AttrRoomName   = "chat.room_name"
	AttrKeyVersion = "chat.key_version"

	// ========================================================================
	// Event/Message attributes
	// ========================================================================
	AttrEventType    = "chat.event_type"
	AttrMessageCount = "chat.message_count"

	// ========================================================================
	// Blob/attachment attributes
	// ========================================================================
	AttrBlobName = "blob.name"
	AttrBlobSize = "blob.size"

	// ========================================================================
	// Storage backend attributes
	// ========================================================================
	AttrStoreType = "store.type"
	AttrBucket    = "storage.bucket"
	AttrKey       = "storage.key"
	AttrRegion    = "storage.region"
)

// Span names for operations.
// Format: <component>.<operation>
const (
	// Websocket gateway spans, one per inbound event. The dispatch loop
	// builds these from the event name at runtime.
	SpanGatewayCreateRoom  = "gateway.create_room"
	SpanGatewayInvite      = "gateway.invite"
	SpanGatewayJoin        = "gateway.join"
	SpanGatewayLeave       = "gateway.leave"
	SpanGatewayRotateKey   = "gateway.rotate_key"
	SpanGatewaySendMessage = "gateway.send_message"
	SpanGatewayGetMessages = "gateway.get_messages"

	// Blob store spans
	SpanBlobPut    = "blob.put"
	SpanBlobGet    = "blob.get"
	SpanBlobDelete = "blob.delete"
)

// ClientIP returns an attribute for client IP address
func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

// ClientAddr returns an attribute for full client address
func ClientAddr(addr string) attribute.KeyValue {
	return attribute.String(AttrClientAddr, addr)
}

// UserID returns an attribute for the numeric user ID
func UserID(id uint) attribute.KeyValue {
	return attribute.Int64(AttrUserID, int64(id))
}

// Username returns an attribute for username
func Username(name string) attribute.KeyValue {
	return attribute.String(AttrUsername, name)
}

// RoomID returns an attribute for room identifier
func RoomID(id uint) attribute.KeyValue {
	return attribute.Int64(AttrRoomID, int64(id))
}

// RoomName returns an attribute for room display name
func RoomName(name string) attribute.KeyValue {
	return attribute.String(AttrRoomName, name)
}

// KeyVersion returns an attribute for the room's ledger version
func KeyVersion(version int) attribute.KeyValue {
	return attribute.Int(AttrKeyVersion, version)
}

// EventType returns an attribute for gateway event type
func EventType(t string) attribute.KeyValue {
	return attribute.String(AttrEventType, t)
}

// MessageCount returns an attribute for a message batch size
func MessageCount(n int) attribute.KeyValue {
	return attribute.Int(AttrMessageCount, n)
}

// BlobName returns an attribute for stored blob name
func BlobName(name string) attribute.KeyValue {
	return attribute.String(AttrBlobName, name)
}

// BlobSize returns an attribute for blob size in bytes
func BlobSize(size int) attribute.KeyValue {
	return attribute.Int64(AttrBlobSize, int64(size))
}

// StoreType returns an attribute for store type
func StoreType(t string) attribute.KeyValue {
	return attribute.String(AttrStoreType, t)
}

// Bucket returns an attribute for S3 bucket name
func Bucket(name string) attribute.KeyValue {
	return attribute.String(AttrBucket, name)
}

// StorageKey returns an attribute for S3 object key
func StorageKey(key string) attribute.KeyValue {
	return attribute.String(AttrKey, key)
}

// Region returns an attribute for cloud region
func Region(region string) attribute.KeyValue {
	return attribute.String(AttrRegion, region)
}

// StartBlobSpan starts a span for a blob store operation.
// This is a convenience function that sets common attributes.
func StartBlobSpan(ctx context.Context, operation, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		BlobName(name),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, "blob."+operation, trace.WithAttributes(allAttrs...))
}

// StartGatewaySpan starts a span for a websocket gateway operation.
func StartGatewaySpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, "gateway."+operation, trace.WithAttributes(attrs...))
}

// StartRoomSpan starts a span for a room lifecycle operation.
func StartRoomSpan(ctx context.Context, operation string, roomID uint, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		RoomID(roomID),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, "room."+operation, trace.WithAttributes(allAttrs...))
}
