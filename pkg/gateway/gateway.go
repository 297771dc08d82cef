// Package gateway is the websocket edge of the chat service: it
// authenticates connections, registers sessions, routes inbound events to
// the chat service and fans outbound events back to subscribers.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/kyberchat/kyberchat/internal/logger"
	"github.com/kyberchat/kyberchat/internal/telemetry"
	"github.com/kyberchat/kyberchat/pkg/auth"
	"github.com/kyberchat/kyberchat/pkg/chat"
	"github.com/kyberchat/kyberchat/pkg/models"
	"github.com/kyberchat/kyberchat/pkg/validation"
)

// defaultAuthTimeout bounds how long a fresh connection may take to present
// its token frame.
const defaultAuthTimeout = 10 * time.Second

// Config carries the gateway's transport settings.
type Config struct {
	// AllowedOrigins for the browser Origin check; "*" allows all.
	AllowedOrigins []string
	// AuthTimeout overrides the handshake deadline. Zero means default.
	AuthTimeout time.Duration
}

// Gateway upgrades HTTP requests to websocket sessions and runs them.
type Gateway struct {
	svc         *chat.Service
	hub         *Hub
	tokens      *auth.JWTService
	validate    *validator.Validate
	upgrader    websocket.Upgrader
	authTimeout time.Duration
}

// New creates a gateway serving the given chat service through the hub.
func New(svc *chat.Service, hub *Hub, tokens *auth.JWTService, cfg Config) *Gateway {
	timeout := cfg.AuthTimeout
	if timeout <= 0 {
		timeout = defaultAuthTimeout
	}
	return &Gateway{
		svc:      svc,
		hub:      hub,
		tokens:   tokens,
		validate: validation.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(cfg.AllowedOrigins),
		},
		authTimeout: timeout,
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[strings.TrimSuffix(o, "/")] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// Non-browser clients send no Origin; token auth still gates
			// them.
			return true
		}
		return set[strings.TrimSuffix(origin, "/")]
	}
}

// ServeHTTP is the websocket endpoint. The session lives for the duration
// of this call.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		logger.Warn("websocket upgrade failed",
			logger.ClientIP(r.RemoteAddr),
			logger.Err(err))
		return
	}

	sess, res, err := g.handshake(conn)
	if err != nil {
		// No explanatory event on auth failure; just a close code.
		logger.Info("websocket handshake rejected",
			logger.ClientIP(r.RemoteAddr),
			logger.Err(err))
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, ""),
			time.Now().Add(time.Second))
		conn.Close()
		return
	}

	g.run(sess, res, r.RemoteAddr)
}

// handshake reads and verifies the auth frame, then assembles the session
// bootstrap. The connection carries no identity until this succeeds.
func (g *Gateway) handshake(conn *websocket.Conn) (*Session, *chat.ConnectResult, error) {
	conn.SetReadLimit(maxFrameSize)
	conn.SetReadDeadline(time.Now().Add(g.authTimeout))

	_, raw, err := conn.ReadMessage()
	if err != nil {
		return nil, nil, fmt.Errorf("reading auth frame: %w", err)
	}

	var frame authFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, nil, fmt.Errorf("malformed auth frame: %w", err)
	}
	if err := g.validate.Struct(&frame); err != nil {
		return nil, nil, errors.New("auth frame missing token")
	}

	token := strings.TrimSpace(strings.TrimPrefix(frame.Token, "Bearer"))
	claims, err := g.tokens.ValidateAccessToken(token)
	if err != nil {
		return nil, nil, err
	}

	res, err := g.svc.Connect(context.Background(), claims.UserID)
	if err != nil {
		return nil, nil, err
	}
	if !res.Payload.User.IsActive {
		return nil, nil, models.ErrUserDisabled
	}

	return newSession(uuid.New().String(), claims.UserID, claims.Username, conn), res, nil
}

// run attaches the session, replays its state and pumps events until the
// connection drops.
func (g *Gateway) run(sess *Session, res *chat.ConnectResult, clientIP string) {
	g.hub.Attach(sess)
	for _, roomID := range res.RoomIDs {
		g.hub.Subscribe(sess.ID, roomID)
	}

	go sess.writePump()

	g.hub.ToSession(sess.ID, chat.EventConnected, res.Payload)
	for _, roomID := range res.PendingRooms {
		g.hub.ToSession(sess.ID, chat.EventRotationRequired, chat.RotationRequiredPayload{
			RoomID: roomID,
			Reason: chat.RotationReasonPending,
		})
	}

	logger.Info("session connected",
		logger.SessionID(sess.ID),
		logger.UserID(sess.UserID),
		logger.Username(sess.Username),
		logger.ClientIP(clientIP),
		logger.Count(len(res.RoomIDs)))

	g.readLoop(sess, clientIP)

	g.hub.Detach(sess)
	sess.close()

	logger.Info("session disconnected",
		logger.SessionID(sess.ID),
		logger.UserID(sess.UserID))
}

// readLoop handles inbound frames to completion, one at a time, on this
// goroutine. A mutation that started stays uncancelled if the peer drops
// mid-operation.
func (g *Gateway) readLoop(sess *Session, clientIP string) {
	sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	sess.conn.SetPongHandler(func(string) error {
		sess.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	base := logger.NewLogContext(clientIP).
		WithSession(sess.ID).
		WithUser(sess.UserID, sess.Username)

	for {
		_, raw, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("websocket read ended",
					logger.SessionID(sess.ID),
					logger.Err(err))
			}
			return
		}
		g.dispatch(sess, base, raw)
	}
}

func (g *Gateway) dispatch(sess *Session, base *logger.LogContext, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		g.sendError(sess, "invalid message format")
		return
	}

	// Clamp unrecognized names so clients can't mint metric labels or
	// span names.
	event := env.Event
	if !knownActions[event] {
		event = "unknown"
	}
	if g.hub.metrics != nil {
		g.hub.metrics.RecordEventReceived(event)
	}

	ctx, span := telemetry.StartGatewaySpan(context.Background(), event,
		telemetry.EventType(env.Event),
		telemetry.UserID(sess.UserID),
		telemetry.Username(sess.Username))
	defer span.End()

	lc := base.WithEvent(env.Event)
	if traceID := telemetry.TraceID(ctx); traceID != "" {
		lc = lc.WithTrace(traceID, telemetry.SpanID(ctx))
	}
	ctx = logger.WithContext(ctx, lc)
	caller := chat.Caller{SessionID: sess.ID, UserID: sess.UserID, Username: sess.Username}

	switch env.Event {
	case ActionCreateRoom:
		g.handleCreateRoom(ctx, sess, caller, env.Data)
	case ActionInvite:
		g.handleInvite(ctx, sess, caller, env.Data)
	case ActionJoin:
		g.handleJoin(ctx, sess, caller, env.Data)
	case ActionLeave:
		g.handleLeave(ctx, sess, caller, env.Data)
	case ActionRotateKey:
		g.handleRotateKey(ctx, sess, caller, env.Data)
	case ActionSendMessage:
		g.handleSendMessage(ctx, sess, caller, env.Data)
	case ActionGetMessages:
		g.handleGetMessages(ctx, sess, caller, env.Data)
	default:
		g.sendError(sess, "unknown event: "+env.Event)
	}
}
