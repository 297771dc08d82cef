package gateway

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kyberchat/kyberchat/internal/logger"
	"github.com/kyberchat/kyberchat/pkg/metrics"
)

const (
	// writeWait bounds a single frame write.
	writeWait = 10 * time.Second

	// pongWait is how long a session may stay silent before the read side
	// gives up; pings go out at pingPeriod to keep healthy peers inside it.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// maxFrameSize caps inbound frames. Rotation payloads carry one wrap
	// per participant, so the cap is generous.
	maxFrameSize = 64 * 1024

	// sendQueueSize is the per-session outbound buffer. A session that
	// falls this far behind is dropped rather than allowed to stall
	// fan-out.
	sendQueueSize = 256
)

// Session is one authenticated websocket connection. A user may hold any
// number of concurrent sessions; each gets its own id, queue and pumps.
type Session struct {
	ID       string
	UserID   uint
	Username string

	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	metrics metrics.GatewayMetrics

	closeOnce sync.Once
}

func newSession(id string, userID uint, username string, conn *websocket.Conn) *Session {
	return &Session{
		ID:       id,
		UserID:   userID,
		Username: username,
		conn:     conn,
		send:     make(chan []byte, sendQueueSize),
		done:     make(chan struct{}),
	}
}

// enqueue hands a frame to the writer without blocking. A full queue tears
// the session down: the peer is too slow to be worth stalling a broadcast
// for, and it will reconverge on reconnect.
func (s *Session) enqueue(frame []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- frame:
		return true
	default:
		logger.Warn("dropping slow session",
			logger.SessionID(s.ID),
			logger.UserID(s.UserID))
		if s.metrics != nil {
			s.metrics.RecordSessionDropped()
		}
		s.close()
		return false
	}
}

// close makes teardown idempotent: it stops the writer and unblocks the
// reader, whose exit path detaches the session from the hub.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}

// writePump owns all writes to the connection: queued frames plus the
// keepalive pings that hold the peer inside the read deadline.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.close()
	}()

	for {
		select {
		case frame := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			// A short deadline detects a broken connection quickly; a
			// healthy one answers with a pong well before pongWait.
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-s.done:
			s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		}
	}
}
