package handlers

import (
	"time"

	"go.uber.org/zap"

	"chatrelay/models"
)

const (
	// joinWait is how long a fresh connection gets to complete the join
	// handshake before the relay reclaims the slot.
	joinWait = 30 * time.Second

	// idleWait is the rolling deadline between frames once joined.
	idleWait = 5 * time.Minute
)

type sessionState int

const (
	stateConnecting sessionState = iota
	stateJoined
	stateClosed
)

// session drives one connection through connecting → joined → closed.
// It is the only goroutine reading from its socket, so state transitions
// never race; teardown runs exactly once on the way out.
type session struct {
	relay *Relay
	conn  *Connection
	state sessionState

	userID   string
	username string
	log      *zap.Logger
}

func newSession(relay *Relay, conn *Connection, log *zap.Logger) *session {
	return &session{
		relay: relay,
		conn:  conn,
		state: stateConnecting,
		log:   log.With(zap.String("conn_id", conn.ID())),
	}
}

func (s *session) run() {
	defer s.teardown()

	s.conn.ws.SetReadDeadline(time.Now().Add(joinWait))

	for {
		// Any inbound frame, well-formed or not, counts as activity once
		// joined. The join window is never extended.
		if s.state == stateJoined {
			s.conn.ws.SetReadDeadline(time.Now().Add(idleWait))
		}

		_, raw, err := s.conn.ws.ReadMessage()
		if err != nil {
			s.log.Debug("read loop ended", zap.Error(err))
			return
		}

		msg, err := models.Decode(raw)
		if err != nil {
			// Malformed frames are dropped with a notice in every state;
			// only a decoded non-join frame is a protocol violation.
			s.notify(err.Error())
			continue
		}

		if !s.handle(msg) {
			return
		}
	}
}

// handle routes one decoded frame according to the session state. It
// returns false when the session must close.
func (s *session) handle(msg *models.Message) bool {
	switch s.state {
	case stateConnecting:
		if msg.Type != models.TypeJoin {
			s.reject("join first")
			return false
		}
		return s.join(msg)

	case stateJoined:
		switch msg.Type {
		case models.TypeChat:
			msg.Username = s.username
			msg.UserID = s.userID
			s.relay.Broadcast(msg)
		case models.TypePrivateChat:
			msg.Username = s.username
			msg.UserID = s.userID
			s.relay.Direct(msg, s.conn)
		case models.TypePing:
			s.send(&models.Message{Type: models.TypePong})
		case models.TypeJoin:
			s.notify("already joined")
		default:
			s.notify("unexpected message type: " + msg.Type)
		}
		return true
	}
	return false
}

func (s *session) join(msg *models.Message) bool {
	if err := s.relay.Join(msg.UserID, msg.Username, s.conn); err != nil {
		s.reject("user id '" + msg.UserID + "' is already taken")
		return false
	}

	s.state = stateJoined
	s.userID = msg.UserID
	s.username = msg.Username
	s.log = s.log.With(zap.String("user_id", s.userID))

	s.send(&models.Message{Type: models.TypeJoinSuccess, Message: "joined the chat room"})
	return true
}

// notify reports a recoverable problem; the session stays open.
func (s *session) notify(reason string) {
	s.send(&models.Message{Type: models.TypeError, Message: reason})
}

// reject reports a terminal problem. The write pump drains the queue
// before closing the socket, so the reply reaches the peer.
func (s *session) reject(reason string) {
	s.log.Info("rejecting connection", zap.String("reason", reason))
	s.notify(reason)
}

func (s *session) send(msg *models.Message) {
	s.relay.deliver(s.conn, models.Encode(msg))
}

// teardown releases everything tied to this connection. The registry
// unregister is idempotent and Close is once-only, so a concurrent write
// failure racing a read failure cannot double-release.
func (s *session) teardown() {
	s.state = stateClosed
	if s.userID != "" {
		s.relay.Leave(s.userID)
	}
	s.conn.Close()
}
