package handlers

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"chatrelay/models"
	"chatrelay/repository"
)

// MessageArchive persists routed chat frames and serves the history
// endpoint. Archiving is best effort: failures are logged and never
// surfaced to the sessions involved.
type MessageArchive interface {
	SaveMessage(msg *models.Message) error
	RecentMessages(limit int) ([]repository.ArchivedMessage, error)
}

// Relay routes decoded frames between sessions. It owns the registry and
// decides broadcast vs. targeted delivery; sessions never touch each
// other's connections directly.
type Relay struct {
	registry *Registry
	archive  MessageArchive
	log      *zap.Logger
}

func NewRelay(registry *Registry, archive MessageArchive, log *zap.Logger) *Relay {
	return &Relay{
		registry: registry,
		archive:  archive,
		log:      log.Named("relay"),
	}
}

func (r *Relay) Registry() *Registry {
	return r.registry
}

// Join registers the identity and, on success, announces it to everyone
// including the joiner so every client renders the same online list.
func (r *Relay) Join(userID, username string, conn *Connection) error {
	view, err := r.registry.Register(userID, username, conn)
	if err != nil {
		return err
	}

	announce := &models.Message{
		Type:        models.TypeUserJoined,
		UserID:      userID,
		Username:    username,
		OnlineUsers: userIDs(view.Users),
	}
	announce.Stamp(time.Now())
	r.fanOut(view.Conns, models.Encode(announce))

	r.log.Info("user joined",
		zap.String("user_id", userID),
		zap.String("username", username),
		zap.Int("online", len(view.Users)))
	return nil
}

// Leave removes the identity and tells the remaining clients. Safe to call
// more than once; only the call that actually removes the entry broadcasts.
func (r *Relay) Leave(userID string) {
	view, removed := r.registry.Unregister(userID)
	if !removed {
		return
	}

	announce := &models.Message{
		Type:        models.TypeUserLeft,
		UserID:      userID,
		OnlineUsers: userIDs(view.Users),
	}
	announce.Stamp(time.Now())
	r.fanOut(view.Conns, models.Encode(announce))

	r.log.Info("user left",
		zap.String("user_id", userID),
		zap.Int("online", len(view.Users)))
}

// Broadcast stamps and delivers a chat frame to every session, the sender
// included. The echo is deliberate: the sender's client renders the relay's
// authoritative timestamp, not its own.
func (r *Relay) Broadcast(msg *models.Message) {
	msg.Stamp(time.Now())
	r.fanOut(r.registry.Connections(), models.Encode(msg))
	r.archiveMessage(msg)
}

// Direct stamps and delivers a private frame to the target only. The sender
// gets no echo; clients rely on that to avoid duplicate local rendering.
// An offline target is reported back to the sender instead of dropped.
func (r *Relay) Direct(msg *models.Message, sender *Connection) {
	target, ok := r.registry.Lookup(msg.TargetUserID)
	if !ok {
		r.notifyError(sender, fmt.Sprintf("user '%s' is not online", msg.TargetUserID))
		return
	}

	msg.Stamp(time.Now())
	r.deliver(target, models.Encode(msg))
	r.archiveMessage(msg)
}

// fanOut attempts delivery to each handle independently. A recipient whose
// queue is gone or full is torn down on its own; the rest still get the frame.
func (r *Relay) fanOut(conns []*Connection, data []byte) {
	for _, conn := range conns {
		r.deliver(conn, data)
	}
}

func (r *Relay) deliver(conn *Connection, data []byte) {
	if err := conn.Enqueue(data); err != nil {
		r.log.Warn("dropping connection", zap.String("conn_id", conn.ID()), zap.Error(err))
		conn.ForceClose()
	}
}

func (r *Relay) notifyError(conn *Connection, reason string) {
	r.deliver(conn, models.Encode(&models.Message{Type: models.TypeError, Message: reason}))
}

func (r *Relay) archiveMessage(msg *models.Message) {
	if r.archive == nil {
		return
	}
	saved := *msg
	go func() {
		if err := r.archive.SaveMessage(&saved); err != nil {
			r.log.Warn("archive write failed", zap.Error(err))
		}
	}()
}

func userIDs(users []models.Identity) []string {
	ids := make([]string, len(users))
	for i, user := range users {
		ids[i] = user.UserID
	}
	return ids
}
