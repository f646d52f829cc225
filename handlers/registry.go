package handlers

import (
	"errors"
	"sort"
	"sync"
	"time"

	"chatrelay/models"
)

// ErrDuplicateID is returned when a join collides with an identity that is
// already online. Exactly one of any set of racing joins for the same id wins.
var ErrDuplicateID = errors.New("user id already taken")

type sessionEntry struct {
	identity models.Identity
	conn     *Connection
}

// Registry is the authoritative map from user id to live connection. It is
// the only shared mutable state in the relay; every mutation and every view
// used to build a presence broadcast happens under its lock so that a
// snapshot never reflects a half-applied join or leave.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*sessionEntry
}

// View is a consistent point-in-time picture of the registry: the online
// identities together with the handles to deliver to, captured atomically.
type View struct {
	Users []models.Identity
	Conns []*Connection
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*sessionEntry)}
}

// Register inserts a session entry iff the user id is free and returns the
// post-join view. On a collision nothing changes and ErrDuplicateID is returned.
func (r *Registry) Register(userID, username string, conn *Connection) (View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[userID]; exists {
		return View{}, ErrDuplicateID
	}

	r.entries[userID] = &sessionEntry{
		identity: models.Identity{UserID: userID, Username: username, JoinedAt: time.Now().UTC()},
		conn:     conn,
	}
	return r.viewLocked(), nil
}

// Unregister removes the entry if present and reports whether it did. It is
// idempotent so that racing read- and write-side teardowns stay harmless.
func (r *Registry) Unregister(userID string) (View, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[userID]; !exists {
		return r.viewLocked(), false
	}
	delete(r.entries, userID)
	return r.viewLocked(), true
}

// Lookup resolves a private-message target.
func (r *Registry) Lookup(userID string) (*Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[userID]
	if !ok {
		return nil, false
	}
	return entry.conn, true
}

// Snapshot returns the online identities ordered by join time.
func (r *Registry) Snapshot() []models.Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.viewLocked().Users
}

// Connections returns the current delivery set.
func (r *Registry) Connections() []*Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.viewLocked().Conns
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) viewLocked() View {
	view := View{
		Users: make([]models.Identity, 0, len(r.entries)),
		Conns: make([]*Connection, 0, len(r.entries)),
	}
	for _, entry := range r.entries {
		view.Users = append(view.Users, entry.identity)
		view.Conns = append(view.Conns, entry.conn)
	}
	sort.Slice(view.Users, func(i, j int) bool {
		if view.Users[i].JoinedAt.Equal(view.Users[j].JoinedAt) {
			return view.Users[i].UserID < view.Users[j].UserID
		}
		return view.Users[i].JoinedAt.Before(view.Users[j].JoinedAt)
	})
	return view
}
