package models

import "time"

// Identity is one online participant as tracked by the registry.
type Identity struct {
	UserID   string    `json:"user_id"`
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joined_at"`
}
