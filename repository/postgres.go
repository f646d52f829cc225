package repository

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"chatrelay/models"
)

// Archive is the optional best-effort message store. The relay works fully
// in memory; when a DSN is configured, routed chat frames are also written
// here so the history endpoint can serve them.
type Archive struct {
	db *sql.DB
}

type ArchivedMessage struct {
	ID           int64  `json:"id"`
	Type         string `json:"type"`
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	TargetUserID string `json:"target_user_id,omitempty"`
	Body         string `json:"message"`
	Timestamp    string `json:"timestamp"`
}

func Connect(dsn string) (*Archive, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping archive: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS messages (
		id BIGSERIAL PRIMARY KEY,
		type TEXT NOT NULL,
		user_id TEXT NOT NULL,
		username TEXT NOT NULL,
		target_user_id TEXT NOT NULL DEFAULT '',
		body TEXT NOT NULL,
		sent_at TIMESTAMPTZ NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create messages table: %w", err)
	}

	return &Archive{db: db}, nil
}

func (a *Archive) SaveMessage(msg *models.Message) error {
	sentAt, err := time.Parse(time.RFC3339, msg.Timestamp)
	if err != nil {
		sentAt = time.Now().UTC()
	}

	_, err = a.db.Exec(
		"INSERT INTO messages (type, user_id, username, target_user_id, body, sent_at) VALUES ($1, $2, $3, $4, $5, $6)",
		msg.Type, msg.UserID, msg.Username, msg.TargetUserID, msg.Message, sentAt)
	return err
}

// RecentMessages returns the newest archived frames, newest first.
func (a *Archive) RecentMessages(limit int) ([]ArchivedMessage, error) {
	rows, err := a.db.Query(
		"SELECT id, type, user_id, username, target_user_id, body, sent_at FROM messages ORDER BY id DESC LIMIT $1",
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []ArchivedMessage
	for rows.Next() {
		var m ArchivedMessage
		var sentAt time.Time
		if err := rows.Scan(&m.ID, &m.Type, &m.UserID, &m.Username, &m.TargetUserID, &m.Body, &sentAt); err != nil {
			return nil, err
		}
		m.Timestamp = sentAt.UTC().Format(time.RFC3339)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}

func (a *Archive) Close() error {
	return a.db.Close()
}
