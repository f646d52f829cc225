package models

import (
	"encoding/json"
	"time"
)

// Wire frame types. join, chat, private_chat and ping come from clients;
// the rest are produced by the relay only.
const (
	TypeJoin        = "join"
	TypeJoinSuccess = "join_success"
	TypeChat        = "chat"
	TypePrivateChat = "private_chat"
	TypeUserJoined  = "user_joined"
	TypeUserLeft    = "user_left"
	TypeError       = "error"
	TypePing        = "ping"
	TypePong        = "pong"
)

// Message is the JSON envelope exchanged with clients. One flat struct
// covers every frame type; Decode enforces which fields each type requires.
type Message struct {
	Type         string   `json:"type"`
	UserID       string   `json:"user_id,omitempty"`
	Username     string   `json:"username,omitempty"`
	TargetUserID string   `json:"target_user_id,omitempty"`
	Message      string   `json:"message,omitempty"`
	Timestamp    string   `json:"timestamp,omitempty"`
	OnlineUsers  []string `json:"online_users,omitempty"`
}

// DecodeError reports a frame the relay refuses to route. It stays inside
// the session that produced it; decoding never panics across that boundary.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return e.Reason
}

// Decode parses and validates one inbound frame.
func Decode(raw []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, &DecodeError{Reason: "invalid JSON format"}
	}

	switch msg.Type {
	case TypeJoin:
		if msg.UserID == "" || msg.Username == "" {
			return nil, &DecodeError{Reason: "join requires user_id and username"}
		}
	case TypeChat:
		if msg.UserID == "" || msg.Username == "" || msg.Message == "" {
			return nil, &DecodeError{Reason: "chat requires user_id, username and message"}
		}
	case TypePrivateChat:
		if msg.UserID == "" || msg.Username == "" || msg.TargetUserID == "" || msg.Message == "" {
			return nil, &DecodeError{Reason: "private_chat requires user_id, username, target_user_id and message"}
		}
	case TypePing:
		// no payload
	case "":
		return nil, &DecodeError{Reason: "missing message type"}
	default:
		return nil, &DecodeError{Reason: "unknown message type: " + msg.Type}
	}
	return &msg, nil
}

// Encode serializes an internally built frame. The envelope is plain
// strings and slices, so marshalling cannot fail for relay-produced messages.
func Encode(msg *Message) []byte {
	data, _ := json.Marshal(msg)
	return data
}

// Stamp sets the relay-assigned timestamp. Client-supplied timestamps are
// never trusted; every routed chat frame carries this value instead.
func (m *Message) Stamp(now time.Time) {
	m.Timestamp = now.UTC().Format(time.RFC3339)
}
