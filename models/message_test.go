package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJoin(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"join","user_id":"alice","username":"Alice"}`))
	require.NoError(t, err)
	assert.Equal(t, TypeJoin, msg.Type)
	assert.Equal(t, "alice", msg.UserID)
	assert.Equal(t, "Alice", msg.Username)
}

func TestDecodeChat(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"chat","user_id":"alice","username":"Alice","message":"hi all"}`))
	require.NoError(t, err)
	assert.Equal(t, TypeChat, msg.Type)
	assert.Equal(t, "hi all", msg.Message)
}

func TestDecodePrivateChat(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"private_chat","user_id":"alice","username":"Alice","target_user_id":"bob","message":"psst"}`))
	require.NoError(t, err)
	assert.Equal(t, TypePrivateChat, msg.Type)
	assert.Equal(t, "bob", msg.TargetUserID)
}

func TestDecodeRejectsBadFrames(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"invalid json", `{not json`},
		{"missing type", `{"user_id":"alice"}`},
		{"unknown type", `{"type":"shout","user_id":"alice"}`},
		{"join without username", `{"type":"join","user_id":"alice"}`},
		{"join without user_id", `{"type":"join","username":"Alice"}`},
		{"chat without message", `{"type":"chat","user_id":"alice","username":"Alice"}`},
		{"chat without username", `{"type":"chat","user_id":"alice","message":"hi"}`},
		{"private_chat without target", `{"type":"private_chat","user_id":"alice","username":"Alice","message":"psst"}`},
		{"private_chat without username", `{"type":"private_chat","user_id":"alice","target_user_id":"bob","message":"psst"}`},
		{"wrong scalar type", `{"type":"chat","user_id":7,"message":"hi"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := Decode([]byte(tc.raw))
			require.Error(t, err)
			assert.Nil(t, msg)

			var decodeErr *DecodeError
			require.ErrorAs(t, err, &decodeErr)
			assert.NotEmpty(t, decodeErr.Reason)
		})
	}
}

func TestDecodePing(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"ping"}`))
	require.NoError(t, err)
	assert.Equal(t, TypePing, msg.Type)
}

func TestEncodeOmitsEmptyFields(t *testing.T) {
	data := Encode(&Message{Type: TypePong})

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, map[string]interface{}{"type": "pong"}, decoded)
}

func TestStampIsRFC3339UTC(t *testing.T) {
	msg := &Message{Type: TypeChat, UserID: "alice", Message: "hi"}
	msg.Stamp(time.Date(2024, 5, 17, 12, 30, 45, 0, time.FixedZone("CST", 8*3600)))

	assert.Equal(t, "2024-05-17T04:30:45Z", msg.Timestamp)

	parsed, err := time.Parse(time.RFC3339, msg.Timestamp)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, parsed.Location())
}

func TestStampOverridesClientTimestamp(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"chat","user_id":"alice","username":"Alice","message":"hi","timestamp":"1999-01-01T00:00:00Z"}`))
	require.NoError(t, err)

	msg.Stamp(time.Date(2024, 5, 17, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-05-17T12:00:00Z", msg.Timestamp)
}
