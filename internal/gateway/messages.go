package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/mcdev12/timeshop/internal/models"
)

// MessageType discriminates the envelope on the realtime channel.
type MessageType string

const (
	// Server → client.
	MessageTypeTotalTime   MessageType = "totalTime"
	MessageTypeOnlineUsers MessageType = "onlineUsers"

	// Client → server.
	MessageTypePresenceUpdate MessageType = "presence:update"
)

// Message is the wire envelope for both directions.
type Message struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data"`
}

func encodeMessage(t MessageType, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	return json.Marshal(Message{Type: t, Data: payload})
}

// encodeTotalTime builds a totalTime frame.
func encodeTotalTime(total int) ([]byte, error) {
	return encodeMessage(MessageTypeTotalTime, total)
}

// encodeOnlineUsers builds an onlineUsers frame.
func encodeOnlineUsers(users []models.Presence) ([]byte, error) {
	return encodeMessage(MessageTypeOnlineUsers, users)
}

// EncodePresenceUpdate builds a presence:update frame. Exported for
// the headless client.
func EncodePresenceUpdate(p models.Presence) ([]byte, error) {
	return encodeMessage(MessageTypePresenceUpdate, p)
}
