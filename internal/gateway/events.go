package gateway

import "encoding/json"

// Wire events. Inbound and outbound frames share one envelope shape:
// {"type": "...", "payload": {...}}.
const (
	EventJoinChat   = "join-chat"
	EventLeaveChat  = "leave-chat"
	EventSend       = "send-message"
	EventTyping     = "typing"
	EventStopTyping = "stop-typing"

	EventNewMessage     = "new-message"
	EventUserTyping     = "user-typing"
	EventUserStopTyping = "user-stop-typing"
	EventError          = "error"
)

type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type chatPayload struct {
	ChatID  string `json:"chat_id"`
	Content string `json:"content"`
}

func encodeEvent(eventType string, payload any) []byte {
	raw, _ := json.Marshal(payload)
	b, _ := json.Marshal(Envelope{Type: eventType, Payload: raw})
	return b
}

func errorEvent(message string) []byte {
	return encodeEvent(EventError, map[string]string{"message": message})
}

func presenceEvent(eventType, chatID, userID string) []byte {
	return encodeEvent(eventType, map[string]string{
		"chat_id": chatID,
		"user_id": userID,
	})
}
