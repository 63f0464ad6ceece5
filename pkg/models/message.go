package models

import "time"

// WebSocket message types
const (
	MessageTypeChange      = "change"
	MessageTypeSubscribe   = "subscribe"
	MessageTypeUnsubscribe = "unsubscribe"
	MessageTypeHeartbeat   = "heartbeat"
	MessageTypeError       = "error"
)

// ClientMessage is a message received from a WebSocket client
type ClientMessage struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// ServerMessage is a message sent to a WebSocket client
type ServerMessage struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// SubscriptionFilter limits which change notifications a client receives.
// An empty filter accepts everything.
type SubscriptionFilter struct {
	Matches []string `json:"matches,omitempty"`
}

// Allows reports whether a change notification passes the filter
func (f SubscriptionFilter) Allows(n ChangeNotification) bool {
	if len(f.Matches) == 0 {
		return true
	}
	// Tournament-wide notifications reach every subscriber.
	if n.MatchID == "" {
		return true
	}
	for _, id := range f.Matches {
		if id == n.MatchID {
			return true
		}
	}
	return false
}

// ErrorMessage is the payload of an error server message
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ConnectionStats reports per-client connection statistics
type ConnectionStats struct {
	ClientID         string    `json:"client_id"`
	ConnectedAt      time.Time `json:"connected_at"`
	MessagesSent     int64     `json:"messages_sent"`
	MessagesReceived int64     `json:"messages_received"`
	LastMessageAt    time.Time `json:"last_message_at"`
}
