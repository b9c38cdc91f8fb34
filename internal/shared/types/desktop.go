package types

import "time"

// SizeTier buckets app types into default window sizes.
type SizeTier string

const (
	TierSmall  SizeTier = "small"
	TierMedium SizeTier = "medium"
	TierLarge  SizeTier = "large"
)

// Window is one open application instance on the desktop.
type Window struct {
	ID        string   `json:"id"`
	AppID     string   `json:"app_id"`
	Title     string   `json:"title"`
	Position  Position `json:"position"`
	Size      Size     `json:"size"`
	MinSize   Size     `json:"min_size"`
	ZIndex    int      `json:"z_index"`
	Minimized bool     `json:"is_minimized"`
	Maximized bool     `json:"is_maximized"`

	// Saved at maximize time, restored on un-maximize.
	Previous *Bounds `json:"previous_state,omitempty"`
}

// Notification is a transient toast shown on the desktop.
type Notification struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Icon    string `json:"icon,omitempty"`
}

// ChatMessage is one delivered line in a chat channel.
type ChatMessage struct {
	ID        string    `json:"id"`
	Channel   string    `json:"channel"`
	From      string    `json:"from"`
	Body      string    `json:"body"`
	Delivered time.Time `json:"delivered_at"`
}

// Email is one inbox item.
type Email struct {
	ID       string    `json:"id"`
	From     string    `json:"from"`
	Subject  string    `json:"subject"`
	Body     string    `json:"body"`
	Received time.Time `json:"received_at"`
	Read     bool      `json:"read"`
}

// Event is a desktop state-change broadcast to connected clients.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Event types pushed over the WebSocket.
const (
	EventWindows      = "windows_changed"
	EventNotification = "notification"
	EventChatMessage  = "chat_message"
	EventEmail        = "email"
	EventConduct      = "conduct_changed"
	EventTeam         = "team_changed"
	EventEnding       = "ending_changed"
	EventFunds        = "funds_changed"
)
