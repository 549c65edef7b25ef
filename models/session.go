package models

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one user or assistant exchange within a session. Immutable once
// appended.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Session holds the rolling conversation history for one client, identified
// by an opaque token. A session is only valid while its last activity is
// within the store's TTL.
type Session struct {
	ID           string    `json:"session_id"`
	Turns        []Turn    `json:"turns"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}
