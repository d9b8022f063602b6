// Package session provides bounded conversation-history storage for
// concurrent chat sessions, with idle-session reclamation. The
// in-memory store is the primary implementation; a Redis-backed
// variant exists for deployments that need persistence across
// restarts.
package session

import (
	"strings"
	"time"
)

// Roles for conversation messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single message in a conversation
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Stats is a point-in-time snapshot of store contents.
type Stats struct {
	TotalSessions int `json:"total_sessions"`
	TotalMessages int `json:"total_messages"`
}

// Store is the conversation-history contract consumed by the request
// layer. Implementations must be safe for concurrent use. All
// operations are total: unknown session ids are never errors.
type Store interface {
	// Create mints a fresh session id and records its creation time.
	Create() string

	// AddMessage appends a message to a session, creating the session
	// if it does not exist, and trims history to the configured bound.
	AddMessage(sessionID, role, content string)

	// AddExchange appends a user/assistant message pair.
	AddExchange(sessionID, userMessage, assistantMessage string)

	// History returns the formatted conversation history, oldest
	// first. ok is false when the session is unknown or empty.
	History(sessionID string) (history string, ok bool)

	// Clear removes a session entirely. Clearing an unknown id is a
	// no-op.
	Clear(sessionID string)

	// Stats returns a snapshot of session and message counts.
	Stats() Stats

	// Shutdown stops any background work and blocks until it has
	// finished, bounded by a short timeout.
	Shutdown()
}

// formatHistory renders messages as role-labeled lines, oldest first.
func formatHistory(messages []Message) string {
	lines := make([]string, len(messages))
	for i, msg := range messages {
		lines[i] = titleRole(msg.Role) + ": " + msg.Content
	}
	return strings.Join(lines, "\n")
}

func titleRole(role string) string {
	if role == "" {
		return role
	}
	return strings.ToUpper(role[:1]) + role[1:]
}
