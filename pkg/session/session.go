// Package session tracks chat transcripts. A session is an ordered list of
// messages exchanged with an agent, persisted through a storage backend so
// conversations survive process restarts.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// Message roles. The agent role is used for responses produced by the agent;
// everything typed by a human is recorded as user.
const (
	RoleUser  = "user"
	RoleAgent = "agent"
)

// summaryLength caps how much of the first user message a summary shows.
const summaryLength = 50

// Message is a single utterance in a session.
type Message struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	Time    time.Time `json:"time"`
}

// NewMessage builds a message stamped with the current time.
func NewMessage(role, content string) Message {
	return Message{
		Role:    role,
		Content: content,
		Time:    time.Now().UTC(),
	}
}

// Session is a persisted conversation transcript.
type Session struct {
	ID        string    `json:"id"`
	AgentName string    `json:"agent_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `json:"messages"`
}

// Summary returns a short description of the session derived from the first
// user message, truncated for list views.
func (s *Session) Summary() string {
	for _, msg := range s.Messages {
		if msg.Role != RoleUser {
			continue
		}
		if len(msg.Content) > summaryLength {
			return msg.Content[:summaryLength] + "..."
		}
		return msg.Content
	}
	return "(no messages)"
}

// GenerateID creates a unique session identifier: a UTC timestamp prefix
// that keeps IDs roughly sortable, plus 8 random bytes.
func GenerateID() string {
	timestamp := time.Now().UTC().Format("20060102T150405")

	b := make([]byte, 8)
	rand.Read(b)

	return timestamp + "-" + hex.EncodeToString(b)
}
