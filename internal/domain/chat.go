package domain

import "time"

// ChatMessage is one turn of a conversation.
type ChatMessage struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatSession groups the messages of one conversation. A session is rolled
// over when the previous one has been idle past the session window.
type ChatSession struct {
	ID        string        `json:"session_id"`
	Username  string        `json:"username"`
	StartedAt time.Time     `json:"started_at"`
	Messages  []ChatMessage `json:"messages"`
}
