package http

import (
	"time"

	"github.com/techvocates/nyaya/internal/domain"
)

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerResponse struct {
	Username string `json:"username"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type chatRequest struct {
	Query   string `json:"query"`
	NewChat bool   `json:"new_chat"`
}

type chatResponse struct {
	Answer     string   `json:"answer"`
	Citations  []string `json:"citations"`
	Confidence string   `json:"confidence"`
	SessionID  string   `json:"session_id,omitempty"`
}

type docGenRequest struct {
	Query string `json:"query"`
}

type docGenResponse struct {
	Document   string   `json:"document"`
	Citations  []string `json:"citations"`
	Confidence string   `json:"confidence"`
}

type appendMessagesRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	NewChat  bool   `json:"new_chat"`
}

type messageResponse struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type sessionResponse struct {
	SessionID string            `json:"session_id"`
	StartedAt time.Time         `json:"started_at"`
	Messages  []messageResponse `json:"messages"`
}

type sessionListResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

type healthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Indexes int               `json:"indexes"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func sessionToDTO(s domain.ChatSession) sessionResponse {
	msgs := make([]messageResponse, len(s.Messages))
	for i, m := range s.Messages {
		msgs[i] = messageResponse{Role: m.Role, Text: m.Text, Timestamp: m.Timestamp}
	}
	return sessionResponse{
		SessionID: s.ID,
		StartedAt: s.StartedAt,
		Messages:  msgs,
	}
}
