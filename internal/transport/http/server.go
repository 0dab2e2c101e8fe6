// Package http is the chi transport for the legal assistant API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/techvocates/nyaya/internal/domain"
	healthuc "github.com/techvocates/nyaya/internal/usecase/health"
)

// Answerer runs the question-answering pipeline.
type Answerer interface {
	Answer(ctx context.Context, query string) (domain.FinalAnswer, error)
}

// AuthService handles registration, login, and token validation.
type AuthService interface {
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (string, error)
	ValidateToken(token string) (string, error)
}

// HistoryService manages per-user chat sessions.
type HistoryService interface {
	AppendTurn(ctx context.Context, username, question, answer string, newChat bool) (domain.ChatSession, error)
	ListSessions(ctx context.Context, username string) ([]domain.ChatSession, error)
	GetSession(ctx context.Context, username, id string) (domain.ChatSession, error)
}

// HealthService reports component health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server wires the usecases into HTTP handlers.
type Server struct {
	answerer      Answerer
	drafter       Answerer
	auth          AuthService
	history       HistoryService
	health        HealthService
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates the HTTP API server. A nil drafter disables /doc_gen.
func NewServer(answerer, drafter Answerer, auth AuthService, history HistoryService, health HealthService, logger *zap.Logger) *Server {
	s := &Server{
		answerer: answerer,
		drafter:  drafter,
		auth:     auth,
		history:  history,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrUserExists, http.StatusConflict),
		sentinelHandler(domain.ErrInvalidCredentials, http.StatusUnauthorized),
		sentinelHandler(domain.ErrTokenInvalid, http.StatusUnauthorized),
		sentinelHandler(domain.ErrSessionNotFound, http.StatusNotFound),
	}
	return s
}

// Router assembles the route tree. Recovery, request-id, and logging
// middleware are applied by the composition root.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/auth/register", s.Register)
	r.Post("/auth/login", s.Login)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(s.auth))
		r.Post("/chat", s.Chat)
		r.Post("/doc_gen", s.DocGen)
		r.Post("/history/messages", s.AppendMessages)
		r.Get("/history/sessions", s.ListSessions)
		r.Get("/history/sessions/{session_id}", s.GetSession)
	})

	return r
}

// Register handles POST /auth/register.
func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	if err := s.auth.Register(r.Context(), req.Username, req.Password); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{Username: req.Username})
}

// Login handles POST /auth/login.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

// Chat handles POST /chat. The answer is computed first and the turn is
// recorded after; a history write failure is logged but does not lose the
// answer the user already paid for.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	fa, err := s.answerer.Answer(r.Context(), req.Query)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := chatResponse{
		Answer:     fa.Text,
		Citations:  fa.Citations,
		Confidence: string(fa.Confidence),
	}
	if resp.Citations == nil {
		resp.Citations = []string{}
	}

	username := UsernameFromContext(r.Context())
	if username != "" {
		session, herr := s.history.AppendTurn(r.Context(), username, req.Query, fa.Text, req.NewChat)
		if herr != nil {
			s.logger.Error("record chat turn", zap.String("username", username), zap.Error(herr))
		} else {
			resp.SessionID = session.ID
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// DocGen handles POST /doc_gen. Drafted documents are not chat turns, so
// nothing is recorded in history.
func (s *Server) DocGen(w http.ResponseWriter, r *http.Request) {
	if s.drafter == nil {
		writeError(w, http.StatusServiceUnavailable, "document drafting is not configured")
		return
	}

	var req docGenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	fa, err := s.drafter.Answer(r.Context(), req.Query)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := docGenResponse{
		Document:   fa.Text,
		Citations:  fa.Citations,
		Confidence: string(fa.Confidence),
	}
	if resp.Citations == nil {
		resp.Citations = []string{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// AppendMessages handles POST /history/messages. Imports a turn into the
// caller's history without invoking the pipeline.
func (s *Server) AppendMessages(w http.ResponseWriter, r *http.Request) {
	var req appendMessagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	username := UsernameFromContext(r.Context())
	session, err := s.history.AppendTurn(r.Context(), username, req.Question, req.Answer, req.NewChat)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, sessionToDTO(session))
}

// ListSessions handles GET /history/sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	username := UsernameFromContext(r.Context())

	sessions, err := s.history.ListSessions(r.Context(), username)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]sessionResponse, len(sessions))
	for i, sess := range sessions {
		items[i] = sessionToDTO(sess)
	}
	writeJSON(w, http.StatusOK, sessionListResponse{Sessions: items})
}

// GetSession handles GET /history/sessions/{session_id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	username := UsernameFromContext(r.Context())
	id := chi.URLParam(r, "session_id")

	session, err := s.history.GetSession(r.Context(), username, id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionToDTO(session))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status:  string(report.Status),
		Checks:  checks,
		Indexes: report.Indexes,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// safeMessage returns a sentinel error message for the client without
// exposing internals. Pipeline failures in particular must not leak
// provider detail.
func safeMessage(err error) string {
	sentinels := []error{
		domain.ErrUserExists,
		domain.ErrInvalidCredentials,
		domain.ErrTokenInvalid,
		domain.ErrSessionNotFound,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, safeMessage(err))
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
