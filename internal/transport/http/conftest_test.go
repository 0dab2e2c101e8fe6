package http

import (
	"context"
	"errors"

	"github.com/techvocates/nyaya/internal/domain"
	healthuc "github.com/techvocates/nyaya/internal/usecase/health"
)

// fakeAnswerer implements Answerer.
type fakeAnswerer struct {
	answer   domain.FinalAnswer
	err      error
	gotQuery string
}

func (f *fakeAnswerer) Answer(_ context.Context, query string) (domain.FinalAnswer, error) {
	f.gotQuery = query
	if f.err != nil {
		return domain.FinalAnswer{}, f.err
	}
	return f.answer, nil
}

// fakeAuth implements AuthService. Tokens are "tok-<username>".
type fakeAuth struct {
	registerErr error
	loginErr    error
}

func (f *fakeAuth) Register(_ context.Context, username, password string) error {
	return f.registerErr
}

func (f *fakeAuth) Login(_ context.Context, username, password string) (string, error) {
	if f.loginErr != nil {
		return "", f.loginErr
	}
	return "tok-" + username, nil
}

func (f *fakeAuth) ValidateToken(token string) (string, error) {
	const prefix = "tok-"
	if len(token) <= len(prefix) || token[:len(prefix)] != prefix {
		return "", domain.ErrTokenInvalid
	}
	return token[len(prefix):], nil
}

// fakeHistory implements HistoryService.
type fakeHistory struct {
	session     domain.ChatSession
	sessions    []domain.ChatSession
	appendErr   error
	listErr     error
	gotUsername string
	gotNewChat  bool
}

func (f *fakeHistory) AppendTurn(_ context.Context, username, question, answer string, newChat bool) (domain.ChatSession, error) {
	f.gotUsername = username
	f.gotNewChat = newChat
	if f.appendErr != nil {
		return domain.ChatSession{}, f.appendErr
	}
	return f.session, nil
}

func (f *fakeHistory) ListSessions(_ context.Context, username string) ([]domain.ChatSession, error) {
	f.gotUsername = username
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.sessions, nil
}

func (f *fakeHistory) GetSession(_ context.Context, username, id string) (domain.ChatSession, error) {
	f.gotUsername = username
	for _, s := range f.sessions {
		if s.ID == id && s.Username == username {
			return s, nil
		}
	}
	return domain.ChatSession{}, domain.ErrSessionNotFound
}

// fakeHealth implements HealthService.
type fakeHealth struct {
	report healthuc.Report
}

func (f *fakeHealth) Check(_ context.Context) healthuc.Report {
	return f.report
}

var errInternal = errors.New("something leaked from the provider: api key sk-12345")
