package domain

import "errors"

var (
	// ErrActNotFound signals a reference to an act missing from the registry.
	ErrActNotFound = errors.New("act not found")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrPlanningFailed signals that no valid sub-question plan could be produced.
	ErrPlanningFailed = errors.New("planning failed")
	// ErrEmptyRetrieval signals that an act's index returned zero chunks.
	ErrEmptyRetrieval = errors.New("empty retrieval")
	// ErrGenerationFailed signals a generation provider failure.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrSynthesisFailed signals that no final answer could be built.
	ErrSynthesisFailed = errors.New("synthesis failed")

	// ErrUserExists signals a duplicate username on registration.
	ErrUserExists = errors.New("username already taken")
	// ErrInvalidCredentials signals a failed login attempt.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrTokenInvalid signals a missing, malformed, or expired auth token.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrSessionNotFound signals a missing chat session.
	ErrSessionNotFound = errors.New("session not found")
)
