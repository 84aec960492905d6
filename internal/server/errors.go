package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/mayank0274/mock-interview-with-ai/internal/interview"
	"github.com/mayank0274/mock-interview-with-ai/internal/redisstore"
)

// ErrEmailAlreadyExists indicates email is already registered
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrNoCredits indicates the account has no interview credits left
type ErrNoCredits struct{}

func (e *ErrNoCredits) Error() string {
	return "not enough credits to create an interview"
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrInvalidState indicates an operation against an interview in the wrong
// lifecycle state, such as starting an already-started session.
type ErrInvalidState struct {
	Message string
}

func (e *ErrInvalidState) Error() string {
	return e.Message
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	switch err.(type) {
	case *ErrEmailAlreadyExists:
		return http.StatusConflict
	case *ErrInvalidCredentials:
		return http.StatusUnauthorized
	case *ErrNoCredits:
		return http.StatusPaymentRequired
	case *ErrValidation, *ErrInvalidState:
		return http.StatusBadRequest
	}

	switch {
	case errors.Is(err, interview.ErrInterviewNotFound):
		return http.StatusNotFound
	case errors.Is(err, interview.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, redisstore.ErrSessionNotStarted):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
