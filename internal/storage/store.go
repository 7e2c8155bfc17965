// Package storage provides the session persistence layer: one stored
// Return snapshot per session key.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/taxpilot-ai/taxpilot/internal/model"
)

// Validation errors.
var (
	ErrNilContext  = errors.New("context cannot be nil")
	ErrEmptyString = errors.New("string parameter cannot be empty")
)

// SessionStore defines the contract for session persistence. Get returns a
// fresh intake-stage Return for an unknown key; Put overwrites the whole
// snapshot; Delete reports common.ErrSessionNotFound for an unknown key.
// Implementations must serialize writes per session key so that two
// overlapping turns cannot interleave a session's state.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (model.Return, error)
	Put(ctx context.Context, state model.Return) error
	List(ctx context.Context) ([]model.Return, error)
	Delete(ctx context.Context, sessionID string) error
	Close() error
}

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}
