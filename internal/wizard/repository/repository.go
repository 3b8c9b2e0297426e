// Package repository stores wizard sessions and serializes their mutations.
package repository

import (
	"context"
	"errors"
	"time"

	"travel_portal_backend/internal/wizard/domain"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned for unknown or expired sessions.
	ErrNotFound = errors.New("wizard session not found")
	// ErrLocked is returned when the session lock could not be acquired in time.
	ErrLocked = errors.New("wizard session is busy")
)

const (
	// lockTTL bounds how long a crashed holder can keep a session locked.
	lockTTL = 2 * time.Minute
	// lockWait is how long Lock waits for a busy session.
	lockWait = 5 * time.Second
	// lockPoll is the retry interval while waiting for a busy session.
	lockPoll = 25 * time.Millisecond
)

// Store persists wizard sessions. Lock serializes read-modify-write cycles on
// one session; readers do not need it.
type Store interface {
	Create(ctx context.Context, state *domain.State) error
	Get(ctx context.Context, id uuid.UUID) (*domain.State, error)
	Save(ctx context.Context, state *domain.State) error
	Delete(ctx context.Context, id uuid.UUID) error
	Lock(ctx context.Context, id uuid.UUID) (unlock func(), err error)
}
