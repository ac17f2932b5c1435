// Package store hosts the shared session documents. It exposes the small
// set of primitives the game protocol needs: point reads, full writes,
// removal, atomic read-modify-write, unique key minting, and push-based
// change notification to subscribers.
package store

import (
	"context"
	"errors"

	"github.com/chillplay/drawlots/internal/drawlots"
)

var (
	// ErrNotFound is returned when no document exists for a session code.
	ErrNotFound = errors.New("session not found")

	// ErrExists is returned by Create when the session code is taken.
	ErrExists = errors.New("session already exists")

	// ErrConflict is returned when an atomic update could not commit within
	// its bounded retries. Callers surface it; they never advance state on it.
	ErrConflict = errors.New("concurrent write conflict")
)

// EventType distinguishes live document updates from terminal removal.
type EventType string

const (
	// EventState carries the full current document.
	EventState EventType = "state"

	// EventRemoved signals the document no longer exists. Subscribers must
	// treat it as "session ended" and return to idle; no further events follow.
	EventRemoved EventType = "removed"
)

// Event is one change notification. Session is set for EventState only.
type Event struct {
	Type    EventType         `json:"type"`
	Session *drawlots.Session `json:"session,omitempty"`
}

// Store is the shared session store boundary. Counter-style mutations must
// go through AtomicUpdate; a blind read-then-Put sequence by more than one
// writer loses updates.
type Store interface {
	// Get returns the current document or ErrNotFound.
	Get(ctx context.Context, id string) (drawlots.Session, error)

	// Create writes the full initial document in one atomic write.
	// Returns ErrExists if the code is already taken.
	Create(ctx context.Context, sess drawlots.Session) error

	// Remove deletes the document and notifies all subscribers with a
	// terminal EventRemoved.
	Remove(ctx context.Context, id string) error

	// AtomicUpdate reads the document, applies fn, and writes the result
	// back in a single transaction, retrying a bounded number of times on
	// lock contention. An error from fn aborts without retry. The updated
	// document is returned on success.
	AtomicUpdate(ctx context.Context, id string, fn func(*drawlots.Session) error) (drawlots.Session, error)

	// NewKey mints a globally-unique opaque key (player ids).
	NewKey() string

	// Subscribe attaches to the document's change feed. The current value
	// is delivered first, then every subsequent change; a removed document
	// delivers EventRemoved. The returned cancel func stops delivery.
	Subscribe(ctx context.Context, id string) (<-chan Event, func(), error)
}
