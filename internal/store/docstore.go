package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chillplay/drawlots/internal/drawlots"
)

// atomicUpdateRetries bounds how often an atomic update is retried when the
// write transaction loses a race for the database lock.
const atomicUpdateRetries = 3

// DocStore implements Store on a SQLite table holding one JSONB session
// document per row. All committed writes fan out to subscribers through an
// in-process broker.
type DocStore struct {
	db     *sql.DB
	broker *Broker
}

// NewDocStore wraps db, which must already carry the migrated schema.
func NewDocStore(db *sql.DB) *DocStore {
	return &DocStore{
		db:     db,
		broker: NewBroker(),
	}
}

func (s *DocStore) Get(ctx context.Context, id string) (drawlots.Session, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM sessions WHERE id = ?`, id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return drawlots.Session{}, ErrNotFound
	}
	if err != nil {
		return drawlots.Session{}, err
	}

	var sess drawlots.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return drawlots.Session{}, fmt.Errorf("decoding session %q: %w", id, err)
	}
	return sess, nil
}

func (s *DocStore) Create(ctx context.Context, sess drawlots.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, data) VALUES (?, jsonb(?))`,
		sess.ID, string(data),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") ||
			strings.Contains(err.Error(), "PRIMARY KEY constraint") {
			return ErrExists
		}
		return err
	}

	s.broker.Publish(sess.ID, Event{Type: EventState, Session: &sess})
	return nil
}

func (s *DocStore) Remove(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE id = ?`, id,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}

	s.broker.Publish(id, Event{Type: EventRemoved})
	return nil
}

// AtomicUpdate loads the document, applies fn, stamps LastUpdateTime, and
// saves it in a transaction. Lock contention retries up to the bound; an
// error from fn aborts immediately and is returned unchanged.
func (s *DocStore) AtomicUpdate(ctx context.Context, id string, fn func(*drawlots.Session) error) (drawlots.Session, error) {
	var sess drawlots.Session

	for attempt := 0; ; attempt++ {
		err := s.tryUpdate(ctx, id, fn, &sess)
		if err == nil {
			break
		}
		if isLockErr(err) && attempt < atomicUpdateRetries {
			continue
		}
		if isLockErr(err) {
			return drawlots.Session{}, ErrConflict
		}
		return drawlots.Session{}, err
	}

	s.broker.Publish(id, Event{Type: EventState, Session: &sess})
	return sess, nil
}

func (s *DocStore) tryUpdate(ctx context.Context, id string, fn func(*drawlots.Session) error, out *drawlots.Session) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var data string
	err = tx.QueryRowContext(ctx,
		`SELECT json(data) FROM sessions WHERE id = ?`, id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	var sess drawlots.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return fmt.Errorf("decoding session %q: %w", id, err)
	}

	if err := fn(&sess); err != nil {
		return err
	}
	sess.GameState.LastUpdateTime = time.Now().UnixMilli()

	jsonData, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE sessions SET data = jsonb(?) WHERE id = ?`,
		string(jsonData), id,
	)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	*out = sess
	return nil
}

func isLockErr(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY")
}

// NewKey mints an opaque globally-unique key. Used for player ids; keys are
// never reused.
func (s *DocStore) NewKey() string {
	return uuid.NewString()
}

// Subscribe attaches to the session's change feed. The current document is
// delivered as the first event, matching the on-attach semantics observers
// rely on; a missing document fails with ErrNotFound instead of subscribing.
func (s *DocStore) Subscribe(ctx context.Context, id string) (<-chan Event, func(), error) {
	ch := s.broker.Subscribe(id)

	sess, err := s.Get(ctx, id)
	if err != nil {
		s.broker.Unsubscribe(id, ch)
		return nil, nil, err
	}
	ch <- Event{Type: EventState, Session: &sess}

	cancel := func() { s.broker.Unsubscribe(id, ch) }
	return ch, cancel, nil
}

// Ensure DocStore implements Store at compile time.
var _ Store = (*DocStore)(nil)
