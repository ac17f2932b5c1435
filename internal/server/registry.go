package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/chillplay/drawlots/internal/drawlots"
	"github.com/chillplay/drawlots/internal/store"
)

// codeAllocRetries bounds how many fresh codes creation tries before giving
// up. The 4-digit space is small on purpose (human-typeable), so collisions
// are handled by checking and redrawing rather than by widening the space.
const codeAllocRetries = 5

// hostDefaultName is applied when a session creator leaves the name blank.
const hostDefaultName = "Host"

var (
	errCodeSpaceBusy = errors.New("could not allocate a session code")
	errNotMember     = errors.New("player is not in this session")
)

// Registry creates, joins, and tears down sessions.
type Registry struct {
	store  store.Store
	logger *slog.Logger
}

func NewRegistry(st store.Store, logger *slog.Logger) *Registry {
	return &Registry{store: st, logger: logger}
}

// CreateSession mints a player id for the creator, records it as the session
// admin, and writes the full initial document in one atomic write. The code
// is drawn from the 4-digit space and redrawn on collision.
func (g *Registry) CreateSession(ctx context.Context, name string) (drawlots.Session, drawlots.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = hostDefaultName
	}

	admin := drawlots.Player{
		ID:     g.store.NewKey(),
		Name:   name,
		Number: 1,
	}

	now := time.Now().UnixMilli()
	sess := drawlots.Session{
		AdminID:   admin.ID,
		Players:   map[string]drawlots.Player{admin.ID: admin},
		GameState: drawlots.NewGameState(now),
		CreatedAt: now,
	}

	for range codeAllocRetries {
		sess.ID = newSessionCode()
		err := g.store.Create(ctx, sess)
		if errors.Is(err, store.ErrExists) {
			continue
		}
		if err != nil {
			return drawlots.Session{}, drawlots.Player{}, fmt.Errorf("creating session: %w", err)
		}

		g.logger.Info("session created", "session", sess.ID, "admin", admin.ID)
		return sess, admin, nil
	}
	return drawlots.Session{}, drawlots.Player{}, errCodeSpaceBusy
}

// JoinSession appends a new player entry under a fresh key. The join number
// is assigned inside the atomic update so concurrent joins cannot collide,
// and numbers of departed players are never reused.
func (g *Registry) JoinSession(ctx context.Context, code, name string) (drawlots.Session, drawlots.Player, error) {
	var player drawlots.Player
	player.ID = g.store.NewKey()
	player.Name = strings.TrimSpace(name)

	sess, err := g.store.AtomicUpdate(ctx, code, func(s *drawlots.Session) error {
		player.Number = drawlots.NextNumber(s.Players)
		if s.Players == nil {
			s.Players = make(map[string]drawlots.Player)
		}
		s.Players[player.ID] = player
		return nil
	})
	if err != nil {
		return drawlots.Session{}, drawlots.Player{}, err
	}

	g.logger.Info("player joined", "session", code, "player", player.ID, "number", player.Number)
	return sess, player, nil
}

// LeaveSession removes one player. The admin leaving deletes the whole
// session document, which every subscriber observes as a terminal removal;
// the returned flag reports that cascade so callers can stop session loops.
func (g *Registry) LeaveSession(ctx context.Context, code, playerID string) (removed bool, err error) {
	sess, err := g.store.Get(ctx, code)
	if err != nil {
		return false, err
	}
	if _, ok := sess.Players[playerID]; !ok {
		return false, errNotMember
	}

	if sess.AdminID == playerID {
		g.logger.Info("admin left, removing session", "session", code)
		return true, g.store.Remove(ctx, code)
	}

	_, err = g.store.AtomicUpdate(ctx, code, func(s *drawlots.Session) error {
		delete(s.Players, playerID)
		return nil
	})
	if err != nil {
		return false, err
	}

	g.logger.Info("player left", "session", code, "player", playerID)
	return false, nil
}

func newSessionCode() string {
	return fmt.Sprintf("%04d", 1000+rand.IntN(9000))
}
