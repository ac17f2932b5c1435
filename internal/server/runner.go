package server

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/chillplay/drawlots/internal/drawlots"
	"github.com/chillplay/drawlots/internal/store"
)

var (
	errWrongMode   = errors.New("operation not allowed in current mode")
	errRoundActive = errors.New("a round is already active")
	errEmptyRoster = errors.New("session has no players")

	// errStale aborts a scheduled write whose precondition no longer holds
	// (round resolved early, mode changed, session gone). Not an error to
	// surface: redelivered or late timers must not corrupt state.
	errStale = errors.New("stale scheduled write")
)

// Runner executes the automatic transitions only the session admin may
// drive: the timing-round deadline and the light-chase tick loop. Handlers
// gate every entry point on admin identity, so non-admin clients can never
// race these writes. All timing goes through an injectable clock.
type Runner struct {
	store  store.Store
	clock  clockwork.Clock
	logger *slog.Logger

	// newPlan is swappable in tests for a deterministic chase.
	newPlan func(seats int) drawlots.ChasePlan

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu     sync.Mutex
	rounds map[string]context.CancelFunc
	chases map[string]context.CancelFunc
	rng    *rand.Rand
}

func NewRunner(st store.Store, clock clockwork.Clock, logger *slog.Logger) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		store:   st,
		clock:   clock,
		logger:  logger,
		baseCtx: ctx,
		cancel:  cancel,
		rounds:  make(map[string]context.CancelFunc),
		chases:  make(map[string]context.CancelFunc),
		rng:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	r.newPlan = r.drawPlan
	return r
}

func (r *Runner) drawPlan(seats int) drawlots.ChasePlan {
	// rand.Rand is not goroutine-safe; callers hold r.mu.
	return drawlots.NewChasePlan(seats, r.rng)
}

// StartRound activates the current timing round: input opens, the click
// counter resets, and the shared start reference is stamped so every client
// derives the same countdown and color interpolation. A one-shot deadline
// timer backfills explosions when the round times out.
func (r *Runner) StartRound(ctx context.Context, code string) error {
	sess, err := r.store.AtomicUpdate(ctx, code, func(s *drawlots.Session) error {
		gs := &s.GameState
		if gs.Mode != drawlots.ModeTiming {
			return errWrongMode
		}
		if gs.IsGameActive {
			return errRoundActive
		}
		gs.IsGameActive = true
		gs.ClickOrder = 0
		gs.RoundStartedAt = r.clock.Now().UnixMilli()
		return nil
	})
	if err != nil {
		return err
	}

	r.armDeadline(code, sess.GameState.Round)
	return nil
}

func (r *Runner) armDeadline(code string, round int) {
	r.mu.Lock()
	if cancel := r.rounds[code]; cancel != nil {
		cancel()
	}
	ctx, cancel := context.WithCancel(r.baseCtx)
	r.rounds[code] = cancel
	r.mu.Unlock()

	timer := r.clock.NewTimer(drawlots.RoundDuration)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		select {
		case <-ctx.Done():
			stopAndDrainTimer(timer)
		case <-timer.Chan():
			r.dropRoundTimer(code)
			r.resolveDeadline(code, round)
		}
	}()
}

// AdvanceRound moves a resolved timing round forward: rounds 1 and 2
// re-activate at round+1 with a fresh deadline, round 3 transitions to the
// result mode with no further timer. Advancing while a round is still
// active is rejected.
func (r *Runner) AdvanceRound(ctx context.Context, code string) (toResult bool, err error) {
	sess, err := r.store.AtomicUpdate(ctx, code, func(s *drawlots.Session) error {
		gs := &s.GameState
		if gs.Mode != drawlots.ModeTiming {
			return errWrongMode
		}
		if gs.IsGameActive {
			return errRoundActive
		}
		if gs.Round < drawlots.TimingRounds {
			gs.Round++
			gs.IsGameActive = true
			gs.ClickOrder = 0
			gs.RoundStartedAt = r.clock.Now().UnixMilli()
			return nil
		}
		gs.Mode = drawlots.ModeResult
		toResult = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if !toResult {
		r.armDeadline(code, sess.GameState.Round)
	}
	return toResult, nil
}

// ResolveEarly cancels the pending deadline timer after a round resolved
// because every player clicked before the timeout.
func (r *Runner) ResolveEarly(code string) {
	r.mu.Lock()
	if cancel := r.rounds[code]; cancel != nil {
		cancel()
		delete(r.rounds, code)
	}
	r.mu.Unlock()
}

func (r *Runner) dropRoundTimer(code string) {
	r.mu.Lock()
	delete(r.rounds, code)
	r.mu.Unlock()
}

// resolveDeadline closes a timed-out round: every player without a click
// entry for the round is scored as an explosion, in the same atomic write
// that deactivates input. A stale timer (round already resolved, session
// gone) aborts without touching anything.
func (r *Runner) resolveDeadline(code string, round int) {
	_, err := r.store.AtomicUpdate(r.baseCtx, code, func(s *drawlots.Session) error {
		gs := &s.GameState
		if gs.Mode != drawlots.ModeTiming || !gs.IsGameActive || gs.Round != round {
			return errStale
		}
		gs.TimingScores = drawlots.BackfillExplosions(s.Players, gs.TimingScores, round)
		gs.IsGameActive = false
		return nil
	})
	if err != nil && !errors.Is(err, errStale) && !errors.Is(err, store.ErrNotFound) {
		r.logger.Error("resolving round deadline failed", "session", code, "round", round, "error", err)
	}
}

// StartChase switches the session into light mode and spawns the tick loop.
// The plan (total ticks, speed curve) is drawn once; the seat order is
// captured at start so late joins do not shift the rotation mid-chase.
func (r *Runner) StartChase(ctx context.Context, code string) error {
	var seated []drawlots.Player
	_, err := r.store.AtomicUpdate(ctx, code, func(s *drawlots.Session) error {
		gs := &s.GameState
		if !drawlots.CanTransition(gs.Mode, drawlots.ModeLight) {
			return errWrongMode
		}
		if gs.Mode == drawlots.ModeLight && gs.IsGameActive {
			return errRoundActive
		}
		seated = drawlots.Seated(s.Players)
		if len(seated) == 0 {
			return errEmptyRoster
		}
		gs.Mode = drawlots.ModeLight
		gs.IsGameActive = true
		gs.ActiveLightPlayerID = seated[0].ID
		gs.SelectedPlayerID = ""
		return nil
	})
	if err != nil {
		return err
	}

	r.mu.Lock()
	if cancel := r.chases[code]; cancel != nil {
		cancel()
	}
	cctx, cancel := context.WithCancel(r.baseCtx)
	r.chases[code] = cancel
	plan := r.newPlan(len(seated))
	r.mu.Unlock()

	r.wg.Add(1)
	go r.runChase(cctx, code, plan, seated)
	return nil
}

func (r *Runner) runChase(ctx context.Context, code string, plan drawlots.ChasePlan, seated []drawlots.Player) {
	defer r.wg.Done()

	for tick := 1; tick <= plan.Ticks; tick++ {
		select {
		case <-ctx.Done():
			return
		case <-r.clock.After(plan.Interval(tick)):
		}

		holder := seated[plan.HolderIndex(tick)]
		final := tick == plan.Ticks

		_, err := r.store.AtomicUpdate(ctx, code, func(s *drawlots.Session) error {
			gs := &s.GameState
			if gs.Mode != drawlots.ModeLight || !gs.IsGameActive {
				return errStale
			}
			gs.ActiveLightPlayerID = holder.ID
			if final {
				// One terminal commit: no observer can ever read a selected
				// player while the chase still looks active.
				gs.IsGameActive = false
				gs.SelectedPlayerID = holder.ID
			}
			return nil
		})
		if err != nil {
			if !errors.Is(err, errStale) && !errors.Is(err, store.ErrNotFound) &&
				!errors.Is(err, context.Canceled) {
				r.logger.Error("light tick write failed", "session", code, "error", err)
			}
			return
		}
	}

	r.mu.Lock()
	delete(r.chases, code)
	r.mu.Unlock()
}

// StopSession cancels every scheduled loop for the session. Called when the
// session is torn down or reset to the lobby; a client that has left must
// not keep writing to a session it no longer belongs to.
func (r *Runner) StopSession(code string) {
	r.mu.Lock()
	if cancel := r.rounds[code]; cancel != nil {
		cancel()
		delete(r.rounds, code)
	}
	if cancel := r.chases[code]; cancel != nil {
		cancel()
		delete(r.chases, code)
	}
	r.mu.Unlock()
}

// Shutdown cancels all loops and waits for them to exit.
func (r *Runner) Shutdown() {
	r.cancel()
	r.wg.Wait()
}

// stopAndDrainTimer safely stops a timer and drains its channel so a fired
// timer cannot leak its tick to a later reader.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
