package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chillplay/drawlots/internal/drawlots"
	"github.com/chillplay/drawlots/internal/store"
)

var (
	errNotAdmin       = errors.New("only the session admin may do this")
	errRoundInactive  = errors.New("no active round")
	errAlreadyClicked = errors.New("already clicked this round")
)

type SelectGameRequest struct {
	Mode drawlots.Mode `json:"mode"`
}

type ClickResponse struct {
	Rank          int  `json:"rank"`
	Points        int  `json:"points"`
	RoundResolved bool `json:"roundResolved"`
}

type NextRoundResponse struct {
	Round    int           `json:"round"`
	Mode     drawlots.Mode `json:"mode"`
	Finished bool          `json:"finished"`
}

type ResultsResponse struct {
	Mode      drawlots.Mode       `json:"mode"`
	Standings []drawlots.Standing `json:"standings"`
}

// requireAdmin resolves the caller and checks it is the session admin. Mode
// transitions and automatic progression are admin-only; everyone else only
// ever reads them.
func requireAdmin(r *http.Request, st store.Store, code string) (string, error) {
	playerID, err := playerFromRequest(r)
	if err != nil {
		return "", err
	}
	sess, err := st.Get(r.Context(), code)
	if err != nil {
		return "", err
	}
	if sess.AdminID != playerID {
		return "", errNotAdmin
	}
	return playerID, nil
}

func writeAdminError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errNoPlayer):
		writeError(w, http.StatusUnauthorized, "player credential required")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, errNotAdmin):
		writeError(w, http.StatusForbidden, "only the session admin may do this")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func handleSelectGame(st store.Store, runner *Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		if _, err := requireAdmin(r, st, code); err != nil {
			writeAdminError(w, err)
			return
		}

		var req SelectGameRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		switch req.Mode {
		case drawlots.ModeTiming:
			_, err := st.AtomicUpdate(r.Context(), code, func(s *drawlots.Session) error {
				gs := &s.GameState
				if !drawlots.CanTransition(gs.Mode, drawlots.ModeTiming) {
					return errWrongMode
				}
				gs.Mode = drawlots.ModeTiming
				gs.Round = 1
				gs.ClickOrder = 0
				gs.IsGameActive = false
				gs.RoundStartedAt = 0
				return nil
			})
			if errors.Is(err, errWrongMode) {
				writeError(w, http.StatusConflict, "cannot start the timing game from the current mode")
				return
			}
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}

		case drawlots.ModeLight:
			err := runner.StartChase(r.Context(), code)
			switch {
			case errors.Is(err, errWrongMode), errors.Is(err, errRoundActive):
				writeError(w, http.StatusConflict, "cannot start the light game from the current mode")
				return
			case errors.Is(err, errEmptyRoster):
				writeError(w, http.StatusConflict, "session has no players")
				return
			case err != nil:
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}

		default:
			writeError(w, http.StatusBadRequest, "mode must be timing or light")
			return
		}

		writeJSON(w, http.StatusOK, map[string]drawlots.Mode{"mode": req.Mode})
	}
}

func handleStartRound(st store.Store, runner *Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		if _, err := requireAdmin(r, st, code); err != nil {
			writeAdminError(w, err)
			return
		}

		err := runner.StartRound(r.Context(), code)
		switch {
		case errors.Is(err, errWrongMode):
			writeError(w, http.StatusConflict, "not in timing mode")
			return
		case errors.Is(err, errRoundActive):
			writeError(w, http.StatusConflict, "round already active")
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"started": true})
	}
}

func handleClick(st store.Store, runner *Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		playerID, err := playerFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "player credential required")
			return
		}

		var resp ClickResponse
		_, err = st.AtomicUpdate(r.Context(), code, func(s *drawlots.Session) error {
			gs := &s.GameState
			if gs.Mode != drawlots.ModeTiming || !gs.IsGameActive {
				return errRoundInactive
			}
			if _, ok := s.Players[playerID]; !ok {
				return errNotMember
			}
			if _, ok := drawlots.ScoreForRound(gs.TimingScores[playerID], gs.Round); ok {
				return errAlreadyClicked
			}

			gs.ClickOrder++
			resp.Rank = gs.ClickOrder
			resp.Points = drawlots.ClickScore(resp.Rank, len(s.Players))

			if gs.TimingScores == nil {
				gs.TimingScores = make(map[string][]drawlots.PlayerScore)
			}
			gs.TimingScores[playerID] = drawlots.RecordScore(
				gs.TimingScores[playerID],
				drawlots.PlayerScore{Round: gs.Round, Points: resp.Points},
			)

			if drawlots.AllScored(s.Players, gs.TimingScores, gs.Round) {
				gs.IsGameActive = false
				resp.RoundResolved = true
			}
			return nil
		})

		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "session not found")
			return
		case errors.Is(err, errRoundInactive):
			writeError(w, http.StatusConflict, "no active round")
			return
		case errors.Is(err, errNotMember):
			writeError(w, http.StatusForbidden, "not a member of this session")
			return
		case errors.Is(err, errAlreadyClicked):
			writeError(w, http.StatusConflict, "already clicked this round")
			return
		case errors.Is(err, store.ErrConflict):
			writeError(w, http.StatusConflict, "write conflict, retry")
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		if resp.RoundResolved {
			runner.ResolveEarly(code)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleNextRound(st store.Store, runner *Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		if _, err := requireAdmin(r, st, code); err != nil {
			writeAdminError(w, err)
			return
		}

		toResult, err := runner.AdvanceRound(r.Context(), code)
		switch {
		case errors.Is(err, errWrongMode):
			writeError(w, http.StatusConflict, "not in timing mode")
			return
		case errors.Is(err, errRoundActive):
			writeError(w, http.StatusConflict, "current round has not resolved yet")
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		sess, err := st.Get(r.Context(), code)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, NextRoundResponse{
			Round:    sess.GameState.Round,
			Mode:     sess.GameState.Mode,
			Finished: toResult,
		})
	}
}

func handleNewGame(st store.Store, runner *Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		if _, err := requireAdmin(r, st, code); err != nil {
			writeAdminError(w, err)
			return
		}

		runner.StopSession(code)

		_, err := st.AtomicUpdate(r.Context(), code, func(s *drawlots.Session) error {
			if !drawlots.CanTransition(s.GameState.Mode, drawlots.ModeLobby) {
				return errWrongMode
			}
			// Roster survives; every round/score/light field clears.
			s.GameState = drawlots.NewGameState(0)
			return nil
		})
		switch {
		case errors.Is(err, errWrongMode):
			writeError(w, http.StatusConflict, "cannot return to the lobby from the current mode")
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, map[string]drawlots.Mode{"mode": drawlots.ModeLobby})
	}
}

func handleResults(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		sess, err := st.Get(r.Context(), code)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, ResultsResponse{
			Mode:      sess.GameState.Mode,
			Standings: drawlots.Standings(sess.Players, sess.GameState.TimingScores),
		})
	}
}
