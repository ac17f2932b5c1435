package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/chillplay/drawlots/internal/drawlots"
	"github.com/chillplay/drawlots/internal/store"
)

type CreateSessionRequest struct {
	Name string `json:"name"`
}

type CreateSessionResponse struct {
	SessionID string `json:"sessionId"`
	PlayerID  string `json:"playerId"`
	Number    int    `json:"number"`
	JoinURL   string `json:"joinUrl"`
}

type JoinRequest struct {
	Name string `json:"name"`
}

type JoinResponse struct {
	SessionID string `json:"sessionId"`
	PlayerID  string `json:"playerId"`
	Number    int    `json:"number"`
}

type SessionResponse struct {
	Session drawlots.Session   `json:"session"`
	Seated  []drawlots.Player  `json:"seated"`
	Cue     drawlots.Direction `json:"cue"`
}

func handleCreateSession(reg *Registry, baseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateSessionRequest
		if r.ContentLength > 0 {
			if err := readJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
		}

		sess, admin, err := reg.CreateSession(r.Context(), req.Name)
		if errors.Is(err, errCodeSpaceBusy) {
			writeError(w, http.StatusServiceUnavailable, "no session code available, try again")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, CreateSessionResponse{
			SessionID: sess.ID,
			PlayerID:  admin.ID,
			Number:    admin.Number,
			JoinURL:   joinURL(baseURL, sess.ID),
		})
	}
}

func handleJoin(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		var req JoinRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}

		sess, player, err := reg.JoinSession(r.Context(), code, req.Name)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, JoinResponse{
			SessionID: sess.ID,
			PlayerID:  player.ID,
			Number:    player.Number,
		})
	}
}

func handleLeave(reg *Registry, runner *Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		playerID, err := playerFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "player credential required")
			return
		}

		removed, err := reg.LeaveSession(r.Context(), code, playerID)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		if errors.Is(err, errNotMember) {
			writeError(w, http.StatusForbidden, "not a member of this session")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		if removed {
			runner.StopSession(code)
		}
		writeJSON(w, http.StatusOK, map[string]bool{"sessionRemoved": removed})
	}
}

func handleGetSession(st store.Store) http.HandlerFunc {
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

		resp := SessionResponse{
			Session: sess,
			Seated:  drawlots.Seated(sess.Players),
			Cue:     drawlots.DirectionNone,
		}

		// The directional cue is derived per observer, so it only appears
		// when the caller identifies itself.
		if playerID, err := playerFromRequest(r); err == nil && sess.GameState.Mode == drawlots.ModeLight {
			gs := sess.GameState
			myIdx := drawlots.SeatIndex(resp.Seated, playerID)
			activeIdx := drawlots.SeatIndex(resp.Seated, gs.ActiveLightPlayerID)
			selected := gs.SelectedPlayerID != "" && gs.SelectedPlayerID == playerID
			resp.Cue = drawlots.Cue(myIdx, activeIdx, len(resp.Seated), selected)
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func joinURL(baseURL, code string) string {
	return fmt.Sprintf("%s/?session=%s", strings.TrimRight(baseURL, "/"), code)
}
