package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"

	"github.com/chillplay/drawlots/internal/database"
	"github.com/chillplay/drawlots/internal/migrations"
	"github.com/chillplay/drawlots/internal/store"
)

type testEnv struct {
	router *chi.Mux
	store  *store.DocStore
	runner *Runner
	clock  *clockwork.FakeClock
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrations.Run(db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	st := store.NewDocStore(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := clockwork.NewFakeClock()
	runner := NewRunner(st, clock, logger)
	t.Cleanup(runner.Shutdown)

	r := chi.NewRouter()
	addRoutes(r, logger, st, runner, db, "http://localhost:8080")

	return &testEnv{router: r, store: st, runner: runner, clock: clock}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
		buf = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return v
}

// createSession creates a session and joins extra players, returning the
// session code, the admin's player id, and the joined players' ids in order.
func createSession(t *testing.T, e *testEnv, extra ...string) (code, adminID string, playerIDs []string) {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/sessions", "", CreateSessionRequest{Name: "Ana"})
	if w.Code != http.StatusOK {
		t.Fatalf("create session: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	created := decode[CreateSessionResponse](t, w)
	code, adminID = created.SessionID, created.PlayerID

	for _, name := range extra {
		w := e.do(t, http.MethodPost, "/api/sessions/"+code+"/join", "", JoinRequest{Name: name})
		if w.Code != http.StatusOK {
			t.Fatalf("join %s: expected 200, got %d: %s", name, w.Code, w.Body.String())
		}
		playerIDs = append(playerIDs, decode[JoinResponse](t, w).PlayerID)
	}
	return code, adminID, playerIDs
}
