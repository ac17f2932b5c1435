package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"github.com/chillplay/drawlots/internal/drawlots"
	"github.com/chillplay/drawlots/internal/store"
)

func TestEventsStream(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()
	code, _, _ := createSession(t, e)

	reqCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+code+"/events", nil).WithContext(reqCtx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		e.router.ServeHTTP(w, req)
	}()

	// Give the handler time to attach, push one change, then end the session.
	time.Sleep(50 * time.Millisecond)
	if _, err := e.store.AtomicUpdate(ctx, code, func(s *drawlots.Session) error {
		s.GameState.Mode = drawlots.ModeTiming
		return nil
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := e.store.Remove(ctx, code); err != nil {
		t.Fatalf("remove: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not close after removal")
	}

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type %q", ct)
	}
	body := w.Body.String()
	if strings.Count(body, "event: state") < 2 {
		t.Errorf("expected initial snapshot plus one update, got:\n%s", body)
	}
	if !strings.Contains(body, "event: removed") {
		t.Errorf("expected terminal removed event, got:\n%s", body)
	}
	if !strings.Contains(body, `"mode":"timing"`) {
		t.Errorf("expected updated document in stream, got:\n%s", body)
	}
}

func TestEventsUnknownSession(t *testing.T) {
	e := setupEnv(t)

	w := e.do(t, http.MethodGet, "/api/sessions/0000/events", "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestWSStream(t *testing.T) {
	e := setupEnv(t)
	code, _, _ := createSession(t, e)

	srv := httptest.NewServer(e.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sessions/" + code + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev store.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("decoding event: %v", err)
	}
	if ev.Type != store.EventState || ev.Session == nil || ev.Session.ID != code {
		t.Errorf("initial event %+v", ev)
	}
}
