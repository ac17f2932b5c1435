package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"

	"github.com/chillplay/drawlots/internal/store"
)

// handleWS streams the same session change events as the SSE endpoint over
// a WebSocket, for clients that prefer a bidirectional transport. Each
// message is one JSON-encoded event; the connection closes normally after
// the terminal removed event.
func handleWS(logger *slog.Logger, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		ch, cancel, err := st.Subscribe(r.Context(), code)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		defer cancel()

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx := r.Context()
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-ch:
				payload, err := json.Marshal(ev)
				if err != nil {
					logger.Error("encoding session event", "error", err)
					return
				}
				if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
					logger.Debug("websocket write failed", "error", err)
					return
				}

				if ev.Type == store.EventRemoved {
					conn.Close(websocket.StatusNormalClosure, "session ended")
					return
				}
			}
		}
	}
}
