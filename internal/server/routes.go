package server

import (
	"database/sql"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/chillplay/drawlots/internal/store"
)

func addRoutes(r chi.Router, logger *slog.Logger, st store.Store, runner *Runner, db *sql.DB, baseURL string) {
	reg := NewRegistry(st, logger)

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("DrawLots API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, db))

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", handleCreateSession(reg, baseURL))

		r.Route("/{code}", func(r chi.Router) {
			r.Get("/", handleGetSession(st))
			r.Post("/join", handleJoin(reg))
			r.Post("/leave", handleLeave(reg, runner))
			r.Get("/events", handleEvents(st))
			r.Get("/ws", handleWS(logger, st))
			r.Get("/invite.png", handleInvite(st, baseURL))
			r.Get("/results", handleResults(st))

			// Game ops, admin-gated where the mode transition demands it.
			r.Route("/game", func(r chi.Router) {
				r.Post("/select", handleSelectGame(st, runner))
				r.Post("/start", handleStartRound(st, runner))
				r.Post("/click", handleClick(st, runner))
				r.Post("/next", handleNextRound(st, runner))
				r.Post("/new", handleNewGame(st, runner))
			})
		})
	})
}
