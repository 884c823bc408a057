package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/steprace/backend/internal/hub"
	"github.com/steprace/backend/internal/storage"
	"github.com/steprace/backend/internal/ws"
)

// SetupRoutes builds the router with the hub injected. lb may be nil, in
// which case the leaderboard endpoint is not mounted.
func SetupRoutes(log *zap.Logger, h *hub.Hub, lb *storage.Leaderboard) http.Handler {
	r := chi.NewRouter()

	r.Post("/rooms", CreateRoom(log, h))
	r.Get("/room/{room}", ws.Handler(log, h))
	r.Get("/healthz", Healthz)
	if lb != nil {
		r.Get("/leaderboard", TopWins(log, lb))
	}
	return r
}
