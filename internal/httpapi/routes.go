package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/seojinp/beatduel-backend/internal/config"
	"github.com/seojinp/beatduel-backend/internal/hub"
	"github.com/seojinp/beatduel-backend/internal/ws"
)

func SetupRoutes(h *hub.Hub, st MatchStore, cfg config.Config, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	if log == nil {
		log = zap.NewNop()
	}
	api := &api{hub: h, store: st, cfg: cfg, log: log}

	r.Post("/matches", api.createMatch)
	r.Get("/matches/{matchID}", api.getMatch)
	r.Post("/matches/{matchID}/bans", api.banSong)
	r.Post("/matches/{matchID}/rounds", api.submitRound)
	r.Post("/matches/{matchID}/finalize", api.finalizeRound)
	r.Post("/matches/{matchID}/pool", api.nextPool)
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, log))
	return r
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
