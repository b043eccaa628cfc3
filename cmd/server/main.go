package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seojinp/beatduel-backend/internal/config"
	"github.com/seojinp/beatduel-backend/internal/httpapi"
	"github.com/seojinp/beatduel-backend/internal/hub"
	"github.com/seojinp/beatduel-backend/internal/room"
	"github.com/seojinp/beatduel-backend/internal/store"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(log *zap.Logger) error {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Without a DSN the server runs in-memory; matches vanish on restart.
	var persister room.Persister
	var matches httpapi.MatchStore
	if cfg.DatabaseDSN != "" {
		st, err := store.Open(cfg.DatabaseDSN, log)
		if err != nil {
			return err
		}
		if err := st.Migrate(); err != nil {
			return err
		}
		persister = st
		matches = st
	} else {
		log.Warn("no DATABASE_DSN set, running without persistence")
	}

	h := hub.NewHub(ctx, persister, log)
	handler := httpapi.SetupRoutes(h, matches, cfg, log)

	srv := &http.Server{Addr: cfg.Addr, Handler: handler}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		h.Inbox() <- hub.ShutdownHub{}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
