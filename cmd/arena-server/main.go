package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/undeadlabs/arena/internal/catalog"
	appcfg "github.com/undeadlabs/arena/internal/config"
	"github.com/undeadlabs/arena/internal/custody"
	"github.com/undeadlabs/arena/internal/engine"
	"github.com/undeadlabs/arena/internal/events"
	"github.com/undeadlabs/arena/internal/fastctx"
	"github.com/undeadlabs/arena/internal/httpapi"
	"github.com/undeadlabs/arena/internal/ledger"
	"github.com/undeadlabs/arena/internal/obslog"
	"github.com/undeadlabs/arena/internal/vrf"
)

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	var store ledger.Store
	if cfg.DatabaseURL != "" {
		store, err = ledger.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("ledger init error: %v", err)
		}
	} else {
		obslog.L().Warn("DATABASE_URL not set, records are held in memory only")
		store = ledger.NewMemoryStore()
	}

	fast, err := fastctx.NewManager(cfg.RedisURL)
	if err != nil {
		log.Fatalf("fast context init error: %v", err)
	}

	cat, err := catalog.Load(cfg.CatalogDir)
	if err != nil {
		log.Fatalf("catalog load error: %v", err)
	}

	oracle := vrf.NewLocalOracle([]byte(cfg.OracleSecret))
	coord := custody.New(store, fast, cfg.DelegateRetries, cfg.DelegateBackoff)
	hub := events.NewHub()
	eng := engine.New(store, fast, coord, oracle, cat, hub)

	srv := httpapi.NewServer(eng, store, cfg.AdminKey)
	feed := httpapi.NewEventFeed(hub)

	errCh := make(chan error, 2)
	go func() { errCh <- srv.ListenAndServe(cfg.ListenAddr) }()
	go func() { errCh <- feed.ListenAndServe(cfg.EventsAddr) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		obslog.L().Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			obslog.L().Error("server error", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = feed.Shutdown(shutdownCtx)
	_ = fast.Close()
	_ = store.Close()
}
