// Package app wires the daemon together: config, database, tracker, and the
// network surface.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/caarlos0/env/v11"

	"sightrelay/internal/gamedb"
	"sightrelay/internal/index"
	servernet "sightrelay/internal/net"
	"sightrelay/internal/net/ws"
	"sightrelay/internal/track"
)

// Config is the env-driven daemon configuration.
type Config struct {
	Addr          string        `env:"RELAYD_ADDR" envDefault:":8443"`
	SweepInterval time.Duration `env:"RELAYD_SWEEP_INTERVAL" envDefault:"30s"`
	// EvictAfter is how long a relay's dead state must hold before the
	// sweep removes it.
	EvictAfter time.Duration `env:"RELAYD_EVICT_AFTER" envDefault:"5m"`
}

// Run starts the daemon and blocks until ctx is canceled or the listener
// fails.
func Run(ctx context.Context) error {
	logger := log.Default()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	db := gamedb.Bundled()
	cache := index.NewKeyCache(index.NewInterner())
	tracker := track.New(db, cache, track.Config{Logger: logger})

	stop := make(chan struct{})
	go tracker.Run(stop, cfg.SweepInterval, cfg.EvictAfter)
	defer close(stop)

	wsHandler := ws.NewHandler(tracker, ws.HandlerConfig{Logger: logger})
	handler := servernet.NewHTTPHandler(tracker, wsHandler, servernet.HTTPHandlerConfig{Logger: logger})

	server := &http.Server{Addr: cfg.Addr, Handler: handler}
	errc := make(chan error, 1)
	go func() {
		logger.Printf("relayd listening on %s", cfg.Addr)
		errc <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errc:
		return err
	}
}
