package app

import (
	"context"
	"fmt"

	socfg "smartorder/internal/config"
	"smartorder/internal/engine"
	"smartorder/internal/logger"
	"smartorder/internal/refdata"
	"smartorder/internal/store"
	"smartorder/internal/store/auditlog"
	smarthttp "smartorder/internal/transport/http"

	"golang.org/x/sync/errgroup"
)

// App owns application-level orchestration: config, reference data, stores,
// engine, and the HTTP front end.
type App struct {
	cfg      *socfg.Config
	registry *refdata.Registry
	tickets  store.TicketStore
	audit    *auditlog.Store
	engine   *engine.Engine
	server   *smarthttp.Server
}

// NewApp builds the application from config without starting it.
func NewApp(cfg *socfg.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// Run starts the HTTP server and, when enabled, the reference-data watcher.
// It blocks until ctx is cancelled or a component fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := a.server.Start(ctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	if a.cfg.RefData.Watch {
		group.Go(func() error {
			if err := a.registry.Watch(ctx); err != nil {
				return fmt.Errorf("refdata watcher error: %w", err)
			}
			return nil
		})
	}

	err := group.Wait()
	a.close()
	return err
}

// Engine exposes the pipeline engine (for testing and replay harnesses).
func (a *App) Engine() *engine.Engine {
	if a == nil {
		return nil
	}
	return a.engine
}

func (a *App) close() {
	if a.tickets != nil {
		if err := a.tickets.Close(); err != nil {
			logger.Warnf("close ticket store: %v", err)
		}
	}
	if a.audit != nil {
		if err := a.audit.Close(); err != nil {
			logger.Warnf("close audit log: %v", err)
		}
	}
}
