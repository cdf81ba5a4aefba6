package app

import (
	"context"
	"fmt"

	socfg "smartorder/internal/config"
	"smartorder/internal/engine"
	"smartorder/internal/refdata"
	"smartorder/internal/store"
	"smartorder/internal/store/auditlog"
	storesqlite "smartorder/internal/store/sqlite"
	smarthttp "smartorder/internal/transport/http"
)

// AppBuilder assembles the application from config. The builder funcs are
// overridable so tests can swap heavy dependencies for fakes.
type AppBuilder struct {
	cfg *socfg.Config

	registryFn    func(socfg.RefDataConfig) (*refdata.Registry, error)
	ticketStoreFn func(socfg.StoreConfig) (store.TicketStore, error)
	auditStoreFn  func(socfg.StoreConfig) (*auditlog.Store, error)
	serverFn      func(socfg.AppConfig, *engine.Engine, store.TicketStore, *auditlog.Store) (*smarthttp.Server, error)
}

type AppBuilderOption func(*AppBuilder)

func NewAppBuilder(cfg *socfg.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:           cfg,
		registryFn:    buildRegistry,
		ticketStoreFn: buildTicketStore,
		auditStoreFn:  buildAuditStore,
		serverFn:      buildHTTPServer,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// WithTicketStore overrides ticket persistence.
func WithTicketStore(s store.TicketStore) AppBuilderOption {
	return func(b *AppBuilder) {
		b.ticketStoreFn = func(socfg.StoreConfig) (store.TicketStore, error) { return s, nil }
	}
}

// WithRegistry overrides the reference-data registry.
func WithRegistry(r *refdata.Registry) AppBuilderOption {
	return func(b *AppBuilder) {
		b.registryFn = func(socfg.RefDataConfig) (*refdata.Registry, error) { return r, nil }
	}
}

// Build wires the application without starting it.
func (b *AppBuilder) Build(_ context.Context) (*App, error) {
	if b == nil || b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg

	registry, err := b.registryFn(cfg.RefData)
	if err != nil {
		return nil, fmt.Errorf("init refdata registry: %w", err)
	}

	tickets, err := b.ticketStoreFn(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("init ticket store: %w", err)
	}

	audit, err := b.auditStoreFn(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("init audit log: %w", err)
	}

	eng := engine.New(registry, engine.WithSession(engine.Session{
		CloseHour:   cfg.Session.CloseHour,
		CloseMinute: cfg.Session.CloseMinute,
	}))

	server, err := b.serverFn(cfg.App, eng, tickets, audit)
	if err != nil {
		return nil, fmt.Errorf("init http server: %w", err)
	}

	return &App{
		cfg:      cfg,
		registry: registry,
		tickets:  tickets,
		audit:    audit,
		engine:   eng,
		server:   server,
	}, nil
}

func buildRegistry(cfg socfg.RefDataConfig) (*refdata.Registry, error) {
	return refdata.NewRegistry(cfg.Dir, cfg.MarketJSON)
}

func buildTicketStore(cfg socfg.StoreConfig) (store.TicketStore, error) {
	return storesqlite.New(cfg.TicketDB)
}

func buildAuditStore(cfg socfg.StoreConfig) (*auditlog.Store, error) {
	return auditlog.New(cfg.AuditDB)
}

func buildHTTPServer(cfg socfg.AppConfig, eng *engine.Engine, tickets store.TicketStore, audit *auditlog.Store) (*smarthttp.Server, error) {
	return smarthttp.NewServer(smarthttp.Config{
		Addr:    cfg.HTTPAddr,
		Engine:  eng,
		Tickets: tickets,
		Audit:   audit,
	})
}
