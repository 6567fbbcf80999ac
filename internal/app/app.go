package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/hrc-bakery/storefront/db"
	"github.com/hrc-bakery/storefront/internal/auth"
	"github.com/hrc-bakery/storefront/internal/catalog"
	"github.com/hrc-bakery/storefront/internal/checkout"
	"github.com/hrc-bakery/storefront/internal/handler"
	"github.com/hrc-bakery/storefront/internal/order"
	"github.com/hrc-bakery/storefront/internal/orderview"
	"github.com/hrc-bakery/storefront/internal/reference"
	"github.com/hrc-bakery/storefront/internal/storage/postgres"
	"github.com/hrc-bakery/storefront/pkg/health"
	"github.com/hrc-bakery/storefront/pkg/httpmiddleware"
)

// Telemetry provides the tracer and meter providers. *app.Telemetry
// satisfies it.
type Telemetry interface {
	TracerProvider() trace.TracerProvider
	MeterProvider() metric.MeterProvider
}

var _ Telemetry = (*app.Telemetry)(nil)

// service is the wired application.
type service struct {
	handler http.Handler
	health  *health.Health
	tables  *catalog.Tables
	pool    *pgxpool.Pool
}

// Close releases the database pool, if any.
func (s *service) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// newService builds every component. The catalog comes from PostgreSQL
// when a database URL is configured and from the embedded seed otherwise.
func newService(ctx context.Context, lg *zap.Logger, tel Telemetry, cfg *Config) (_ *service, err error) {
	s := &service{health: health.New()}
	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	staticKeys := auth.NewStaticKeys(cfg.AdminKeyHashes)
	keys := auth.Chain{staticKeys}
	var writer catalog.Writer

	var snap *catalog.Snapshot
	if cfg.DatabaseURL != "" {
		if s.pool, err = postgres.NewPool(ctx, cfg.DatabaseURL); err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, s.pool); err != nil {
			return nil, errors.Wrap(err, "run migrations")
		}
		repo := postgres.NewCatalogRepository(s.pool)
		if snap, err = loadOrSeed(ctx, lg, repo); err != nil {
			return nil, err
		}
		writer = repo
		keys = append(keys, postgres.NewAPIKeyRepository(s.pool))
		s.health.Add(health.Readiness, "postgres", health.PingCheck(s.pool.Ping),
			health.WithTimeout(5*time.Second),
		)
	} else {
		if snap, err = catalog.DecodeSnapshot(db.CatalogSeed); err != nil {
			return nil, errors.Wrap(err, "decode embedded catalog")
		}
		lg.Info("Using embedded catalog")
	}
	if staticKeys.Len() == 0 && s.pool == nil {
		lg.Warn("No admin API keys configured; admin endpoints will reject every request")
	}

	s.tables = catalog.NewTables(snap)
	resolver, err := reference.NewResolver(s.tables, reference.WithMeterProvider(tel.MeterProvider()))
	if err != nil {
		return nil, errors.Wrap(err, "create resolver")
	}
	s.tables.OnChange(resolver.ClearCache)

	var storeOpts []order.Option
	if cfg.Orders.StrictStatus {
		storeOpts = append(storeOpts, order.WithStrictTransitions())
	}
	store := order.NewStore(storeOpts...)

	s.health.Add(health.Liveness, "goroutines", health.GoroutineCountCheck(10000))
	s.health.Add(health.Readiness, "catalog", health.NonEmptyCheck("catalog", func() int {
		return len(s.tables.Cakes(true))
	}))

	h := handler.New(
		handler.Config{
			CheckoutLimit: httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
		},
		s.tables,
		catalog.NewAdmin(s.tables, writer),
		checkout.NewService(resolver, store),
		store,
		orderview.NewService(store, resolver, orderview.WithTracerProvider(tel.TracerProvider())),
		auth.NewAuthenticator(keys, []byte(cfg.APIKeyPepper)),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", s.health.LiveEndpoint)
	mux.HandleFunc("GET /readyz", s.health.ReadyEndpoint)
	h.Register(mux)

	s.handler = httpmiddleware.Wrap(mux,
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", "Authorization", handler.APIKeyHeader, httpmiddleware.RequestIDHeader},
			ExposeHeaders:    []string{httpmiddleware.RequestIDHeader},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.Instrument("hrc-storefront", tel.TracerProvider(), tel.MeterProvider()),
		httpmiddleware.LogRequests(),
		httpmiddleware.Labeler(),
	)
	return s, nil
}

// loadOrSeed loads the catalog, seeding an empty database from the embedded
// snapshot first.
func loadOrSeed(ctx context.Context, lg *zap.Logger, repo *postgres.CatalogRepository) (*catalog.Snapshot, error) {
	snap, err := repo.LoadCatalog(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load catalog")
	}
	if len(snap.Cakes) > 0 {
		lg.Info("Catalog loaded",
			zap.Int("cakes", len(snap.Cakes)),
			zap.Int("decorations", len(snap.Decorations)),
			zap.Int("zones", len(snap.Zones)),
		)
		return snap, nil
	}

	seed, err := catalog.DecodeSnapshot(db.CatalogSeed)
	if err != nil {
		return nil, errors.Wrap(err, "decode embedded catalog")
	}
	if err := repo.SaveSnapshot(ctx, seed); err != nil {
		return nil, errors.Wrap(err, "seed catalog")
	}
	lg.Info("Seeded empty database with embedded catalog")
	return seed, nil
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	svc, err := newService(ctx, lg, m, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	svc.health.Start(zctx.Base(ctx, lg), 10*time.Second)
	svc.health.SetReady(true)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           svc.handler,
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		svc.health.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		svc.health.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
