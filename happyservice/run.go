package happyservice

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Fau-Caudullo/happyapp/internal/almanac"
	"github.com/Fau-Caudullo/happyapp/internal/api"
	"github.com/Fau-Caudullo/happyapp/internal/blob"
	"github.com/Fau-Caudullo/happyapp/internal/config"
	"github.com/Fau-Caudullo/happyapp/internal/daystore"
	"github.com/Fau-Caudullo/happyapp/internal/factory"
	"github.com/Fau-Caudullo/happyapp/internal/fitness"
	"github.com/Fau-Caudullo/happyapp/internal/health"
	"github.com/Fau-Caudullo/happyapp/internal/logger"
	"github.com/Fau-Caudullo/happyapp/internal/rowstore"
	"github.com/Fau-Caudullo/happyapp/internal/services"
)

// Run starts the happyapp HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("happyapp-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}
	log = logger.WithLevel(log, cfg.LogLevel)

	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("blob_driver", cfg.BlobDriver).
		Str("rowstore_driver", cfg.RowStoreDriver).
		Int("http_port", cfg.HTTPPort).
		Str("timezone", cfg.TimeZone).
		Msg("happyapp service starting")

	// Create cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	deps, err := initDependencies(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.close(log)

	// Start health checkers before the router so /api/health reports them
	svcHealth := startHealthCheckers(ctx, cfg, log, deps)
	router := api.NewRouter(api.Deps{
		Days:    deps.days,
		Health:  deps.health,
		Journal: deps.journal,
		Almanac: deps.almanac,
		Fitness: deps.fitness,
		Status:  svcHealth,
		Log:     log,
	})

	// Block startup until dependencies report healthy; fail fast otherwise
	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	// Graceful shutdown on context cancel or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

type dependencies struct {
	blobs   blob.Store
	rows    rowstore.Store
	almanac *almanac.Client
	fitness *fitness.Client
	days    *services.DayService
	health  *services.HealthService
	journal *services.JournalService
}

// initDependencies constructs required components and enforces fail-fast on missing deps.
func initDependencies(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*dependencies, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	blobs, err := factory.NewBlobStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Blob store unavailable")
		return nil, err
	}

	rows, err := factory.NewRowStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Row store unavailable")
		if c, ok := blobs.(blob.Closer); ok {
			_ = c.Close()
		}
		return nil, err
	}

	alm := almanac.New(almanac.Options{
		BaseURL: cfg.AlmanacURL,
		Lang:    cfg.AlmanacLang,
		Timeout: time.Duration(cfg.AlmanacTimeoutSeconds) * time.Second,
	}, nil, log.With().Str("component", "almanac").Logger())

	fit := fitness.New(fitness.Options{
		BaseURL:     cfg.FitnessURL,
		ClientID:    cfg.GoogleClientID,
		RedirectURL: cfg.FitnessRedirectURL,
		Location:    loc,
	}, log.With().Str("component", "fitness").Logger())
	if cfg.GoogleClientID == "" {
		log.Warn().Msg("HAPPYAPP_GOOGLE_CLIENT_ID not set; fitness authorization is disabled")
	}

	store := daystore.New(blobs, cfg.Namespace, log.With().Str("component", "daystore").Logger())
	return &dependencies{
		blobs:   blobs,
		rows:    rows,
		almanac: alm,
		fitness: fit,
		days:    services.NewDayService(store, alm, daystore.NewIDGenerator()),
		health:  services.NewHealthService(rows, fit, loc),
		journal: services.NewJournalService(rows, loc),
	}, nil
}

func (d *dependencies) close(log zerolog.Logger) {
	for name, c := range map[string]interface{}{"blob store": d.blobs, "row store": d.rows} {
		if closer, ok := c.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				log.Warn().Err(err).Str("component", name).Msg("close failed")
			}
		}
	}
}

// startHealthCheckers starts component checkers and the service-level aggregator.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, d *dependencies) *health.ServiceHealthChecker {
	var checkers []health.HealthChecker
	pingTimeout := time.Duration(cfg.HealthPingTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	if p, ok := d.blobs.(health.HealthPinger); ok {
		blobChecker := health.NewPingChecker("blob", p, log, pingTimeout)
		go blobChecker.Start(ctx, interval)
		checkers = append(checkers, blobChecker)
	}

	rowChecker := health.NewPingChecker("rowstore", d.rows, log, pingTimeout)
	go rowChecker.Start(ctx, interval)
	checkers = append(checkers, rowChecker)

	svcHealth := health.NewServiceHealthChecker(log, checkers...)
	go svcHealth.Start(ctx, interval)
	return svcHealth
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// calculateStartupHealthTimeout returns the startup health timeout in seconds,
// calculated as interval*2 with a minimum of 30 seconds.
func calculateStartupHealthTimeout(healthIntervalSeconds int) int {
	timeout := healthIntervalSeconds * 2
	if timeout < 30 {
		return 30
	}
	return timeout
}

// waitUntilHealthy blocks until service health is healthy or the startup window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth api.ServiceHealth) error {
	timeoutSeconds := calculateStartupHealthTimeout(cfg.HealthIntervalSeconds)
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %d seconds", timeoutSeconds)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
