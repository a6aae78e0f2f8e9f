package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/okian/osuwrapped/internal/adapters/card"
	"github.com/okian/osuwrapped/internal/adapters/http/api"
	"github.com/okian/osuwrapped/internal/adapters/http/site"
	"github.com/okian/osuwrapped/internal/adapters/http/swagger"
	"github.com/okian/osuwrapped/internal/adapters/imageproxy"
	"github.com/okian/osuwrapped/internal/adapters/osu"
	"github.com/okian/osuwrapped/internal/adapters/session"
	service "github.com/okian/osuwrapped/internal/app"
	"github.com/okian/osuwrapped/internal/config"
	"github.com/okian/osuwrapped/internal/domain/nonce"
	"github.com/okian/osuwrapped/internal/domain/recap"
	"github.com/okian/osuwrapped/pkg/logger"
	"github.com/okian/osuwrapped/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	stateMetricsInterval      = 30 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		os.Stderr.WriteString("failed to read .env: " + err.Error() + "\n")
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Named("wrapped")

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	metricsManager := initMetrics(cfg)

	states := nonce.NewInMemoryLedger(
		nonce.WithMaxSize(cfg.StateCapacity),
		nonce.WithTTL(cfg.StateTTL()),
	)
	handler, err := newHandler(ctx, cfg, states, log)
	if err != nil {
		log.Error(ctx, "failed to build handler", logger.Error(err))
		return
	}

	go startSystemMetricsUpdater(ctx, metricsManager.RefreshInterval())
	go startStateMetricsUpdater(ctx, states)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("public_url", cfg.PublicURL),
			logger.Int("recap_year", cfg.RecapYear),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// newHandler wires every component from cfg and returns the root handler.
func newHandler(ctx context.Context, cfg *config.Config, states nonce.Ledger, log logger.Logger) (http.Handler, error) {
	pages, err := site.New()
	if err != nil {
		return nil, err
	}

	upstream := &http.Client{Timeout: cfg.UpstreamTimeout()}

	client := osu.NewClient(cfg.OsuAPIURL,
		osu.WithHTTPClient(upstream),
		osu.WithTimeout(cfg.UpstreamTimeout()),
		osu.WithLogger(log.Named("osu")),
	)
	auth := osu.NewOAuth(osu.OAuthConfig{
		ClientID:     cfg.OsuClientID,
		ClientSecret: cfg.OsuClientSecret,
		RedirectURL:  cfg.OsuRedirectURI,
		AuthURL:      cfg.OsuAuthorizeURL,
		TokenURL:     cfg.OsuTokenURL,
	}, upstream)

	svc := service.New(client,
		service.WithLogger(log.Named("service")),
		service.WithAggregator(recap.New(recap.WithLocation(cfg.Location()))),
		service.WithBestScoresLimit(cfg.BestScoresLimit),
		service.WithDefaultYear(cfg.RecapYear),
	)

	// The proxy dials through its own guarded client, never the provider one.
	images := imageproxy.NewFetcher(cfg.ProxyAllowedHosts,
		imageproxy.WithMaxBytes(cfg.ProxyMaxBytes),
		imageproxy.WithTimeout(cfg.UpstreamTimeout()),
	)
	cards := card.NewRenderer(
		card.WithCoverFetcher(images),
		card.WithLogger(log.Named("card")),
	)
	sessions := session.NewCodec(cfg.SessionSecret,
		session.WithCookieName(cfg.SessionCookieName),
		session.WithSecure(cfg.SessionCookieSecure),
	)

	mux := http.NewServeMux()
	site.Register(ctx, mux)
	swagger.Register(ctx, mux)

	apiServer := api.NewServer(api.Dependencies{
		Service:  svc,
		Auth:     auth,
		Sessions: sessions,
		States:   states,
		Images:   images,
		Cards:    cards,
		Pages:    pages,
	}, api.WithRateLimiter(api.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)))
	apiServer.Register(ctx, mux)

	return api.RequestContext(log.Named("http"), mux), nil
}

// initMetrics rebuilds the global metrics manager from config. It must run
// before newHandler mounts the scrape registry.
func initMetrics(cfg *config.Config) *metrics.Manager {
	return metrics.Init(
		metrics.WithMetricsEnabled(cfg.MetricsEnabled),
		metrics.WithRefreshInterval(cfg.MetricsRefresh()),
		metrics.WithInstance(cfg.MetricsInstance),
	)
}

// startSystemMetricsUpdater samples runtime gauges every interval until ctx ends.
func startSystemMetricsUpdater(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startStateMetricsUpdater keeps the pending-state gauge current as entries expire.
func startStateMetricsUpdater(ctx context.Context, states nonce.Ledger) {
	ticker := time.NewTicker(stateMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdatePendingStates(states.Size())
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		// Calculate average GC pause time
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
