// main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"travlr/config"
	"travlr/controllers"
	"travlr/events"
	"travlr/logging"
	"travlr/metrics"
	"travlr/middleware"
	"travlr/ratelimit"
	"travlr/routes"
	"travlr/services"
	"travlr/store"
	"travlr/utils"
	"travlr/worker"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, disconnect, err := initStore(ctx, cfg, &logger)
	if err != nil {
		return err
	}
	defer disconnect()

	counter, closeCounter := initCounter(cfg, &logger)
	defer closeCounter()

	bus := events.NewEventBus().WithLogger(&logger)
	events.SubscribeAudit(bus, &logger)

	var wg sync.WaitGroup
	startEmailWorker(ctx, &wg, cfg, bus, &logger)
	startMetrics(ctx, &wg, cfg, &logger)

	tokens := utils.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	hasher := utils.PasswordHasher{Iterations: cfg.Auth.PBKDF2Iterations}
	timeout := cfg.Database.Timeout

	auth := services.NewAuthService(st, tokens, hasher, bus, timeout, &logger)
	c := routes.Controllers{
		Users:    controllers.NewUserController(auth, &logger),
		Trips:    controllers.NewTripController(services.NewTripService(st, timeout), &logger),
		Carts:    controllers.NewCartController(services.NewCartService(st, st, bus, timeout, &logger), &logger),
		Bookings: controllers.NewBookingController(services.NewBookingService(st, st, bus, timeout, &logger), &logger),
		Health:   controllers.NewHealthController(st, timeout),
	}
	limits := routes.Limiters{
		Login: &middleware.AttemptLimiter{
			Name:    "login",
			Max:     cfg.RateLimit.Login.Max,
			Window:  cfg.RateLimit.Login.Window,
			Message: "Too many login attempts. Please try again after 15 minutes.",
			Counter: counter,
			Logger:  &logger,
		},
		Register: &middleware.AttemptLimiter{
			Name:    "register",
			Max:     cfg.RateLimit.Register.Max,
			Window:  cfg.RateLimit.Register.Window,
			Message: "Too many accounts created from this IP. Please try again after an hour.",
			Counter: counter,
			Logger:  &logger,
		},
	}

	router := mux.NewRouter()
	router.Use(middleware.RequestLogger(&logger))
	router.Use(middleware.Recovery(&logger))
	if cfg.RateLimit.RPS > 0 {
		router.Use(middleware.NewThrottle(cfg.RateLimit.RPS, cfg.RateLimit.Burst).Middleware)
	}
	routes.RegisterRoutes(router, tokens, c, limits)

	// CORS wraps the router so preflight requests never reach route matching
	handler := middleware.CORS(cfg.Server.CORSOrigins)(router)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Str("database", cfg.Database.Driver).Msg("Server is running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			stop()
			wg.Wait()
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	stop()
	wg.Wait()
	logger.Info().Msg("server stopped")
	return nil
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}

	return cfg, *baseLogger, closer, nil
}

func initStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (store.Store, func(), error) {
	if cfg.Database.Driver == config.DriverMemory {
		logger.Warn().Msg("using in-memory store, data is lost on restart")
		return store.NewMemory(), func() {}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 2*cfg.Database.Timeout)
	defer cancel()

	client, err := utils.ConnectDB(connectCtx, cfg.Database.URI)
	if err != nil {
		return nil, nil, err
	}
	disconnect := func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(dctx); err != nil {
			logger.Error().Err(err).Msg("mongodb disconnect failed")
		}
	}

	st := store.NewMongo(client.Database(cfg.Database.Name))
	if err := st.EnsureIndexes(connectCtx); err != nil {
		disconnect()
		return nil, nil, fmt.Errorf("ensure indexes: %w", err)
	}

	logger.Info().Str("database", cfg.Database.Name).Msg("Connected to MongoDB!")
	return st, disconnect, nil
}

// initCounter prefers Redis for attempt counters and falls back to memory
// when Redis is not configured or unreachable.
func initCounter(cfg *config.Config, logger *zerolog.Logger) (ratelimit.Counter, func()) {
	memory := ratelimit.NewMemoryCounter()
	if cfg.Redis.Address == "" {
		return memory, func() {}
	}

	client := ratelimit.NewRedisClient(cfg.Redis)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := ratelimit.Ping(ctx, client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, starting on the memory counter")
	} else {
		logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	}

	return ratelimit.NewFailoverCounter(ratelimit.NewRedisCounter(client), memory, logger), func() { _ = client.Close() }
}

func startEmailWorker(ctx context.Context, wg *sync.WaitGroup, cfg *config.Config, bus *events.EventBus, logger *zerolog.Logger) {
	if cfg.Email.Provider == "" {
		logger.Info().Msg("email provider not configured, notifications disabled")
		return
	}

	emailService, err := utils.NewEmailService(cfg.Email.Provider, cfg.Email.APIToken, cfg.Email.Sender, cfg.Email.BaseURL)
	if err != nil {
		logger.Warn().Err(err).Msg("email init failed, notifications disabled")
		return
	}

	w := worker.NewEmailWorker(emailService, worker.RetryPolicy{Jitter: 0.2}, 0, logger)
	w.Subscribe(bus)

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.Start(ctx)
	}()
}

func startMetrics(ctx context.Context, wg *sync.WaitGroup, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	wg.Add(1)
	go func() {
		defer wg.Done()
		startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
	}()
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
