package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/BlackMission/workosauth/internal/config"
	"github.com/BlackMission/workosauth/internal/metrics"
	"github.com/BlackMission/workosauth/internal/server"
	"github.com/BlackMission/workosauth/internal/session"
	"github.com/BlackMission/workosauth/internal/state"
	"github.com/BlackMission/workosauth/internal/strategy"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Build session store
	var store session.Store
	if cfg.Redis.URL != "" {
		client, err := session.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		store = session.NewRedisStore(client)
		logger.Info("sessions stored in redis")
	} else {
		mem := session.NewMemoryStore()
		go sweep(ctx, mem, time.Minute)
		store = mem
		logger.Info("sessions stored in memory")
	}

	codec, err := session.NewCodec([]byte(cfg.Secrets.SessionEncryptionKey), cfg.Session.TTL)
	if err != nil {
		logger.Error("failed to create session codec", "error", err)
		os.Exit(1)
	}
	sessions := session.NewManager(store, codec, cfg.Session.TTL, session.CookieOptions{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.CookieSecure,
	}, logger)

	// Build strategy
	callbackURL := cfg.WorkOS.CallbackURL
	if callbackURL == "" && cfg.Server.BaseURL != "" {
		callbackURL = cfg.Server.BaseURL + cfg.CallbackPath()
	}
	sso := strategy.New(strategy.Options{
		ClientID:          cfg.WorkOS.ClientID,
		ClientSecret:      cfg.WorkOS.ClientSecret,
		BaseURL:           cfg.WorkOS.BaseURL,
		AuthorizePath:     cfg.WorkOS.AuthorizePath,
		TokenPath:         cfg.WorkOS.TokenPath,
		CallbackURL:       callbackURL,
		CallbackPath:      cfg.CallbackPath(),
		TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
		AuthorizeOptions:  cfg.WorkOS.AuthorizeOptions,
		InfoFields:        cfg.WorkOS.InfoFields,
	}, state.NewService([]byte(cfg.Secrets.StateSigningKey)),
		strategy.WithHTTPClient(&http.Client{Timeout: 10 * time.Second}),
		strategy.WithLogger(logger),
	)
	if callbackURL == "" && !cfg.Server.TrustProxyHeaders {
		logger.Warn("BASE_URL is not set; the callback URL follows the request Host header")
	}
	if cfg.WorkOS.ClientID == "" || cfg.WorkOS.ClientSecret == "" {
		logger.Warn("WorkOS credentials are not configured; every sign-in attempt will fail")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Build and start server
	srv := server.New(server.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		RequestPath:  cfg.RequestPath(),
		CallbackPath: cfg.CallbackPath(),
		FailurePath:  cfg.FailurePath(),
	}, server.Deps{
		Strategy: sso,
		Sessions: sessions,
		Metrics:  metrics.New(reg),
		Gatherer: reg,
		Logger:   logger,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

// sweep drops expired in-memory session entries until ctx is done.
func sweep(ctx context.Context, store *session.MemoryStore, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.Sweep(); n > 0 {
				slog.Debug("swept expired sessions", "count", n)
			}
		}
	}
}
