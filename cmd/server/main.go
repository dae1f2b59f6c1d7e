package main

import (
	"context"
	"log"
	"net/http"

	"github.com/sanjshine99/care-app-backend/internal/assignment"
	"github.com/sanjshine99/care-app-backend/internal/authn"
	"github.com/sanjshine99/care-app-backend/internal/config"
	"github.com/sanjshine99/care-app-backend/internal/httpapi"
	"github.com/sanjshine99/care-app-backend/internal/logging"
	"github.com/sanjshine99/care-app-backend/internal/metrics"
	"github.com/sanjshine99/care-app-backend/internal/notify"
	"github.com/sanjshine99/care-app-backend/internal/orchestrator"
	"github.com/sanjshine99/care-app-backend/internal/routing"
	"github.com/sanjshine99/care-app-backend/internal/settings"
	"github.com/sanjshine99/care-app-backend/internal/store/pgstore"
	"github.com/sanjshine99/care-app-backend/internal/validator"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.Init(cfg.Env)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer logger.Sync()

	pool, err := pgstore.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to db", zap.Error(err))
	}
	defer pool.Close()

	careGivers := pgstore.CareGivers{Pool: pool}
	careReceivers := pgstore.CareReceivers{Pool: pool}
	availability := pgstore.Availability{Pool: pool}
	appointments := pgstore.Appointments{Pool: pool}
	settingsRepo := pgstore.Settings{Pool: pool}

	settingsSvc := settings.New(settingsRepo)

	router := routing.NewDefault()
	if cfg.RoutingAPIKey != "" && cfg.RoutingEndpoint != "" {
		router = routing.NewHTTPClient(routing.Config{APIKey: cfg.RoutingAPIKey, Endpoint: cfg.RoutingEndpoint})
	}

	notifier := notify.NewDefault(cfg.NotifyWebhookURL, logger)

	engine := &assignment.Engine{
		CareGivers:    careGivers,
		CareReceivers: careReceivers,
		Availability:  availability,
		Appointments:  appointments,
		Router:        router,
	}
	v := &validator.Validator{
		CareGivers:    careGivers,
		CareReceivers: careReceivers,
		Availability:  availability,
		Appointments:  appointments,
	}
	orch := &orchestrator.Orchestrator{
		Engine:        engine,
		Validator:     v,
		Settings:      settingsSvc,
		Notifier:      notifier,
		CareReceivers: careReceivers,
	}

	h := &httpapi.Handler{
		Orchestrator:  orch,
		Engine:        engine,
		CareGivers:    careGivers,
		CareReceivers: careReceivers,
		Availability:  availability,
		Appointments:  appointments,
		Settings:      settingsSvc,
		Router:        router,
	}

	authCfg := authn.Config{StaticTokens: cfg.StaticTokens, JWTSecret: cfg.JWTHMACSecret}
	ginRouter := httpapi.NewRouter(h, authCfg)

	logger.Info("starting server", zap.String("addr", cfg.ListenAddr))
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: metrics.Middleware(ginRouter),
	}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server exited", zap.Error(err))
	}
}
