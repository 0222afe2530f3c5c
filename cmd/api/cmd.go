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

	"github.com/joho/godotenv"

	"github.com/GregMSThompson/finance-dashboard/internal/bootstrap"
	"github.com/GregMSThompson/finance-dashboard/internal/config"
	"github.com/GregMSThompson/finance-dashboard/internal/handlers"
	"github.com/GregMSThompson/finance-dashboard/internal/poller"
	"github.com/GregMSThompson/finance-dashboard/internal/response"
	"github.com/GregMSThompson/finance-dashboard/internal/router"
	"github.com/GregMSThompson/finance-dashboard/internal/services"
	"github.com/GregMSThompson/finance-dashboard/pkg/logger"
)

const shutdownGrace = 10 * time.Second

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

func main() {
	// a missing .env is fine; real environment variables still apply
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// bootstrap
	cfg, err := config.New()
	exitOnError("config failed", err, slog.Default())
	bs, err := bootstrap.Run(ctx, cfg)
	exitOnError("bootstrap failed", err, bs.Log)
	defer bs.Close()
	ctx = logger.ToContext(ctx, bs.Log)

	seeds := services.DefaultSeeds()
	if len(cfg.Seeds) > 0 {
		seeds = cfg.Seeds
	}
	rules := cfg.HeaderRules
	if len(rules) == 0 {
		rules = services.DefaultHeaderRules()
	}

	// services
	regsvc, err := services.NewRegistryService(ctx, bs.Store, seeds)
	exitOnError("registry load failed", err, bs.Log)
	prxsvc := services.NewProxyService(&http.Client{Timeout: cfg.ProxyTimeout}, bs.DefaultToken, cfg.ProxyUserAgent)
	fetsvc := services.NewFetchService(prxsvc, rules)

	// polling
	mgr := poller.NewManager(ctx, fetsvc, poller.Options{
		MinInterval:  cfg.MinInterval,
		CycleTimeout: cfg.ProxyTimeout,
	})
	regsvc.Subscribe(mgr.Sync)
	mgr.Sync(regsvc.List(ctx))
	defer mgr.Close()

	// dependancies
	deps := new(handlers.Deps)
	deps.Log = bs.Log
	deps.ResponseHandler = response.New(bs.Log)
	deps.RegistrySvc = regsvc
	deps.ProxySvc = prxsvc
	deps.Poller = mgr

	// router
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			bs.Log.Error("server shutdown failed", "error", err)
		}
	}()

	bs.Log.Info("dashboard listening", "port", cfg.Port, "storage", cfg.StorageBackend, "widgets", len(regsvc.List(ctx)))
	err = srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	exitOnError("server start failed", err, bs.Log)
}
