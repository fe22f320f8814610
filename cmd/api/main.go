package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"outlet-insights-go/internal/api"
	"outlet-insights-go/internal/assistant"
	"outlet-insights-go/internal/config"
	"outlet-insights-go/internal/dashboard"
	"outlet-insights-go/internal/logger"
	"outlet-insights-go/internal/narrative"
	"outlet-insights-go/internal/store"
)

func main() {
	log := logger.New()
	log.WithField("service", "outlet-insights-go").Info("starting service")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	loc, err := cfg.Dashboard.Location()
	if err != nil {
		log.WithError(err).Fatal("invalid dashboard timezone")
	}

	profile := narrative.DefaultProfile()
	if cfg.Dashboard.ProfilePath != "" {
		log.WithField("profile_path", cfg.Dashboard.ProfilePath).Info("loading narrative profile")
		if profile, err = narrative.LoadProfile(cfg.Dashboard.ProfilePath); err != nil {
			log.WithError(err).Fatal("failed to load narrative profile")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := store.Connect(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer pool.Close()

	if cfg.LLM.UseMock {
		log.Warn("USE_MOCK_LLM is set, chat replies are canned")
	}
	svc := dashboard.New(store.NewRepository(pool), assistant.New(assistant.NewClient(cfg.LLM)), dashboard.Options{
		TrendFields: cfg.Dashboard.TrendFields,
		SalesDays:   cfg.Dashboard.SalesHistory,
		Profile:     profile,
	})
	handler := api.NewHandler(svc, loc)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(cfg.Dashboard.RequestTimeout),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("graceful shutdown failed")
		}
	}()

	log.WithField("addr", addr).WithField("env", cfg.Environment).Info("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server terminated")
	}
	log.Info("server stopped")
}
