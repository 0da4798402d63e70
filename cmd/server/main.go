package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blendresto/internal/config"
	"blendresto/internal/infra"
	"blendresto/internal/repository"
	"blendresto/internal/router"
	"blendresto/internal/service"
	"blendresto/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Background machinery is wired here (composition root) so the pool and
	// crons have full access to all infrastructure dependencies.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mailer := infra.NewMailer(cfg)
	smtpCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	dispatcher := worker.NewDispatcher(rdb)

	tenantRepo := repository.NewTenantRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	shiftRepo := repository.NewShiftRepository(db)

	alertWorker := worker.NewAlertWorker(tenantRepo, mailer, smtpCB, rdb)
	worker.StartWorkerPool(ctx, rdb, cfg.WorkerPoolSize, alertWorker)

	push := infra.NewPushChannel(rdb, cfg.RealtimeChannel)
	alertSvc := service.NewAlertService(push, dispatcher, cfg.MarginAlertFloorPct, cfg.LaborCostMaxRatio)
	worker.StartLaborCron(ctx, worker.LaborCronConfig{
		Tenants: tenantRepo,
		Orders:  orderRepo,
		Shifts:  shiftRepo,
		Alerts:  alertSvc,
	})

	r, bus := router.New(cfg, db, rdb)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("BlendResto backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}

	// Drain in-flight fulfillment consumers before exiting — an order.paid
	// occurrence accepted before shutdown still gets its side effects.
	bus.Wait()
	log.Info().Msg("server exited")
}
