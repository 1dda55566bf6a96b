package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/udyogbooks/udyogbooks/internal/app"
	"github.com/udyogbooks/udyogbooks/internal/billing/invoices"
	"github.com/udyogbooks/udyogbooks/internal/billing/proposals"
	"github.com/udyogbooks/udyogbooks/internal/clients"
	"github.com/udyogbooks/udyogbooks/internal/platform/db"
	"github.com/udyogbooks/udyogbooks/internal/render"
	"github.com/udyogbooks/udyogbooks/internal/reports"
	"github.com/udyogbooks/udyogbooks/internal/settings"
	"github.com/udyogbooks/udyogbooks/jobs"

	jobmetrics "github.com/udyogbooks/udyogbooks/internal/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	settingsService := settings.NewService(logger, settings.NewRepository(pool))
	clientRepo := clients.NewRepository(pool)
	invoiceService := invoices.NewService(invoices.NewRepository(pool), clientRepo, settingsService)
	proposalService := proposals.NewService(proposals.NewRepository(pool), clientRepo, settingsService, invoiceService)
	reportsService := reports.NewService(logger, reports.NewRepository(pool))

	htmlRenderer, err := render.NewHTML(logger)
	if err != nil {
		logger.Error("parse document templates", slog.Any("error", err))
		os.Exit(1)
	}
	renderers := []render.Renderer{render.NewPDF(logger), htmlRenderer, render.NewXLSX(logger)}

	metrics := jobmetrics.NewMetrics(nil)
	renderJob := jobs.NewDocumentRenderJob(logger, metrics, cfg.DocumentStorageDir, invoiceService, proposalService, renderers)
	sweepJob := jobs.NewNightlySweepJob(logger, metrics, invoiceService, proposalService, reportsService.Bust)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeDocumentRender, Handler: renderJob.Handle},
			{Type: jobs.TaskTypeNightlySweep, Handler: sweepJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "30 0 * * *", Task: jobs.NewNightlySweepTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
