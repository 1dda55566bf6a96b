package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/udyogbooks/udyogbooks/internal/app"
	"github.com/udyogbooks/udyogbooks/internal/auth"
	"github.com/udyogbooks/udyogbooks/internal/billing/invoices"
	"github.com/udyogbooks/udyogbooks/internal/billing/proposals"
	"github.com/udyogbooks/udyogbooks/internal/clients"
	"github.com/udyogbooks/udyogbooks/internal/expenses"
	"github.com/udyogbooks/udyogbooks/internal/observability"
	"github.com/udyogbooks/udyogbooks/internal/platform/cache"
	"github.com/udyogbooks/udyogbooks/internal/platform/db"
	"github.com/udyogbooks/udyogbooks/internal/render"
	"github.com/udyogbooks/udyogbooks/internal/reports"
	"github.com/udyogbooks/udyogbooks/internal/settings"
	"github.com/udyogbooks/udyogbooks/internal/shared"
	"github.com/udyogbooks/udyogbooks/internal/vendors"
	"github.com/udyogbooks/udyogbooks/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionTTL, cfg.SessionRefreshWindow, cfg.SessionGrace, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, sessionManager)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	settingsService := settings.NewService(logger, settings.NewRepository(pool))
	clientService := clients.NewService(clients.NewRepository(pool))
	vendorService := vendors.NewService(vendors.NewRepository(pool))

	clientRepo := clients.NewRepository(pool)
	invoiceService := invoices.NewService(invoices.NewRepository(pool), clientRepo, settingsService)
	proposalService := proposals.NewService(proposals.NewRepository(pool), clientRepo, settingsService, invoiceService)
	expenseService := expenses.NewService(expenses.NewRepository(pool), vendors.NewRepository(pool), clientRepo, settingsService)

	reportsService := reports.NewService(logger, reports.NewRepository(pool))
	invoiceService.OnWrite(reportsService.Bust)
	proposalService.OnWrite(reportsService.Bust)
	expenseService.OnWrite(reportsService.Bust)

	htmlRenderer, err := render.NewHTML(logger)
	if err != nil {
		logger.Error("parse document templates", slog.Any("error", err))
		os.Exit(1)
	}
	renderers := []render.Renderer{render.NewPDF(logger), htmlRenderer, render.NewXLSX(logger)}

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		AuthHandler:      authHandler,
		ClientsHandler:   clients.NewHandler(logger, clientService),
		VendorsHandler:   vendors.NewHandler(logger, vendorService),
		InvoicesHandler:  invoices.NewHandler(logger, invoiceService, renderers, jobClient),
		ProposalsHandler: proposals.NewHandler(logger, proposalService, renderers, jobClient),
		ExpensesHandler:  expenses.NewHandler(logger, expenseService),
		ReportsHandler:   reports.NewHandler(logger, reportsService),
		SettingsHandler:  settings.NewHandler(logger, settingsService),
		JobHandler:       jobs.NewHandler(inspector, logger),
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
