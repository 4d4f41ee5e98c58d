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
	"github.com/joho/godotenv"

	"github.com/taller-erp/taller-erp/internal/app"
	"github.com/taller-erp/taller-erp/internal/auth"
	"github.com/taller-erp/taller-erp/internal/clients"
	"github.com/taller-erp/taller-erp/internal/employees"
	"github.com/taller-erp/taller-erp/internal/materials"
	"github.com/taller-erp/taller-erp/internal/platform/cache"
	"github.com/taller-erp/taller-erp/internal/platform/db"
	"github.com/taller-erp/taller-erp/internal/purchases"
	"github.com/taller-erp/taller-erp/internal/quotations"
	"github.com/taller-erp/taller-erp/internal/sales"
	"github.com/taller-erp/taller-erp/internal/shared"
	"github.com/taller-erp/taller-erp/internal/suppliers"
	"github.com/taller-erp/taller-erp/internal/users"
	"github.com/taller-erp/taller-erp/jobs"
)

func main() {
	_ = godotenv.Load()

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

	jobClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL, redisClient)
	authService := auth.NewService(auth.NewRepository(pool), tokens)
	authHandler := auth.NewHandler(logger, authService)
	authMiddleware := &auth.Middleware{Tokens: tokens}

	usersService := users.NewService(users.NewRepository(pool), auditLogger)
	usersHandler := users.NewHandler(logger, usersService)

	clientsService := clients.NewService(clients.NewRepository(pool), auditLogger)
	clientsHandler := clients.NewHandler(logger, clientsService)

	suppliersService := suppliers.NewService(suppliers.NewRepository(pool), auditLogger)
	suppliersHandler := suppliers.NewHandler(logger, suppliersService)

	employeesService := employees.NewService(employees.NewRepository(pool), auditLogger)
	employeesHandler := employees.NewHandler(logger, employeesService)

	materialsService := materials.NewService(materials.NewRepository(pool), auditLogger)
	materialsHandler := materials.NewHandler(logger, materialsService)

	salesService := sales.NewService(sales.NewRepository(pool), jobClient, auditLogger)
	salesHandler := sales.NewHandler(logger, salesService)

	quotationsService := quotations.NewService(quotations.NewRepository(pool), salesService, auditLogger)
	quotationsHandler := quotations.NewHandler(logger, quotationsService)

	purchasesService := purchases.NewService(purchases.NewRepository(pool), jobClient, auditLogger)
	purchasesHandler := purchases.NewHandler(logger, purchasesService)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		AuthHandler:       authHandler,
		AuthMiddleware:    authMiddleware,
		UsersHandler:      usersHandler,
		ClientsHandler:    clientsHandler,
		SuppliersHandler:  suppliersHandler,
		EmployeesHandler:  employeesHandler,
		MaterialsHandler:  materialsHandler,
		QuotationsHandler: quotationsHandler,
		PurchasesHandler:  purchasesHandler,
		SalesHandler:      salesHandler,
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
