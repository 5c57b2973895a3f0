package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jhoicas/farms-ledger/internal/application/billing"
	"github.com/jhoicas/farms-ledger/internal/application/inventory"
	"github.com/jhoicas/farms-ledger/internal/application/query"
	infracache "github.com/jhoicas/farms-ledger/internal/infrastructure/cache"
	infranotify "github.com/jhoicas/farms-ledger/internal/infrastructure/notify"
	infrapdf "github.com/jhoicas/farms-ledger/internal/infrastructure/pdf"
	"github.com/jhoicas/farms-ledger/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/farms-ledger/internal/interfaces/http"
	"github.com/jhoicas/farms-ledger/pkg/config"
	"github.com/jhoicas/farms-ledger/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
		App:   cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Bool("allow_backorder", cfg.Ledger.AllowBackorder).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if cfg.DB.Migrate {
		applied, err := postgres.Migrate(ctx, pool)
		if err != nil {
			log.Fatal().Err(err).Msg("migración del esquema")
		}
		log.Info().Strs("applied", applied).Msg("esquema al día")
	}

	movementRepo := postgres.NewMovementRepository(pool)
	stockRepo := postgres.NewStockRepository(pool)
	billRepo := postgres.NewBillRepository(pool)
	refRepo := postgres.NewReferenceRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Avisos SMS: Textlocal si está habilitado; si no, solo se registran en el log.
	var sender infranotify.Sender = infranotify.NewLogSender(log.Named("notify"))
	if cfg.SMS.Enabled {
		sender = infranotify.NewTextlocalSender(cfg.SMS)
	}
	notifier := infranotify.NewAsyncNotifier(sender, cfg.SMS.Numbers, cfg.SMS.Timeout, log.Named("notify"))

	ledger := inventory.NewStockLedger(cfg.Ledger.AllowBackorder)
	movementLog := inventory.NewMovementLog(refRepo, movementRepo)
	transferUC := inventory.NewTransferUseCase(txRunner, movementLog, ledger, notifier, log.Named("inventory"))
	saleUC := billing.NewSaleUseCase(txRunner, ledger, billRepo, refRepo, notifier, log.Named("billing"))
	receiptUC := billing.NewReceiptUseCase(billRepo, infrapdf.NewReceiptGenerator(cfg.App.Name))

	var queries query.Service = query.NewUseCase(movementRepo, billRepo, stockRepo, refRepo)
	if cfg.Redis.Enabled() {
		client, err := infracache.Connect(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer client.Close()
		queries = query.NewCachedService(queries, infracache.NewRedisCache(client), cfg.Redis.TTL, log.Named("cache"))
		log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.TTL).Msg("caché de listados activa")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "FARMS Ledger API",
		}))
	} else {
		log.Warn().Str("file", swaggerFile).Msg("sin documento swagger; /docs deshabilitado")
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		Transfer:  transferUC,
		Sales:     saleUC,
		Receipts:  receiptUC,
		Query:     queries,
		Logger:    log.Named("http"),
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	// Esperar los avisos en vuelo antes de cerrar el pool.
	notifier.Wait()

	log.Info().Msg("aplicación detenida")
}
