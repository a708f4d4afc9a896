package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"

	"github.com/jhoicas/stockledger-api/internal/application/auth"
	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/application/notification"
	"github.com/jhoicas/stockledger-api/internal/application/usecase"
	infrakafka "github.com/jhoicas/stockledger-api/internal/infrastructure/kafka"
	infrapdf "github.com/jhoicas/stockledger-api/internal/infrastructure/pdf"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/stockledger-api/internal/infrastructure/redis"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/scheduler"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/telemetry"
	httpRouter "github.com/jhoicas/stockledger-api/internal/interfaces/http"
	"github.com/jhoicas/stockledger-api/pkg/config"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Levanta la API HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg, log)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(parent context.Context, cfg *config.Config, log *logger.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry, cfg.App.Name, cfg.App.Env)
	if err != nil {
		return err
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer pool.Close()

	companyRepo := postgres.NewCompanyRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	warehouseRepo := postgres.NewWarehouseRepository(pool)
	itemRepo := postgres.NewItemRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Redis es opcional: sin él no hay difusión en vivo ni stream SSE.
	var (
		broadcaster notification.Broadcaster
		subscriber  notification.Subscriber
	)
	if cfg.Redis.Enabled() {
		client, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()
		b := infraredis.NewBroadcaster(client, log)
		broadcaster, subscriber = b, b
		log.Info().Str("addr", cfg.Redis.Addr).Msg("broadcaster Redis habilitado")
	}

	notifSvc := notification.NewService(postgres.NewNotificationRepository(pool), userRepo, broadcaster, log)
	hooks := []inventory.PostCommitHook{
		notification.NewHook(notifSvc, notification.NewComposer(cfg.Notifications.Locale)),
	}
	if cfg.Kafka.Enabled() {
		publisher := infrakafka.NewLedgerPublisher(infrakafka.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic))
		defer publisher.Close()
		hooks = append(hooks, publisher)
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("eventos del ledger a Kafka")
	}
	dispatcher := inventory.NewDispatcher(log, cfg.Notifications.DispatchTimeout, hooks...)

	engine := inventory.NewEngine(txRunner, dispatcher)
	query := inventory.NewQueryUseCase(inventory.QueryDeps{
		Transactions: postgres.NewTransactionRepository(pool),
		Inventory:    postgres.NewInventoryRepository(pool),
		Warehouses:   warehouseRepo,
		Items:        itemRepo,
		Users:        userRepo,
		Companies:    companyRepo,
		Receipts:     infrapdf.NewReceiptRenderer(),
	})
	authUC := auth.NewAuthUseCase(userRepo, companyRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	sched := scheduler.New(log)
	retention := time.Duration(cfg.Notifications.RetentionDays) * 24 * time.Hour
	if err := sched.AddPurgeJob(cfg.Notifications.PurgeSchedule, notifSvc, retention); err != nil {
		return err
	}
	sched.Start()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(httpRouter.Tracing())
	app.Use(httpRouter.RequestLogger(log))

	// Swagger UI en local: http://localhost:<port>/docs (solo si existe docs/swagger.json)
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Stockledger API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		AppName:       cfg.App.Name,
		CompanyUC:     usecase.NewCompanyUseCase(companyRepo),
		WarehouseUC:   usecase.NewWarehouseUseCase(txRunner, warehouseRepo),
		ItemUC:        usecase.NewItemUseCase(txRunner, itemRepo),
		HistoryUC:     usecase.NewHistoryUseCase(postgres.NewHistoryRepository(pool)),
		UserUC:        usecase.NewUserUseCase(userRepo),
		Engine:        engine,
		Query:         query,
		Notifications: notifSvc,
		Stream:        subscriber,
		StreamContext: ctx,
		AuthUC:        authUC,
		JWTSecret:     cfg.JWT.Secret,
	})

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- app.Listen(cfg.HTTP.Addr())
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	case err := <-serveErr:
		log.Error().Err(err).Msg("servidor HTTP finalizado")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errs []error
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	// Primero dejan de entrar movimientos; luego se drenan los hooks pendientes.
	if err := dispatcher.Close(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		log.Error().Err(err).Msg("apagado incompleto")
		return err
	}
	log.Info().Msg("aplicación detenida")
	return nil
}
