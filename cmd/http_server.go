package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/courseloop/courseloop/internal"
	"github.com/courseloop/courseloop/internal/auth"
	authPostgres "github.com/courseloop/courseloop/internal/auth/postgres"
	"github.com/courseloop/courseloop/internal/catalog"
	catalogPostgres "github.com/courseloop/courseloop/internal/catalog/postgres"
	"github.com/courseloop/courseloop/internal/checkout"
	"github.com/courseloop/courseloop/internal/core/events"
	"github.com/courseloop/courseloop/internal/download"
	downloadPostgres "github.com/courseloop/courseloop/internal/download/postgres"
	"github.com/courseloop/courseloop/internal/entitlement"
	entitlementPostgres "github.com/courseloop/courseloop/internal/entitlement/postgres"
	"github.com/courseloop/courseloop/internal/paymentgateway"
	"github.com/courseloop/courseloop/internal/transport/rest"
	"github.com/courseloop/courseloop/internal/user"
	userPostgres "github.com/courseloop/courseloop/internal/user/postgres"
	"github.com/courseloop/courseloop/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	GormDB *gorm.DB
	Router *chi.Mux
	Logger *slog.Logger

	AuthHandler        *auth.Handler
	UserHandler        *user.Handler
	CatalogHandler     *catalog.Handler
	CheckoutHandler    *checkout.Handler
	EntitlementHandler *entitlement.Handler
	DownloadHandler    *download.Handler
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	setupRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func setupRoutes(deps *Dependencies) {
	rest.RegisterAllRoutes(
		deps.Router,
		deps.DB.DB,
		deps.AuthHandler,
		deps.UserHandler,
		deps.CatalogHandler,
		deps.CheckoutHandler,
		deps.EntitlementHandler,
		deps.DownloadHandler,
		deps.Logger,
	)
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Environment, config.Logging.Level)
	log := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	// Auth
	tokenGen := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	authRepo := authPostgres.NewRepository(gormDB)
	authService := auth.NewService(authRepo, tokenGen, config.Security.BCryptCost)
	authHandler := auth.NewHandler(authService)

	// Catalog
	itemRepo := catalogPostgres.NewItemRepository(gormDB)
	catalogService := catalog.NewService(itemRepo, log)
	catalogHandler := catalog.NewHandler(catalogService)

	// Payment gateways
	selector := paymentgateway.NewSelector(
		paymentgateway.NewRazorpayGateway(
			config.Payment.Domestic.BaseURL,
			config.Payment.Domestic.KeyID,
			config.Payment.Domestic.KeySecret,
			config.Payment.RequestTimeout,
			log,
		),
		paymentgateway.NewStripeGateway(
			config.Payment.International.BaseURL,
			config.Payment.International.KeyID,
			config.Payment.International.KeySecret,
			config.Payment.RequestTimeout,
			log,
		),
	)

	// Events
	eventBus := events.NewEventBus(log)

	// Entitlement
	purchaseRepo := entitlementPostgres.NewPurchaseRepository(gormDB)
	verifier := entitlement.NewVerifier(map[string]string{
		"razorpay": config.Payment.Domestic.KeySecret,
		"stripe":   config.Payment.International.KeySecret,
	})
	entitlementService := entitlement.NewService(purchaseRepo, catalogService, verifier, selector, eventBus, log)
	entitlementHandler := entitlement.NewHandler(entitlementService)

	// Checkout
	checkoutService := checkout.NewService(catalogService, selector, entitlementService, log)
	checkoutHandler := checkout.NewHandler(checkoutService)

	// Download gate + access audit trail
	downloadService := download.NewService(catalogService, purchaseRepo, eventBus, download.PollConfig{
		Attempts: config.Download.PollAttempts,
		Delay:    config.Download.PollDelay,
	}, log)
	downloadHandler := download.NewHandler(downloadService)

	accessRepo := downloadPostgres.NewAccessEventRepository(gormDB)
	download.NewEventHandler(accessRepo, log).RegisterEventHandlers(eventBus)

	// User profile
	userRepo := userPostgres.NewUserRepository(db)
	userService := user.NewService(userRepo)
	userHandler := user.NewHandler(userService)

	return &Dependencies{
		Config:             config,
		Logger:             log,
		DB:                 db,
		GormDB:             gormDB,
		Router:             chi.NewRouter(),
		AuthHandler:        authHandler,
		UserHandler:        userHandler,
		CatalogHandler:     catalogHandler,
		CheckoutHandler:    checkoutHandler,
		EntitlementHandler: entitlementHandler,
		DownloadHandler:    downloadHandler,
	}, nil
}

func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm wraps the shared *sql.DB pool. TranslateError surfaces unique
// violations as gorm.ErrDuplicatedKey, which the entitlement repository
// depends on.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(gormpostgres.New(gormpostgres.Config{
		Conn: db.DB,
	}), &gorm.Config{
		TranslateError: true,
	})
}
