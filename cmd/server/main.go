package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"sellervault-backend-go/internal/api"
	"sellervault-backend-go/internal/cache"
	"sellervault-backend-go/internal/config"
	"sellervault-backend-go/internal/core"
	"sellervault-backend-go/internal/crypto"
	"sellervault-backend-go/internal/db"
	"sellervault-backend-go/internal/logger"
	"sellervault-backend-go/internal/messagequeue"
	"sellervault-backend-go/internal/middleware"
	"sellervault-backend-go/internal/vault"
)

func main() {
	// --- 1. Load .env outside release mode ---
	if !strings.EqualFold(os.Getenv("GIN_MODE"), "release") {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found, relying on environment variables")
		}
	}

	// --- 2. Load Application Configuration ---
	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
	}

	// --- 3. Initialize Logger (Zap) ---
	zapLogger, err := logger.New(appConfig.LogLevel, appConfig.LogJSON)
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger.Info("Application configuration loaded", zap.String("storeDriver", appConfig.StoreDriver))

	initCtx, cancelInitCtx := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInitCtx()

	// --- 4. Initialize Firebase Admin SDK (Auth always, Firestore for the firestore driver) ---
	if !appConfig.IdentityEnabled() {
		zapLogger.Warn("No Firebase credentials configured, falling back to Application Default Credentials for token verification")
	}
	firebaseClients, err := db.InitFirebase(initCtx, appConfig, appConfig.StoreDriver == config.DriverFirestore, zapLogger)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize Firebase Admin SDK", zap.Error(err))
	}

	// --- 5. Initialize Document Store ---
	store, err := openDocumentStore(initCtx, appConfig, firebaseClients, zapLogger)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize document store", zap.Error(err))
	}

	// --- 6. Initialize Repositories ---
	sellerRepo := db.NewSellerRepository(store)
	approvedRepo := db.NewApprovedSellerRepository(store)
	errorLogRepo := db.NewErrorLogRepository(store)
	secretRepo := db.NewVaultSecretRepository(store)
	zapLogger.Info("Repositories initialized")

	// --- 7. Initialize Submission Ledger (Redis or in-process) ---
	var ledgerCache cache.Cache
	if appConfig.RedisAddress != "" {
		redisCache, err := cache.NewRedisCache(initCtx, cache.RedisConfig{
			Address:  appConfig.RedisAddress,
			Password: appConfig.RedisPassword,
			DB:       appConfig.RedisDB,
		}, zapLogger)
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to connect to Redis", zap.Error(err))
		}
		ledgerCache = redisCache
	} else {
		zapLogger.Warn("REDIS_ADDRESS not set, vault submission dedup is process-local")
		ledgerCache = cache.NewMemoryCache()
	}
	ledger := cache.NewSubmissionLedger(ledgerCache)

	// --- 8. Initialize Event Publisher ---
	var publisher core.EventPublisher
	var mq *messagequeue.RabbitMQService
	if appConfig.RabbitMQURL != "" {
		mq, err = messagequeue.NewRabbitMQService(appConfig.RabbitMQURL, zapLogger)
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to connect to RabbitMQ", zap.Error(err))
		}
		publisher = messagequeue.NewEventPublisher(mq, appConfig.RabbitMQQueue, zapLogger)
	} else {
		zapLogger.Warn("RABBITMQ_URL not set, seller approved events are dropped")
		publisher = messagequeue.NewNoopPublisher(zapLogger)
	}

	// --- 9. Initialize Vault Backend and Core Services ---
	sealer, err := crypto.NewSealerFromBase64(appConfig.EncryptionKey)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Invalid ENCRYPTION_KEY", zap.Error(err))
	}
	vaultClient := core.NewVaultClient(
		vault.NewStoreBackend(secretRepo, sealer, zapLogger),
		zapLogger,
		core.WithSubmissionLedger(ledger, sealer.DeriveKey(core.LedgerKeyLabel), appConfig.VaultDedupTTL),
	)
	approvalEngine := core.NewApprovalEngine(sellerRepo, approvedRepo, publisher, zapLogger)
	errorLogService := core.NewErrorLogService(errorLogRepo, zapLogger)

	sessions := core.NewSessionRegistry(appConfig.SessionTTL, zapLogger)
	if err := sessions.StartSweeper(appConfig.SessionSweepSpec); err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Invalid SESSION_SWEEP_SPEC", zap.Error(err))
	}

	intakeController := core.NewIntakeController(sessions, sellerRepo, approvedRepo, vaultClient, approvalEngine, errorLogService, zapLogger)
	zapLogger.Info("Core services initialized")

	// --- 10. Setup Gin HTTP Engine ---
	if strings.EqualFold(appConfig.GinMode, "release") {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()

	// --- 11. Apply Global Middleware (Order is important) ---
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger, errorLogService))
	if appConfig.ClientURL != "" {
		router.Use(middleware.CORSMiddleware(appConfig.ClientURL))
		zapLogger.Info("CORS Middleware enabled", zap.String("clientURL", appConfig.ClientURL))
	} else {
		zapLogger.Warn("CORS Middleware SKIPPED: CLIENT_URL is not configured")
	}

	// --- 12. Setup API Routes ---
	authMW := middleware.NewAuthMiddleware(firebaseClients.Auth, firebaseClients.Auth, zapLogger)
	api.SetupRoutes(router, authMW, api.NewIntakeHandler(intakeController, sessions, zapLogger), zapLogger)

	// --- 13. Configure and Start HTTP Server ---
	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		zapLogger.Info("Starting HTTP server", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// --- 14. Graceful Shutdown Handling ---
	quitChannel := make(chan os.Signal, 1)
	signal.Notify(quitChannel, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quitChannel
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	select {
	case <-sessions.StopSweeper().Done():
	case <-shutdownCtx.Done():
		zapLogger.Warn("Session sweeper did not stop in time")
	}
	if mq != nil {
		_ = mq.Close()
	}
	if err := ledgerCache.Close(); err != nil {
		zapLogger.Warn("Error closing ledger cache", zap.Error(err))
	}
	if err := store.Close(); err != nil {
		zapLogger.Warn("Error closing document store", zap.Error(err))
	}
	zapLogger.Info("Server exiting gracefully")
}

// openDocumentStore selects the DocumentStore for the configured driver.
func openDocumentStore(ctx context.Context, appConfig *config.Config, clients *db.FirebaseClients, logger *zap.Logger) (db.DocumentStore, error) {
	switch appConfig.StoreDriver {
	case config.DriverFirestore:
		return db.NewFirestoreStore(clients.Firestore)
	case config.DriverPostgres:
		pg, err := db.NewPostgresStore(ctx, appConfig.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		return pg, nil
	case config.DriverMemory:
		logger.Warn("Using the in-memory document store, data is lost on restart")
		return db.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", appConfig.StoreDriver)
	}
}
