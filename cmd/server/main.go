package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/example/pushsync/internal/api"
	"github.com/example/pushsync/internal/config"
	"github.com/example/pushsync/internal/core"
	"github.com/example/pushsync/internal/db"
	"github.com/example/pushsync/internal/dispatch"
	"github.com/example/pushsync/internal/firebase"
	"github.com/example/pushsync/internal/middleware"
	"github.com/example/pushsync/pkg/cache"
)

func main() {
	// --- 1. Load .env outside release mode ---
	if os.Getenv("GIN_MODE") != "release" {
		if err := godotenv.Load(); err != nil {
			log.Println("Warning: no .env file loaded:", err)
		}
	}

	// --- 2. Load Application Configuration ---
	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
	}

	// --- 3. Initialize Logger (Zap) ---
	var zapLogger *zap.Logger
	if appConfig.IsRelease() {
		zapLogger, err = zap.NewProduction()
	} else {
		zapLogger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger.Info("Application configuration loaded.",
		zap.String("storageDriver", appConfig.StorageDriver),
		zap.String("version", appConfig.AppVersion),
	)

	// --- 4. Initialize Firebase Admin SDK ---
	initCtx, cancelInitCtx := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInitCtx()
	fbClients, err := firebase.InitFirebase(initCtx, appConfig, appConfig.StorageDriver == config.StorageFirestore, zapLogger)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize Firebase Admin SDK", zap.Error(err))
	}
	defer fbClients.Close()

	// --- 5. Connect Redis when configured ---
	var redisCache cache.Cache
	var userRepo db.UserRepository
	var pinger db.HealthPinger
	if appConfig.RedisAddress != "" {
		rdb, err := cache.Connect(initCtx, cache.NewRedisCacheConfig{
			Address:  appConfig.RedisAddress,
			Password: appConfig.RedisPassword,
			DB:       appConfig.RedisDB,
		})
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to connect to Redis", zap.Error(err))
		}
		defer rdb.Close()
		redisCache = cache.NewRedisCache(rdb, "pushsync:")
		if appConfig.StorageDriver == config.StorageRedis {
			userRepo = db.NewRedisUserRepository(rdb)
			pinger = db.NewRedisPinger(rdb)
		}
		zapLogger.Info("Redis connected.", zap.String("address", appConfig.RedisAddress))
	}

	// --- 6. Initialize Repositories ---
	switch appConfig.StorageDriver {
	case config.StorageFirestore:
		userRepo = db.NewFirestoreUserRepository(fbClients.Firestore)
		pinger = db.NewFirestorePinger(fbClients.Firestore)
	case config.StorageMemory:
		memRepo := db.NewMemoryUserRepository()
		userRepo, pinger = memRepo, memRepo
		zapLogger.Warn("Using in-memory storage; data is lost on restart.")
	}

	// --- 7. Initialize Services ---
	var cooldownCache cache.Cache
	if appConfig.TestNotificationCooldown > 0 {
		cooldownCache = redisCache
		if cooldownCache == nil {
			cooldownCache = cache.NewMemoryCache()
			zapLogger.Warn("Test notification cooldown is process-local without Redis.")
		}
	}
	notificationService, err := core.NewNotificationService(core.NotificationServiceConfig{
		UserRepo:     userRepo,
		Messenger:    fbClients.Messaging,
		Logger:       zapLogger,
		LinkBaseURL:  appConfig.PrimaryClientURL(),
		Cache:        cooldownCache,
		TestCooldown: appConfig.TestNotificationCooldown,
	})
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize NotificationService", zap.Error(err))
	}
	services := api.Services{
		Users:         core.NewUserService(userRepo, zapLogger),
		Tokens:        core.NewTokenService(userRepo, zapLogger),
		Notifications: notificationService,
		Health:        core.NewHealthService(pinger, appConfig.AppVersion, zapLogger),
	}

	// --- 8. Start the dispatch consumer when a queue is configured ---
	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()
	dispatchDone := make(chan struct{})
	if appConfig.DispatchEnabled() {
		queue, queueName, err := dispatch.OpenQueue(initCtx, appConfig, zapLogger)
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to open dispatch queue", zap.Error(err))
		}
		defer queue.Close()
		dispatchService := core.NewDispatchService(queue, queueName, notificationService, zapLogger)
		go func() {
			defer close(dispatchDone)
			if err := dispatchService.Run(runCtx); err != nil {
				zapLogger.Error("Dispatch consumer stopped", zap.Error(err))
			}
		}()
		zapLogger.Info("Dispatch consumer started.", zap.String("queue", queueName))
	} else {
		close(dispatchDone)
	}

	// --- 9. Setup Gin HTTP Engine ---
	if appConfig.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware(appConfig))
	if appConfig.ClientURL == "" {
		zapLogger.Warn("CLIENT_URL is not configured; CORS allows every origin.")
	}

	// --- 10. Setup API Routes ---
	api.SetupRoutes(router, appConfig, zapLogger, fbClients.Auth, services)

	// --- 11. Configure and Start HTTP Server ---
	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	zapLogger.Info("Starting HTTP server...", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// --- 12. Graceful Shutdown Handling ---
	quitChannel := make(chan os.Signal, 1)
	signal.Notify(quitChannel, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quitChannel
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	stopRun()
	select {
	case <-dispatchDone:
	case <-shutdownCtx.Done():
		zapLogger.Warn("Dispatch consumer did not stop in time")
	}

	zapLogger.Info("Server exiting gracefully.")
}
