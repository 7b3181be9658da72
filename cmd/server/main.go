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

	"greenhub-web-go/internal/api"
	"greenhub-web-go/internal/apiclient"
	"greenhub-web-go/internal/config"
	"greenhub-web-go/internal/fallback"
	"greenhub-web-go/internal/greenhub"
	"greenhub-web-go/internal/identity"
	"greenhub-web-go/internal/loader"
	"greenhub-web-go/internal/middleware"
	"greenhub-web-go/internal/models"
)

func main() {
	// --- 1. Load .env (development convenience; real env wins) ---
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env file")
	}

	// --- 2. Initialize Logger (Zap) ---
	// Using NewDevelopment for more verbose, human-readable output during development.
	// For production, consider zap.NewProduction() or a custom configuration.
	zapLogger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync() // Flushes buffer, if any. IMPORTANT for buffered loggers.
	zapLogger.Info("Zap logger initialized successfully.")

	// --- 3. Load Application Configuration ---
	appConfig, err := config.LoadConfig()
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to load application configuration", zap.Error(err))
	}
	zapLogger.Info("Application configuration loaded successfully.")

	// --- 4. Initialize Firebase Admin SDK (Auth client for bearer verification) ---
	// The Admin client is optional: without credentials the service still runs,
	// it just cannot verify raw Firebase ID tokens presented as bearers.
	initCtx, cancelInitCtx := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInitCtx()
	authClient, err := identity.InitFirebaseAuth(initCtx, appConfig)
	if err != nil {
		zapLogger.Warn("Firebase Admin SDK unavailable; bearer token verification disabled", zap.Error(err))
		authClient = nil
	} else {
		zapLogger.Info("Firebase Admin SDK (Auth) initialized successfully.")
	}

	// --- 5. Initialize Session Store ---
	var sessionStore identity.Store
	if appConfig.RedisAddr != "" {
		redisStore, err := identity.NewRedisStore(initCtx, appConfig.RedisAddr, appConfig.RedisPassword, appConfig.RedisDB)
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to connect to Redis session store", zap.Error(err))
		}
		sessionStore = redisStore
		zapLogger.Info("Redis session store initialized.", zap.String("addr", appConfig.RedisAddr))
	} else {
		sessionStore = identity.NewMemoryStore()
		zapLogger.Warn("REDIS_ADDR not set; using in-memory session store. Sessions are lost on restart.")
	}
	defer sessionStore.Close()

	// --- 6. Initialize Identity Provider ---
	identityClient := identity.NewClient(appConfig.FirebaseAPIKey)
	provider := identity.NewProvider(identityClient, sessionStore, appConfig.SessionTTL(), zapLogger)
	defer provider.Close()
	zapLogger.Info("Identity provider initialized.", zap.String("project", appConfig.FirebaseProjectID))

	// --- 7. Initialize Backend Client, Fallback Source and Screen Service ---
	backendClient := apiclient.New(appConfig.APIBaseURL, nil)

	var fallbackSource loader.Source[models.Issue]
	if appConfig.FallbackIssuesPath != "" {
		if _, statErr := os.Stat(appConfig.FallbackIssuesPath); statErr == nil {
			fallbackSource = fallback.FileSource{Path: appConfig.FallbackIssuesPath}
			zapLogger.Info("Static issue fallback enabled.", zap.String("path", appConfig.FallbackIssuesPath))
		} else {
			zapLogger.Warn("FALLBACK_ISSUES_PATH does not exist; issue listings degrade to empty on backend failure.",
				zap.String("path", appConfig.FallbackIssuesPath))
		}
	}

	service := greenhub.NewService(backendClient, provider, fallbackSource, appConfig.LoadTimeout(), zapLogger)
	zapLogger.Info("Screen service initialized.", zap.String("backend", appConfig.APIBaseURL))

	// --- 8. Setup Gin HTTP Engine ---
	if strings.ToLower(appConfig.GinMode) == "release" {
		gin.SetMode(gin.ReleaseMode)
		zapLogger.Info("Gin mode set to 'release'.")
	} else {
		gin.SetMode(gin.DebugMode)
		zapLogger.Info("Gin mode set to 'debug'.")
	}
	router := gin.New()
	zapLogger.Info("Gin engine created.")

	// --- 9. Apply Global Middleware (Order is important) ---
	router.Use(middleware.RequestLogger(zapLogger)) // Log every request; should be early.
	router.Use(middleware.Recovery(zapLogger))      // Recover from panics; after logger, before other handlers.

	// Apply CORS middleware only if ClientURL is configured, otherwise log a warning.
	if appConfig.ClientURL != "" {
		router.Use(middleware.CORS(appConfig))
		zapLogger.Info("CORS Middleware enabled", zap.String("clientURL", appConfig.ClientURL))
	} else {
		zapLogger.Warn("CORS Middleware SKIPPED: CLIENT_URL is not configured. API might not be accessible from a web frontend.")
	}

	// --- 10. Setup API Routes ---
	api.SetupRoutes(router, appConfig, zapLogger, provider, service, authClient)

	// --- 11. Configure and Start HTTP Server ---
	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
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

	zapLogger.Info("Attempting graceful shutdown of HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Fatal("Server forced to shutdown due to error during graceful shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exiting gracefully.")
}
