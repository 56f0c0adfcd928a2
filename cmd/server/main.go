package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/biswajit-debnath/control-room/internal/authz"
	"github.com/biswajit-debnath/control-room/internal/config"
	"github.com/biswajit-debnath/control-room/internal/events"
	"github.com/biswajit-debnath/control-room/internal/handler"
	"github.com/biswajit-debnath/control-room/internal/middleware"
	"github.com/biswajit-debnath/control-room/internal/repository"
	"github.com/biswajit-debnath/control-room/internal/service"
	"github.com/biswajit-debnath/control-room/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading, relying on environment variables")
	}

	// --- Configuration ---
	dbCfg, err := config.LoadDBConfig()
	if err != nil {
		log.Fatalf("Failed to load DB config: %v", err)
	}
	appCfg, err := config.LoadAppConfig()
	if err != nil {
		log.Fatalf("Failed to load app config: %v", err)
	}
	loc, err := appCfg.Location()
	if err != nil {
		log.Fatalf("Failed to load timezone: %v", err)
	}
	if appCfg.GinMode != "" {
		gin.SetMode(appCfg.GinMode)
	}

	// --- Database Connection ---
	dbPool, err := config.ConnectDB(dbCfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbPool.Close()

	// --- Auto Migration ---
	if err := config.AutoMigrate(context.Background(), dbPool); err != nil {
		log.Fatalf("Failed to auto-migrate database: %v", err)
	}

	// --- Integrations ---
	rdb := config.NewRedisClient(appCfg)
	var loginCounter middleware.HitCounter
	if rdb != nil {
		defer rdb.Close()
		loginCounter = middleware.NewRedisCounter(rdb)
	}

	publisher := events.NewPublisher(appCfg.RabbitMQURL)
	defer publisher.Close()

	// --- Initialize Utilities ---
	jwtUtil := utils.NewJWTUtil(appCfg.SessionSecret)

	// --- Initialize Repositories ---
	userRepo := repository.NewUserRepository(dbPool)
	sessionRepo := repository.NewSessionRepository(dbPool)
	activityRepo := repository.NewActivityRepository(dbPool)
	operationRepo := repository.NewOperationRepository(dbPool)

	// --- Initialize Services ---
	sessionStore := service.NewSessionStore(sessionRepo, userRepo, appCfg.SessionTTL)
	authService := service.NewAuthService(userRepo, activityRepo, sessionStore, jwtUtil)
	operationService := service.NewOperationService(operationRepo, publisher, loc)

	sweeper, err := service.NewSessionSweeper(sessionStore, appCfg.SessionSweepSchedule)
	if err != nil {
		log.Fatalf("Failed to schedule session sweeper: %v", err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	// --- Initialize Handlers ---
	authHandler := handler.NewAuthHandler(authService, handler.CookieConfig{
		Name:   appCfg.SessionCookieName,
		Secure: appCfg.SessionCookieSecure,
	})
	userHandler := handler.NewUserHandler(authService)
	operationHandler := handler.NewOperationHandler(operationService)

	// --- Setup Gin Router ---
	router := gin.Default()

	// --- Initialize Middlewares ---
	sessionMW := middleware.SessionAuthMiddleware(authService, appCfg.SessionCookieName)
	loginLimitMW := middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Prefix: "ratelimit:login",
		Limit:  appCfg.LoginRateLimit,
		Window: appCfg.LoginRateWindow,
	}, loginCounter)

	// --- Register Routes ---
	apiGroup := router.Group("/api/v1")
	authHandler.RegisterAuthRoutes(apiGroup, loginLimitMW)
	userHandler.RegisterUserRoutes(apiGroup, sessionMW)
	operationHandler.RegisterOperationRoutes(apiGroup, sessionMW,
		middleware.RequireAction(authz.ActionViewOperations),
		middleware.RequireAction(authz.ActionCreateOperation),
		middleware.SignerMiddleware(),
	)

	router.GET("/health", func(c *gin.Context) {
		// Check DB connection
		if err := dbPool.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "db": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "healthy"})
	})

	// --- Start Server ---
	srv := &http.Server{
		Addr:    ":" + appCfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on port %s", appCfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Println("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
