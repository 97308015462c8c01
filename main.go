package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alpacabot/config"
	"alpacabot/models"
	"alpacabot/routes"
	"alpacabot/scheduler"
	"alpacabot/services"
	"alpacabot/services/broker"
	"alpacabot/services/notify"
	"alpacabot/services/tradelog"
	"alpacabot/services/trading"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("==============================================")
	log.Println("  AlpacaBot - Starting...")
	log.Println("==============================================")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Config load failed: %v", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("Timezone error: %v", err)
	}

	// Set Gin mode based on environment
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()

	// Add middlewares
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(requestLogger())

	setupHealthEndpoints(router)

	// Initialize trade log database
	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("Database init failed: %v", err)
	}
	if err := models.MigrateTradeLogModels(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	// Python collaborator bridge
	bridge := broker.NewPythonBridge(cfg.PythonBin, cfg.ScriptsDir, cfg.CollaboratorTimeout)
	if err := bridge.Verify(context.Background()); err != nil {
		log.Printf("Warning: %v", err)
		log.Println("Scans will fail until the Python environment is fixed")
	}

	// Notifications and trade log
	sms := notify.NewEmailSMSService(cfg.SMTPServer, cfg.SMTPPort, cfg.EmailUser,
		cfg.EmailAppPassword, cfg.SMSEmailAddress, cfg.EmailSMSEnabled, loc)
	trades := tradelog.NewService(db, loc)

	// Status feed first; its snapshot and tick callbacks close over the bot
	// variable and only run once subscribers connect.
	var bot *trading.Bot
	services.InitStatusFeedService(
		func() models.BotStatus { return bot.Status() },
		func() models.RealtimeStatus { return bot.RealtimeTick() },
	)

	bot = trading.NewBot(trading.Deps{
		Screener: bridge,
		Executor: bridge,
		Monitor:  bridge,
		Accounts: bridge,
		Notifier: sms,
		Feed:     services.GlobalStatusFeed,
		Trades:   trades,
		Location: loc,
	})
	services.GlobalStatusFeed.SetCommandHandler(bot)

	// Scheduler with session triggers and the minute scanner
	jobScheduler := scheduler.NewScheduler(bot, loc)
	bot.SetJobsStatusFunc(jobScheduler.JobsStatus)
	jobScheduler.Start()

	// Setup all API routes
	routes.SetupRoutes(router, bot, bridge, jobScheduler, trades, sms, loc)

	// Create HTTP server with timeouts
	server := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}

	go func() {
		log.Printf("Server listening on 0.0.0.0:%s", cfg.Port)
		log.Println("==============================================")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	gracefulShutdown(server, jobScheduler)
}

// setupHealthEndpoints sets up health check endpoints
func setupHealthEndpoints(router *gin.Engine) {
	// Root endpoint
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "AlpacaBot API",
			"version": "1.0.0",
		})
	})

	// Liveness probe - always returns OK if server is running
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	// Readiness probe - checks the trade log database
	router.GET("/ready", func(c *gin.Context) {
		if config.DB == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not_ready",
				"message": "Database not connected",
			})
			return
		}

		sqlDB, err := config.DB.DB()
		if err != nil || sqlDB.Ping() != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not_ready",
				"message": "Database ping failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "ready",
		})
	})
}

// corsMiddleware returns a CORS middleware handler
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestLogger returns a request logging middleware
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip logging for health checks to reduce noise
		path := c.Request.URL.Path
		if path == "/health" || path == "/ready" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		// Only log errors or slow requests
		if c.Writer.Status() >= 400 || duration > 1*time.Second {
			log.Printf("%s %s %d %v", c.Request.Method, path, c.Writer.Status(), duration)
		}
	}
}

// gracefulShutdown handles graceful shutdown of the server
func gracefulShutdown(server *http.Server, jobScheduler *scheduler.Scheduler) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	sig := <-quit
	log.Printf("Received signal %v, shutting down gracefully...", sig)

	// Stop scheduler first so no new transitions fire mid-shutdown
	jobScheduler.Stop()

	// Then the status feed and its websocket clients
	if services.GlobalStatusFeed != nil {
		services.GlobalStatusFeed.Shutdown()
	}

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Close database connection
	if config.DB != nil {
		sqlDB, err := config.DB.DB()
		if err == nil {
			sqlDB.Close()
			log.Println("Database connection closed")
		}
	}

	log.Println("Server shutdown completed")
}
