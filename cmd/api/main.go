package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "invoicehub/api/swagger" // swagger docs
	"invoicehub/internal/app"
	"invoicehub/internal/config"
	"invoicehub/internal/database"
	"invoicehub/internal/handler"
	"invoicehub/internal/jobs"
	"invoicehub/internal/logger"
	"invoicehub/internal/middleware"
	"invoicehub/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           InvoiceHub API
// @version         1.0
// @description     Invoicing for freelancers and small businesses: clients, products, invoices, payments and reports.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	loaded := config.LoadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := logger.Setup(cfg.LoggerConfig()); err != nil {
		log.Fatal().Err(err).Msg("failed to set up logger")
	}
	if len(loaded) == 0 {
		log.Info().Msg("no .env file found, using process environment")
	}
	gin.SetMode(cfg.GinMode)

	db, err := database.NewConnection(cfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Error().Err(err).Msg("failed to close database")
		}
	}()
	log.Info().Str("host", cfg.DBHost).Str("database", cfg.DBName).Msg("connected to PostgreSQL")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()
	defer wsHub.Stop()

	// Repository -> Service -> Handler
	services := app.NewServices(db, cfg, wsHub)

	scheduler, err := jobs.NewScheduler(services.Stats, cfg.RollupSchedule, jobs.DefaultRollupTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up scheduler")
	}
	scheduler.Start()
	defer scheduler.Stop()

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	secret := []byte(cfg.JWTSecret)
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, secret, cfg.CORSOrigins)
	})

	api := router.Group("/api", middleware.RequireOwner(secret))
	handler.NewClientHandler(services.Clients, services.Invoices).RegisterRoutes(api)
	handler.NewProductHandler(services.Products).RegisterRoutes(api)
	handler.NewInvoiceHandler(services.Invoices, services.Payments).RegisterRoutes(api)
	handler.NewReportHandler(services.Reports, services.Stats).RegisterRoutes(api)
	handler.NewTaxHandler(services.Tax).RegisterRoutes(api)
	handler.NewAuditHandler(services.Audit).RegisterRoutes(api)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
