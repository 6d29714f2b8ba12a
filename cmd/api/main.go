package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/bitewave/go-food-ordering-api/internal/config"
	"github.com/bitewave/go-food-ordering-api/internal/handler"
	"github.com/bitewave/go-food-ordering-api/internal/middleware"
	"github.com/bitewave/go-food-ordering-api/internal/repository"
	"github.com/bitewave/go-food-ordering-api/internal/service"
	"github.com/bitewave/go-food-ordering-api/internal/worker"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL
	poolCfg, err := pgxpool.ParseConfig(cfg.DB.DSN())
	if err != nil {
		log.Error("parse db config", "error", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = cfg.DB.MaxConns

	dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		log.Error("ping database", "error", err)
		os.Exit(1)
	}
	log.Info("connected to PostgreSQL")

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to Redis")

	// RabbitMQ
	amqpConn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		log.Error("connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer amqpConn.Close()

	amqpCh, err := amqpConn.Channel()
	if err != nil {
		log.Error("open RabbitMQ channel", "error", err)
		os.Exit(1)
	}
	defer amqpCh.Close()

	if err := worker.SetupRabbitMQ(amqpCh); err != nil {
		log.Error("setup RabbitMQ", "error", err)
		os.Exit(1)
	}
	log.Info("connected to RabbitMQ")

	// Repositories
	userRepo := repository.NewUserRepository(dbPool)
	restaurantRepo := repository.NewRestaurantRepository(dbPool)
	productRepo := repository.NewProductRepository(dbPool)
	cartRepo := repository.NewCartRepository(dbPool)
	orderRepo := repository.NewOrderRepository(dbPool)
	promoRepo := repository.NewPromoRepository(dbPool)
	bonusRepo := repository.NewBonusRepository(dbPool)
	paymentRepo := repository.NewPaymentRepository(dbPool)

	// Services
	bonusSvc := service.NewBonusService(bonusRepo, userRepo)
	authSvc := service.NewAuthService(userRepo, bonusSvc, cfg.JWT.Secret, cfg.JWT.Expiration, cfg.Bonus.DefaultPercentAllowed, log)
	catalogSvc := service.NewCatalogService(restaurantRepo, productRepo, redisClient, cfg.Catalog.CacheTTL, log)
	cartSvc := service.NewCartService(cartRepo, productRepo)
	promoSvc := service.NewPromoService(promoRepo, orderRepo, restaurantRepo, productRepo)
	orderSvc := service.NewOrderService(orderRepo)
	paymentSvc := service.NewPaymentService(paymentRepo, orderRepo, cfg.Payment.Currency)
	publisher := worker.NewOrderPublisher(amqpCh)
	checkoutSvc := service.NewCheckoutService(orderRepo, cartRepo, productRepo, userRepo,
		restaurantRepo, promoRepo, bonusSvc, cartSvc, publisher, log)

	// Handlers
	authH := handler.NewAuthHandler(authSvc)
	catalogH := handler.NewCatalogHandler(catalogSvc)
	cartH := handler.NewCartHandler(cartSvc)
	orderH := handler.NewOrderHandler(checkoutSvc, orderSvc)
	promoH := handler.NewPromoHandler(promoSvc, cartSvc)
	bonusH := handler.NewBonusHandler(bonusSvc)
	paymentH := handler.NewPaymentHandler(paymentSvc)
	healthH := handler.NewHealthHandler(dbPool, redisClient, amqpConn)

	// Worker
	bonusWorker := worker.NewBonusWorker(amqpCh, orderRepo, userRepo, restaurantRepo, bonusSvc, redisClient, log)

	// Router
	router := gin.Default()
	router.GET("/healthz", healthH.Healthz)
	router.GET("/readyz", healthH.Readyz)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/telegram", authH.TelegramAuth)

		restaurants := v1.Group("/restaurants")
		restaurants.GET("", catalogH.ListRestaurants)
		restaurants.GET("/:id/branches", catalogH.ListBranches)
		restaurants.GET("/:id/menu", catalogH.GetMenu)

		products := v1.Group("/products")
		products.GET("/:id", catalogH.GetProduct)
		products.GET("/:id/options", catalogH.GetProductOptions)

		authed := v1.Group("", middleware.AuthMiddleware(cfg.JWT.Secret))

		authed.GET("/me", authH.Me)

		cart := authed.Group("/cart")
		cart.GET("", cartH.GetCart)
		cart.POST("/items", cartH.AddItem)
		cart.PUT("/items/:id", cartH.UpdateItem)
		cart.DELETE("/items/:id", cartH.DeleteItem)
		cart.DELETE("", cartH.Clear)

		orders := authed.Group("/orders")
		orders.POST("", orderH.Checkout)
		orders.GET("", orderH.ListOrders)
		orders.GET("/:id", orderH.GetOrder)
		orders.GET("/:id/history", orderH.GetStatusHistory)
		orders.POST("/:id/cancel", orderH.CancelOrder)

		promos := authed.Group("/promo-codes")
		promos.GET("", promoH.ListActive)
		promos.POST("/validate", promoH.Validate)

		bonus := authed.Group("/bonus")
		bonus.GET("/balance", bonusH.GetBalance)
		bonus.GET("/transactions", bonusH.ListTransactions)
		bonus.GET("/rules", bonusH.ListRules)

		payments := v1.Group("/payments")
		payments.POST("/webhook", paymentH.Webhook)

		admin := authed.Group("/admin", middleware.AdminOnly())
		admin.PUT("/orders/:id/status", orderH.UpdateStatus)
		admin.POST("/bonus/expire", bonusH.ExpireDue)
	}

	if err := bonusWorker.Start(ctx); err != nil {
		log.Error("start bonus worker", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	bonusWorker.Stop()
	time.Sleep(500 * time.Millisecond)
	cancel()
	log.Info("server stopped")
}
