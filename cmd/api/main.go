package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/jkimani/campus-delivery-backend/api/routes"
	"github.com/jkimani/campus-delivery-backend/internal/agents"
	"github.com/jkimani/campus-delivery-backend/internal/auth"
	"github.com/jkimani/campus-delivery-backend/internal/cart"
	"github.com/jkimani/campus-delivery-backend/internal/catalog"
	"github.com/jkimani/campus-delivery-backend/internal/notifications"
	"github.com/jkimani/campus-delivery-backend/internal/orders"
	"github.com/jkimani/campus-delivery-backend/internal/payments"
	"github.com/jkimani/campus-delivery-backend/internal/reviews"
	"github.com/jkimani/campus-delivery-backend/internal/users"
	"github.com/jkimani/campus-delivery-backend/pkg/config"
	"github.com/jkimani/campus-delivery-backend/pkg/db"
	"github.com/jkimani/campus-delivery-backend/pkg/logger"
	"github.com/jkimani/campus-delivery-backend/pkg/mail"
	"github.com/jkimani/campus-delivery-backend/pkg/migrate"
	"github.com/jkimani/campus-delivery-backend/pkg/mpesa"
	"github.com/jkimani/campus-delivery-backend/pkg/outbox"
	"github.com/jkimani/campus-delivery-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	mailer := mail.NewClient(cfg.Sendgrid)
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		OTPStore:       redisClient,
		Mailer:         mailer,
		Logger:         logg,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	agentRepo := agents.NewRepository(dbClient.DB())
	agentService, err := agents.NewService(agentRepo, cfg.JWT, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create agent service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	cartRepo := cart.NewRepository(dbClient.DB())
	cartService, err := cart.NewService(cartRepo, catalogService)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	orderRepo := orders.NewRepository(dbClient.DB())
	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:      orderRepo,
		CartRepo:  cartRepo,
		AgentRepo: agentRepo,
		Resolver:  catalogService,
		Tx:        dbClient,
		Outbox:    outboxService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	mpesaClient, err := mpesa.NewClient(cfg.Mpesa)
	if err != nil {
		logg.Error(context.Background(), "failed to create mpesa client", err)
		os.Exit(1)
	}

	paymentService, err := payments.NewService(payments.ServiceParams{
		Repo:       payments.NewRepository(dbClient.DB()),
		OrdersRepo: orderRepo,
		STK:        mpesaClient,
		Guard:      redisClient,
		Tx:         dbClient,
		Outbox:     outboxService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	reviewService, err := reviews.NewService(reviews.NewRepository(dbClient.DB()), catalogService)
	if err != nil {
		logg.Error(context.Background(), "failed to create review service", err)
		os.Exit(1)
	}

	notificationService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create notification service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.Router(routes.Dependencies{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Auth:          authService,
			Agents:        agentService,
			Catalog:       catalogService,
			Cart:          cartService,
			Orders:        orderService,
			Payments:      paymentService,
			Reviews:       reviewService,
			Notifications: notificationService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
