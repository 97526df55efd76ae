package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"golang.org/x/sync/errgroup"

	"storefront/config"
	"storefront/controllers"
	"storefront/events"
	"storefront/metrics"
	"storefront/middleware"
	"storefront/routes"
	"storefront/services"
	"storefront/store"
	"storefront/utils"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func newMailSender(cfg config.Config) utils.Sender {
	switch cfg.MailProvider {
	case config.MailSendGrid:
		return utils.NewSendGridSender(cfg.SendGridAPIKey, cfg.EmailSender)
	case config.MailPostmark:
		return utils.NewPostmarkSender(cfg.PostmarkToken, cfg.EmailSender)
	}
	return utils.LogSender{}
}

func newPublisher(cfg config.Config) (events.Publisher, func(), error) {
	if cfg.RabbitMQURI == "" {
		slog.Info("RABBITMQ_URI not set, order events are not published")
		return events.NopPublisher{}, func() {}, nil
	}
	pub, err := events.DialRabbit(cfg.RabbitMQURI, cfg.OrdersQueue)
	if err != nil {
		return nil, nil, err
	}
	return pub, func() {
		if err := pub.Close(); err != nil {
			slog.Warn("failed to close RabbitMQ publisher", "error", err)
		}
	}, nil
}

func serve(ctx context.Context, cfg config.Config) error {
	client, err := utils.ConnectDB(ctx, cfg.MongoURI)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			slog.Warn("failed to disconnect from MongoDB", "error", err)
		}
	}()

	db := store.NewMongo(client, cfg.Database)
	if err := db.EnsureIndexes(ctx); err != nil {
		return err
	}

	publisher, closePublisher, err := newPublisher(cfg)
	if err != nil {
		return err
	}
	defer closePublisher()

	m := metrics.New(prometheus.DefaultRegisterer)
	jwt := utils.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	svc := services.New(services.Deps{
		Store:                 db,
		JWT:                   jwt,
		Email:                 utils.NewEmailService(newMailSender(cfg)),
		Publisher:             publisher,
		Metrics:               m,
		DecrementStockOnOrder: cfg.DecrementStockOnOrder,
	})

	router := mux.NewRouter()
	routes.RegisterRoutes(router, routes.Controllers{
		Users:    controllers.NewUserController(svc.Accounts, cfg.TokenTTL, cfg.CookieSecure),
		Products: controllers.NewProductController(svc.Catalog),
		Cart:     controllers.NewCartController(svc.Lines),
		Wishlist: controllers.NewWishlistController(svc.Lines),
		Orders:   controllers.NewOrderController(svc.Orders),
		Reviews:  controllers.NewReviewController(svc.Reviews),
		Admin:    controllers.NewAdminController(svc.Admin),
	}, routes.Options{
		JWT:         jwt,
		Metrics:     m,
		Gatherer:    prometheus.DefaultGatherer,
		AuthLimiter: middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst),
		Users:       db,
		Health: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
	})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server is running", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
