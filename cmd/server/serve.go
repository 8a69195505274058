package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storefront_back_end/internal/audit"
	"storefront_back_end/internal/auth"
	"storefront_back_end/internal/cache"
	"storefront_back_end/internal/checkout"
	"storefront_back_end/internal/config"
	"storefront_back_end/internal/database"
	"storefront_back_end/internal/handlers/admin"
	"storefront_back_end/internal/handlers/invoice"
	"storefront_back_end/internal/handlers/payment"
	"storefront_back_end/internal/handlers/product"
	"storefront_back_end/internal/handlers/user"
	"storefront_back_end/internal/middleware"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/pricing"
	"storefront_back_end/internal/realtime"
	"storefront_back_end/internal/routes"
	"storefront_back_end/internal/services"
	"storefront_back_end/internal/store"
)

const shutdownTimeout = 15 * time.Second

var autoMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&autoMigrate, "migrate", true, "Run schema migrations before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	if cfg.SessionSecret == "" {
		return errors.New("SESSION_SECRET is not set")
	}

	if err := database.ConnectDatabases(cfg); err != nil {
		return err
	}
	defer database.Close()

	if autoMigrate {
		if err := database.Migrate(database.Postgres); err != nil {
			return err
		}
	}

	st := store.New(database.Postgres)
	sessionStore := config.NewSessionStore(cfg)
	config.InitOAuthProviders(cfg, sessionStore)

	rec := audit.NewRecorder(auditSink())
	defer rec.Wait()

	c := cache.New(database.Redis)
	hub := realtime.NewHub(database.Redis)
	search := services.NewSearchIndex(database.Elastic)
	mailer := services.NewMailer(cfg, settings)
	payments := services.NewPayments(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	invoices := services.NewInvoices(settings)
	upgrader := realtime.NewUpgrader(cfg.CORSOrigins)

	if payments.Enabled() {
		logger.Info("💳 Stripe payments enabled")
	} else {
		logger.Warn("⚠️ STRIPE_SECRET_KEY not set, online payments disabled")
	}
	if mailer == nil {
		logger.Warn("⚠️ SMTP not configured, e-mails are dropped")
	}

	adminDeps := admin.Deps{
		Store:      st,
		Discounts:  store.NewTable[models.Discount](st),
		TaxRates:   store.NewTable[models.TaxRate](st),
		Warehouses: store.NewTable[models.Warehouse](st),
		Search:     search,
		Cache:      c,
		Hub:        hub,
		Audit:      rec,
		Mailer:     mailer,
		Upgrader:   upgrader,
	}
	if images := services.NewImageStore(database.MinIO, cfg.MinioBucket); images != nil {
		adminDeps.Images = images
	}

	deps := routes.Deps{
		Catalog: product.NewHandler(st, search, c),
		User: user.NewHandler(user.Deps{
			Store:       st,
			Checkout:    checkout.NewService(st, pricing.NewCalculator(settings)),
			Cache:       c,
			Hub:         hub,
			Audit:       rec,
			Mailer:      mailer,
			Invoices:    invoices,
			Payments:    payments,
			Auth:        auth.NewClient(cfg.AuthURL, cfg.AuthAnonKey),
			Sessions:    sessionStore,
			Upgrader:    upgrader,
			Settings:    settings,
			FrontendURL: cfg.FrontendURL,
		}),
		Invoice: invoice.NewHandler(st, invoices, mailer),
		Payment: payment.NewHandler(st, payments, hub, rec, settings.Currency),
		Admin:   admin.NewHandler(adminDeps),
		Auth:    middleware.NewAuth(auth.NewVerifier(cfg.JWTSecret), c, sessionStore),
		Limits:  c,
		Admins:  st,
		Origins: cfg.CORSOrigins,
		Health:  ping,
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(gin.Recovery())
	routes.RegisterRoutes(r, deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("🚀 Storefront API listening", zap.String("port", cfg.Port), zap.String("store", settings.StoreName))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("🛑 Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// auditSink opens the ScyllaDB audit table, or returns nil to disable the trail.
func auditSink() audit.Sink {
	if database.Scylla == nil {
		return nil
	}
	session, err := database.Scylla.AuditSession()
	if err != nil {
		logger.Warn("⚠️ Audit session unavailable", zap.Error(err))
		return nil
	}
	return audit.NewScyllaSink(session)
}

func ping(ctx context.Context) error {
	sqlDB, err := database.Postgres.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	if err := database.Redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return nil
}
