package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/suteetoe/rfitrack/internal/auth"
	"github.com/suteetoe/rfitrack/internal/billing"
	"github.com/suteetoe/rfitrack/internal/handler"
	"github.com/suteetoe/rfitrack/internal/model"
	"github.com/suteetoe/rfitrack/internal/rfi"
	"github.com/suteetoe/rfitrack/internal/server"
	"github.com/suteetoe/rfitrack/internal/store"
	"github.com/suteetoe/rfitrack/pkg/config"
	"github.com/suteetoe/rfitrack/pkg/database"
	"github.com/suteetoe/rfitrack/pkg/jwtutil"
	"github.com/suteetoe/rfitrack/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const serviceName = "rfitrack"

func main() {
	root := &cobra.Command{
		Use:          serviceName,
		Short:        "RFI tracking service for construction projects",
		SilenceUsage: true,
		RunE:         runServe,
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the database schema and exit",
			RunE:  runMigrate,
		},
		&cobra.Command{
			Use:   "plans",
			Short: "Print the subscription plan catalog as JSON",
			RunE:  runPlans,
		},
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap loads configuration and initializes the logger
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(serviceName)
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: cfg.ServiceName,
	}); err != nil {
		return nil, nil, fmt.Errorf("initialize logger: %w", err)
	}
	return cfg, logger.GetLogger(), nil
}

func openDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := database.InitDB(&cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := database.MigrateModels(db, model.AllModels()...); err != nil {
		return nil, err
	}
	log.Info("Database connection established", zap.String("driver", cfg.DB.Driver))
	return db, nil
}

func loadCatalog(cfg *config.Config) (*billing.Catalog, error) {
	return billing.LoadCatalog(cfg.Billing.CatalogPath, billing.PriceIDs{
		Starter: cfg.Billing.PriceStarter,
		Pro:     cfg.Billing.PricePro,
		Team:    cfg.Billing.PriceTeam,
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	log.Info("Starting RFI tracking service...", cfg.LogConfig()...)

	db, err := openDB(cfg, log)
	if err != nil {
		log.Error("Failed to initialize database", zap.Error(err))
		return err
	}

	catalog, err := loadCatalog(cfg)
	if err != nil {
		log.Error("Failed to load plan catalog", zap.Error(err))
		return err
	}
	if cfg.Billing.SecretKey == "" {
		log.Warn("STRIPE_SECRET_KEY is not set, checkout will fail")
	}

	st := store.New(db)
	tokens := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey:      cfg.JWT.SigningKey,
		ExpirationHours: cfg.JWT.ExpirationHours,
	})
	gateway := billing.NewStripeGateway(cfg.Billing.SecretKey, cfg.Billing.WebhookSecret)
	mailer, err := auth.NewMailer(cfg.Mail)
	if err != nil {
		log.Error("Failed to configure mailer", zap.Error(err))
		return err
	}

	h := handler.New(handler.Deps{
		Store:              st,
		RFIs:               rfi.NewService(st, cfg.RFI.DueSoonWindow),
		Auth:               auth.NewService(st, tokens, mailer, cfg.Auth),
		Checkout:           billing.NewCheckoutService(gateway, st, catalog, cfg.Server.AppURL, cfg.Billing.TrialDays),
		Gateway:            gateway,
		Reconciler:         billing.NewReconciler(st, cfg.Billing.EnforceEventOrder),
		Catalog:            catalog,
		WebhookMaxBodySize: cfg.Billing.WebhookMaxBodySize,
	})
	e := server.New(cfg, h, tokens)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("Server stopped", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	if _, err := openDB(cfg, log); err != nil {
		log.Error("Migration failed", zap.Error(err))
		return err
	}
	log.Info("Migrations applied")
	return nil
}

func runPlans(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(serviceName)
	if err != nil {
		return err
	}

	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	out, err := catalog.JSON()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
