package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/goodbridge/givestack/internal/http"
	"github.com/goodbridge/givestack/internal/mailer"
	"github.com/goodbridge/givestack/internal/payment"
	"github.com/goodbridge/givestack/internal/service"
	"github.com/goodbridge/givestack/internal/store"
	"github.com/goodbridge/givestack/internal/store/drivers/sqlite"
	"github.com/goodbridge/givestack/pkg/cryptox"
	"github.com/goodbridge/givestack/pkg/jwtx"
	"github.com/goodbridge/givestack/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application wires the donation service together: store, payment provider,
// mailer, business services, and the HTTP server.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	signer   *jwtx.HS256
	provider payment.Provider
	mail     mailer.Mailer

	authService          *service.AuthService
	profileService       *service.ProfileService
	donationService      *service.DonationService
	adminService         *service.AdminService
	passwordResetService *service.PasswordResetService
	housekeepingService  *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "givestack",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	signer, err := jwtx.NewHS256([]byte(cfg.TokenSecret), cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token signer: %w", err)
	}
	app.signer = signer

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.provider = payment.NewStripeProvider(cfg.StripeAPIKey, cfg.StripeWebhookSecret)
	app.mail = app.buildMailer()

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("givestack starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down givestack...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("givestack stopped")
	return nil
}

func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// buildMailer returns the Resend client, or a logging stand-in when no API
// key is configured so local development works without an account.
func (app *Application) buildMailer() mailer.Mailer {
	if app.cfg.ResendAPIKey != "" {
		return mailer.NewResendMailer(app.cfg.ResendAPIKey, app.cfg.SenderEmail)
	}

	app.logger.Warn("RESEND_API_KEY not set, reset emails will be logged only")
	return logMailer{logger: app.logger}
}

func (app *Application) initServices() {
	app.authService = &service.AuthService{
		Store:     app.db,
		Signer:    app.signer,
		Issuer:    app.cfg.Issuer,
		AccessTTL: app.cfg.AccessTTL,
	}
	app.profileService = &service.ProfileService{Store: app.db}
	app.donationService = &service.DonationService{
		Store:           app.db,
		Provider:        app.provider,
		ProviderTimeout: app.cfg.ProviderTimeout,
	}
	app.adminService = &service.AdminService{Store: app.db}
	app.passwordResetService = &service.PasswordResetService{
		Store:  app.db,
		Mailer: app.mail,
		OTPTTL: app.cfg.OTPTTL,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.signer,
		BuildVersion,
		app.db,
		app.logger,
		app.cfg.AllowedOrigins,
	)

	router.AuthService = app.authService
	router.ProfileService = app.profileService
	router.DonationService = app.donationService
	router.AdminService = app.adminService
	router.PasswordResetService = app.passwordResetService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

type logMailer struct {
	logger *slog.Logger
}

func (m logMailer) Send(_ context.Context, to, subject, _ string) error {
	m.logger.Info("email suppressed", "to", to, "subject", subject)
	return nil
}
