package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	h "github.com/gorilla/handlers"
	"github.com/rs/zerolog"

	"github.com/stanstork/condo-notify/internal/authz"
	"github.com/stanstork/condo-notify/internal/config"
	"github.com/stanstork/condo-notify/internal/handlers"
	"github.com/stanstork/condo-notify/internal/logging"
	"github.com/stanstork/condo-notify/internal/middleware"
	"github.com/stanstork/condo-notify/internal/migration"
	"github.com/stanstork/condo-notify/internal/notification"
	"github.com/stanstork/condo-notify/internal/repository"
	"github.com/stanstork/condo-notify/internal/routes"
	"github.com/stanstork/condo-notify/internal/upstream"

	_ "github.com/lib/pq" // PostgreSQL driver
)

type application struct {
	config        *config.Config
	db            *sql.DB
	logger        zerolog.Logger
	notifications notification.Service
}

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Set up structured, level-based logging.
	logger := logging.New(cfg.Log, os.Stdout)
	log.SetFlags(0)
	log.SetOutput(logger)

	if err := cfg.ValidateServer(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	app := &application{config: cfg, logger: logger}

	comments := app.initCommentStore()
	if app.db != nil {
		defer app.db.Close()
	}

	client := upstream.NewClient(cfg.Upstream.BaseURL, logger, upstream.WithTimeout(cfg.Upstream.Timeout))
	app.notifications = notification.NewService(client, comments, logger, app.initNotifiers()...)

	// Initialize the HTTP router and middleware.
	router := app.initRouter()
	loggedRouter := middleware.RequestID(middleware.LoggingMiddleware(app.logger)(router))
	corsHandler := h.CORS(
		h.AllowedOrigins(cfg.CORS.AllowedOrigins),
		h.AllowedMethods([]string{"GET", "POST", "PUT", "OPTIONS"}),
		h.AllowedHeaders([]string{"Content-Type", "Authorization", middleware.RequestIDHeader}),
		h.ExposedHeaders([]string{middleware.RequestIDHeader}),
		h.AllowCredentials(),
	)(loggedRouter)

	// Start the HTTP server and handle graceful shutdown.
	app.startServer(corsHandler)

	logger.Info().Msg("Application terminated.")
}

// initCommentStore uses PostgreSQL when database_url is set and process memory
// otherwise.
func (app *application) initCommentStore() repository.CommentRepository {
	if app.config.DatabaseURL == "" {
		app.logger.Warn().Msg("database_url not set, comments are kept in memory")
		return repository.NewMemoryCommentRepository()
	}

	db, err := sql.Open("postgres", app.config.DatabaseURL)
	if err != nil {
		app.logger.Fatal().Err(err).Msg("Failed to connect to the database")
	}
	if err := db.Ping(); err != nil {
		app.logger.Fatal().Err(err).Msg("Failed to ping database")
	}
	if err := migration.RunMigrations(app.config.DatabaseURL, app.logger); err != nil {
		app.logger.Fatal().Err(err).Msg("Failed to run migrations")
	}
	app.db = db
	return repository.NewCommentRepository(db)
}

func (app *application) initNotifiers() []notification.Notifier {
	notifiers := []notification.Notifier{notification.NewAuditNotifier(app.logger)}
	if app.config.Email.Enabled() {
		email, err := notification.NewEmailNotifier(app.config.Email, app.logger)
		if err != nil {
			app.logger.Fatal().Err(err).Msg("failed to configure email notifier")
		}
		notifiers = append(notifiers, email)
	}
	return notifiers
}

// initRouter sets up all HTTP handlers and returns the router.
func (app *application) initRouter() http.Handler {
	auth := authz.NewAuthenticator(app.config.JWTSecret, app.logger)
	notificationHandler := handlers.NewNotificationHandler(app.notifications, app.logger)
	return routes.NewRouter(auth, notificationHandler)
}

// startServer launches the HTTP server and handles graceful shutdown.
func (app *application) startServer(handler http.Handler) {
	logger := app.logger
	server := &http.Server{
		Addr:              ":" + app.config.ServerPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for server errors
	serverErrCh := make(chan error, 1)
	go func() {
		logger.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	// Wait for an interrupt signal or a server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info().Msgf("Received signal: %s. Shutting down...", sig)
	case err := <-serverErrCh:
		logger.Error().Err(err).Msg("Server error occurred")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		logger.Info().Msg("HTTP server shutdown complete.")
	}
}
