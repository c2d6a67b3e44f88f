package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "evalgo.org/contentupgrade/docs"
	"evalgo.org/contentupgrade/internal/client"
	"evalgo.org/contentupgrade/internal/config"
	"evalgo.org/contentupgrade/internal/domain"
	"evalgo.org/contentupgrade/internal/helpers"
	"evalgo.org/contentupgrade/internal/logging"
)

// capabilities are announced to the service registry.
var capabilities = []string{domain.ActionUpgrade, domain.ActionPlan, "upgrade-journal"}

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Start the content upgrade HTTP service",
	Long: `Start the content upgrade service.

The service exposes:
  - POST /v1/api/action: Batches of content-upgrade and content-plan tasks (JSON or multipart)
  - POST /v1/api/upgrade: Upgrade of a single content envelope
  - GET  /v1/api/plan: Pending steps between two versions
  - GET  /v1/api/journal/*: Upgrade journal sessions, summaries and statistics
  - GET  /health, /metrics and /swagger/

When a registry URL is configured the service registers itself and sends
periodic heartbeats.

Environment Variables:
  - CONTENTUPGRADE_SERVER_PORT: Port to listen on (default: 8080)
  - CONTENTUPGRADE_SERVER_SERVICE_URL: Public URL of this service (default: http://hostname:port)
  - CONTENTUPGRADE_REGISTRY_URL: Registry service URL (default: none)
  - CONTENTUPGRADE_AUTH_MODE: none, apikey or jwt
  - CONTENTUPGRADE_AUTH_API_KEY: API key for endpoint protection`,
	RunE: runService,
}

func init() {
	rootCmd.AddCommand(serviceCmd)

	serviceCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serviceCmd.Flags().String("service-url", "", "Public URL of this service")
	serviceCmd.Flags().String("registry-url", "", "Registry service URL")
	serviceCmd.Flags().String("api-key", "", "API key for endpoint protection")
	serviceCmd.Flags().Bool("debug", false, "Enable debug logging")

	_ = viper.BindPFlag("server.port", serviceCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("server.service_url", serviceCmd.Flags().Lookup("service-url"))
	_ = viper.BindPFlag("registry.url", serviceCmd.Flags().Lookup("registry-url"))
	_ = viper.BindPFlag("auth.api_key", serviceCmd.Flags().Lookup("api-key"))
}

func runService(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	debug, _ := cmd.Flags().GetBool("debug")
	if debug {
		helpers.DebugMode = true
		if err := logging.Configure(logrus.DebugLevel.String(), cfg.Log.Format); err != nil {
			return err
		}
	}

	// An API key given without an explicit auth mode turns key checking on.
	if cfg.Auth.Mode == config.AuthNone && cfg.Auth.APIKey != "" {
		cfg.Auth.Mode = config.AuthAPIKey
	}

	serviceURL := cfg.Server.ServiceURL
	if serviceURL == "" {
		serviceURL = fmt.Sprintf("http://%s:%d", serviceHostname(), cfg.Server.Port)
	}

	logger := logging.ServiceLogger("contentupgrade", version)
	logger.Info("Content Upgrade Service Starting")
	logger.WithFields(logrus.Fields{
		"service_url":  serviceURL,
		"registry_url": cfg.Registry.URL,
		"port":         cfg.Server.Port,
		"debug":        debug,
		"auth_mode":    cfg.Auth.Mode,
		"journal":      cfg.Journal.Enabled,
	}).Info("Configuration loaded")

	a, err := newApp(cfg, logger, true)
	if err != nil {
		return err
	}
	if a.journal != nil {
		if result, err := a.journal.RotateOldLogs(); err != nil {
			logger.WithError(err).Warn("Startup journal rotation failed")
		} else if len(result.Archived) > 0 {
			logger.WithField("archived", len(result.Archived)).Info("Archived old journal summaries")
		}
	}

	e := newServer(a)

	go func() {
		logger.WithFields(logrus.Fields{
			"port":            cfg.Server.Port,
			"action_endpoint": fmt.Sprintf("%s/v1/api/action", serviceURL),
			"health_endpoint": fmt.Sprintf("%s/health", serviceURL),
		}).Info("Starting HTTP server")

		if err := e.Start(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var registry *registryClient
	if cfg.Registry.URL != "" {
		registry = newRegistryClient(cfg.Registry.URL, serviceURL, capabilities, client.NewManager(10*time.Second, debug), logger)
		if err := registry.register(ctx); err != nil {
			logger.WithError(err).Warn("Failed to register with registry, service will continue without registration")
			registry = nil
		} else {
			logger.Info("Successfully registered with registry service")
			if cfg.Registry.HeartbeatInterval > 0 {
				go registry.heartbeatLoop(ctx, cfg.Registry.HeartbeatInterval)
			}
		}
	}

	logger.Info("Service is ready. Press Ctrl+C to stop.")
	<-ctx.Done()
	logger.Info("Shutting down service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if registry != nil {
		if err := registry.deregister(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Failed to deregister from registry")
		}
	}

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Error during graceful shutdown")
		return err
	}

	logger.Info("Service stopped")
	return nil
}

// newServer builds the echo instance with all routes of the service.
func newServer(a *app) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.HEAD, echo.POST},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, headerAPIKey},
	}))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(a.cfg.Server.BodyLimit))

	// Public endpoints
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{})))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/v1/api", AuthMiddleware(a.cfg.Auth))
	api.POST("/action", a.actionHandler)
	api.POST("/upgrade", a.upgradeHandler)
	api.GET("/plan", a.planHandler)
	api.GET("/content-types", a.contentTypesHandler)

	journal := api.Group("/journal", a.requireJournal)
	journal.GET("/sessions", a.listSessionsHandler)
	journal.GET("/active", a.getActiveSessionsHandler)
	journal.GET("/session/:id", a.getSessionHandler)
	journal.GET("/summary/:date", a.getDailySummaryHandler)
	journal.GET("/stats", a.getStatsHandler)
	journal.POST("/rotate", a.rotateJournalHandler, AdminOnlyMiddleware())

	return e
}
