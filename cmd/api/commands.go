package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"terminplaner/cmd/internal/config"
	"terminplaner/cmd/internal/domain/factory"
	"terminplaner/cmd/internal/routes"
	"terminplaner/cmd/internal/service"
	"terminplaner/cmd/internal/utils/validators"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var configPath string

var rootCmd = &cobra.Command{
	Use:   "terminplaner",
	Short: "Personal appointment manager",
	Long: `Personal appointment manager.

Serves the appointment API backed by memory, SQLite, SurrealDB or a hybrid of
SQLite and SurrealDB. Run without a subcommand to serve.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the appointment API",
	RunE:  runServe,
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the local and remote stores once and exit",
	RunE:  runSync,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "optional config file (yaml, json or toml)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(syncCmd)
}

// open loads configuration and builds the store. Configuration failures are
// fatal.
func open(ctx context.Context) (*config.Config, factory.Store) {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal("failed to load configuration: ", err)
	}
	log.SetLevel(cfg.Level())

	store, err := factory.New(ctx, cfg)
	if err != nil {
		log.Fatal("failed to initialize repository: ", err)
	}
	return cfg, store
}

// syncContext bounds the startup sync by timeout. A timeout of 0 or less sets
// no deadline.
func syncContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func initialize(ctx context.Context, cfg *config.Config, store factory.Store) {
	syncCtx, cancel := syncContext(ctx, cfg.SyncTimeout)
	defer cancel()

	if report, attempted := factory.Initialize(syncCtx, store); attempted {
		log.Info(report.String())
	}
}

func closeStore(store factory.Store) {
	if err := store.Close(); err != nil {
		log.Errorf("failed to close repository: %v", err)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, store := open(ctx)
	defer closeStore(store)

	initialize(ctx, cfg, store)

	validate := validator.New()
	validators.Register(validate)

	apptService := service.NewAppointmentService(store, validate)
	apptRoutes := routes.NewAppointmentDefault(apptService)

	e := newServer(cfg.Level())
	apptRoutes.Register(e)

	serverErr := make(chan error, 1)
	go func() {
		if err := e.Start(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	case err := <-serverErr:
		log.Errorf("server stopped: %v", err)
		return err
	}
}

func runSync(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, store := open(ctx)
	defer closeStore(store)

	syncCtx, cancel := syncContext(ctx, cfg.SyncTimeout)
	defer cancel()

	report, attempted := factory.Initialize(syncCtx, store)
	if !attempted {
		fmt.Fprintf(cmd.OutOrStdout(), "repository type %s has nothing to sync\n", factory.ParseMode(cfg.RepositoryType))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), report.String())
	return nil
}

func newServer(level log.Lvl) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(level)

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				log.Warnf("%s %s %d %s: %v", v.Method, v.URI, v.Status, v.Latency, v.Error)
				return nil
			}
			log.Infof("%s %s %d %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))
	return e
}
