package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ehr/appointments/internal/config"
	"github.com/ehr/appointments/internal/domain/booking"
	"github.com/ehr/appointments/internal/platform/db"
	"github.com/ehr/appointments/internal/platform/middleware"
	"github.com/ehr/appointments/internal/platform/telemetry"
	"github.com/ehr/appointments/internal/tools"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "1.0.0"

func main() {
	rootCmd := &cobra.Command{
		Use:           "appointment-mcp",
		Short:         "Appointment booking tools over the Model Context Protocol",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the appointment tools (stdio by default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			transport, _ := cmd.Flags().GetString("transport")
			return runServer(transport)
		},
	}
	cmd.Flags().String("transport", "", "stdio or http (overrides TRANSPORT)")
	return cmd
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify database connectivity and the booking uniqueness index",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.OutOrStdout())
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "appointment-mcp %s\n", version)
		},
	}
}

// newLogger writes to stderr; stdout is reserved for the stdio transport.
func newLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	if cfg.IsDev() {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(cfg.Level()).With().Timestamp().Str("service", cfg.ServerName).Logger()
}

func loadConfig(transport string) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if t := config.NormalizeTransport(transport); t != "" {
		cfg.Transport = t
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServer(transport string) error {
	cfg, err := loadConfig(transport)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.ServerName, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to database")
		return err
	}
	defer pool.Close()
	logger.Info().Int32("max_conns", cfg.DBMaxConns).Msg("connected to database")

	if ok, err := db.BookingIndexExists(ctx, pool); err != nil {
		logger.Warn().Err(err).Msg("could not verify booking index")
	} else if !ok {
		logger.Warn().
			Str("index", db.BookingIndexName).
			Msg("booking uniqueness index is missing; run 'appointment-mcp check' for the DDL")
	}

	// Tools
	handler := tools.NewHandler(newBookingService(pool), logger)
	mcpServer := tools.NewMCPServer(cfg.ServerName, cfg.ServerVersion, handler)

	switch cfg.Transport {
	case "http":
		metrics := telemetry.NewMetrics()
		handler.WithRecorder(metrics)
		registerPoolGauges(metrics, pool)
		e := newHTTPServer(cfg, logger, metrics, tools.HTTPHandler(mcpServer), pool, func() *db.PoolStats { return db.GetPoolStats(pool) })
		return serveHTTP(ctx, e, ":"+cfg.Port, logger)
	default:
		logger.Info().Str("transport", "stdio").Msg("serving tools")
		err := tools.ServeStdio(ctx, mcpServer, os.Stdin, os.Stdout, logger)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
			logger.Error().Err(err).Msg("stdio transport stopped")
			return err
		}
		logger.Info().Msg("stdio transport closed")
		return nil
	}
}

func newBookingService(pool *pgxpool.Pool) *booking.Service {
	return booking.NewService(
		booking.NewDoctorRepoPG(pool),
		booking.NewPatientRepoPG(pool),
		booking.NewAppointmentRepoPG(pool),
		db.NewTransactor(pool),
	)
}

func registerPoolGauges(m *telemetry.Metrics, pool *pgxpool.Pool) {
	m.RegisterGauge("db_pool_acquired_connections", "Database connections in use.", func() float64 {
		return float64(pool.Stat().AcquiredConns())
	})
	m.RegisterGauge("db_pool_idle_connections", "Idle database connections.", func() float64 {
		return float64(pool.Stat().IdleConns())
	})
	m.RegisterGauge("db_pool_max_connections", "Configured pool size.", func() float64 {
		return float64(pool.Stat().MaxConns())
	})
}

// newHTTPServer mounts the MCP endpoint next to the health and metrics
// endpoints.
func newHTTPServer(cfg *config.Config, logger zerolog.Logger, metrics *telemetry.Metrics, mcpHandler http.Handler, pinger db.Pinger, stats func() *db.PoolStats) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(metrics.Middleware())
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit("1M"))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"server":  cfg.ServerName,
			"version": cfg.ServerVersion,
		})
	})
	e.GET("/health/db", db.HealthHandler(pinger, stats))
	e.GET("/metrics", metrics.Handler())
	e.Any("/mcp", echo.WrapHandler(mcpHandler))

	return e
}

func serveHTTP(ctx context.Context, e *echo.Echo, addr string, logger zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Str("transport", "http").Msg("serving tools")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			logger.Error().Err(err).Msg("server error")
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func runCheck(out io.Writer) error {
	cfg, err := loadConfig("")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.ServerName, 1, 0)
	if err != nil {
		return err
	}
	defer pool.Close()
	fmt.Fprintln(out, "database: ok")

	ok, err := db.BookingIndexExists(ctx, pool)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(out, "index %s: missing\n\nApply it with:\n\n%s\n", db.BookingIndexName, db.BookingIndexDDL)
		return fmt.Errorf("booking index %s is missing", db.BookingIndexName)
	}
	fmt.Fprintf(out, "index %s: ok\n", db.BookingIndexName)
	return nil
}
