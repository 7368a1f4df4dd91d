package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinica/dashboard/internal/config"
	"github.com/clinica/dashboard/internal/dashboard"
	"github.com/clinica/dashboard/internal/domain/doctor"
	"github.com/clinica/dashboard/internal/domain/exam"
	"github.com/clinica/dashboard/internal/domain/patient"
	"github.com/clinica/dashboard/internal/domain/summary"
	"github.com/clinica/dashboard/internal/platform/db"
	"github.com/clinica/dashboard/internal/platform/middleware"
	"github.com/clinica/dashboard/internal/platform/resource"
	"github.com/clinica/dashboard/internal/platform/sandbox"
	"github.com/clinica/dashboard/internal/platform/telemetry"
)

const apiPrefix = "/api/v1"

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-dashboard",
		Short: "Clinic dashboard API over the patients, doctors, exams and summary backends",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(sandboxCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(summaryCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			withSandbox, _ := cmd.Flags().GetBool("with-sandbox")
			return runServer(withSandbox)
		},
	}
	cmd.Flags().Bool("with-sandbox", false, "Run the emulated backends in-process and point every upstream at them")
	return cmd
}

func sandboxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sandbox",
		Short: "Serve emulated patients, doctors, exams and summary backends",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSandbox()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the sandbox Postgres schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			repo, closePool, err := openRepository(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closePool()

			count, err := repo.Migrate(cmd.Context())
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			repo, closePool, err := openRepository(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closePool()

			statuses, err := repo.MigrationStatus(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			writeMigrationStatus(cmd.OutOrStdout(), statuses)
			return nil
		},
	})
	return cmd
}

func summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <medico|paciente> <id>...",
		Short: "Fetch several visit summaries concurrently and print them as JSON",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg, os.Stderr)
			return runSummary(cmd.Context(), cfg, logger, cmd.OutOrStdout(), args)
		},
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, out io.Writer) zerolog.Logger {
	if cfg.IsDev() {
		out = zerolog.ConsoleWriter{Out: out}
	}
	logger := zerolog.New(out).With().Timestamp().Logger()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return logger.Level(level)
}

func newClients(cfg *config.Config, metrics *telemetry.Provider, logger zerolog.Logger) dashboard.Clients {
	requester := func(name, baseURL string) *resource.Requester {
		return resource.NewRequester(name, baseURL, cfg.HTTPTimeout, logger).WithRecorder(metrics)
	}
	return dashboard.Clients{
		Patients:     patient.NewClient(requester("patients", cfg.PatientsAPIURL), patient.NewStore()),
		Doctors:      doctor.NewClient(requester("doctors", cfg.DoctorsAPIURL), doctor.NewStore()),
		Exams:        exam.NewClient(requester("exams", cfg.ExamsAPIURL), exam.NewStore(), nil),
		Summaries:    summary.NewClient(requester("summaries", cfg.SummaryAPIURL), summary.NewStore()),
		Orchestrator: summary.NewClient(requester("orchestrator", cfg.OrchestratorURL), summary.NewStore()),
	}
}

// newServer builds the dashboard API with the global middleware stack.
func newServer(cfg *config.Config, dash *dashboard.Dashboard, metrics *telemetry.Provider, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	skip := make([]string, 0, len(dashboard.ExportPaths))
	for _, p := range dashboard.ExportPaths {
		skip = append(skip, apiPrefix+p)
	}

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(metrics.Middleware())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout, skip...))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Content-Type", middleware.RequestIDHeader},
	}))

	h := dashboard.NewHandler(dash, logger)
	e.GET("/health", h.Health)
	e.GET("/metrics", metrics.Handler())
	h.RegisterRoutes(e.Group(apiPrefix))
	return e
}

// newSandboxServer mounts the emulated backends. health is nil for the
// in-memory repository.
func newSandboxServer(h *sandbox.Handler, health db.Pinger, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))

	e.GET("/health", db.HealthHandler(health))
	h.RegisterRoutes(e)
	return e
}

func seedConfig(cfg *config.Config) sandbox.SeedConfig {
	return sandbox.SeedConfig{
		Patients: cfg.SandboxPatients,
		Doctors:  cfg.SandboxDoctors,
		Exams:    cfg.SandboxExams,
		Seed:     cfg.SandboxSeed,
	}
}

// openRepository connects the Postgres sandbox repository. It needs
// DATABASE_URL.
func openRepository(ctx context.Context, cfg *config.Config) (*sandbox.PostgresRepository, func(), error) {
	if cfg.DatabaseURL == "" {
		return nil, nil, errors.New("DATABASE_URL is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}
	return sandbox.NewPostgresRepository(pool), pool.Close, nil
}

func writeMigrationStatus(out io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(out, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(out, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(out, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

// openSandbox picks the repository: Postgres when DATABASE_URL is set,
// memory otherwise. An empty database and the memory repository are
// seeded. The returned cleanup closes the pool.
func openSandbox(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*sandbox.Handler, db.Pinger, func(), error) {
	if cfg.DatabaseURL == "" {
		h := sandbox.NewHandler(sandbox.NewMemoryRepository(), logger)
		if _, err := h.Seed(ctx, seedConfig(cfg)); err != nil {
			return nil, nil, nil, err
		}
		return h, nil, func() {}, nil
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Info().Msg("connected to database")

	repo := sandbox.NewPostgresRepository(pool)
	applied, err := repo.Migrate(ctx)
	if err != nil {
		pool.Close()
		return nil, nil, nil, err
	}
	logger.Info().Int("applied", applied).Msg("migrations complete")

	h := sandbox.NewHandler(repo, logger)
	empty, err := repo.Empty(ctx)
	if err != nil {
		pool.Close()
		return nil, nil, nil, err
	}
	if empty {
		if _, err := h.Seed(ctx, seedConfig(cfg)); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
	}
	return h, pool, pool.Close, nil
}

func runServer(withSandbox bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, os.Stdout)
	ctx := context.Background()

	var servers []*echo.Echo
	if withSandbox {
		h, health, cleanup, err := openSandbox(ctx, cfg, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to start sandbox")
		}
		defer cleanup()

		sb := newSandboxServer(h, health, logger.With().Str("server", "sandbox").Logger())
		start(sb, ":"+cfg.SandboxPort, logger)
		servers = append(servers, sb)
		cfg.PointAt("http://localhost:" + cfg.SandboxPort)
	}

	metrics := telemetry.NewProvider()
	dash := dashboard.New(newClients(cfg, metrics, logger), dashboard.Options{
		ExamsLoadCap:   cfg.ExamsLoadCap,
		DebounceWindow: cfg.DebounceWindow,
	}, logger)
	defer dash.Close()

	e := newServer(cfg, dash, metrics, logger)
	start(e, ":"+cfg.Port, logger)
	servers = append(servers, e)

	waitAndShutdown(logger, servers...)
	return nil
}

func runSandbox() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, os.Stdout)

	h, health, cleanup, err := openSandbox(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start sandbox")
	}
	defer cleanup()

	e := newSandboxServer(h, health, logger)
	start(e, ":"+cfg.SandboxPort, logger)
	waitAndShutdown(logger, e)
	return nil
}

func runSummary(ctx context.Context, cfg *config.Config, logger zerolog.Logger, out io.Writer, args []string) error {
	kind, err := summary.ParseKind(args[0])
	if err != nil {
		return err
	}
	ids := make([]int, 0, len(args)-1)
	for _, raw := range args[1:] {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid id %q", raw)
		}
		ids = append(ids, id)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	req := resource.NewRequester("orchestrator", cfg.OrchestratorURL, cfg.HTTPTimeout, logger)
	results := summary.NewClient(req, summary.NewStore()).Orchestrate(ctx, kind, ids)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func start(e *echo.Echo, addr string, logger zerolog.Logger) {
	go func() {
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()
}

// waitAndShutdown blocks until SIGINT or SIGTERM, then stops every server.
func waitAndShutdown(logger zerolog.Logger, servers ...*echo.Echo) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, e := range servers {
		if err := e.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("server shutdown failed")
		}
	}
	logger.Info().Msg("server stopped")
}
