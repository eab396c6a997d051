package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinicops/clinicops/internal/config"
	"github.com/clinicops/clinicops/internal/domain/admission"
	"github.com/clinicops/clinicops/internal/domain/ledger"
	"github.com/clinicops/clinicops/internal/domain/patient"
	"github.com/clinicops/clinicops/internal/domain/stats"
	"github.com/clinicops/clinicops/internal/platform/db"
	"github.com/clinicops/clinicops/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinicd",
		Short: "Clinic operations API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(rescoreCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the clinic API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func rescoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rescore",
		Short: "Re-score engagement status for every patient",
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, _ := cmd.Flags().GetString("profile")

			logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			admissionRepo := admission.NewRepo(pool)
			patientRepo := patient.NewRepo(pool)
			patientSvc := newPatientService(cfg, patientRepo, admissionRepo, logger)

			count, err := patientSvc.RescoreAll(ctx, patientSvc.ThresholdsFor(profile))
			if err != nil {
				return fmt.Errorf("rescore failed: %w", err)
			}
			fmt.Printf("Re-scored %d patient(s) with the %s profile.\n", count, profile)
			return nil
		},
	}
	cmd.Flags().String("profile", "list", "Threshold profile: list or worklist")
	return cmd
}

func newPatientService(cfg *config.Config, repo patient.Repository, statuses patient.StatusSource, logger zerolog.Logger) *patient.Service {
	svc := patient.NewService(repo, statuses, logger)
	svc.ListThresholds = patient.Thresholds{AtRiskDays: cfg.ListAtRiskDays, ChurnDays: cfg.ListChurnDays}
	svc.WorklistThresholds = patient.Thresholds{AtRiskDays: cfg.WorklistAtRiskDays, ChurnDays: cfg.WorklistChurnDays}
	return svc
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(middleware.BodyLimit(cfg.BodyLimit, cfg.ReconcileBodyLimit))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Health check
	e.GET("/health", db.HealthHandler(pool))

	apiV1 := e.Group("/api/v1")

	// -- Register Domain Handlers --

	// Admission timelines
	admissionRepo := admission.NewRepo(pool)
	admissionSvc := admission.NewService(admissionRepo)
	admission.NewHandler(admissionSvc).RegisterRoutes(apiV1)

	// Patients and engagement scoring. The admission repo doubles as the
	// contact-history source so re-scoring sees daily statuses directly.
	patientRepo := patient.NewRepo(pool)
	patientSvc := newPatientService(cfg, patientRepo, admissionRepo, logger)
	patient.NewHandler(patientSvc).RegisterRoutes(apiV1)

	// Ledger reconciliation. The patient repo receives the cached payment
	// total after each sync.
	ledgerRepo := ledger.NewRepo(pool)
	ledgerSvc := ledger.NewService(ledgerRepo, patientRepo, logger)
	ledger.NewHandler(ledgerSvc).RegisterRoutes(apiV1)

	// Statistics over all three stores
	statsSvc := stats.NewService(patientRepo, admissionRepo, ledgerRepo)
	stats.NewHandler(statsSvc).RegisterRoutes(apiV1)

	// Start server with graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("server starting")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
