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

	"github.com/medlogs/medlogs/internal/config"
	"github.com/medlogs/medlogs/internal/domain/budget"
	"github.com/medlogs/medlogs/internal/domain/distributor"
	"github.com/medlogs/medlogs/internal/domain/medication"
	"github.com/medlogs/medlogs/internal/domain/patient"
	"github.com/medlogs/medlogs/internal/domain/record"
	"github.com/medlogs/medlogs/internal/domain/user"
	"github.com/medlogs/medlogs/internal/platform/auth"
	"github.com/medlogs/medlogs/internal/platform/db"
	"github.com/medlogs/medlogs/internal/platform/middleware"
	"github.com/medlogs/medlogs/internal/platform/reporting"
	"github.com/medlogs/medlogs/internal/platform/syncqueue"
)

// devJWTSecret signs tokens when ENV=development and no secret is set.
// Config.Validate refuses to start any other environment without one.
const devJWTSecret = "medlogs-development-secret-do-not-use"

func main() {
	rootCmd := &cobra.Command{
		Use:   "medlogs-server",
		Short: "MedLogs clinic and pharmacy management API",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(adminCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MedLogs API server",
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

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.MigrationsDir
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
	upCmd.Flags().String("dir", "", "Path to migrations directory (defaults to MIGRATIONS_DIR)")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.MigrationsDir
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
	statusCmd.Flags().String("dir", "", "Path to migrations directory (defaults to MIGRATIONS_DIR)")
	cmd.AddCommand(statusCmd)

	return cmd
}

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative helpers",
	}

	seedCmd := &cobra.Command{
		Use:   "seed-user",
		Short: "Create an active admin user",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password are required")
			}
			if name == "" {
				name = "Administrator"
			}

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

			svc := user.NewService(user.NewRepoPG(pool))
			u := &user.User{Name: name, Email: email, Role: user.RoleAdmin, Status: user.StatusActive}
			if err := svc.Create(ctx, u, password); err != nil {
				return err
			}
			fmt.Printf("Created admin user %s (%s)\n", u.Email, u.ID)
			return nil
		},
	}
	seedCmd.Flags().String("name", "", "Display name")
	seedCmd.Flags().String("email", "", "Login email")
	seedCmd.Flags().String("password", "", "Initial password")
	cmd.AddCommand(seedCmd)

	return cmd
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
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", "Idempotency-Key"},
	}))

	// Token issuer
	secret := cfg.JWTSecret
	if secret == "" {
		secret = devJWTSecret
	}
	issuer := auth.NewTokenIssuer(secret, time.Duration(cfg.TokenTTLMinutes)*time.Minute)

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Services
	patientSvc := patient.NewService(patient.NewRepoPG(pool))
	medicationSvc := medication.NewService(medication.NewRepoPG(pool))
	distributorSvc := distributor.NewService(distributor.NewRepoPG(pool))
	recordSvc := record.NewService(record.NewRepoPG(pool))
	budgetSvc := budget.NewService(budget.NewRepoPG(pool))
	userSvc := user.NewService(user.NewRepoPG(pool))

	// Public routes: login and registration
	apiV1 := e.Group("/api/v1")
	userHandler := user.NewHandler(userSvc, issuer)
	userHandler.RegisterPublicRoutes(apiV1)

	// Authenticated routes
	secured := apiV1.Group("", auth.Middleware(issuer))
	patient.NewHandler(patientSvc).RegisterRoutes(secured)
	medication.NewHandler(medicationSvc).RegisterRoutes(secured)
	distributor.NewHandler(distributorSvc).RegisterRoutes(secured)
	budget.NewHandler(budgetSvc).RegisterRoutes(secured)
	userHandler.RegisterRoutes(secured)

	reporting.NewHandler(pool).RegisterRoutes(secured)
	reporting.NewExportHandler(recordSvc).RegisterRoutes(secured)

	// Sync queue: edge deployments mirror record mutations to the central
	// server named by SYNC_REMOTE_URL, queueing them when the link is down.
	recordHandler := record.NewHandler(recordSvc)
	if cfg.SyncRemoteURL != "" {
		dispatcher := syncqueue.NewHTTPDispatcher(cfg.SyncRemoteURL, "")
		manager := syncqueue.NewManager(syncqueue.NewPGStore(pool), dispatcher, logger)
		recordHandler = recordHandler.WithMirror(syncqueue.NewForwarder(manager, dispatcher, logger))
		syncqueue.NewHandler(manager).RegisterRoutes(secured)
		logger.Info().Str("remote", cfg.SyncRemoteURL).Msg("sync queue enabled")
	}
	recordHandler.RegisterRoutes(secured)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
