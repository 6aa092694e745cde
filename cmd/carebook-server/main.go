package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/carebook/carebook/internal/config"
	"github.com/carebook/carebook/internal/domain/identity"
	"github.com/carebook/carebook/internal/domain/insurance"
	"github.com/carebook/carebook/internal/domain/referral"
	"github.com/carebook/carebook/internal/domain/scheduling"
	"github.com/carebook/carebook/internal/platform/auth"
	"github.com/carebook/carebook/internal/platform/db"
	"github.com/carebook/carebook/internal/platform/middleware"
	"github.com/carebook/carebook/internal/platform/notification"
)

// providerDirectory adapts the identity service to the scheduler's provider
// lookup, avoiding a direct dependency between the two domains.
type providerDirectory struct {
	svc *identity.Service
}

func (d *providerDirectory) Lookup(ctx context.Context, id uuid.UUID) (*scheduling.ProviderInfo, error) {
	p, err := d.svc.GetProvider(ctx, id)
	if err != nil {
		return nil, err
	}
	hours := make(map[string][]scheduling.HourBlock, len(p.Template))
	for day, ranges := range p.Template {
		blocks := make([]scheduling.HourBlock, 0, len(ranges))
		for _, r := range ranges {
			blocks = append(blocks, scheduling.HourBlock{Start: r.Start, End: r.End})
		}
		hours[day] = blocks
	}
	return &scheduling.ProviderInfo{
		ID:          p.ID,
		Name:        p.Name,
		Specialty:   string(p.Specialty),
		Restricted:  p.Specialty.Restricted(),
		WeeklyHours: hours,
	}, nil
}

// patientDirectory adapts the identity service to the scheduler's contact
// lookup.
type patientDirectory struct {
	svc *identity.Service
}

func (d *patientDirectory) Contact(ctx context.Context, id uuid.UUID) (scheduling.Contact, error) {
	p, err := d.svc.GetPatient(ctx, id)
	if err != nil {
		return scheduling.Contact{}, err
	}
	c := scheduling.Contact{Name: p.Name}
	if p.Email != nil {
		c.Email = *p.Email
	}
	return c, nil
}

// policySource adapts the insurance service to the scheduler's quote
// interface.
type policySource struct {
	svc *insurance.Service
}

func (s *policySource) Quote(ctx context.Context, patientID uuid.UUID, baseCents int64, specialty string) (scheduling.CostSplit, error) {
	b, err := s.svc.Quote(ctx, patientID, baseCents, specialty)
	if err != nil {
		return scheduling.CostSplit{}, err
	}
	return scheduling.CostSplit{
		BaseCents:    b.BaseCents,
		CoveredCents: b.CoveredCents,
		PatientCents: b.PatientCents,
		Coverage:     string(b.Coverage),
	}, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "carebook-server",
		Short: "Clinic scheduling and coverage API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
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
	upCmd.Flags().String("dir", "", "Path to migrations directory")
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
	statusCmd.Flags().String("dir", "", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

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
		logger.Fatal().Err(err).Msg("invalid config")
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
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Auth middleware
	if cfg.IsDev() {
		logger.Warn().Msg("development auth enabled; all requests run as admin")
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.JWTIssuer,
			SigningKey: []byte(cfg.JWTSecret),
			Skipper:    auth.AuthSkipper,
		}))
	}

	// API group with rate limiting
	api := e.Group("/api/v1")
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	api.Use(middleware.RateLimit(rateLimitCfg))

	// Notifications
	sender := &notification.LogSender{Logger: logger}
	notifyMgr := notification.NewManager(sender, sender, notification.NewTemplateEngine())

	// Identity
	identitySvc := identity.NewService(identity.NewProviderRepoPG(pool), identity.NewPatientRepoPG(pool))
	identity.NewHandler(identitySvc).RegisterRoutes(api)

	// Insurance
	insuranceSvc := insurance.NewService(insurance.NewPolicyRepository(pool))
	insurance.NewHandler(insuranceSvc, cfg.BaseVisitCost).RegisterRoutes(api)

	// Referrals
	referralSvc := referral.NewService(referral.NewRepository(pool))
	referral.NewHandler(referralSvc).RegisterRoutes(api)

	// Scheduling
	schedulingSvc := scheduling.NewService(
		scheduling.NewRepository(pool),
		&providerDirectory{svc: identitySvc},
		&patientDirectory{svc: identitySvc},
		referralSvc,
		&policySource{svc: insuranceSvc},
		scheduling.NewTemplateNotifier(notifyMgr, logger),
		pool,
		cfg.BaseVisitCost,
		logger,
	)
	scheduling.NewHandler(schedulingSvc).RegisterRoutes(api)

	// Notification inspection endpoints
	notification.NewHandler(notifyMgr).RegisterRoutes(api)

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

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
