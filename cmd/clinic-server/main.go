package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/eternalbranch/clinic/internal/config"
	"github.com/eternalbranch/clinic/internal/domain/consultation"
	"github.com/eternalbranch/clinic/internal/domain/dashboard"
	"github.com/eternalbranch/clinic/internal/domain/identity"
	"github.com/eternalbranch/clinic/internal/domain/inventory"
	"github.com/eternalbranch/clinic/internal/domain/patient"
	"github.com/eternalbranch/clinic/internal/domain/prescription"
	"github.com/eternalbranch/clinic/internal/platform/auth"
	"github.com/eternalbranch/clinic/internal/platform/middleware"
	"github.com/eternalbranch/clinic/internal/platform/seed"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-server",
		Short: "Eternal Branch clinic staff API",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(rosterCmd())

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

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate a demo dataset and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			patients, _ := cmd.Flags().GetInt("patients")
			seedValue, _ := cmd.Flags().GetInt64("seed")
			if patients < 0 {
				return fmt.Errorf("--patients must not be negative")
			}
			cfg := seed.DefaultConfig()
			cfg.Patients = patients
			cfg.Seed = seedValue
			return writeDataset(cmd.OutOrStdout(), seed.Generate(cfg))
		},
	}
	cmd.Flags().Int("patients", seed.DefaultConfig().Patients, "Number of patients to generate")
	cmd.Flags().Int64("seed", 0, "Random seed (0 picks a time based seed)")
	return cmd
}

func rosterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roster",
		Short: "Print the staff roster and consultant directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return writeRoster(cmd.Context(), cmd.OutOrStdout(), cfg.DefaultClinicID)
		},
	}
}

func writeDataset(w io.Writer, ds seed.Dataset) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ds)
}

func writeRoster(ctx context.Context, w io.Writer, clinicID string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	users, err := identity.NewRosterRepo(clinicID).List(ctx)
	if err != nil {
		return err
	}
	consultants, err := identity.NewConsultantDirectory().List(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "Staff")
	for _, u := range users {
		fmt.Fprintf(w, "  %-3s %-32s %-14s %s\n", u.ID, u.Email, u.Role, u.FullName())
	}
	fmt.Fprintln(w, "Consultants")
	for _, c := range consultants {
		availability := "available"
		if !c.Available {
			availability = "unavailable"
		}
		fmt.Fprintf(w, "  %-3s %-22s %-16s %s\n", c.ID, c.Name, c.Specialty, availability)
	}
	return nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// stores holds the wired domain services behind the HTTP surface.
type stores struct {
	identity      *identity.Service
	patients      *patient.Service
	consultations *consultation.Service
	prescriptions *prescription.Service
	inventory     *inventory.Ledger
	dashboard     *dashboard.Service
}

func buildStores(cfg *config.Config, logger zerolog.Logger) (*stores, error) {
	roster, err := identity.NewRoster(cfg.StaffPassphrase, cfg.DefaultClinicID, logger)
	if err != nil {
		return nil, fmt.Errorf("build roster: %w", err)
	}
	fee := decimal.NewFromFloat(cfg.DefaultConsultationFee)

	patients := patient.NewService(patient.NewMemRepo(), roster,
		patient.Config{ClinicID: cfg.DefaultClinicID, DefaultFee: fee}, logger)
	consultations := consultation.NewService(consultation.NewMemRepo(), patients, roster, fee, logger)
	prescriptions := prescription.NewService(prescription.NewMemRepo(), logger)
	ledger := inventory.NewLedger(logger)

	return &stores{
		identity:      roster,
		patients:      patients,
		consultations: consultations,
		prescriptions: prescriptions,
		inventory:     ledger,
		dashboard:     dashboard.NewService(patients, consultations, prescriptions, ledger, logger),
	}, nil
}

func newServer(cfg *config.Config, st *stores, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
	}))

	issuer := auth.NewTokenIssuer(auth.SessionConfig{
		SigningKey: []byte(cfg.JWTSigningKey),
		TTL:        cfg.SessionTTL,
	})
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware(issuer))
	} else {
		e.Use(auth.SessionMiddleware(issuer, auth.AuthSkipper))
	}
	e.Use(middleware.Audit(logger))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})

	apiV1 := e.Group("/api/v1")
	identity.NewHandler(st.identity, issuer).RegisterRoutes(apiV1)
	patient.NewHandler(st.patients).RegisterRoutes(apiV1)
	consultation.NewHandler(st.consultations).RegisterRoutes(apiV1)
	prescription.NewHandler(st.prescriptions).RegisterRoutes(apiV1)
	inventory.NewHandler(st.inventory).RegisterRoutes(apiV1)
	dashboard.NewHandler(st.dashboard).RegisterRoutes(apiV1)

	return e
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	st, err := buildStores(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build stores")
	}

	if cfg.SeedPatients > 0 {
		seedCfg := seed.DefaultConfig()
		seedCfg.Patients = cfg.SeedPatients
		seedCfg.Seed = cfg.SeedRandom
		_, err := seed.Load(context.Background(), seed.Generate(seedCfg), seed.Stores{
			Patients:      st.patients,
			Consultants:   identity.NewConsultantDirectory(),
			Consultations: st.consultations,
			Prescriptions: st.prescriptions,
			Inventory:     st.inventory,
		}, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to seed demo data")
		}
	}

	e := newServer(cfg, st, logger)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
