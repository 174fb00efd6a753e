package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/clinic-portal/internal/application"
	"github.com/example/clinic-portal/internal/config"
	httptransport "github.com/example/clinic-portal/internal/http"
	"github.com/example/clinic-portal/internal/persistence/localstore"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A missing .env file is fine; the environment itself takes precedence.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	store, err := localstore.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := store.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	if err := seedDoctors(context.Background(), store, logger); err != nil {
		logger.Error("failed to seed doctor directory", "error", err)
		os.Exit(1)
	}

	adminHash, err := application.CreatePasswordHash(cfg.AdminPassword, application.DefaultArgon2idParams)
	if err != nil {
		logger.Error("failed to hash admin password", "error", err)
		os.Exit(1)
	}
	admin := application.AdminCredentials{Username: cfg.AdminUsername, PasswordHash: adminHash}

	authService := application.NewAuthService(store, store, store, admin, cfg.SessionTTL, nil, nil, logger)
	appointmentService := application.NewAppointmentService(store, store, store, cfg.SlotInterval, cfg.ProposalTTL, nil, nil, nil, logger)
	patientService := application.NewPatientService(store, store, store, application.DefaultArgon2idParams, nil, nil, logger)
	doctorService := application.NewDoctorService(store, logger)
	dashboardService := application.NewDashboardService(store, store, store, nil, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:         httptransport.NewAuthHandler(authService, logger),
		Doctors:      httptransport.NewDoctorHandler(doctorService, appointmentService, logger),
		Patients:     httptransport.NewPatientHandler(patientService, logger),
		Appointments: httptransport.NewAppointmentHandler(appointmentService, logger),
		Dashboards:   httptransport.NewDashboardHandler(dashboardService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.RequireSession(authService, logger, httptransport.PublicRoute),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("portal API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// seedDoctors applies the built-in roster once per database. Each doctor gets
// a derived initial password of the form "doc<id>".
func seedDoctors(ctx context.Context, store *localstore.Store, logger *slog.Logger) error {
	seeded, err := store.Seeded(ctx)
	if err != nil {
		return err
	}
	if seeded {
		return nil
	}

	doctors := localstore.DefaultDoctors()
	for i := range doctors {
		hash, err := application.CreatePasswordHash(fmt.Sprintf("doc%d", doctors[i].ID), application.DefaultArgon2idParams)
		if err != nil {
			return err
		}
		doctors[i].PasswordHash = hash
	}

	if err := store.Seed(ctx, doctors); err != nil {
		return err
	}
	logger.Info("seeded doctor directory", "doctor_count", len(doctors))
	return nil
}
