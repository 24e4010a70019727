package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/medbook/medbook-api/internal/config"
	v1 "github.com/medbook/medbook-api/internal/handler/v1"
	"github.com/medbook/medbook-api/internal/repository/postgres"
	"github.com/medbook/medbook-api/internal/service"
	"github.com/medbook/medbook-api/pkg/auth"
	"github.com/medbook/medbook-api/pkg/database"
	"github.com/medbook/medbook-api/pkg/logger"
	"github.com/medbook/medbook-api/pkg/metrics"
	"github.com/medbook/medbook-api/pkg/tracer"
)

func main() {
	// Missing .env is fine; real deployments use actual environment variables.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		os.Stderr.WriteString("failed to build logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	tp, err := tracer.Init(cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := database.Migrate(db, log); err != nil {
		return err
	}

	collector := metrics.NewCollector(cfg.App.Name)
	jwtManager := auth.NewJWTManager(cfg.JWT)

	userRepo := postgres.NewUserRepo(db)
	doctorRepo := postgres.NewDoctorRepo(db)
	specialtyRepo := postgres.NewSpecialtyRepo(db)
	bookingRepo := postgres.NewBookingRepo(db)
	slotRepo := postgres.NewSlotRepo(db)
	chatRepo := postgres.NewChatRepo(db)
	auditRepo := postgres.NewAuditRepo(db)

	auditSvc := service.NewAuditService(auditRepo, log, collector)
	defer auditSvc.Shutdown()

	handlers := v1.Handlers{
		Users:       v1.NewUserHandler(service.NewUserService(userRepo, doctorRepo, jwtManager, auditSvc, log), collector),
		Doctors:     v1.NewDoctorHandler(service.NewDoctorService(doctorRepo, bookingRepo, jwtManager, auditSvc, log), collector),
		Specialties: v1.NewSpecialtyHandler(service.NewSpecialtyService(specialtyRepo, doctorRepo, auditSvc, log)),
		Bookings:    v1.NewBookingHandler(service.NewBookingService(bookingRepo, slotRepo, doctorRepo, auditSvc, log), collector),
		Chat:        v1.NewChatHandler(service.NewChatService(chatRepo, userRepo, doctorRepo, log), collector),
	}

	router := v1.NewRouter(cfg, jwtManager, collector, handlers)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("environment", cfg.App.Environment),
			zap.String("version", cfg.App.Version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}

	log.Info("server stopped")
	return nil
}
