package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/email"
	audithandler "github.com/jwalitptl/clinic-api/internal/handler/audit"
	authhandler "github.com/jwalitptl/clinic-api/internal/handler/auth"
	clinichandler "github.com/jwalitptl/clinic-api/internal/handler/clinic"
	healthhandler "github.com/jwalitptl/clinic-api/internal/handler/health"
	patienthandler "github.com/jwalitptl/clinic-api/internal/handler/patient"
	treatmenthandler "github.com/jwalitptl/clinic-api/internal/handler/treatment"
	userhandler "github.com/jwalitptl/clinic-api/internal/handler/user"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/repository/postgres"
	redisrepo "github.com/jwalitptl/clinic-api/internal/repository/redis"
	"github.com/jwalitptl/clinic-api/internal/router"
	auditService "github.com/jwalitptl/clinic-api/internal/service/audit"
	authService "github.com/jwalitptl/clinic-api/internal/service/auth"
	clinicService "github.com/jwalitptl/clinic-api/internal/service/clinic"
	patientService "github.com/jwalitptl/clinic-api/internal/service/patient"
	treatmentService "github.com/jwalitptl/clinic-api/internal/service/treatment"
	userService "github.com/jwalitptl/clinic-api/internal/service/user"
	"github.com/jwalitptl/clinic-api/internal/worker"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/security"
	"github.com/jwalitptl/clinic-api/pkg/upload"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	if err := validator.RegisterPhoneValidation(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	redisClient, err := redisrepo.NewClient(cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()

	// Repositories
	clinicRepo := postgres.NewClinicRepository(db)
	userRepo := postgres.NewUserRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	treatmentRepo := postgres.NewTreatmentRepository(db)
	auditRepo := postgres.NewAuditLogRepository(db)
	tokenStore := redisrepo.NewTokenStore(redisClient)

	// Shared infrastructure
	appMetrics := metrics.NewMetrics("clinic_api", "app")
	jwtService := auth.NewJWTService(auth.Config{
		Secret:        cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Expiry:        time.Duration(cfg.JWT.ExpiryHours) * time.Hour,
		RefreshExpiry: time.Duration(cfg.JWT.RefreshExpiryHours) * time.Hour,
	})
	hasher := security.NewBcryptHasher(bcrypt.DefaultCost)
	emailService := email.NewService(cfg.SMTP)
	imageStore := upload.NewImageStore(cfg.Upload.Dir)

	// Services
	auditSvc := auditService.NewService(auditRepo, appLogger)
	authSvc := authService.NewService(userRepo, clinicRepo, tokenStore, jwtService, hasher, emailService, auditSvc, appMetrics, appLogger)
	clinicSvc := clinicService.NewService(clinicRepo, auditSvc)
	userSvc := userService.NewService(userRepo, clinicRepo, hasher, emailService, auditSvc, appLogger)
	patientSvc := patientService.NewService(patientRepo, userRepo, treatmentRepo, auditSvc)
	treatmentSvc := treatmentService.NewService(treatmentRepo, patientRepo, userRepo, imageStore, auditSvc, appMetrics)

	// HTTP layer
	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	handlers := router.Handlers{
		Auth:      authhandler.NewHandler(authSvc),
		Clinic:    clinichandler.NewHandler(clinicSvc),
		User:      userhandler.NewHandler(userSvc),
		Patient:   patienthandler.NewHandler(patientSvc),
		Treatment: treatmenthandler.NewHandler(treatmentSvc),
		Audit:     audithandler.NewHandler(auditSvc),
		Health:    healthhandler.NewHandler(db, redisClient),
	}

	r := router.NewRouter(authMiddleware, handlers, router.Config{
		RateLimitRPS:   cfg.RateLimit.RequestsPerSecond,
		RateLimitBurst: cfg.RateLimit.Burst,
		Timeout:        time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		CORS:           middleware.DefaultCORSConfig(),
		MetricsPrefix:  "clinic_api",
	})
	r.Setup()

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	cleanupWorker := worker.NewAuditCleanupWorker(auditRepo, 365, 24*time.Hour, appLogger)
	go cleanupWorker.Start(workerCtx)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}
