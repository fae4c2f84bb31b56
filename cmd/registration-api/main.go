package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/course-registration-api/api/swagger"
	"github.com/noah-isme/course-registration-api/internal/handler"
	"github.com/noah-isme/course-registration-api/internal/middleware"
	"github.com/noah-isme/course-registration-api/internal/repository"
	"github.com/noah-isme/course-registration-api/internal/service"
	"github.com/noah-isme/course-registration-api/pkg/cache"
	"github.com/noah-isme/course-registration-api/pkg/config"
	"github.com/noah-isme/course-registration-api/pkg/database"
	"github.com/noah-isme/course-registration-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/course-registration-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/course-registration-api/pkg/middleware/requestid"
	"github.com/noah-isme/course-registration-api/pkg/storage"
)

// @title Course Registration API
// @version 1.0.0
// @description Student course registration with unit caps, timetable clash checks, carryover and late registration tokens.
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}

	uploads, err := storage.NewLocalStorage(cfg.Storage.UploadsDir)
	if err != nil {
		return fmt.Errorf("uploads dir: %w", err)
	}
	signatures, err := storage.NewLocalStorage(cfg.Storage.SignaturesDir)
	if err != nil {
		return fmt.Errorf("signatures dir: %w", err)
	}
	exports, err := storage.NewLocalStorage(cfg.Storage.ExportsDir)
	if err != nil {
		return fmt.Errorf("exports dir: %w", err)
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	studentRepo := repository.NewStudentRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	signatureRepo := repository.NewSignatureRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck
	draftRepo := repository.NewDraftRepository(redisClient, cfg.Registration.DraftTTL)

	auditSvc := service.NewAuditService(auditRepo, service.AuditConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
		Retries:    cfg.Audit.Retries,
	}, logr)
	// Workers outlive the signal context so Stop can flush pending entries.
	auditSvc.Start(context.Background())
	defer auditSvc.Stop()

	imagePolicy := service.UploadPolicy{MaxBytes: cfg.Storage.MaxUploadBytes, AllowedMIMEs: cfg.Storage.AllowedImageMIMEs}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled)

	authSvc := service.NewAuthService(studentRepo, adminRepo, uploads, auditSvc, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
		BootstrapKey:      cfg.Bootstrap.AdminKey,
		PhotoPolicy:       imagePolicy,
	})
	catalogSvc := service.NewCatalogService(courseRepo, cacheSvc, auditSvc, validate, logr)
	settingsSvc := service.NewSettingsService(settingsRepo, cacheSvc, auditSvc, validate, logr, service.SettingsDefaults{
		ActiveSemester: cfg.Registration.DefaultActiveSemester,
		Deadline:       cfg.Registration.DefaultDeadline,
		MaxUnits:       cfg.Registration.DefaultMaxUnits,
		Levels:         cfg.Registration.Levels,
	})
	registrationSvc := service.NewRegistrationService(service.RegistrationDeps{
		Students:      studentRepo,
		Registrations: registrationRepo,
		Drafts:        draftRepo,
		Tokens:        tokenRepo,
		Catalog:       catalogSvc,
		Settings:      settingsSvc,
		Cache:         cacheSvc,
		Metrics:       metrics,
		Audit:         auditSvc,
		Validator:     validate,
		Logger:        logr,
		DefaultCap:    cfg.Registration.DefaultMaxUnits,
	})
	studentSvc := service.NewStudentService(studentRepo, registrationRepo, auditSvc, validate, logr)
	approvalSvc := service.NewApprovalService(studentRepo, registrationRepo, draftRepo, cacheSvc, auditSvc, logr)
	dashboardSvc := service.NewDashboardService(studentRepo, registrationRepo, cacheSvc, logr, service.DashboardServiceConfig{})
	tokenSvc := service.NewTokenService(tokenRepo, studentRepo, auditSvc, validate, logr)
	signatureSvc := service.NewSignatureService(signatureRepo, signatures, auditSvc, imagePolicy, "/signatures", logr)
	exportSvc := service.NewExportService(service.ExportDeps{
		Students:      studentRepo,
		Registrations: registrationRepo,
		Signatures:    signatureSvc,
		Profiles:      studentSvc,
		Images:        signatures,
		Storage:       exports,
		Signer:        storage.NewSignedURLSigner(cfg.Storage.DownloadSecret, cfg.Storage.DownloadTTL),
		Audit:         auditSvc,
		Logger:        logr,
		Config:        service.ExportConfig{APIPrefix: cfg.APIPrefix},
	})
	go cleanupExports(ctx, exportSvc, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())
	r.MaxMultipartMemory = cfg.Storage.MaxUploadBytes

	metricsHandler := handler.NewMetricsHandler(metrics)
	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	r.Static("/uploads", cfg.Storage.UploadsDir)
	r.Static("/signatures", cfg.Storage.SignaturesDir)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.Handlers{
		Auth:          handler.NewAuthHandler(authSvc),
		Catalog:       handler.NewCatalogHandler(catalogSvc),
		Configuration: handler.NewConfigurationHandler(settingsSvc),
		Registration:  handler.NewRegistrationHandler(registrationSvc),
		Students:      handler.NewStudentHandler(studentSvc, exportSvc),
		Approvals:     handler.NewApprovalHandler(approvalSvc),
		Dashboard:     handler.NewDashboardHandler(dashboardSvc),
		Tokens:        handler.NewTokenHandler(tokenSvc),
		Signatures:    handler.NewSignatureHandler(signatureSvc),
		Exports:       handler.NewExportHandler(exportSvc),
		Audit:         handler.NewAuditHandler(auditSvc),
		Metrics:       metricsHandler,
	}.Register(r.Group(cfg.APIPrefix), middleware.JWT(authSvc))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		logr.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logr.Info("server stopped")
	return nil
}

func cleanupExports(ctx context.Context, exports *service.ExportService, logr *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := exports.Cleanup(0)
			if err != nil {
				logr.Warn("export cleanup failed", zap.Error(err))
				continue
			}
			if len(removed) > 0 {
				logr.Info("expired exports removed", zap.Int("count", len(removed)))
			}
		}
	}
}
