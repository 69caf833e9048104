// Package main 是应用程序入口
package main

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/pg-manager-backend/internal/common/cache"
	"github.com/dumeirei/pg-manager-backend/internal/common/config"
	"github.com/dumeirei/pg-manager-backend/internal/common/crypto"
	"github.com/dumeirei/pg-manager-backend/internal/common/jwt"
	"github.com/dumeirei/pg-manager-backend/internal/common/metrics"
	adminHandler "github.com/dumeirei/pg-manager-backend/internal/handler/admin"
	authHandler "github.com/dumeirei/pg-manager-backend/internal/handler/auth"
	cronHandler "github.com/dumeirei/pg-manager-backend/internal/handler/cron"
	publicHandler "github.com/dumeirei/pg-manager-backend/internal/handler/public"
	tenantHandler "github.com/dumeirei/pg-manager-backend/internal/handler/tenant"
	uploadHandler "github.com/dumeirei/pg-manager-backend/internal/handler/upload"
	"github.com/dumeirei/pg-manager-backend/internal/middleware"
	"github.com/dumeirei/pg-manager-backend/internal/repository"
	"github.com/dumeirei/pg-manager-backend/internal/scheduler"
	adminService "github.com/dumeirei/pg-manager-backend/internal/service/admin"
	authService "github.com/dumeirei/pg-manager-backend/internal/service/auth"
	billingService "github.com/dumeirei/pg-manager-backend/internal/service/billing"
	bookingService "github.com/dumeirei/pg-manager-backend/internal/service/booking"
	contentService "github.com/dumeirei/pg-manager-backend/internal/service/content"
	depositService "github.com/dumeirei/pg-manager-backend/internal/service/deposit"
	maintenanceService "github.com/dumeirei/pg-manager-backend/internal/service/maintenance"
	"github.com/dumeirei/pg-manager-backend/internal/service/notification"
	propertyService "github.com/dumeirei/pg-manager-backend/internal/service/property"
	tenantService "github.com/dumeirei/pg-manager-backend/internal/service/tenant"
	uploadService "github.com/dumeirei/pg-manager-backend/internal/service/upload"
	"github.com/dumeirei/pg-manager-backend/pkg/oss"
)

// maxBodySize 请求体上限，需覆盖图片上传
const maxBodySize = 12 << 20

// app 路由之外还需要在 main 中使用的组件
type app struct {
	auth *authService.AuthService
	jobs *scheduler.Jobs
}

// setupRouter 设置路由
func setupRouter(
	r *gin.Engine,
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	redisClient *redis.Client,
	m *metrics.Metrics,
) (*app, error) {
	// 创建 JWT 管理器
	jwtManager := jwt.NewManager(&jwt.Config{
		Secret:            cfg.JWT.Secret,
		AccessExpireTime:  cfg.JWT.AccessTokenDuration(),
		RefreshExpireTime: cfg.JWT.RefreshTokenDuration(),
		Issuer:            cfg.JWT.Issuer,
	})

	// 证件号加密，未配置密钥时明文存储
	var cipher *crypto.AES
	if cfg.Crypto.AESKey != "" {
		c, err := crypto.NewAES(cfg.Crypto.AESKey)
		if err != nil {
			return nil, fmt.Errorf("init id proof cipher: %w", err)
		}
		cipher = c
	} else {
		logger.Warn("crypto.aes_key not set, ID proof numbers are stored unencrypted")
	}

	store := cache.NewStore(redisClient)

	// 初始化仓储
	userRepo := repository.NewUserRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	bedRepo := repository.NewBedRepository(db)
	tenantRepo := repository.NewTenantRepository(db)
	depositRepo := repository.NewDepositRepository(db)
	billRepo := repository.NewBillRepository(db)
	maintenanceRepo := repository.NewMaintenanceRepository(db)
	testimonialRepo := repository.NewTestimonialRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	bookingRepo := repository.NewBookingRepository(db)

	// 初始化外部服务客户端
	notifier, err := notification.New(cfg, m)
	if err != nil {
		return nil, fmt.Errorf("init notifier: %w", err)
	}
	uploader, err := newUploader(&cfg.OSS)
	if err != nil {
		return nil, fmt.Errorf("init uploader: %w", err)
	}

	// 初始化服务
	authSvc := authService.NewAuthService(userRepo, jwtManager, cfg.Crypto.BcryptCost)
	propertySvc := propertyService.NewPropertyService(db, propertyRepo, roomRepo, bedRepo, tenantRepo, store, cfg.Cache.PropertyTTLDuration(), m)
	tenantSvc := tenantService.NewTenantService(db, tenantRepo, bedRepo, depositRepo, cipher, store, cfg.Crypto.BcryptCost, cfg.Business.Tenant.NoticePeriodDays)
	depositSvc := depositService.NewDepositService(db, depositRepo)
	billingSvc := billingService.NewBillingService(db, billRepo, tenantRepo, notifier, cfg.Payment, cfg.Business.Billing, m)
	maintenanceSvc := maintenanceService.NewMaintenanceService(maintenanceRepo, tenantRepo)
	testimonialSvc := contentService.NewTestimonialService(testimonialRepo, propertyRepo)
	announcementSvc := contentService.NewAnnouncementService(announcementRepo, propertyRepo, tenantRepo)
	bookingSvc := bookingService.NewBookingService(db, bookingRepo, propertyRepo, roomRepo, bedRepo, tenantSvc)
	dashboardSvc := adminService.NewDashboardService(propertyRepo, roomRepo, bedRepo, tenantRepo, billRepo, maintenanceRepo, bookingRepo, m)
	uploadSvc := uploadService.NewUploadService(uploader, cfg.OSS.UploadDir)
	jobs := scheduler.NewJobs(billingSvc, m)

	// 初始化处理器
	authH := authHandler.NewHandler(authSvc)
	publicH := publicHandler.NewHandler(propertySvc, testimonialSvc, bookingSvc)
	tenantH := tenantHandler.NewHandler(tenantSvc, billingSvc, depositSvc, maintenanceSvc, announcementSvc, testimonialSvc)
	uploadH := uploadHandler.NewHandler(uploadSvc)
	cronH := cronHandler.NewHandler(jobs)

	adminPropertyH := adminHandler.NewPropertyHandler(propertySvc)
	adminTenantH := adminHandler.NewTenantHandler(tenantSvc, depositSvc)
	adminBillH := adminHandler.NewBillHandler(billingSvc)
	adminOperationH := adminHandler.NewOperationHandler(maintenanceSvc, bookingSvc, testimonialSvc, announcementSvc)
	adminDashboardH := adminHandler.NewDashboardHandler(dashboardSvc)

	// 全局中间件
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.SecureHeaders())
	r.Use(middleware.CORS(&cfg.CORS))
	r.Use(middleware.RequestSizeLimiter(maxBodySize))
	if cfg.Tracing.Enabled {
		r.Use(middleware.Tracing(cfg.Tracing.ServiceName, "/health", "/ping", "/ready", cfg.Metrics.Path))
	}
	if cfg.Metrics.Enabled {
		r.Use(m.Middleware(cfg.Metrics.Path))
	}
	r.Use(middleware.AccessLog(logger))

	// 健康检查（不需要认证）
	r.GET("/health", healthHandler)
	r.GET("/ping", pingHandler)
	r.GET("/ready", readyHandler(db, redisClient))

	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, metrics.Handler())
	}

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	var limiterClient *redis.Client
	if cfg.RateLimit.Enabled {
		limiterClient = redisClient
	}

	// API v1 路由组
	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.Use(middleware.IPRateLimit(limiterClient, "login", cfg.RateLimit.LoginPerMinute, time.Minute))
			authH.RegisterRoutes(auth)
		}
		authProtected := v1.Group("/auth")
		{
			authProtected.Use(middleware.Auth(jwtManager, ""))
			authH.RegisterProtectedRoutes(authProtected)
		}

		// 公开接口（无需认证）
		public := v1.Group("/public")
		{
			public.Use(middleware.IPRateLimit(limiterClient, "public", cfg.RateLimit.RequestsPerMinute, time.Minute))
			publicH.RegisterRoutes(public)

			submit := public.Group("")
			submit.Use(middleware.IPRateLimit(limiterClient, "submit", cfg.RateLimit.BookingsPerHour, time.Hour))
			publicH.RegisterSubmitRoutes(submit)
		}

		// 租客接口
		tenant := v1.Group("/tenant")
		{
			tenant.Use(middleware.TenantAuth(jwtManager))
			tenant.Use(middleware.UserRateLimit(limiterClient, "tenant", cfg.RateLimit.RequestsPerMinute, time.Minute))
			tenantH.RegisterRoutes(tenant)
			uploadH.RegisterRoutes(tenant)
		}
	}

	// 管理后台
	admin := r.Group("/api/admin")
	{
		admin.Use(middleware.AdminAuth(jwtManager))
		adminDashboardH.RegisterRoutes(admin)
		adminPropertyH.RegisterRoutes(admin)
		adminTenantH.RegisterRoutes(admin)
		adminBillH.RegisterRoutes(admin)
		adminOperationH.RegisterRoutes(admin)
		uploadH.RegisterRoutes(admin)
	}

	// 外部定时任务入口
	cron := r.Group("/api/cron")
	{
		cron.Use(middleware.CronAuth(cfg.Cron.AuthEnabled, cfg.Cron.Secret))
		cronH.RegisterRoutes(cron)
	}

	return &app{auth: authSvc, jobs: jobs}, nil
}

// newUploader 根据配置选择对象存储实现
func newUploader(cfg *config.OSSConfig) (oss.Uploader, error) {
	if cfg.Provider != "aliyun" {
		return oss.NewMockUploader(), nil
	}
	return oss.NewAliyunUploader(&oss.AliyunConfig{
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		AccessKeySecret: cfg.AccessKeySecret,
		BucketName:      cfg.Bucket,
		Domain:          cfg.CustomDomain,
		BasePath:        cfg.UploadDir,
	})
}
