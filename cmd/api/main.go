package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/oauth2"

	_ "github.com/Thiritin/shifty/api/swagger"
	"github.com/Thiritin/shifty/internal/handler"
	"github.com/Thiritin/shifty/internal/middleware"
	"github.com/Thiritin/shifty/internal/repository"
	"github.com/Thiritin/shifty/internal/service"
	"github.com/Thiritin/shifty/pkg/cache"
	"github.com/Thiritin/shifty/pkg/config"
	"github.com/Thiritin/shifty/pkg/database"
	"github.com/Thiritin/shifty/pkg/export"
	"github.com/Thiritin/shifty/pkg/logger"
	corsmiddleware "github.com/Thiritin/shifty/pkg/middleware/cors"
	reqidmiddleware "github.com/Thiritin/shifty/pkg/middleware/requestid"
)

// @title Shifty API
// @version 1.0.0
// @description Volunteer shift scheduling for conventions
// @BasePath /
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	// repositories
	shiftRepo := repository.NewShiftRepository(db)
	userRepo := repository.NewUserRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// services
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, true)

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.OIDC.ClientID,
		ClientSecret: cfg.OIDC.ClientSecret,
		RedirectURL:  cfg.OIDC.RedirectURL,
		Scopes:       cfg.OIDC.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.OIDC.AuthURL,
			TokenURL: cfg.OIDC.TokenURL,
		},
	}
	authSvc := service.NewAuthService(userRepo, cacheRepo, oauthCfg, service.AuthConfig{
		UserInfoURL:           cfg.OIDC.UserInfoURL,
		RequiredGroup:         cfg.OIDC.RequiredGroup,
		StateTTL:              cfg.OIDC.StateTTL,
		TokenSecret:           cfg.JWT.Secret,
		TokenExpiry:           cfg.JWT.Expiration,
		Issuer:                cfg.JWT.Issuer,
		DefaultShiftsExpected: cfg.Shifts.DefaultExpected,
	}, logr)

	assignmentSvc := service.NewAssignmentService(assignmentRepo, shiftRepo, userRepo, cacheSvc, metricsSvc, logr)
	shiftSvc := service.NewShiftService(shiftRepo, assignmentRepo, cacheSvc, nil, logr)
	userSvc := service.NewUserService(userRepo, assignmentRepo, nil, logr)
	dashboardSvc := service.NewDashboardService(shiftRepo, assignmentRepo, userRepo, cacheSvc, logr, service.DashboardServiceConfig{
		CacheTTL: cfg.Dashboard.CacheTTL,
	})
	calendarSvc := service.NewCalendarService(shiftRepo, export.NewICSExporter(""), cfg.Shifts.CalendarDomain, time.UTC, logr)
	reportSvc := service.NewReportService(shiftRepo, assignmentRepo, logr)

	// handlers
	authHandler := handler.NewAuthHandler(authSvc)
	shiftHandler := handler.NewShiftHandler(shiftSvc)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc)
	userHandler := handler.NewUserHandler(userSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	calendarHandler := handler.NewCalendarHandler(calendarSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", middleware.JWT(authSvc), middleware.AdminOnly(), metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.GET("/auth/login", authHandler.Login)
	r.GET("/auth/callback", authHandler.Callback)

	authed := r.Group("/", middleware.JWT(authSvc))
	{
		authed.GET("/auth/me", authHandler.Me)
		authed.POST("/auth/logout", authHandler.Logout)
		authed.GET("/dashboard", dashboardHandler.Overview)
		authed.GET("/shifts", shiftHandler.List)
		authed.GET("/shifts/:id", shiftHandler.Get)
		authed.POST("/shifts/:id/assign", assignmentHandler.Assign)
		authed.DELETE("/shifts/:id/assign", assignmentHandler.Unassign)
		authed.GET("/calendar.ics", calendarHandler.Feed)
		authed.GET("/me/shifts", shiftHandler.MyShifts)
		authed.PUT("/me/availability", userHandler.UpdateAvailability)
		authed.POST("/me/intro", userHandler.CompleteIntro)
	}

	admin := r.Group("/admin", middleware.JWT(authSvc), middleware.AdminOnly())
	{
		admin.POST("/shifts", shiftHandler.Create)
		admin.PUT("/shifts/:id", shiftHandler.Update)
		admin.DELETE("/shifts/:id", shiftHandler.Delete)
		admin.POST("/shifts/:id/users", assignmentHandler.AssignUser)
		admin.DELETE("/shifts/:id/users/:userId", assignmentHandler.UnassignUser)
		admin.GET("/users", userHandler.List)
		admin.GET("/users/:id", userHandler.Get)
		admin.PUT("/users/:id", userHandler.Update)
		admin.GET("/report", reportHandler.Roster)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
