package main

import (
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/wltrading/whitelabel-backend/shared/activity"
	"github.com/wltrading/whitelabel-backend/shared/analytics"
	"github.com/wltrading/whitelabel-backend/shared/auth"
	"github.com/wltrading/whitelabel-backend/shared/config"
	"github.com/wltrading/whitelabel-backend/shared/middleware"
	"github.com/wltrading/whitelabel-backend/shared/store"
	"github.com/wltrading/whitelabel-backend/shared/utils"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using environment variables")
	}

	cfg := config.GetAppConfig()

	db, err := config.ConnectDatabase()
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	if err := store.Migrate(db); err != nil {
		log.WithError(err).Fatal("Failed to migrate database")
	}
	st := store.New(db)

	cache, err := utils.NewCache()
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, running without cache")
		cache = nil
	}

	var publisher activity.Publisher
	if cfg.KafkaBroker != "" {
		kp := activity.NewKafkaPublisher(cfg.KafkaBroker, cfg.ActivityTopic)
		defer kp.Close()
		publisher = kp
		log.WithField("broker", cfg.KafkaBroker).Info("Activity event stream enabled")
	}

	activityLog := activity.NewLogger(st, publisher, log)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	authSvc := auth.NewService(st, tokens, activityLog)
	agg := analytics.NewAggregator(st)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.ActivityLogger(activityLog))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy", "service": "whitelabel-backend"})
	})

	api := router.Group("/api")

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/super-admin/login", handleSuperAdminLogin(authSvc))
		authRoutes.POST("/client/login", handleClientLogin(authSvc, st))
		authRoutes.POST("/token/login", handleTokenLogin(authSvc, db, cache))
		authRoutes.GET("/verify", handleVerify(tokens, st))
		authRoutes.POST("/refresh", handleRefresh(tokens))
		authRoutes.POST("/logout", middleware.RequireAuth(tokens), handleLogout(activityLog))
	}

	client := api.Group("/client")
	client.Use(middleware.RequireAuth(tokens), middleware.RequireRole(auth.RoleClientAdmin))
	{
		client.GET("/profile", handleGetClientProfile(st))
		client.PUT("/profile", handleUpdateClientProfile(db, activityLog))
		client.PUT("/theme", handleUpdateTheme(db, activityLog))
		client.GET("/customization", handleGetCustomization(db, cache))
		client.PUT("/customization", handleUpdateCustomization(db, cache, activityLog))
		client.GET("/tokens", handleGetTokens(st))
		client.POST("/tokens", handleCreateToken(authSvc))
		client.DELETE("/tokens/:id", handleDeleteToken(authSvc))
		client.PATCH("/tokens/:id/toggle", handleToggleToken(authSvc))
	}

	admin := api.Group("/super-admin")
	admin.Use(middleware.RequireAuth(tokens), middleware.RequireRole(auth.RoleSuperAdmin))
	{
		admin.GET("/clients", handleGetClients(db, st))
		admin.POST("/clients", handleCreateClient(db))
		admin.GET("/clients/:id", handleGetClient(db))
		admin.PUT("/clients/:id", handleUpdateClient(db))
		admin.DELETE("/clients/:id", handleDeleteClient(db))
		admin.PATCH("/clients/:id/toggle", handleToggleClient(db))
		admin.POST("/bulk/clients", handleBulkUpdateClients(db))
		admin.GET("/dashboard/stats", handleDashboardStats(db))
		admin.GET("/dashboard/activity", handleRecentActivity(db))
		admin.GET("/dashboard/analytics", handleSystemSummary(agg))
		admin.GET("/settings", handleGetSettings(db))
		admin.PUT("/settings", handleUpdateSetting(db))
		admin.GET("/profile", handleGetAdminProfile(db))
		admin.PUT("/profile", handleUpdateAdminProfile(db))
	}

	analyticsRoutes := api.Group("/analytics")
	analyticsRoutes.Use(middleware.RequireAuth(tokens))
	{
		clientScoped := analyticsRoutes.Group("")
		clientScoped.Use(middleware.RequireRole(auth.RoleClientAdmin))
		{
			clientScoped.GET("/summary", handleClientSummary(agg, cache))
			clientScoped.GET("/daily", handleClientDaily(db))
			clientScoped.GET("/activity", handleClientActivity(db))
			clientScoped.POST("/update", handleClientRecompute(agg, cache))
		}

		adminScoped := analyticsRoutes.Group("")
		adminScoped.Use(middleware.RequireRole(auth.RoleSuperAdmin))
		{
			adminScoped.GET("/system/summary", handleSystemSummary(agg))
			adminScoped.POST("/system/update-all", handleRecomputeAll(agg))
			adminScoped.GET("/clients/:id/summary", handleSpecificClientSummary(agg, cache))
			adminScoped.GET("/clients/:id/activity", handleSpecificClientActivity(db))
		}

		analyticsRoutes.POST("/log", handleLogActivity(activityLog))
	}

	log.WithField("port", cfg.Port).Info("Starting whitelabel backend server")
	if err := router.Run(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("Failed to start server")
	}
}
