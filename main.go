package main

import (
	"log"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"driftwood/analytics"
	"driftwood/auth"
	"driftwood/blog"
	"driftwood/cache"
	"driftwood/common"
	"driftwood/config"
	"driftwood/contact"
	"driftwood/database"
	"driftwood/email"
	"driftwood/images"
	applog "driftwood/logger"
	"driftwood/site"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	logger, err := applog.New(cfg.Env)
	if err != nil {
		log.Fatal("Failed to build logger: ", err)
	}
	defer logger.Sync()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := common.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := database.RunMigrations(db); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	if err := database.SeedAdmin(db, cfg.AdminUsername, cfg.AdminPassword, logger); err != nil {
		logger.Fatal("Failed to seed admin user", zap.Error(err))
	}

	pageCache, err := cache.New(cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     "driftwood:",
		DefaultTTL: cfg.CacheTTL,
	})
	if err != nil {
		logger.Fatal("Failed to create page cache", zap.Error(err))
	}
	defer pageCache.Close()

	var analyticsModule *analytics.AnalyticsModule
	if cfg.AnalyticsDB != "" {
		analyticsDB, err := common.Connect(cfg.AnalyticsDB)
		if err != nil {
			logger.Warn("Analytics database unavailable, tracking disabled", zap.Error(err))
		} else {
			analyticsModule = analytics.NewAnalyticsModule(analyticsDB, db, logger)
		}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gzip.Gzip(gzip.DefaultCompression))
	router.Use(applog.RequestLogger(logger))
	router.Use(common.CanonicalHost(cfg.Domain))

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   !cfg.IsDevelopment(),
	})
	router.Use(sessions.Sessions("driftwood-session", store))

	router.SetFuncMap(map[string]interface{}{
		"now": func() time.Time {
			return time.Now()
		},
		"domain": func() string {
			return cfg.Domain
		},
	})

	router.LoadHTMLGlob("*/views/*.html")
	router.Static("/public", "./public")

	router.Use(cache.PageCache(pageCache, cfg.CacheTTL))

	authModule := auth.NewAuthModule(auth.NewCredentialStore(db), cfg.JWTSecret, cfg.TokenTTL, logger)
	authModule.RegisterRoutes(router)

	imageStore := images.NewHostedStore(cfg.ImageAPIURL, cfg.ImageAPIKey, cfg.ImageFolder)
	blogModule := blog.NewBlogModule(db, imageStore, pageCache, logger)
	blogModule.RegisterRoutes(router, authModule.RequireAuth)

	mailer := email.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom, cfg.ContactTo)
	contactModule := contact.NewContactModule(mailer, logger)
	contactModule.RegisterRoutes(router)

	if analyticsModule != nil {
		analyticsModule.RegisterRoutes(router, authModule.RequireAuth)
	}

	siteModule := site.NewSiteModule(db, analyticsModule, cfg.Domain, logger)
	siteModule.RegisterRoutes(router)

	logger.Info("Starting server", zap.String("addr", cfg.Addr()))
	if err := router.Run(cfg.Addr()); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}
