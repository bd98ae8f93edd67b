package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ecodepin/ecodepin-api/catalog"
	"github.com/ecodepin/ecodepin-api/config"
	"github.com/ecodepin/ecodepin-api/middleware"
	"github.com/ecodepin/ecodepin-api/models"
	"github.com/ecodepin/ecodepin-api/services"
)

const (
	serviceName = "ecodepin-api"
	apiVersion  = "1.0.0"
)

type Dependencies struct {
	Config      *config.Config
	DB          *gorm.DB
	Log         *zap.Logger
	Catalog     *catalog.Catalog
	Auth        *services.AuthService
	Investments *services.InvestmentService
	Payments    *services.PaymentService
	Wallets     *services.WalletService
	RateLimiter *middleware.RateLimiter
	Metrics     *middleware.Metrics
}

func NewRouter(d Dependencies) *gin.Engine {
	useJSONFieldNames()

	router := gin.New()
	router.Use(middleware.Recovery(d.Log))
	if d.Metrics != nil {
		router.Use(d.Metrics.Instrument())
		router.GET("/metrics", d.Metrics.Handler())
	}
	router.Use(middleware.RequestLogger(d.Log))
	router.Use(middleware.CORS(d.Config.CORSOrigins))
	router.Use(middleware.SecurityHeaders())
	router.NoRoute(notFound)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": serviceName,
		})
	})

	authHandler := NewAuthHandler(d.Auth, d.Log)
	walletHandler := NewWalletHandler(d.Wallets, d.Log)
	catalogHandler := NewCatalogHandler(d.Catalog, d.Log)
	investmentHandler := NewInvestmentHandler(d.Investments, d.Log)
	paymentHandler := NewPaymentHandler(d.Payments, d.Log)
	adminHandler := NewAdminHandler(d.Auth, d.Log)

	requireAuth := middleware.RequireAuth(d.Auth)
	optionalAuth := middleware.OptionalAuth(d.Auth)
	limit := func(c *gin.Context) { c.Next() }
	if d.RateLimiter != nil {
		limit = d.RateLimiter.Handler()
	}

	api := router.Group("/api")
	{
		api.GET("", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"message": "EcoDePIN API",
				"version": apiVersion,
				"status":  "healthy",
			})
		})
		api.GET("/health", healthCheck(d.DB))

		auth := api.Group("/auth")
		auth.POST("/session", limit, authHandler.CreateSession)
		auth.GET("/me", requireAuth, authHandler.Me)
		auth.POST("/logout", requireAuth, authHandler.Logout)
		auth.POST("/connect-wallet", requireAuth, limit, walletHandler.Connect)

		wallet := api.Group("/wallet")
		wallet.GET("/supported", walletHandler.Supported)
		wallet.POST("/connect", requireAuth, limit, walletHandler.Connect)
		wallet.POST("/disconnect", requireAuth, walletHandler.Disconnect)
		wallet.POST("/switch-chain", requireAuth, walletHandler.SwitchChain)

		public := api.Group("", optionalAuth, limit)
		public.GET("/segments", catalogHandler.ListSegments)
		public.GET("/segments/:id", catalogHandler.GetSegment)
		public.GET("/plans", catalogHandler.ListPlans)
		public.GET("/plans/:id", catalogHandler.GetPlan)
		public.POST("/calculator", catalogHandler.Calculate)

		investments := api.Group("/investments", requireAuth, limit)
		investments.GET("", investmentHandler.List)
		investments.POST("", investmentHandler.Create)
		investments.GET("/:id", investmentHandler.Get)

		api.GET("/portfolio/stats", requireAuth, investmentHandler.PortfolioStats)

		payments := api.Group("/payments")
		payments.POST("/checkout", requireAuth, limit, paymentHandler.Checkout)
		payments.GET("/status/:sessionId", requireAuth, paymentHandler.Status)
		payments.GET("/history", requireAuth, paymentHandler.History)
		payments.POST("/webhook/stripe", limit, paymentHandler.StripeWebhook)

		admin := api.Group("/admin", requireAuth, middleware.RequireRole(models.RoleAdmin))
		admin.POST("/sessions/purge", adminHandler.PurgeSessions)
	}

	return router
}

func healthCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": "ok"})
	}
}
