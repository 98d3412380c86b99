package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	catalogHandler "meal-planner-api/internal/api/handlers/catalog"
	"meal-planner-api/internal/api/handlers/health"
	notificationHandler "meal-planner-api/internal/api/handlers/notification"
	paymentHandler "meal-planner-api/internal/api/handlers/payment"
	planHandler "meal-planner-api/internal/api/handlers/plan"
	recognitionHandler "meal-planner-api/internal/api/handlers/recognition"
	userHandler "meal-planner-api/internal/api/handlers/user"
	"meal-planner-api/internal/api/middleware"
	catalogcore "meal-planner-api/internal/core/catalog"
	notificationcore "meal-planner-api/internal/core/notification"
	paymentcore "meal-planner-api/internal/core/payment"
	plancore "meal-planner-api/internal/core/plan"
	"meal-planner-api/internal/core/recommend"
	usercore "meal-planner-api/internal/core/user"
	"meal-planner-api/internal/core/vision"
	"meal-planner-api/internal/infrastructure/cache"
	"meal-planner-api/internal/infrastructure/config"
	"meal-planner-api/internal/infrastructure/mongodb"
	"meal-planner-api/internal/pkg/common"
)

// requestTimeout bounds every request end to end.
const requestTimeout = 60 * time.Second

// SetupRouter builds the service graph and registers all routes.
func SetupRouter(cfg *config.Config, db *mongodb.MongoDB, cacheStore *cache.Store) (*gin.Engine, error) {
	common.LogInfo("starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(cfg.Vision.MaxImageB))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, gin.H{
				"code":    "REQUEST_TIMEOUT",
				"message": "request timeout",
				"success": false,
			})
		}
	})

	log := common.Logger

	// Repositories.
	users := usercore.NewRepository(db, log)
	ingredients := catalogcore.NewIngredientRepository(db, log)
	meals := catalogcore.NewMealRepository(db, log)
	taxonomy := catalogcore.NewTaxonomyRepository(db, log)
	planHistory := plancore.NewHistoryRepository(db, log)
	payments := paymentcore.NewRepository(db, log)
	notifications := notificationcore.NewRepository(db, log)

	// Services.
	tokens := usercore.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	userSvc := usercore.NewService(users, tokens, log)
	visionClient := vision.NewClient(cfg.Vision, log)
	ranker := recommend.NewRanker(meals, log)
	notificationSvc := notificationcore.NewService(notifications, planHistory, log)
	gateway := paymentcore.NewGateway(cfg.Payment, log)
	paymentSvc := paymentcore.NewService(payments, users, gateway, notificationSvc, cfg.Payment, log)
	planner := plancore.NewPlanner(meals, planHistory, paymentSvc, notificationSvc, cfg.Plan, log)

	common.LogInfo("services initialized",
		zap.Bool("cache_enabled", cacheStore != nil),
		zap.String("vision_model", cfg.Vision.Model),
	)

	// Handlers.
	healthH := health.NewHandler(db, cacheStore)
	userH := userHandler.NewHandler(userSvc)
	catalogH := catalogHandler.NewHandler(ingredients, meals, taxonomy, cacheStore)
	recognitionH := recognitionHandler.NewHandler(visionClient, ingredients, ranker, log)
	planH := planHandler.NewHandler(planner, planHistory)
	paymentH := paymentHandler.NewHandler(paymentSvc)
	notificationH := notificationHandler.NewHandler(notificationSvc)

	authRequired := middleware.Auth(tokens, users)
	adminOnly := middleware.RequireRole(usercore.RoleAdmin)
	catalogCache := cache.Middleware(cacheStore, catalogHandler.CachePrefix)

	// Health probes.
	router.GET("/health", healthH.Readiness)
	router.GET("/ready", healthH.Readiness)
	router.GET("/live", healthH.Liveness)

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", userH.Register)
			auth.POST("/login", userH.Login)
		}

		usersGroup := api.Group("/users", authRequired)
		{
			usersGroup.GET("/me", userH.Me)
			usersGroup.PUT("/me", userH.UpdateProfile)
		}

		ingredientsGroup := api.Group("/ingredients")
		{
			ingredientsGroup.GET("", catalogCache, catalogH.ListIngredients)
			ingredientsGroup.GET("/:id", catalogCache, catalogH.GetIngredient)
			ingredientsGroup.POST("", authRequired, adminOnly, catalogH.CreateIngredient)
			ingredientsGroup.PUT("/:id", authRequired, adminOnly, catalogH.UpdateIngredient)
			ingredientsGroup.DELETE("/:id", authRequired, adminOnly, catalogH.DeleteIngredient)
		}

		mealsGroup := api.Group("/meals")
		{
			mealsGroup.GET("", catalogCache, catalogH.ListMeals)
			mealsGroup.GET("/:id", catalogCache, catalogH.GetMeal)
			mealsGroup.POST("", authRequired, adminOnly, catalogH.CreateMeal)
			mealsGroup.PUT("/:id", authRequired, adminOnly, catalogH.UpdateMeal)
			mealsGroup.DELETE("/:id", authRequired, adminOnly, catalogH.DeleteMeal)
		}

		categoriesGroup := api.Group("/categories")
		{
			categoriesGroup.GET("", catalogCache, catalogH.ListCategories)
			categoriesGroup.POST("", authRequired, adminOnly, catalogH.CreateCategory)
		}

		subCategoriesGroup := api.Group("/subcategories")
		{
			subCategoriesGroup.GET("", catalogCache, catalogH.ListSubCategories)
			subCategoriesGroup.POST("", authRequired, adminOnly, catalogH.CreateSubCategory)
		}

		api.POST("/recognize", authRequired, recognitionH.Recognize)

		plansGroup := api.Group("/plans", authRequired)
		{
			plansGroup.POST("", planH.Create)
			plansGroup.GET("", planH.History)
			plansGroup.GET("/latest", planH.Latest)
		}

		paymentsGroup := api.Group("/payments")
		{
			paymentsGroup.POST("", authRequired, paymentH.CreateOrder)
			paymentsGroup.GET("/my", authRequired, paymentH.MyTransactions)
			paymentsGroup.POST("/webhook", paymentH.Webhook)
			paymentsGroup.PUT("/:orderCode/status", authRequired, adminOnly, paymentH.UpdateStatus)
			paymentsGroup.GET("/success", paymentH.Success)
			paymentsGroup.GET("/cancel", paymentH.Cancel)
		}

		notificationsGroup := api.Group("/notifications", authRequired)
		{
			notificationsGroup.GET("", notificationH.List)
			notificationsGroup.PUT("/read-all", notificationH.MarkAllRead)
			notificationsGroup.PUT("/:id/read", notificationH.MarkRead)
			notificationsGroup.DELETE("/:id", notificationH.Delete)
			notificationsGroup.POST("/weekly-summary", notificationH.WeeklySummary)
		}
	}

	common.LogInfo("router setup completed",
		zap.Int("rate_limit_requests", cfg.RateLimit.Requests),
		zap.Duration("request_timeout", requestTimeout),
		zap.Int64("max_body_size", cfg.Vision.MaxImageB),
	)

	return router, nil
}
