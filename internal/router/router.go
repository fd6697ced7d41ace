package router

import (
	"fmt"
	"strings"

	"github.com/cardvault/internal/cache"
	"github.com/cardvault/internal/config"
	"github.com/cardvault/internal/constants"
	adminhandlers "github.com/cardvault/internal/http/handlers/admin"
	publichandlers "github.com/cardvault/internal/http/handlers/public"
	"github.com/cardvault/internal/http/response"
	"github.com/cardvault/internal/logger"
	"github.com/cardvault/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = constants.RedisPrefixDefault
	}
	redisClient := cache.Client()
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		MessageKey:    "error.rate_limited",
	}
	checkoutRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:checkout", redisPrefix),
		WindowSeconds: cfg.Security.CheckoutRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.CheckoutRateLimit.MaxAttempts,
		MessageKey:    "error.rate_limited",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	r.GET("/health", func(ctx *gin.Context) {
		response.Success(ctx, gin.H{"status": "ok"})
	})

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/products", publicHandler.GetProducts)
			public.GET("/products/:id", publicHandler.GetProduct)
			public.GET("/captcha/image", publicHandler.GetImageCaptcha)

			// 下单与查单，下单接口带限流与可选买家身份
			public.POST("/orders",
				RateLimitMiddleware(redisClient, checkoutRule, KeyByIPAndJSONField("email")),
				BuyerIdentityMiddleware(c.AuthService),
				publicHandler.CreateOrder,
			)
			public.POST("/orders/batch", publicHandler.BatchQueryOrders)
			public.GET("/orders", publicHandler.SearchOrdersByEmail)
			public.GET("/orders/:order_no", publicHandler.GetOrder)
			public.GET("/orders/:order_no/status", publicHandler.GetOrderStatus)
			public.GET("/orders/:order_no/secrets/export", publicHandler.ExportOrderSecrets)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIP), adminHandler.AdminLogin)

			// 需要鉴权的接口
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo))
			{
				authorized.GET("/profile", adminHandler.GetProfile)

				// 商品管理
				authorized.GET("/products", adminHandler.GetAdminProducts)
				authorized.GET("/products/:id", adminHandler.GetAdminProduct)
				authorized.POST("/products", adminHandler.CreateProduct)
				authorized.PUT("/products/:id", adminHandler.UpdateProduct)
				authorized.PATCH("/products/:id/active", adminHandler.SetProductActive)

				// 卡密管理
				authorized.POST("/card-secrets/import", adminHandler.ImportCardSecrets)
				authorized.GET("/card-secrets", adminHandler.GetCardSecrets)
				authorized.GET("/card-secrets/stats", adminHandler.GetCardSecretStats)

				// 优惠券管理
				authorized.GET("/coupons", adminHandler.GetAdminCoupons)
				authorized.POST("/coupons", adminHandler.CreateCoupon)
				authorized.PATCH("/coupons/:id/active", adminHandler.SetCouponActive)

				// 订单管理
				authorized.GET("/orders", adminHandler.AdminListOrders)
				authorized.GET("/orders/:order_no", adminHandler.AdminGetOrder)
				authorized.POST("/orders/:order_no/mark-paid", adminHandler.AdminMarkOrderPaid)
				authorized.GET("/orders/:order_no/secrets/export", adminHandler.AdminExportOrderSecrets)
			}
		}
	}

	return r
}
