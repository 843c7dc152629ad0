package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/coupon-next/internal/cache"
	"github.com/coupon-next/internal/config"
	"github.com/coupon-next/internal/constants"
	adminhandlers "github.com/coupon-next/internal/http/handlers/admin"
	publichandlers "github.com/coupon-next/internal/http/handlers/public"
	"github.com/coupon-next/internal/logger"
	"github.com/coupon-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "cn"
	}
	redisClient := cache.Client()
	claimRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:claim", redisPrefix),
		WindowSeconds: cfg.Claim.RateLimit.WindowSeconds,
		MaxRequests:   cfg.Claim.RateLimit.MaxRequests,
		// 领券接口保持前端约定的裸 JSON 错误格式
		Responder: func(ctx *gin.Context, waitSeconds int) {
			ctx.JSON(http.StatusTooManyRequests, gin.H{"error": constants.ClaimMsgRetryLater})
		},
	}
	sendCodeRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:send_code", redisPrefix),
		WindowSeconds: cfg.Claim.RateLimit.WindowSeconds,
		MaxRequests:   cfg.Claim.RateLimit.MaxRequests,
		Message:       "验证码发送过于频繁",
	}
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Claim.RateLimit.WindowSeconds,
		MaxRequests:   cfg.Claim.RateLimit.MaxRequests,
		Message:       "登录尝试过于频繁",
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Claim.RateLimit.WindowSeconds,
		MaxRequests:   cfg.Claim.RateLimit.MaxRequests,
		Message:       "登录尝试过于频繁",
	}

	r.Use(RecoveryMiddleware(log))
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// 领券接口，与前端约定的原始契约，鉴权在 handler 内完成
	r.POST("/api/claim-coupon", RateLimitMiddleware(redisClient, claimRule, KeyByIP), publicHandler.ClaimCoupon)

	r.GET("/", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "%s API", cfg.Claim.SiteName)
	})

	apiV1 := r.Group("/api/v1")
	{
		public := apiV1.Group("/public")
		{
			public.GET("/templates", publicHandler.ListTemplates)
		}

		auth := apiV1.Group("/auth")
		{
			auth.POST("/send-code", RateLimitMiddleware(redisClient, sendCodeRule, KeyByIPAndJSONField("email")), publicHandler.SendVerifyCode)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.Login)
		}

		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(c.UserAuthService))
		{
			user.GET("/me", publicHandler.Profile)
			user.POST("/logout", publicHandler.Logout)
		}

		admin := apiV1.Group("/admin")
		{
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIP), adminHandler.Login)

			authorized := admin.Use(AdminJWTAuthMiddleware(c.AuthService))
			{
				authorized.GET("/me", adminHandler.Profile)
				authorized.PUT("/password", adminHandler.ChangePassword)

				authorized.GET("/templates", adminHandler.ListTemplates)
				authorized.GET("/templates/:id", adminHandler.GetTemplate)
				authorized.POST("/templates", adminHandler.CreateTemplate)
				authorized.PUT("/templates/:id", adminHandler.UpdateTemplate)
				authorized.PATCH("/templates/:id/status", adminHandler.UpdateTemplateStatus)
				authorized.DELETE("/templates/:id", adminHandler.DeleteTemplate)

				authorized.POST("/templates/:id/codes", adminHandler.ImportCodes)
				authorized.GET("/templates/:id/codes", adminHandler.ListPoolEntries)
				authorized.GET("/templates/:id/codes/stats", adminHandler.PoolStats)
				authorized.DELETE("/templates/:id/codes/available", adminHandler.PurgeAvailableCodes)
			}
		}
	}

	r.NoRoute(func(ctx *gin.Context) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
	})

	return r
}
