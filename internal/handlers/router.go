package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/user-service/internal/cache"
	"github.com/SAP-F-2025/user-service/internal/models"
	"github.com/SAP-F-2025/user-service/internal/repositories"
	"github.com/SAP-F-2025/user-service/internal/services"
	"github.com/SAP-F-2025/user-service/internal/utils"
)

type HandlerManager struct {
	authHandler    *AuthHandler
	profileHandler *ProfileHandler
	userHandler    *UserHandler
	authMiddleware *AuthMiddleware
	signInLimiter  *cache.RateLimiter
	repo           repositories.Repository
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	cookies CookieConfig,
	signInLimiter *cache.RateLimiter,
	repo repositories.Repository,
) *HandlerManager {
	return &HandlerManager{
		authHandler:    NewAuthHandler(serviceManager.Auth(), serviceManager.Reset(), cookies, logger),
		profileHandler: NewProfileHandler(serviceManager.Profile(), logger),
		userHandler:    NewUserHandler(serviceManager.UserAdmin(), logger),
		authMiddleware: NewAuthMiddleware(serviceManager.Auth()),
		signInLimiter:  signInLimiter,
		repo:           repo,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		user := v1.Group("/user")
		{
			// Public credential routes; the throttled ones share one limiter.
			user.POST("/signup", hm.authHandler.SignUp)
			user.POST("/signin", RateLimitMiddleware(hm.signInLimiter), hm.authHandler.SignIn)
			user.POST("/forgot-password", RateLimitMiddleware(hm.signInLimiter), hm.authHandler.ForgotPassword)
			user.POST("/reset-password/:token", hm.authHandler.ResetPassword)

			// Session routes
			authed := user.Group("")
			authed.Use(hm.authMiddleware.RequireAuth())
			{
				authed.GET("/me", hm.authHandler.GetSession)
				authed.GET("/signout", hm.authHandler.SignOut)
				authed.POST("/change-password", hm.authHandler.ChangePassword)

				authed.GET("/profile", hm.profileHandler.GetProfile)
				authed.PATCH("/update-profile", hm.profileHandler.UpdateProfile)
				authed.DELETE("/account", hm.profileHandler.DeleteAccount)
			}
		}

		// Admin roster routes
		admin := v1.Group("/admin")
		admin.Use(hm.authMiddleware.RequireAuth(), hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin))
		{
			admin.GET("/users", hm.userHandler.ListUsers)
			admin.GET("/users/search", hm.userHandler.SearchUsers)
			admin.GET("/users/export", hm.userHandler.ExportUsers)
			admin.GET("/users/:id", hm.userHandler.GetUser)
			admin.GET("/users/:id/events", hm.userHandler.GetUserEvents)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		if err := hm.repo.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"service": "user-service",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "user-service",
		})
	})
}
