package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/exchangeintake/internal/app/controllers"
	"github.com/yigit/exchangeintake/internal/app/models/dto"
	"github.com/yigit/exchangeintake/internal/middleware"
)

// RateLimiters holds the per-endpoint limiters; a nil limiter disables that limit
type RateLimiters struct {
	Login  *middleware.RateLimiter
	Submit *middleware.RateLimiter
	Draft  *middleware.RateLimiter
}

func limit(l *middleware.RateLimiter) []gin.HandlerFunc {
	if l == nil {
		return nil
	}
	return []gin.HandlerFunc{l.Middleware()}
}

func with(handlers []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	return append(handlers, h)
}

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	eligibilityController *controllers.EligibilityController,
	applicationController *controllers.ApplicationController,
	adminController *controllers.AdminController,
	authController *controllers.AuthController,
	authMiddleware *middleware.AuthMiddleware,
	limiters RateLimiters,
) {
	v1 := router.Group("/api/v1")

	// Catalog and eligibility (public)
	catalog := v1.Group("/catalog")
	{
		catalog.GET("", eligibilityController.GetCatalog)
		catalog.GET("/countries", eligibilityController.GetCountries)
		catalog.GET("/universities", eligibilityController.GetUniversities)
	}

	eligibility := v1.Group("/eligibility")
	{
		eligibility.POST("/evaluate", eligibilityController.Evaluate)
		eligibility.POST("/recommend", eligibilityController.Recommend)
	}

	// Student wizard (public, rate limited)
	applications := v1.Group("/applications")
	{
		applications.POST("", with(limit(limiters.Submit), applicationController.Submit)...)
		applications.POST("/draft", with(limit(limiters.Draft), applicationController.SaveDraft)...)
		applications.GET("/draft", applicationController.GetDraft)
		applications.GET("/:id", applicationController.GetApplication)
		applications.GET("/:id/status", applicationController.GetStatus)
	}

	// Admin session
	auth := v1.Group("/auth")
	{
		auth.POST("/login", with(limit(limiters.Login), authController.Login)...)
		auth.POST("/logout", authController.Logout)
		auth.GET("/verify", authController.Verify)
	}

	// Admin review (session required)
	admin := v1.Group("/admin")
	admin.Use(authMiddleware.AdminAuth())
	{
		admin.GET("/applications", adminController.ListApplications)
		admin.PATCH("/applications/:id", adminController.UpdateApplication)
		admin.DELETE("/applications/:id", adminController.DeleteApplication)
		admin.POST("/applications/:id/comments", adminController.AddComment)
		admin.GET("/applications/:id/download", adminController.DownloadPDF)
	}

	v1.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"status": "ok"}))
	})
}
