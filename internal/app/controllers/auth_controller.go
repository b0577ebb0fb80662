package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/exchangeintake/internal/app/models/dto"
	"github.com/yigit/exchangeintake/internal/app/services"
	"github.com/yigit/exchangeintake/internal/middleware"
)

// AuthController handles admin sign-in
type AuthController struct {
	authService  services.AuthService
	cookieSecure bool
}

// NewAuthController creates a new AuthController
func NewAuthController(authService services.AuthService, cookieSecure bool) *AuthController {
	return &AuthController{
		authService:  authService,
		cookieSecure: cookieSecure,
	}
}

// Login signs the administrator in
// @Summary Admin login
// @Description Checks the admin credentials and sets the HttpOnly session cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.APIResponse{data=dto.SessionResponse} "Signed in"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Invalid email or password"
// @Failure 429 {object} dto.ErrorResponse "Too many login attempts"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	session, err := c.authService.Login(ctx.Request.Context(), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	maxAge := int(time.Until(session.Response.Session.ExpiresAt).Seconds())
	middleware.SetSessionCookie(ctx, session.Token, maxAge, c.cookieSecure)
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(session.Response))
}

// Logout clears the session cookie
// @Summary Admin logout
// @Tags auth
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Signed out"
// @Router /auth/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	middleware.ClearSessionCookie(ctx, c.cookieSecure)
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "Logged out"}))
}

// Verify reports the current session
// @Summary Verify admin session
// @Tags auth
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.SessionResponse} "Session is valid"
// @Failure 401 {object} dto.ErrorResponse "Not authenticated"
// @Router /auth/verify [get]
func (c *AuthController) Verify(ctx *gin.Context) {
	resp, err := c.authService.Verify(ctx.Request.Context(), middleware.SessionToken(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}
