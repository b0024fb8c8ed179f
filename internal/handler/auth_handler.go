package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/artwall/artwall/internal/domain"
	"github.com/artwall/artwall/internal/repository"
	"github.com/artwall/artwall/internal/service"
	"github.com/artwall/artwall/pkg/log"
	"github.com/artwall/artwall/pkg/middleware"
	"github.com/artwall/artwall/pkg/response"
)

// AuthHandler handles registration, login, and session endpoints.
type AuthHandler struct {
	authService    service.AuthService
	userService    service.UserService
	authMiddleware *middleware.AuthMiddleware
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, userService service.UserService, authMiddleware *middleware.AuthMiddleware) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		userService:    userService,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers auth routes.
func (h *AuthHandler) RegisterRoutes(r *gin.Engine) {
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.GET("/me", h.authMiddleware.RequireAuth(), h.Me)
	}
}

// Register handles user registration.
func (h *AuthHandler) Register(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid register request")
		response.Fail(c, "email, username, password and full_name are required")
		return
	}

	result, err := h.authService.Register(ctx, &req)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			response.Fail(c, "email already exists")
			return
		}
		if errors.Is(err, repository.ErrUsernameExists) {
			response.Fail(c, "username already exists")
			return
		}
		l.Error().Err(err).Msg("register failed")
		response.Fail(c, "failed to register")
		return
	}

	response.OK(c, gin.H{
		"user":          result.User,
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
		"expires_at":    result.ExpiresAt,
	})
}

// Login handles user login.
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid login request")
		response.Fail(c, "email and password are required")
		return
	}

	result, err := h.authService.Login(ctx, &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, "invalid email or password")
			return
		}
		l.Error().Err(err).Msg("login failed")
		response.Fail(c, "failed to login")
		return
	}

	response.OK(c, gin.H{
		"user":          result.User,
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
		"expires_at":    result.ExpiresAt,
	})
}

// Refresh issues a fresh token pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	ctx := c.Request.Context()

	var req domain.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "refresh_token is required")
		return
	}

	result, err := h.authService.Refresh(ctx, req.RefreshToken)
	if err != nil {
		response.Fail(c, "invalid or expired refresh token")
		return
	}

	response.OK(c, gin.H{
		"user":          result.User,
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
		"expires_at":    result.ExpiresAt,
	})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)

	user, err := h.userService.Get(ctx, userID)
	if err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldUserID, userID).Msg("me lookup failed")
		response.Fail(c, "user not found")
		return
	}

	response.OK(c, gin.H{"user": user})
}
