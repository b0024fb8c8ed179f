package handler

import (
	"context"
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/artwall/artwall/internal/domain"
	"github.com/artwall/artwall/internal/repository"
	"github.com/artwall/artwall/internal/service"
	"github.com/artwall/artwall/pkg/log"
	"github.com/artwall/artwall/pkg/middleware"
	"github.com/artwall/artwall/pkg/response"
)

// UserHandler handles profile and social-graph endpoints.
type UserHandler struct {
	userService    service.UserService
	authMiddleware *middleware.AuthMiddleware
}

// NewUserHandler creates a new user handler.
func NewUserHandler(userService service.UserService, authMiddleware *middleware.AuthMiddleware) *UserHandler {
	return &UserHandler{
		userService:    userService,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers user routes.
func (h *UserHandler) RegisterRoutes(r *gin.Engine) {
	users := r.Group("/api/users")
	users.Use(h.authMiddleware.RequireAuth())
	{
		users.POST("/update", h.Update)
		users.POST("/discover", h.Discover)
		users.POST("/follow", h.Follow)
		users.POST("/unfollow", h.Unfollow)
		users.POST("/connect", h.Connect)
		users.POST("/accept", h.Accept)
		users.POST("/profiles", h.Profile)
	}
}

// Update applies profile changes from a multipart form.
func (h *UserHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := middleware.GetUserID(c)

	var req domain.UpdateProfileRequest
	if err := c.ShouldBind(&req); err != nil {
		l.Warn().Err(err).Msg("invalid profile update request")
		response.Fail(c, "invalid profile data")
		return
	}

	profileImage, closeProfile, err := formFileReader(c, "profile_picture")
	if err != nil {
		response.Fail(c, "failed to read profile picture")
		return
	}
	if closeProfile != nil {
		defer closeProfile()
	}
	coverImage, closeCover, err := formFileReader(c, "cover_photo")
	if err != nil {
		response.Fail(c, "failed to read cover photo")
		return
	}
	if closeCover != nil {
		defer closeCover()
	}

	user, err := h.userService.Update(ctx, userID, &req, profileImage, coverImage)
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			response.Fail(c, "username already taken")
			return
		}
		l.Error().Err(err).Msg("profile update failed")
		response.Fail(c, "failed to update profile")
		return
	}

	response.OK(c, gin.H{"user": user})
}

// Discover searches for users.
func (h *UserHandler) Discover(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)

	var req domain.DiscoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "query is required")
		return
	}

	users, err := h.userService.Discover(ctx, userID, req.Query)
	if err != nil {
		if errors.Is(err, service.ErrSearchTooShort) {
			response.Fail(c, "search query must be at least 2 characters")
			return
		}
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("discover failed")
		response.Fail(c, "failed to search users")
		return
	}

	response.OK(c, gin.H{"users": users})
}

// Follow follows another user.
func (h *UserHandler) Follow(c *gin.Context) {
	h.graphAction(c, h.userService.Follow, "You are now following this user", map[error]string{
		service.ErrSelfTarget:       "you cannot follow yourself",
		service.ErrAlreadyFollowing: "you are already following this user",
	})
}

// Unfollow stops following another user.
func (h *UserHandler) Unfollow(c *gin.Context) {
	h.graphAction(c, h.userService.Unfollow, "You are no longer following this user", map[error]string{
		service.ErrSelfTarget:   "you cannot unfollow yourself",
		service.ErrNotFollowing: "you are not following this user",
	})
}

// Connect sends a connection request.
func (h *UserHandler) Connect(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)

	var req domain.TargetUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "id is required")
		return
	}

	status, err := h.userService.Connect(ctx, userID, req.ID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSelfTarget):
			response.Fail(c, "you cannot connect with yourself")
		case errors.Is(err, service.ErrAlreadyConnected):
			response.Fail(c, "you are already connected with this user")
		case errors.Is(err, service.ErrRequestPending):
			response.Fail(c, "connection request pending")
		case errors.Is(err, service.ErrRequestLimit):
			response.Fail(c, "you have sent more than 20 connection requests in the last 24 hours")
		case errors.Is(err, repository.ErrUserNotFound):
			response.Fail(c, "user not found")
		default:
			l := log.Ctx(ctx)
			l.Error().Err(err).Msg("connect failed")
			response.Fail(c, "failed to send connection request")
		}
		return
	}

	if status == domain.ConnectionAccepted {
		response.OK(c, gin.H{"message": "Connection accepted"})
		return
	}
	response.OK(c, gin.H{"message": "Connection request sent"})
}

// Accept accepts a pending connection request.
func (h *UserHandler) Accept(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)

	var req domain.TargetUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "id is required")
		return
	}

	if err := h.userService.Accept(ctx, userID, req.ID); err != nil {
		if errors.Is(err, service.ErrNoPendingRequest) {
			response.Fail(c, "no pending connection request from this user")
			return
		}
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("accept failed")
		response.Fail(c, "failed to accept connection request")
		return
	}

	response.OK(c, gin.H{"message": "Connection accepted"})
}

// Profile returns a user's public profile and their posts.
func (h *UserHandler) Profile(c *gin.Context) {
	ctx := c.Request.Context()

	var req domain.ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "profile_id is required")
		return
	}

	user, posts, err := h.userService.Profile(ctx, req.ProfileID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			response.Fail(c, "user not found")
			return
		}
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("profile fetch failed")
		response.Fail(c, "failed to fetch profile")
		return
	}

	response.OK(c, gin.H{"profile": user, "posts": posts})
}

// graphAction factors the shared bind/dispatch/respond shape of the
// simple follow-style endpoints.
func (h *UserHandler) graphAction(c *gin.Context, fn func(ctx context.Context, userID, targetID string) error, okMessage string, failures map[error]string) {
	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)

	var req domain.TargetUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "id is required")
		return
	}

	if err := fn(ctx, userID, req.ID); err != nil {
		for sentinel, msg := range failures {
			if errors.Is(err, sentinel) {
				response.Fail(c, msg)
				return
			}
		}
		if errors.Is(err, repository.ErrUserNotFound) {
			response.Fail(c, "user not found")
			return
		}
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("social graph action failed")
		response.Fail(c, "request failed")
		return
	}

	response.OK(c, gin.H{"message": okMessage})
}

// formFileReader opens an optional multipart file. The returned close
// function is nil when the field is absent.
func formFileReader(c *gin.Context, field string) (io.Reader, func(), error) {
	fh, err := c.FormFile(field)
	if err != nil || fh == nil {
		return nil, nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}
