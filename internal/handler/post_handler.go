package handler

import (
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

// PostHandler handles feed post endpoints.
type PostHandler struct {
	postService    service.PostService
	authMiddleware *middleware.AuthMiddleware
}

// NewPostHandler creates a new post handler.
func NewPostHandler(postService service.PostService, authMiddleware *middleware.AuthMiddleware) *PostHandler {
	return &PostHandler{
		postService:    postService,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers post routes.
func (h *PostHandler) RegisterRoutes(r *gin.Engine) {
	posts := r.Group("/api/posts")
	posts.Use(h.authMiddleware.RequireAuth())
	{
		posts.POST("/add", h.Create)
		posts.GET("/feed", h.Feed)
		posts.POST("/like", h.Like)
	}
}

// Create stores a new post with any attached images.
func (h *PostHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := middleware.GetUserID(c)

	var req domain.CreatePostRequest
	if err := c.ShouldBind(&req); err != nil {
		l.Warn().Err(err).Msg("invalid post request")
		response.Fail(c, "invalid post data")
		return
	}

	var images []io.Reader
	if form, err := c.MultipartForm(); err == nil && form != nil {
		for _, fh := range form.File["images"] {
			f, err := fh.Open()
			if err != nil {
				l.Error().Err(err).Msg("failed to open post image")
				response.Fail(c, "failed to read post images")
				return
			}
			defer f.Close()
			images = append(images, f)
		}
	}

	post, err := h.postService.Create(ctx, userID, &req, images)
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) {
			response.Fail(c, "posts need text or images")
			return
		}
		l.Error().Err(err).Msg("post create failed")
		response.Fail(c, "failed to create post")
		return
	}

	response.OK(c, gin.H{"post": post})
}

// Feed returns posts from the caller's graph.
func (h *PostHandler) Feed(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)

	posts, err := h.postService.Feed(ctx, userID)
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("post feed failed")
		response.Fail(c, "failed to fetch feed")
		return
	}

	response.OK(c, gin.H{"posts": posts})
}

// Like toggles the caller's like on a post.
func (h *PostHandler) Like(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)

	var req domain.LikePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "post_id is required")
		return
	}

	post, err := h.postService.ToggleLike(ctx, userID, req.PostID)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			response.Fail(c, "post not found")
			return
		}
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("like toggle failed")
		response.Fail(c, "failed to update like")
		return
	}

	response.OK(c, gin.H{"post": post})
}
