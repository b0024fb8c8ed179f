package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/artwall/artwall/internal/domain"
	"github.com/artwall/artwall/internal/service"
	"github.com/artwall/artwall/pkg/log"
	"github.com/artwall/artwall/pkg/middleware"
	"github.com/artwall/artwall/pkg/response"
)

// StoryHandler handles story endpoints.
type StoryHandler struct {
	storyService   service.StoryService
	authMiddleware *middleware.AuthMiddleware
}

// NewStoryHandler creates a new story handler.
func NewStoryHandler(storyService service.StoryService, authMiddleware *middleware.AuthMiddleware) *StoryHandler {
	return &StoryHandler{
		storyService:   storyService,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers story routes.
func (h *StoryHandler) RegisterRoutes(r *gin.Engine) {
	stories := r.Group("/api/stories")
	stories.Use(h.authMiddleware.RequireAuth())
	{
		stories.POST("/create", h.Create)
		stories.GET("/get", h.Feed)
	}
}

// Create stores a new story from a multipart form.
func (h *StoryHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := middleware.GetUserID(c)

	var req domain.CreateStoryRequest
	if err := c.ShouldBind(&req); err != nil {
		l.Warn().Err(err).Msg("invalid story request")
		response.Fail(c, "media_type is required")
		return
	}

	var (
		story *domain.Story
		err   error
	)
	if fh, ferr := c.FormFile("media"); ferr == nil && fh != nil {
		f, oerr := fh.Open()
		if oerr != nil {
			l.Error().Err(oerr).Msg("failed to open story media")
			response.Fail(c, "failed to read story media")
			return
		}
		defer f.Close()
		story, err = h.storyService.Create(ctx, userID, &req, fh.Filename, fh.Header.Get("Content-Type"), f, fh.Size)
	} else {
		story, err = h.storyService.Create(ctx, userID, &req, "", "", nil, 0)
	}
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyMessage):
			response.Fail(c, "text stories need content")
		case errors.Is(err, service.ErrUnsupportedMedia):
			response.Fail(c, "unsupported story media")
		default:
			l.Error().Err(err).Msg("story create failed")
			response.Fail(c, "failed to create story")
		}
		return
	}

	response.OK(c, gin.H{"story": story})
}

// Feed returns active stories from the caller's graph.
func (h *StoryHandler) Feed(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)

	stories, err := h.storyService.Feed(ctx, userID)
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("story feed failed")
		response.Fail(c, "failed to fetch stories")
		return
	}

	response.OK(c, gin.H{"stories": stories})
}
