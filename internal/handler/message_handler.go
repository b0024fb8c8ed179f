package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"

	"github.com/artwall/artwall/internal/dispatch"
	"github.com/artwall/artwall/internal/domain"
	"github.com/artwall/artwall/internal/registry"
	"github.com/artwall/artwall/internal/service"
	"github.com/artwall/artwall/pkg/log"
	"github.com/artwall/artwall/pkg/middleware"
	"github.com/artwall/artwall/pkg/response"
)

// Handshake event sent as soon as the delivery stream is live.
const streamSentinel = "Connected to SSE stream"

// MessageHandler handles message endpoints, including the long-lived
// delivery stream.
type MessageHandler struct {
	messageService service.MessageService
	registry       *registry.Registry
	dispatcher     *dispatch.Dispatcher
	authMiddleware *middleware.AuthMiddleware
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(messageService service.MessageService, reg *registry.Registry, dispatcher *dispatch.Dispatcher, authMiddleware *middleware.AuthMiddleware) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		registry:       reg,
		dispatcher:     dispatcher,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers message routes.
func (h *MessageHandler) RegisterRoutes(r *gin.Engine) {
	messages := r.Group("/api/messages")
	{
		// The stream route itself carries the user id; a request
		// without one never reaches registration.
		messages.GET("", h.StreamMissingID)
		messages.GET("/recent", h.authMiddleware.RequireAuth(), h.Recent)
		messages.GET("/:user_id", h.Stream)
		messages.POST("/send", h.authMiddleware.RequireAuth(), h.Send)
		messages.POST("/get", h.authMiddleware.RequireAuth(), h.GetConversation)
	}
}

// StreamMissingID rejects stream opens that carry no user id. This is
// the one failure reported via the status line instead of the body.
func (h *MessageHandler) StreamMissingID(c *gin.Context) {
	response.FailStatus(c, http.StatusBadRequest, "user id is required")
}

// Stream opens the delivery channel: register, handshake, then forward
// dispatched events until the client goes away.
func (h *MessageHandler) Stream(c *gin.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		response.FailStatus(c, http.StatusBadRequest, "user id is required")
		return
	}

	l := log.Ctx(c.Request.Context())

	ch := registry.NewChannel()
	h.registry.Register(userID, ch)
	defer h.registry.Unregister(userID, ch)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)

	if err := sse.Encode(c.Writer, sse.Event{Data: streamSentinel}); err != nil {
		l.Warn().Err(err).Str(log.FieldUserID, userID).Msg("failed to write stream handshake")
		return
	}
	c.Writer.Flush()

	l.Info().Str(log.FieldUserID, userID).Msg("delivery stream opened")

	for {
		select {
		case payload := <-ch.Events():
			if err := sse.Encode(c.Writer, sse.Event{Data: string(payload)}); err != nil {
				l.Warn().Err(err).Str(log.FieldUserID, userID).Msg("stream write failed")
				return
			}
			c.Writer.Flush()
		case <-ch.Done():
			// Displaced by a newer connection for the same user.
			l.Info().Str(log.FieldUserID, userID).Msg("delivery stream displaced")
			return
		case <-c.Request.Context().Done():
			l.Info().Str(log.FieldUserID, userID).Msg("delivery stream closed")
			return
		}
	}
}

// Send creates a message and pushes it to any open channels. The push
// happens after the response is written so the sender's latency never
// depends on delivery.
func (h *MessageHandler) Send(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := middleware.GetUserID(c)

	var req domain.SendMessageRequest
	if err := c.ShouldBind(&req); err != nil {
		l.Warn().Err(err).Msg("invalid send request")
		response.Fail(c, "to_user_id is required")
		return
	}

	var image io.Reader
	if fh, err := c.FormFile("image"); err == nil && fh != nil {
		f, err := fh.Open()
		if err != nil {
			l.Error().Err(err).Msg("failed to open uploaded image")
			response.Fail(c, "failed to read uploaded image")
			return
		}
		defer f.Close()
		image = f
	}

	msg, event, err := h.messageService.Send(ctx, userID, &req, image)
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) {
			response.Fail(c, "message must contain text or an image")
			return
		}
		l.Error().Err(err).Msg("send failed")
		response.Fail(c, "failed to send message")
		return
	}

	response.OK(c, gin.H{"message": msg})

	h.dispatcher.Dispatch(event)
}

// GetConversation returns the full exchange with to_user_id and marks
// their messages seen.
func (h *MessageHandler) GetConversation(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := middleware.GetUserID(c)

	var req domain.GetMessagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid conversation request")
		response.Fail(c, "to_user_id is required")
		return
	}

	msgs, err := h.messageService.Conversation(ctx, userID, req.ToUserID)
	if err != nil {
		l.Error().Err(err).Msg("conversation fetch failed")
		response.Fail(c, "failed to fetch messages")
		return
	}

	response.OK(c, gin.H{"messages": msgs})
}

// Recent returns the caller's messages across all counterparts with
// participants expanded. Grouping per counterpart is a client concern.
func (h *MessageHandler) Recent(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)

	events, err := h.messageService.Recent(ctx, userID)
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("recent fetch failed")
		response.Fail(c, "failed to fetch recent messages")
		return
	}

	response.OK(c, gin.H{"messages": events})
}
