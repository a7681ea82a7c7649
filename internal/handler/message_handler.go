package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hpn/hpn-prompt-enhancer/internal/channel"
	"github.com/hpn/hpn-prompt-enhancer/internal/domain"
)

// CredentialSource reports the currently stored credentials.
type CredentialSource interface {
	Load(ctx context.Context) (domain.Credentials, error)
}

// MessageHandler serves the message channel over HTTP.
//
// POST /v1/messages takes a channel.Message and blocks until the handler
// replies: 200 with the EnhancementResult, or 204 when the reply channel
// closed empty. If the client goes away first the request context is
// cancelled, which the enhancement service passes down to the provider.
type MessageHandler struct {
	handler   channel.Handler
	creds     CredentialSource
	providers func() []string
	logger    *slog.Logger
}

// MessageHandlerOption is a functional option for configuring MessageHandler.
type MessageHandlerOption func(*MessageHandler)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) MessageHandlerOption {
	return func(h *MessageHandler) {
		h.logger = logger
	}
}

// WithCredentials lets the health endpoint report whether a key is configured.
func WithCredentials(creds CredentialSource) MessageHandlerOption {
	return func(h *MessageHandler) {
		h.creds = creds
	}
}

// WithProviders sets the source of supported provider names for /health.
func WithProviders(names func() []string) MessageHandlerOption {
	return func(h *MessageHandler) {
		h.providers = names
	}
}

// NewMessageHandler creates a MessageHandler that dispatches to handler.
func NewMessageHandler(handler channel.Handler, opts ...MessageHandlerOption) *MessageHandler {
	h := &MessageHandler{
		handler: handler,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// HandleMessage handles POST /v1/messages.
func (h *MessageHandler) HandleMessage(c *gin.Context) {
	var msg channel.Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		sendError(c, http.StatusBadRequest, "invalid_request_error", "Invalid message body: "+err.Error())
		return
	}
	if msg.Name == "" {
		sendError(c, http.StatusBadRequest, "invalid_request_error", "message name is required")
		return
	}
	if msg.ID == "" {
		msg.ID = RequestID(c)
	}

	ctx := c.Request.Context()
	replies := h.handler.Handle(ctx, msg)

	select {
	case result, ok := <-replies:
		if !ok {
			h.logger.Warn("message produced no reply",
				slog.String("name", msg.Name),
				slog.String("message_id", msg.ID),
			)
			c.Status(http.StatusNoContent)
			return
		}
		c.JSON(http.StatusOK, result)

	case <-ctx.Done():
		h.logger.Info("client abandoned message",
			slog.String("name", msg.Name),
			slog.String("message_id", msg.ID),
			slog.String("error", ctx.Err().Error()),
		)
		c.Abort()
	}
}

// HandleHealth handles GET /health.
func (h *MessageHandler) HandleHealth(c *gin.Context) {
	body := gin.H{"status": "healthy"}

	if h.providers != nil {
		body["providers"] = h.providers()
	}

	if h.creds != nil {
		creds, err := h.creds.Load(c.Request.Context())
		switch {
		case err != nil:
			body["status"] = "degraded"
			body["credentials"] = "unreadable"
		case !creds.Configured():
			body["status"] = "degraded"
			body["credentials"] = "missing"
		default:
			creds = creds.WithDefaults()
			body["credentials"] = "configured"
			body["provider"] = creds.Provider
			body["model"] = creds.Model
		}
	}

	c.JSON(http.StatusOK, body)
}

// Routes registers the handler's routes on r.
func (h *MessageHandler) Routes(r gin.IRoutes) {
	r.POST(channel.MessagesPath, h.HandleMessage)
	r.GET("/health", h.HandleHealth)
}
