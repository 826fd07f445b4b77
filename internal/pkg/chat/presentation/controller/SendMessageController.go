package controller

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	chat "go-messenger/internal/pkg/chat/application/domain"
	"go-messenger/internal/pkg/chat/presentation/middleware"
)

type messageSender interface {
	Send(ctx context.Context, userID int64, conversationID, content string) (*chat.Message, error)
}

// SendMessageController handles the send-message endpoint only (one controller per endpoint).
// The message is fanned out to live connections like a websocket send.
type SendMessageController struct {
	gw messageSender
}

func NewSendMessageController(gw messageSender) *SendMessageController {
	return &SendMessageController{gw: gw}
}

// sendMessageRequest is the DTO for the HTTP request body
type sendMessageRequest struct {
	Content string `json:"content"`
}

func (h *SendMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}

		msg, err := h.gw.Send(c.Request.Context(), middleware.UserID(c), c.Param("conversationId"), req.Content)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, msg)
	}
}
