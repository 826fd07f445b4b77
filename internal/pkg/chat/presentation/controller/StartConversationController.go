package controller

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-messenger/internal/pkg/chat/application/usecase"
	"go-messenger/internal/pkg/chat/presentation/middleware"
)

type conversationStarter interface {
	Start(ctx context.Context, userID int64, participantIDs []int64, content string) (*usecase.StartConversationOutput, error)
}

// StartConversationController opens a conversation with its first message.
type StartConversationController struct {
	gw conversationStarter
}

func NewStartConversationController(gw conversationStarter) *StartConversationController {
	return &StartConversationController{gw: gw}
}

type startConversationRequest struct {
	Participants []int64 `json:"participants"`
	Content      string  `json:"content"`
}

func (h *StartConversationController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req startConversationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}

		out, err := h.gw.Start(c.Request.Context(), middleware.UserID(c), req.Participants, req.Content)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"conversation": out.Conversation,
			"message":      out.Message,
		})
	}
}
