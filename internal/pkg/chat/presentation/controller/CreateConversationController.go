package controller

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-messenger/internal/pkg/chat/application/usecase"
	"go-messenger/internal/pkg/chat/presentation/middleware"
)

type conversationCreator interface {
	Create(ctx context.Context, userID int64, participantIDs []int64) (*usecase.CreateConversationOutput, error)
}

// CreateConversationController handles the conversation creation endpoint
// One controller per endpoint
type CreateConversationController struct {
	gw conversationCreator
}

func NewCreateConversationController(gw conversationCreator) *CreateConversationController {
	return &CreateConversationController{gw: gw}
}

type createConversationRequest struct {
	Participants []int64 `json:"participants"`
}

func (h *CreateConversationController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createConversationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}

		out, err := h.gw.Create(c.Request.Context(), middleware.UserID(c), req.Participants)
		if err != nil {
			writeError(c, err)
			return
		}

		status := http.StatusCreated
		if out.Reused {
			status = http.StatusOK
		}
		c.JSON(status, gin.H{
			"conversation": out.Conversation,
			"participants": out.Participants,
		})
	}
}
