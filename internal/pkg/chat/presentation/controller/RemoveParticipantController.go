package controller

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-messenger/internal/pkg/chat/application/usecase"
	"go-messenger/internal/pkg/chat/presentation/middleware"
)

type participantRemover interface {
	RemoveParticipant(ctx context.Context, actorID int64, conversationID string, userID int64) (*usecase.RemoveParticipantOutput, error)
}

type RemoveParticipantController struct {
	gw participantRemover
}

func NewRemoveParticipantController(gw participantRemover) *RemoveParticipantController {
	return &RemoveParticipantController{gw: gw}
}

func (h *RemoveParticipantController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req participantRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}

		if _, err := h.gw.RemoveParticipant(c.Request.Context(), middleware.UserID(c), c.Param("conversationId"), req.UserID); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
