package controller

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-messenger/internal/pkg/chat/application/usecase"
	"go-messenger/internal/pkg/chat/presentation/middleware"
)

type participantAdder interface {
	AddParticipant(ctx context.Context, actorID int64, conversationID string, userID int64) (*usecase.AddParticipantOutput, error)
}

type AddParticipantController struct {
	gw participantAdder
}

func NewAddParticipantController(gw participantAdder) *AddParticipantController {
	return &AddParticipantController{gw: gw}
}

type participantRequest struct {
	UserID int64 `json:"userId"`
}

func (h *AddParticipantController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req participantRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}

		out, err := h.gw.AddParticipant(c.Request.Context(), middleware.UserID(c), c.Param("conversationId"), req.UserID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, out.Participant)
	}
}
