package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	chat "go-messenger/internal/pkg/chat/application/domain"
	"go-messenger/internal/pkg/chat/presentation/middleware"
)

type participantLister interface {
	Participants(ctx context.Context, userID int64, conversationID string) ([]chat.Participant, error)
}

type ListParticipantsController struct {
	gw participantLister
}

func NewListParticipantsController(gw participantLister) *ListParticipantsController {
	return &ListParticipantsController{gw: gw}
}

func (h *ListParticipantsController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		participants, err := h.gw.Participants(c.Request.Context(), middleware.UserID(c), c.Param("conversationId"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, participants)
	}
}
