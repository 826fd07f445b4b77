package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-messenger/internal/pkg/chat/application/usecase"
	"go-messenger/internal/pkg/chat/presentation/middleware"
)

type conversationDeleter interface {
	DeleteConversation(ctx context.Context, actorID int64, conversationID string) (*usecase.DeleteConversationOutput, error)
}

type DeleteConversationController struct {
	gw conversationDeleter
}

func NewDeleteConversationController(gw conversationDeleter) *DeleteConversationController {
	return &DeleteConversationController{gw: gw}
}

func (h *DeleteConversationController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := h.gw.DeleteConversation(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
