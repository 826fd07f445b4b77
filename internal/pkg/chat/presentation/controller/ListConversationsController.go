package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	chat "go-messenger/internal/pkg/chat/application/domain"
	"go-messenger/internal/pkg/chat/presentation/middleware"
)

type directoryReader interface {
	UserConversations(ctx context.Context, userID int64) ([]chat.ConversationSummary, error)
}

// ListConversationsController returns the caller's conversation list.
type ListConversationsController struct {
	gw directoryReader
}

func NewListConversationsController(gw directoryReader) *ListConversationsController {
	return &ListConversationsController{gw: gw}
}

func (h *ListConversationsController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		summaries, err := h.gw.UserConversations(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, summaries)
	}
}
