package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-messenger/internal/pkg/chat/application/usecase"
	"go-messenger/internal/pkg/chat/presentation/middleware"
)

type messagePager interface {
	FetchPage(ctx context.Context, userID int64, conversationID, cursor string, limit *int) (*usecase.MessagePage, error)
}

// GetMessagePageController serves cursor pagination (one controller per endpoint).
type GetMessagePageController struct {
	gw messagePager
}

func NewGetMessagePageController(gw messagePager) *GetMessagePageController {
	return &GetMessagePageController{gw: gw}
}

func (h *GetMessagePageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, err := parseLimit(c)
		if err != nil {
			writeError(c, err)
			return
		}

		page, err := h.gw.FetchPage(c.Request.Context(), middleware.UserID(c), c.Param("conversationId"), c.Query("cursor"), limit)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}
