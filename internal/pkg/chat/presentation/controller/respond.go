package controller

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	chat "go-messenger/internal/pkg/chat/application/domain"
	"go-messenger/internal/pkg/chat/application/usecase"
)

var errBadRequest = errors.New("malformed request body")

// writeError maps err to its REST status. Store failures are reported generically.
func writeError(c *gin.Context, err error) {
	kind := usecase.KindOf(err)
	if errors.Is(err, errBadRequest) {
		kind = usecase.KindValidation
	}
	msg := usecase.PublicMessage(err)
	if kind == usecase.KindValidation {
		msg = err.Error()
	}
	if kind == usecase.KindTransientStore {
		_ = c.Error(err)
	}
	c.JSON(kind.HTTPStatus(), gin.H{"error": msg, "code": kind.Code()})
}

// parseLimit reads the optional limit query parameter.
func parseLimit(c *gin.Context) (*int, error) {
	raw, ok := c.GetQuery("limit")
	if !ok || raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, chat.ErrInvalidLimit
	}
	return &n, nil
}
