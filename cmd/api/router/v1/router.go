package v1

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-messenger/internal/pkg/chat/application/gateway"
	httpHandler "go-messenger/internal/pkg/chat/presentation/http"
)

// RegisterRoutes mounts all version 1 API routes under /api/v1
func RegisterRoutes(r *gin.Engine, gw *gateway.Gateway, log *zap.Logger) {
	v1 := r.Group("/api/v1")
	httpHandler.RegisterRoutes(v1, gw, log)
}
