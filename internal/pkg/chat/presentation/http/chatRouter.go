package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-messenger/internal/pkg/chat/application/gateway"
	"go-messenger/internal/pkg/chat/presentation/controller"
	"go-messenger/internal/pkg/chat/presentation/middleware"
)

// RegisterRoutes registers chat-related HTTP endpoints under the given router group
// It constructs per-endpoint controllers and binds them directly to routes.
func RegisterRoutes(g *gin.RouterGroup, gw *gateway.Gateway, log *zap.Logger) {
	// GET /ws authenticates its own handshake (header or token query param)
	g.GET("/ws", controller.NewChatSocketController(gw, log).Handle())

	authed := g.Group("", middleware.RequireUser(gw))

	authed.GET("/message/:conversationId/cursor", controller.NewGetMessagePageController(gw).Handle())
	authed.POST("/message/:conversationId", controller.NewSendMessageController(gw).Handle())
	authed.POST("/message", controller.NewStartConversationController(gw).Handle())

	authed.POST("/conversation", controller.NewCreateConversationController(gw).Handle())
	authed.DELETE("/conversation/:id", controller.NewDeleteConversationController(gw).Handle())

	authed.GET("/conversation-participant", controller.NewListConversationsController(gw).Handle())
	authed.GET("/conversation-participant/:conversationId", controller.NewListParticipantsController(gw).Handle())
	authed.POST("/conversation-participant/addUser/:conversationId", controller.NewAddParticipantController(gw).Handle())
	authed.DELETE("/conversation-participant/removeUser/:conversationId", controller.NewRemoveParticipantController(gw).Handle())
}
