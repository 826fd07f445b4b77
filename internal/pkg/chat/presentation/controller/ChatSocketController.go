package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"go-messenger/internal/infrastructure/logging"
	"go-messenger/internal/infrastructure/realtime"
	"go-messenger/internal/pkg/chat/application/gateway"
	"go-messenger/internal/pkg/chat/application/usecase"
)

const maxFrameSize = 64 << 10

// ChatSocketController handles the websocket endpoint for realtime chat traffic.
// One goroutine per connection reads and dispatches frames in order.
type ChatSocketController struct {
	gw  *gateway.Gateway
	log *zap.Logger
}

func NewChatSocketController(gw *gateway.Gateway, log *zap.Logger) *ChatSocketController {
	return &ChatSocketController{gw: gw, log: logging.OrNop(log).Named("ws")}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers authenticate with a bearer token, not cookies, so any origin may connect.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle authenticates the handshake, upgrades and processes frames until the
// client disconnects. A failed credential is refused with 401 before upgrading.
func (ctl *ChatSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := ctl.gw.NewSession()
		credential := gateway.ResolveCredential(c.GetHeader("Authorization"), c.Query("token"))
		if err := sess.Authenticate(credential); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": err.Error(),
				"code":  usecase.KindAuthentication.Code(),
			})
			return
		}

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response.
			sess.Close()
			return
		}
		if _, err := sess.Attach(ws); err != nil {
			_ = ws.Close()
			return
		}
		defer sess.Close()

		ws.SetReadLimit(maxFrameSize)
		_ = ws.SetReadDeadline(time.Now().Add(realtime.PongWait))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(realtime.PongWait))
		})

		ctx := c.Request.Context()
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) &&
					!errors.Is(err, websocket.ErrCloseSent) {
					ctl.log.Debug("read failed", zap.Int64("user_id", sess.UserID()), zap.Error(err))
				}
				return
			}
			_ = sess.Dispatch(ctx, data)
		}
	}
}
