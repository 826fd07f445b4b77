package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	chat "go-messenger/internal/pkg/chat/application/domain"
	"go-messenger/internal/pkg/chat/application/usecase"
)

const userIDKey = "userID"

// Authenticator maps a bearer credential to a user id.
type Authenticator interface {
	Authenticate(credential string) (int64, error)
}

// RequireUser rejects requests without a valid "Authorization: Bearer" token
// and stores the caller's user id in the gin context.
func RequireUser(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok {
			abortUnauthenticated(c)
			return
		}
		userID, err := auth.Authenticate(strings.TrimSpace(token))
		if err != nil {
			abortUnauthenticated(c)
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the id stored by RequireUser, or 0.
func UserID(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}

func abortUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": chat.ErrUnauthenticated.Error(),
		"code":  usecase.KindAuthentication.Code(),
	})
}
