package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AtorixIT/leadconsole/internal/session"
)

const authErrorUnauthorized = "unauthorized"

func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(context *gin.Context) {
		start := time.Now()
		context.Next()
		logger.Info("http",
			zap.String("method", context.Request.Method),
			zap.String("path", context.Request.URL.Path),
			zap.Int("status", context.Writer.Status()),
			zap.Duration("dur", time.Since(start)),
			zap.String("ip", context.ClientIP()),
			zap.String("ua", context.Request.UserAgent()),
		)
	}
}

// Guard protects admin routes behind the session cookie.
type Guard struct {
	sessionStore *session.Store
}

func NewGuard(sessionStore *session.Store) *Guard {
	return &Guard{sessionStore: sessionStore}
}

// RequireAuthenticatedWeb redirects unauthenticated page requests to the
// login form.
func (guard *Guard) RequireAuthenticatedWeb() gin.HandlerFunc {
	return func(context *gin.Context) {
		if !guard.sessionStore.IsActive(context) {
			context.Redirect(http.StatusFound, LoginPagePath)
			context.Abort()
			return
		}
		context.Next()
	}
}

// RequireAuthenticatedJSON rejects unauthenticated API requests. The
// dashboard script treats the 401 as a signal to return to the login page.
func (guard *Guard) RequireAuthenticatedJSON() gin.HandlerFunc {
	return func(context *gin.Context) {
		if !guard.sessionStore.IsActive(context) {
			context.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{jsonKeyError: authErrorUnauthorized})
			return
		}
		context.Next()
	}
}
