// Package session keeps admin login state in a signed cookie. Each
// authenticated session also carries a view identifier that keys the
// server-side dashboard state for that operator.
package session

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	// Name is the cookie name holding the admin session.
	Name = "leadconsole_admin"

	sessionKeyToken  = "token"
	sessionKeyViewID = "view_id"

	logEventLoadSession = "load_session"
	logEventSaveSession = "save_session"
)

// Store signs and validates admin session cookies.
type Store struct {
	cookieStore *sessions.CookieStore
	logger      *zap.Logger
}

// NewStore builds a Store from the shared session secret. The cookie is
// HTTP-only, scoped to the whole site, and expires with the browser session.
func NewStore(secret string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	cookieStore := sessions.NewCookieStore([]byte(secret))
	cookieStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   0,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &Store{cookieStore: cookieStore, logger: logger}
}

// Establish records a successful login. The upstream token is kept for the
// lifetime of the session and a fresh view identifier is minted so the
// operator starts from default dashboard state.
func (store *Store) Establish(context *gin.Context, token string) error {
	sessionInstance, sessionErr := store.cookieStore.Get(context.Request, Name)
	if sessionErr != nil {
		// A stale or re-keyed cookie decodes with an error but still yields
		// a usable fresh session.
		store.logger.Warn(logEventLoadSession, zap.Error(sessionErr))
	}
	sessionInstance.Values[sessionKeyToken] = token
	sessionInstance.Values[sessionKeyViewID] = uuid.NewString()
	if saveErr := sessionInstance.Save(context.Request, context.Writer); saveErr != nil {
		store.logger.Warn(logEventSaveSession, zap.Error(saveErr))
		return saveErr
	}
	return nil
}

// Clear ends the session by expiring the cookie.
func (store *Store) Clear(context *gin.Context) error {
	sessionInstance, sessionErr := store.cookieStore.Get(context.Request, Name)
	if sessionErr != nil {
		store.logger.Warn(logEventLoadSession, zap.Error(sessionErr))
	}
	sessionInstance.Values = map[interface{}]interface{}{}
	sessionInstance.Options.MaxAge = -1
	if saveErr := sessionInstance.Save(context.Request, context.Writer); saveErr != nil {
		store.logger.Warn(logEventSaveSession, zap.Error(saveErr))
		return saveErr
	}
	return nil
}

// IsActive reports whether the request carries a valid admin session.
func (store *Store) IsActive(context *gin.Context) bool {
	return store.token(context) != ""
}

// ViewID returns the dashboard view identifier for the session, or an empty
// string when the session is not active.
func (store *Store) ViewID(context *gin.Context) string {
	if context == nil || context.Request == nil {
		return ""
	}
	sessionInstance, sessionErr := store.cookieStore.Get(context.Request, Name)
	if sessionErr != nil {
		return ""
	}
	return extractString(sessionInstance.Values[sessionKeyViewID])
}

func (store *Store) token(context *gin.Context) string {
	if context == nil || context.Request == nil {
		return ""
	}
	sessionInstance, sessionErr := store.cookieStore.Get(context.Request, Name)
	if sessionErr != nil {
		return ""
	}
	return extractString(sessionInstance.Values[sessionKeyToken])
}

func extractString(value interface{}) string {
	text, ok := value.(string)
	if !ok {
		return ""
	}
	return text
}
