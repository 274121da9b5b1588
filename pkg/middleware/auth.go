package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/htmlhost/htmlhost/internal/sessions"
)

const (
	// SessionCookie is the name of the cookie carrying the session token.
	SessionCookie = "session"

	// ContextKeyUsername is the gin context key for the authenticated user.
	ContextKeyUsername = "username"
	// ContextKeySession is the gin context key for the verified *sessions.Session.
	ContextKeySession = "session"
	// ContextKeyToken is the gin context key for the raw session token.
	ContextKeyToken = "sessionToken"
)

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (*sessions.Session, error)
}

// TokenFromRequest returns the session token from the session cookie or,
// failing that, from an "Authorization: Bearer" header.
func TokenFromRequest(c *gin.Context) string {
	if v, err := c.Cookie(SessionCookie); err == nil && v != "" {
		return v
	}
	auth := c.GetHeader("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

// SessionMiddleware rejects requests without a valid session with 401 and
// otherwise stores the session and username in the context.
func SessionMiddleware(ver Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := TokenFromRequest(c)
		if raw == "" {
			AbortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
			return
		}
		sess, err := ver.Verify(c.Request.Context(), raw)
		if err != nil {
			AbortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired session")
			return
		}
		c.Set(ContextKeySession, sess)
		c.Set(ContextKeyUsername, sess.Username)
		c.Set(ContextKeyToken, raw)
		c.Next()
	}
}
