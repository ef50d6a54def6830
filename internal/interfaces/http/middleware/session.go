package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	SessionCookie = "session_id"
	sessionIDKey  = "session_id"
)

// Session identifies the guest. A missing or malformed session cookie is
// replaced with a fresh uuid.
func Session(maxAge int, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(SessionCookie)
		if err != nil || uuid.Validate(sessionID) != nil {
			sessionID = uuid.NewString()
		}

		// Refresh the cookie on every request so active sessions do not expire
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookie, sessionID, maxAge, "/", "", secure, true)

		c.Set(sessionIDKey, sessionID)
		c.Next()
	}
}

// GetSessionID returns the guest session of the request
func GetSessionID(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}
