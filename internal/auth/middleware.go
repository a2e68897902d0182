package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	"secretsanta/internal/models"
)

const sessionKey = "session"

// CookieConfig names the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// SetCookie writes the signed session to the response.
func (a *Authenticator) SetCookie(c *gin.Context, cc CookieConfig, s models.Session) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cc.Name, a.Sign(s), int(a.ttl.Seconds()), "/", "", cc.Secure, true)
}

// ClearCookie ends the session in the browser.
func ClearCookie(c *gin.Context, cc CookieConfig) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cc.Name, "", -1, "/", "", cc.Secure, true)
}

// RequireSession lets the request through only with a valid session
// cookie; everyone else is sent to the login page.
func (a *Authenticator) RequireSession(cc CookieConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cc.Name)
		if err != nil || token == "" {
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		s, err := a.Verify(token)
		if err != nil {
			logger.Infof("Rejected session cookie from %s: %v", c.ClientIP(), err)
			ClearCookie(c, cc)
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		c.Set(sessionKey, s)
		c.Next()
	}
}

// RequireAdmin must run after RequireSession.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := SessionFrom(c)
		if !ok || !s.Admin {
			c.String(http.StatusForbidden, "Nur für Admins")
			c.Abort()
			return
		}
		c.Next()
	}
}

// SessionFrom returns the session stored by RequireSession.
func SessionFrom(c *gin.Context) (models.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return models.Session{}, false
	}
	s, ok := v.(models.Session)
	return s, ok
}
