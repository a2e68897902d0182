package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"secretsanta/internal/models"
)

func TestSetCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a := NewAuthenticator(map[string]Account{"katrin": {Name: "Katrin"}}, "test-key", time.Hour)
	session := models.Session{Username: "katrin", Expires: time.Now().Add(time.Hour)}

	tests := []struct {
		name   string
		secure bool
	}{
		{"plain http", false},
		{"https", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/login", nil)

			a.SetCookie(c, CookieConfig{Name: "wichtel_auth", Secure: tt.secure}, session)

			cookies := w.Result().Cookies()
			require.Len(t, cookies, 1)
			assert.Equal(t, "wichtel_auth", cookies[0].Name)
			assert.Equal(t, tt.secure, cookies[0].Secure)
			assert.True(t, cookies[0].HttpOnly)

			got, err := a.Verify(cookies[0].Value)
			require.NoError(t, err)
			assert.Equal(t, "katrin", got.Username)
		})
	}
}
