package middlewares

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func contextWithHeaders(headers map[string]string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/", nil)
	for k, v := range headers {
		c.Request.Header.Set(k, v)
	}
	return c
}

func TestWantsJSON(t *testing.T) {
	t.Run("plain browser request does not", func(t *testing.T) {
		c := contextWithHeaders(map[string]string{
			"Accept": "text/html,application/xhtml+xml",
		})
		assert.False(t, WantsJSON(c))
	})

	t.Run("ajax marker does", func(t *testing.T) {
		c := contextWithHeaders(map[string]string{
			"X-Requested-With": "XMLHttpRequest",
		})
		assert.True(t, WantsJSON(c))
	})

	t.Run("json accept header does", func(t *testing.T) {
		c := contextWithHeaders(map[string]string{
			"Accept": "application/json",
		})
		assert.True(t, WantsJSON(c))
	})

	t.Run("json content type does", func(t *testing.T) {
		c := contextWithHeaders(map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		})
		assert.True(t, WantsJSON(c))
	})
}

func TestSessionToken(t *testing.T) {
	t.Run("prefers the cookie", func(t *testing.T) {
		c := contextWithHeaders(map[string]string{
			"Cookie":        SessionCookie + "=from-cookie",
			"Authorization": "Bearer from-header",
		})
		assert.Equal(t, "from-cookie", sessionToken(c))
	})

	t.Run("falls back to bearer token", func(t *testing.T) {
		c := contextWithHeaders(map[string]string{
			"Authorization": "Bearer from-header",
		})
		assert.Equal(t, "from-header", sessionToken(c))
	})

	t.Run("empty without either", func(t *testing.T) {
		c := contextWithHeaders(nil)
		assert.Equal(t, "", sessionToken(c))
	})
}
