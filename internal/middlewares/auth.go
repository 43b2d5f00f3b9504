package middlewares

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/zarathustragosling/project-management/internal/models"
)

const (
	// SessionCookie carries the session token for browser clients.
	SessionCookie = "session"

	userContextKey = "current_user"
)

type AuthMiddleware struct {
	db *gorm.DB
}

func NewAuthMiddleware(db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{db: db}
}

// WantsJSON reports whether the client expects a JSON error body instead of
// an HTML redirect. AJAX calls mark themselves with X-Requested-With; API
// clients declare JSON via Accept or Content-Type.
func WantsJSON(c *gin.Context) bool {
	if c.GetHeader("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	if strings.Contains(c.GetHeader("Accept"), "application/json") {
		return true
	}
	return strings.Contains(c.GetHeader("Content-Type"), "application/json")
}

// RequireAuth enforces authentication. Browser clients are redirected to the
// login page, AJAX/API clients get 401.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := am.authenticateRequest(c)
		if !ok {
			if WantsJSON(c) {
				c.JSON(http.StatusUnauthorized, gin.H{
					"error": "Authentication required",
					"code":  "AUTHENTICATION_REQUIRED",
				})
				c.Abort()
				return
			}
			c.Redirect(http.StatusSeeOther, "/auth/login")
			c.Abort()
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// OptionalAuth resolves the current user when a valid session is presented
// but never rejects the request.
func (am *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, ok := am.authenticateRequest(c); ok {
			c.Set(userContextKey, user)
		}
		c.Next()
	}
}

// RequireAdmin restricts a route group to administrators. It runs after
// RequireAuth, so the user is already in the context.
func (am *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok || !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Administrator access required",
				"code":  "ADMIN_REQUIRED",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// authenticateRequest resolves the session token to a user. Authorization is
// re-evaluated on every request; nothing is cached across requests because
// team membership can change mid-session.
func (am *AuthMiddleware) authenticateRequest(c *gin.Context) (*models.User, bool) {
	token := sessionToken(c)
	if token == "" {
		return nil, false
	}

	var session models.Session
	err := am.db.Where("token = ?", token).First(&session).Error
	if err == gorm.ErrRecordNotFound {
		return nil, false
	}
	if err != nil {
		log.Printf("Database error during session lookup: %v", err)
		return nil, false
	}
	if session.Expired() {
		return nil, false
	}

	var user models.User
	if err := am.db.Preload("Role").First(&user, session.UserID).Error; err != nil {
		log.Printf("Failed to load user %d for session: %v", session.UserID, err)
		return nil, false
	}

	return &user, true
}

func sessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// CurrentUser returns the authenticated user set by RequireAuth or
// OptionalAuth.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(userContextKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}
