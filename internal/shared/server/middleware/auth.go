package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mission-backend/internal/shared/auth"
	"mission-backend/internal/shared/server/respond"
)

const (
	userIDKey      = "userId"
	isGuestKey     = "isGuest"
	userEmailKey   = "userEmail"
	userNameKey    = "userName"
	userPictureKey = "userPicture"

	// GuestPrefix marks principals that have not logged in.
	GuestPrefix = "guest:"
)

var publicPrefixes = []string{
	"/api/v1/auth/google/",
	"/api/v1/health",
	"/api/v1/guide",
	"/api/v1/industries",
}

// Auth resolves the caller to a user (Bearer token) or a guest (X-Guest-Id)
// and stores the principal in the gin context.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		guestID := strings.TrimSpace(c.GetHeader("X-Guest-Id"))
		if authHeader == "" && guestID == "" && isPublic(c.Request.URL.Path) {
			c.Next()
			return
		}

		if authHeader != "" {
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			token = strings.TrimSpace(token)
			if !ok || token == "" {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			claims, err := auth.VerifyJWT(token)
			if err != nil {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			c.Set(userIDKey, claims.Subject)
			c.Set(isGuestKey, false)
			setIfPresent(c, userEmailKey, claims.Email)
			setIfPresent(c, userNameKey, claims.Name)
			setIfPresent(c, userPictureKey, claims.Picture)
			c.Next()
			return
		}

		if guestID == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
			return
		}
		c.Set(userIDKey, GuestPrefix+guestID)
		c.Set(isGuestKey, true)
		c.Next()
	}
}

func isPublic(path string) bool {
	for _, p := range publicPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func setIfPresent(c *gin.Context, key, value string) {
	if value != "" {
		c.Set(key, value)
	}
}

func stringFromContext(c *gin.Context, key string) string {
	if c == nil {
		return ""
	}
	s, _ := c.Get(key)
	str, _ := s.(string)
	return str
}

// UserIDFromContext returns the principal set by Auth.
func UserIDFromContext(c *gin.Context) string { return stringFromContext(c, userIDKey) }

// UserEmailFromContext returns the logged-in user's email.
func UserEmailFromContext(c *gin.Context) string { return stringFromContext(c, userEmailKey) }

// UserNameFromContext returns the logged-in user's display name.
func UserNameFromContext(c *gin.Context) string { return stringFromContext(c, userNameKey) }

// UserPictureFromContext returns the logged-in user's avatar URL.
func UserPictureFromContext(c *gin.Context) string { return stringFromContext(c, userPictureKey) }

// IsGuest reports whether the caller identified with a guest id.
func IsGuest(c *gin.Context) bool {
	if c == nil {
		return false
	}
	v, ok := c.Get(isGuestKey)
	if !ok {
		return false
	}
	guest, _ := v.(bool)
	return guest
}
