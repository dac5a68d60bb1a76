package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/lost-and-found-api/internal/auth"
	"github.com/yukikurage/lost-and-found-api/internal/constants"
	apierrors "github.com/yukikurage/lost-and-found-api/internal/errors"
)

// LoginPath is where the form surface sends unauthenticated visitors.
const LoginPath = "/web/login"

// TokenValidator verifies bearer tokens.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// RequireToken checks for a valid bearer token
func RequireToken(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			apierrors.Unauthorized(c, "Missing bearer token")
			return
		}

		claims, err := tokens.Validate(raw)
		if err != nil {
			apierrors.Unauthorized(c, "Invalid or expired token")
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalToken identifies the caller when a valid bearer token is present.
// Anonymous and invalid tokens pass through unidentified.
func OptionalToken(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, ok := bearerToken(c); ok {
			if claims, err := tokens.Validate(raw); err == nil {
				setIdentity(c, claims)
			}
		}
		c.Next()
	}
}

// RequireSession checks the session cookie for a valid token and redirects to
// the login page otherwise
func RequireSession(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		raw, _ := session.Get(constants.SessionKeyToken).(string)

		var claims *auth.Claims
		var err error
		if raw != "" {
			claims, err = tokens.Validate(raw)
		}
		if raw == "" || err != nil {
			session.Delete(constants.SessionKeyToken)
			session.AddFlash("Please log in to continue.", constants.FlashError)
			_ = session.Save()
			c.Redirect(http.StatusSeeOther, LoginPath)
			c.Abort()
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalSession identifies a logged-in visitor on public pages.
func OptionalSession(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if raw, _ := session.Get(constants.SessionKeyToken).(string); raw != "" {
			if claims, err := tokens.Validate(raw); err == nil {
				setIdentity(c, claims)
			}
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func setIdentity(c *gin.Context, claims *auth.Claims) {
	c.Set(constants.ContextKeyUserID, claims.UserID)
	c.Set(constants.ContextKeyUsername, claims.Username)
	c.Set(constants.ContextKeyRole, claims.Role)
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	switch v := userID.(type) {
	case uint64:
		return v, v != 0
	case uint:
		return uint64(v), v != 0
	case int:
		if v <= 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}

// GetUsername retrieves the current username from context
func GetUsername(c *gin.Context) string {
	return c.GetString(constants.ContextKeyUsername)
}
