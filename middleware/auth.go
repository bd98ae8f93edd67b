package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ecodepin/ecodepin-api/apperrors"
	"github.com/ecodepin/ecodepin-api/models"
	"github.com/ecodepin/ecodepin-api/services"
)

const (
	// SessionCookie carries the session token set at login.
	SessionCookie = "session_token"

	userKey  = "user"
	tokenKey = "sessionToken"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*services.AuthenticatedUser, error)
}

// TokenFromRequest reads the session token from the cookie, falling back to
// an Authorization: Bearer header.
func TokenFromRequest(c *gin.Context) string {
	if token, err := c.Cookie(SessionCookie); err == nil && token != "" {
		return token
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// RequireAuth resolves the session and attaches the user, or aborts with 401.
func RequireAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authed, err := auth.Authenticate(c.Request.Context(), TokenFromRequest(c))
		if err != nil {
			Abort(c, err)
			return
		}
		attach(c, authed)
		c.Next()
	}
}

// OptionalAuth attaches the user when the request carries a valid session and
// otherwise lets the request through untouched.
func OptionalAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := TokenFromRequest(c); token != "" {
			if authed, err := auth.Authenticate(c.Request.Context(), token); err == nil {
				attach(c, authed)
			}
		}
		c.Next()
	}
}

// RequireRole checks if the attached user has one of roles
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			Abort(c, apperrors.Unauthorized("Authentication required"))
			return
		}
		if !user.HasRole(roles...) {
			Abort(c, apperrors.Forbidden("Forbidden: insufficient permissions"))
			return
		}
		c.Next()
	}
}

func attach(c *gin.Context, authed *services.AuthenticatedUser) {
	c.Set(userKey, authed.User)
	c.Set(tokenKey, authed.Token)
}

func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(userKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

func CurrentToken(c *gin.Context) string {
	return c.GetString(tokenKey)
}

// Abort writes the error envelope for err and stops the chain.
func Abort(c *gin.Context, err error) {
	status, body := apperrors.Response(err)
	c.AbortWithStatusJSON(status, body)
}
