// Package middleware holds the echo middleware of the API: authentication,
// roles, rate limiting, response caching and request logging.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticketing/internal/logging"
	"github.com/iliyamo/cinema-ticketing/internal/utils"
)

// AccessCookie is the httpOnly cookie that carries the access token.
const AccessCookie = "access_token"

// Context keys set by the auth middleware.
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

// rawTokens returns the access tokens the request carries: the cookie first,
// then the Authorization header.
func rawTokens(c echo.Context) []string {
	var out []string
	if ck, err := c.Cookie(AccessCookie); err == nil && ck.Value != "" {
		out = append(out, ck.Value)
	}
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		if tok := strings.TrimSpace(auth[7:]); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// authenticate stores the caller in the echo and request contexts.  The
// first token that verifies wins, so a stale cookie does not hide a valid
// Bearer token.  It reports false when no valid token is present.
func authenticate(c echo.Context, secret string) bool {
	var claims *utils.Claims
	for _, raw := range rawTokens(c) {
		if cl, err := utils.ParseAccessToken(secret, raw); err == nil {
			claims = cl
			break
		}
	}
	if claims == nil {
		return false
	}
	id, _ := claims.UserID()
	c.Set(CtxUserID, id)
	c.Set(CtxRole, claims.Role)

	ctx := c.Request().Context()
	ctx = logging.ToContext(ctx, logging.FromContext(ctx).WithField("user_id", id))
	c.SetRequest(c.Request().WithContext(ctx))
	return true
}

// JWTAuth rejects requests without a valid access token with 401.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if len(rawTokens(c)) == 0 {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "missing access token"})
			}
			if !authenticate(c, secret) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid or expired token"})
			}
			return next(c)
		}
	}
}

// OptionalAuth identifies the caller when a valid token is present and lets
// anonymous requests through.
func OptionalAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authenticate(c, secret)
			return next(c)
		}
	}
}

// UserID returns the authenticated user id or 0.
func UserID(c echo.Context) uint64 {
	id, _ := c.Get(CtxUserID).(uint64)
	return id
}

// Role returns the authenticated role or an empty string.
func Role(c echo.Context) string {
	r, _ := c.Get(CtxRole).(string)
	return r
}
