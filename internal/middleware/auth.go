package middleware

import (
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
)

// RequireAuth returns a middleware that verifies Firebase credentials on
// admin routes. It accepts either the session cookie or a bearer ID token;
// the webhook route stays outside this middleware by design.
func RequireAuth(authClient *auth.Client) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if authClient == nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "auth is not configured")
			}

			ctx := c.Request().Context()

			// Session cookie first
			if cookie, err := c.Cookie("session"); err == nil && cookie.Value != "" {
				token, err := authClient.VerifySessionCookie(ctx, cookie.Value)
				if err == nil {
					setIdentity(c, token)
					return next(c)
				}
			}

			// Bearer ID token fallback for non-browser clients
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if strings.HasPrefix(header, "Bearer ") {
				token, err := authClient.VerifyIDToken(ctx, strings.TrimPrefix(header, "Bearer "))
				if err == nil {
					setIdentity(c, token)
					return next(c)
				}
			}

			return echo.NewHTTPError(http.StatusUnauthorized, "missing or invalid credentials")
		}
	}
}

func setIdentity(c echo.Context, token *auth.Token) {
	c.Set("userUID", token.UID)
	if email, ok := token.Claims["email"].(string); ok {
		c.Set("userEmail", email)
	}
	if name, ok := token.Claims["name"].(string); ok {
		c.Set("userName", name)
	}
}
