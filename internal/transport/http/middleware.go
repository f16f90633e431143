package http

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/neuroguard/neuroguard-api/internal/domain"
	"github.com/neuroguard/neuroguard-api/internal/service"
	"github.com/neuroguard/neuroguard-api/internal/util"
)

const (
	sessionCookieName = "token"
	contextClaimsKey  = "auth.claims"
)

// RequireAuth validates the session credential before the handler runs.
// The token is read from the session cookie, with an Authorization bearer
// header accepted as a fallback.
func RequireAuth(auth *service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := sessionToken(c)
			if token == "" {
				return domain.NewInvalidToken("Not authenticated. Please log in.")
			}
			claims, err := auth.Authenticate(token)
			if err != nil {
				return err
			}
			c.Set(contextClaimsKey, claims)
			return next(c)
		}
	}
}

// CurrentClaims returns the session claims stored by RequireAuth.
func CurrentClaims(c echo.Context) (*util.Claims, bool) {
	claims, ok := c.Get(contextClaimsKey).(*util.Claims)
	return claims, ok
}

func sessionToken(c echo.Context) string {
	if cookie, err := c.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
