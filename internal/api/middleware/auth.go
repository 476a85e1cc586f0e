package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bkrobot/auth-service/internal/core/ports"
)

// Context keys under which the auth middleware stores verified claims.
const (
	CtxSubject = "subject"
	CtxScopes  = "scopes"
	CtxTokenID = "jti"
)

// Auth validates the bearer access token and injects its claims into the
// echo context. Verification itself is pure; the only store lookup is the
// revocation denylist, consulted after the signature and claims check out.
func Auth(codec ports.TokenCodec, denylist ports.AccessTokenDenylist) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims, err := codec.Verify(parts[1], time.Now().UTC())
			if err != nil {
				// The central error handler collapses the kind into a
				// uniform 401 and logs it.
				return err
			}

			revoked, err := denylist.IsRevoked(c.Request().Context(), claims.TokenID)
			if err != nil {
				return err
			}
			if revoked {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(CtxSubject, claims.Subject)
			c.Set(CtxScopes, claims.Scopes)
			c.Set(CtxTokenID, claims.TokenID)

			return next(c)
		}
	}
}
