package middleware

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/bkrobot/auth-service/internal/core/domain"
)

// RequireScopes guards a route behind scope membership. This is
// authorization, not authentication: the bearer is already verified, it just
// lacks a permission, so the failure maps to 403 rather than 401.
func RequireScopes(required ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			granted, _ := c.Get(CtxScopes).([]string)
			held := make(map[string]struct{}, len(granted))
			for _, s := range granted {
				held[s] = struct{}{}
			}

			for _, want := range required {
				if _, ok := held[want]; !ok {
					return fmt.Errorf("%w: %s", domain.ErrMissingScope, want)
				}
			}
			return next(c)
		}
	}
}
