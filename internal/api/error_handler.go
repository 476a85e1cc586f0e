package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/bkrobot/auth-service/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Collapses every authentication failure into a uniform 401 so the
//     response never reveals whether an account exists or why a token was
//     rejected.
//   - Logs the real failure kind internally for audit.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	// Credential-shaped rejections. ErrUserNotFound never escapes the
	// service layer, but mapping it here guards against leaks anyway.
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrUserNotFound):
		logRejection(log, c, err)
		return http.StatusUnauthorized, "invalid credentials"

	// Token-shaped rejections: expired, revoked, unknown, bad signature,
	// wrong issuer or audience. All deliberately indistinguishable.
	case errors.Is(err, domain.ErrTokenExpired),
		errors.Is(err, domain.ErrTokenRevoked),
		errors.Is(err, domain.ErrTokenNotFound),
		errors.Is(err, domain.ErrSignatureInvalid),
		errors.Is(err, domain.ErrIssuerMismatch),
		errors.Is(err, domain.ErrAudienceMismatch):
		logRejection(log, c, err)
		return http.StatusUnauthorized, "invalid token"

	case errors.Is(err, domain.ErrMissingScope):
		logRejection(log, c, err)
		return http.StatusForbidden, "insufficient scope"

	case errors.Is(err, domain.ErrStoreUnavailable):
		log.Error().Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("credential store unavailable")
		return http.StatusInternalServerError, "internal server error"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}

// logRejection keeps the internal failure kind observable even though the
// HTTP response is deliberately coarse.
func logRejection(log zerolog.Logger, c echo.Context, err error) {
	log.Debug().Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("request rejected")
}
