// Package apierror renders every API error as a JSON envelope with a status
// derived from the domain error kind.
package apierror

import (
	"errors"
	"fmt"
	"net/http"

	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/rupagen/marketplace-api/internal/core/domain"
)

// Response is the canonical error envelope for all API errors.
type Response struct {
	Message string                `json:"message"`
	Missing []domain.DocumentType `json:"missing,omitempty"`
}

var kindStatus = []struct {
	kind   error
	status int
}{
	{domain.ErrValidation, http.StatusBadRequest},
	{domain.ErrConflict, http.StatusConflict},
	{domain.ErrUnauthorized, http.StatusUnauthorized},
	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrTooManyAttempts, http.StatusTooManyRequests},
	{domain.ErrUpstreamUnavailable, http.StatusServiceUnavailable},
	{domain.ErrNotConfigured, http.StatusInternalServerError},
	{domain.ErrUpstream, http.StatusInternalServerError},
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain error kinds to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"message": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := Resolve(err)
		if code == http.StatusInternalServerError {
			report(err, log, c)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

// Resolve maps err to a status code and response body.
func Resolve(err error) (int, Response) {
	// Echo's own errors (bind failures, 404 from router, rate limiter, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, ok := he.Message.(string)
		if !ok {
			msg = fmt.Sprintf("%v", he.Message)
		}
		return he.Code, Response{Message: msg}
	}

	var de *domain.Error
	if errors.As(err, &de) {
		for _, ks := range kindStatus {
			if errors.Is(de.Kind, ks.kind) {
				return ks.status, Response{Message: de.Message, Missing: de.Missing}
			}
		}
	}

	for _, ks := range kindStatus {
		if errors.Is(err, ks.kind) {
			return ks.status, Response{Message: http.StatusText(ks.status)}
		}
	}

	return http.StatusInternalServerError, Response{Message: "internal server error"}
}

func report(err error, log zerolog.Logger, c echo.Context) {
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	if hub := sentryecho.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}
}
