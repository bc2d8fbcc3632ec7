package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gbdavies1992-hash/gomining-bot/internal/platform/correlation"
	apperrors "github.com/gbdavies1992-hash/gomining-bot/internal/platform/errors"
)

// ErrorResponse is the JSON body written for handler errors.
type ErrorResponse struct {
	Error string         `json:"error"`
	Kind  apperrors.Kind `json:"kind"`
}

func correlationMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := correlation.WithID(c.Request().Context(), correlation.NewID())
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// ErrorHandlingMiddleware turns handler errors into JSON responses with a
// status derived from the error kind. echo.HTTPErrors pass through.
func ErrorHandlingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				return err
			}

			kind := apperrors.KindOf(err)
			status := httpStatus(kind)
			logError(c, kind, status, err)

			if err := c.JSON(status, toResponse(kind, err)); err != nil {
				return fmt.Errorf("failed to write error response: %w", err)
			}
			return nil
		}
	}
}

func httpStatus(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindConfigAbsent:
		return http.StatusNotFound
	case apperrors.KindStorageRead, apperrors.KindStorageWrite, apperrors.KindLock:
		return http.StatusServiceUnavailable
	case apperrors.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// toResponse hides causes of unknown errors from clients.
func toResponse(kind apperrors.Kind, err error) ErrorResponse {
	var structured *apperrors.Error
	if errors.As(err, &structured) {
		return ErrorResponse{Error: structured.Message, Kind: kind}
	}
	if kind == apperrors.KindConfigAbsent {
		return ErrorResponse{Error: "state not found", Kind: kind}
	}
	return ErrorResponse{Error: "internal server error", Kind: apperrors.KindUnknown}
}

func logError(c echo.Context, kind apperrors.Kind, status int, err error) {
	attrs := []any{
		"kind", kind,
		"path", c.Request().URL.Path,
		"method", c.Request().Method,
		"status", status,
		"error", err,
	}

	var structured *apperrors.Error
	if errors.As(err, &structured) {
		for k, v := range structured.Context {
			attrs = append(attrs, k, v)
		}
	}

	ctx := c.Request().Context()
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(ctx, "Request failed", attrs...)
		return
	}
	slog.InfoContext(ctx, "Request rejected", attrs...)
}
