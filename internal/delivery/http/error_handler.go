package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/devilbiswajit/VideoStream/internal/application/common"
)

// NewHTTPErrorHandler maps service errors onto the wire error envelope.
// Unknown errors surface as 500 without leaking internals.
func NewHTTPErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var apiErr *common.ApiError
		switch {
		case errors.As(err, &apiErr):
			// already in shape
		default:
			var echoErr *echo.HTTPError
			if errors.As(err, &echoErr) {
				message, ok := echoErr.Message.(string)
				if !ok {
					message = http.StatusText(echoErr.Code)
				}
				apiErr = common.NewApiError(echoErr.Code, message)
			} else {
				logger.Error("unhandled error", "error", err, "path", c.Request().URL.Path)
				apiErr = common.Internal("internal server error")
			}
		}

		if apiErr.StatusCode >= http.StatusInternalServerError {
			logger.Error("request failed", "status", apiErr.StatusCode, "message", apiErr.Message, "path", c.Request().URL.Path)
		}

		if writeErr := c.JSON(apiErr.StatusCode, common.NewErrorEnvelope(apiErr)); writeErr != nil {
			logger.Error("failed to write error response", "error", writeErr)
		}
	}
}
