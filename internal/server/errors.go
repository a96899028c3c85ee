package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aman-zulfiqar/thorchain-quote/internal/quote"
)

// NotFoundJSON returns a custom HTTP error handler that returns JSON responses
// This ensures all errors (including 404s) have consistent JSON format
func NotFoundJSON() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			_ = c.JSON(he.Code, ErrorResponse{
				Error: http.StatusText(he.Code),
				Code:  he.Code,
			})
			return
		}

		_ = c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  http.StatusInternalServerError,
		})
	}
}

// rejection writes a hard quote rejection as 422. The kind is always
// reported so clients can branch on it.
func rejection(c echo.Context, rej *quote.RejectionError) error {
	details := map[string]any{"kind": rej.Kind}
	if rej.Side != "" {
		details["side"] = rej.Side
	}
	if rej.Asset.String() != "" {
		details["asset"] = rej.Asset.String()
	}
	return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   rej.Error(),
		Code:    http.StatusUnprocessableEntity,
		Details: details,
	})
}
