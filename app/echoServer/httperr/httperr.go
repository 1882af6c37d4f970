// Package httperr maps apperr codes to the uniform error body every endpoint
// returns: {timestamp, status, error, path}. The gateway forwards the path the
// caller actually hit in X-Original-Path; fall back to the local one.
package httperr

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dsimon1405/Library/apperr"
)

const HeaderOriginalPath = "X-Original-Path"

func Status(code apperr.Code) int {
	switch code {
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeAlreadyExists, apperr.CodeDuplicateRental,
		apperr.CodeAlreadyClosed, apperr.CodeHasOpenOrders:
		return http.StatusConflict
	case apperr.CodeLimitExceeded, apperr.CodeInvalidState:
		return http.StatusUnprocessableEntity
	case apperr.CodeForbidden:
		return http.StatusForbidden
	case apperr.CodeInsufficientFunds:
		return http.StatusPaymentRequired
	case apperr.CodeRemoteService, apperr.CodeEmptyRemoteResponse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Respond writes the error body for err. Uncoded errors become an opaque 500
// so internals never leak to callers.
func Respond(c echo.Context, err error) error {
	code := apperr.CodeOf(err)
	status := Status(code)

	msg := "internal error"
	if code != "" {
		msg = err.Error()
	}

	body := echo.Map{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"status":    status,
		"error":     msg,
		"path":      path(c),
	}
	var insufficient *apperr.InsufficientFundsError
	if errors.As(err, &insufficient) {
		body["shortfall_usd"] = insufficient.Shortfall.StringFixed(2)
	}
	return c.JSON(status, body)
}

func Message(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"status":    status,
		"error":     msg,
		"path":      path(c),
	})
}

func path(c echo.Context) string {
	if p := c.Request().Header.Get(HeaderOriginalPath); p != "" {
		return p
	}
	return c.Request().URL.Path
}
