package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/neuroguard/neuroguard-api/internal/domain"
	"github.com/neuroguard/neuroguard-api/internal/util"
)

// TranslateError is the single boundary translator: every error leaving a
// handler becomes the uniform envelope. Domain errors keep their status
// and caller-safe message; anything unexpected collapses to a 500 with no
// internal detail.
func TranslateError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	if de, ok := domain.AsError(err); ok {
		_ = c.JSON(de.Code, util.Failure(de.Status, de.Code, de.Message))
		return
	}

	if he, ok := err.(*echo.HTTPError); ok {
		message := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			message = m
		}
		if he.Code == http.StatusNotFound {
			message = "Page not found"
		}
		status := domain.StatusFail
		if he.Code >= http.StatusInternalServerError {
			status = domain.StatusError
		}
		_ = c.JSON(he.Code, util.Failure(status, he.Code, message))
		return
	}

	c.Logger().Error(err)
	_ = c.JSON(http.StatusInternalServerError,
		util.Failure(domain.StatusError, http.StatusInternalServerError, "internal server error"))
}
