package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/robotech_store/internal/service"
	"github.com/Skotchmaster/robotech_store/internal/transport"
)

const msgInternal = "internal server error"

// ErrorHandler renders every error, including router and binder errors, as {"success":false,"error":...}.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code, msg := http.StatusInternalServerError, msgInternal
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		switch m := he.Message.(type) {
		case string:
			msg = m
		case error:
			msg = m.Error()
		default:
			msg = fmt.Sprint(m)
		}
		if code >= 500 && he.Internal != nil {
			msg = msgInternal
		}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, transport.ErrorResponse{Success: false, Error: msg})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrEmptyCart):
		return http.StatusBadRequest, "Cart is empty"
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, strings.TrimSuffix(err.Error(), ": "+service.ErrValidation.Error())
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

// fail logs one event for err and returns the matching HTTP error.
func fail(l *slog.Logger, event string, err error) error {
	status, msg := classify(err)
	if status >= 500 {
		l.Error(event, "status", status, "error", err)
	} else {
		l.Warn(event, "status", status, "reason", msg, "error", err)
	}
	return echo.NewHTTPError(status, msg)
}

func badRequest(l *slog.Logger, event, reason string, err error) error {
	l.Warn(event, "status", http.StatusBadRequest, "reason", reason, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, reason)
}
