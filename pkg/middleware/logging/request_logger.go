package loggingmw

import (
	"log/slog"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/robotech_store/pkg/logging"
)

type Config struct {
	Logger *slog.Logger
	// Paths with one of these prefixes get a request-scoped logger but no completion line.
	QuietPrefixes []string
}

func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return RequestLoggerWithConfig(Config{Logger: base, QuietPrefixes: []string{"/health"}})
}

func RequestLoggerWithConfig(cfg Config) echo.MiddlewareFunc {
	base := cfg.Logger
	if base == nil {
		base = slog.Default()
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			rid := req.Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = c.Response().Header().Get(echo.HeaderXRequestID)
			}

			l := base.With(
				"method", req.Method,
				"path", c.Path(),
				"url", req.URL.Path,
				"remote_ip", c.RealIP(),
			)
			if rid != "" {
				l = l.With("request_id", rid)
				c.Response().Header().Set(echo.HeaderXRequestID, rid)
			}
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Echo().HTTPErrorHandler(err, c)
			}
			status := c.Response().Status
			dur := time.Since(start).Milliseconds()

			if quiet(req.URL.Path, cfg.QuietPrefixes) && err == nil && status < 400 {
				return nil
			}

			switch {
			case status >= 500:
				l.Error("request completed", "status", status, "duration_ms", dur, "error", errStr(err))
			case status >= 400:
				l.Warn("request completed", "status", status, "duration_ms", dur, "error", errStr(err))
			default:
				l.Info("request completed", "status", status, "duration_ms", dur, "bytes", c.Response().Size)
			}
			return nil
		}
	}
}

func quiet(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func errStr(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
