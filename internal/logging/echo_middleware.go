package logging

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

var quietPaths = map[string]bool{
	"/healthz": true,
	"/health":  true,
}

func LoggerMiddleware(logger *logrus.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			if quietPaths[req.URL.Path] {
				return nil
			}

			latency := time.Since(start)
			entry := logger.WithFields(logrus.Fields{
				"remote_ip":     c.RealIP(),
				"method":        req.Method,
				"uri":           req.RequestURI,
				"route":         c.Path(),
				"user_agent":    req.UserAgent(),
				"status":        res.Status,
				"latency":       latency.Microseconds(),
				"latency_human": latency.String(),
				"bytes_in":      req.ContentLength,
				"bytes_out":     res.Size,
			})
			if res.Status >= 500 {
				entry.Error("HTTP request")
			} else {
				entry.Info("HTTP request")
			}

			return nil
		}
	}
}
