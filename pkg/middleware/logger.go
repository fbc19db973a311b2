package middleware

import (
	"signals-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// NewRequestLogger logs one line per request and stores a request scoped
// logger in the request context.
func NewRequestLogger(log *logger.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		BeforeNextFunc: func(c echo.Context) {
			reqLog := log.With(logger.StringField("request_id", c.Response().Header().Get(echo.HeaderXRequestID)))
			c.SetRequest(c.Request().WithContext(logger.NewContext(c.Request().Context(), reqLog)))
		},
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := log.With(
				logger.StringField("method", v.Method),
				logger.StringField("uri", v.URI),
				logger.IntField("status", v.Status),
				logger.StringField("latency", v.Latency.String()),
				logger.StringField("remote_ip", v.RemoteIP),
				logger.StringField("request_id", v.RequestID),
			)
			if v.Error != nil {
				entry.Warn("Request failed", logger.ErrorField(v.Error))
				return nil
			}
			entry.Info("Request handled")
			return nil
		},
	})
}
