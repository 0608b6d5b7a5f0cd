package middleware

import (
	"log/slog"
	"os"
	"time"

	"atrium-api/pkg/appenv"

	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
)

// NewLogger builds the process-wide structured logger: colorized output
// for local development, JSON for everything else.
func NewLogger() *slog.Logger {
	if appenv.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: time.Kitchen,
	}))
}

// LoggerMiddleware emits one structured access-log line per request,
// carrying the request id set by RequestIDMiddleware. Sensitive data
// must not be logged here.
func LoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		attrs := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", c.Writer.Status()),
			slog.Float64("latencyMs", float64(time.Since(start))/float64(time.Millisecond)),
			slog.String("ip", c.ClientIP()),
			slog.String("requestId", c.GetString("requestId")),
			slog.Int("size", c.Writer.Size()),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("error", c.Errors.String()))
			logger.Error("request", attrs...)
			return
		}
		logger.Info("request", attrs...)
	}
}
