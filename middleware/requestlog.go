package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"redforge/models"
)

const (
	RequestIDHeader = "X-Request-ID"

	CtxRequestIDKey = "requestID"
	CtxLoggerKey    = "logger"
)

// RequestLogger tags each request with an ID and logs it once it completes.
// Handlers pick up the tagged logger with Logger.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)

		l := log.With(zap.String("request_id", requestID))
		c.Set(CtxRequestIDKey, requestID)
		c.Set(CtxLoggerKey, l)

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(started)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case c.Writer.Status() >= 500:
			l.Error("request", fields...)
		case c.Writer.Status() >= 400:
			l.Warn("request", fields...)
		default:
			l.Info("request", fields...)
		}
	}
}

// Logger returns the request-scoped logger, or fallback outside RequestLogger.
func Logger(c *gin.Context, fallback *zap.Logger) *zap.Logger {
	if v, ok := c.Get(CtxLoggerKey); ok {
		if l, ok := v.(*zap.Logger); ok {
			return l
		}
	}
	return fallback
}

// RequestID returns the ID RequestLogger assigned, or "" outside it.
func RequestID(c *gin.Context) string {
	return c.GetString(CtxRequestIDKey)
}

// ErrorBody builds an error body tagged with the request ID.
func ErrorBody(c *gin.Context, msg string) models.ErrorResponse {
	return models.ErrorResponse{Error: msg, RequestID: RequestID(c)}
}
