package middleware

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"
)

// LoggingMiddleware is a middleware for logging requests and responses
type LoggingMiddleware struct {
	// LogBodies adds request and response bodies at debug level.
	LogBodies bool
}

// NewLoggingMiddleware creates a new logging middleware
func NewLoggingMiddleware(logBodies bool) LoggingMiddleware {
	return LoggingMiddleware{LogBodies: logBodies}
}

// Handle handles the logging middleware
func (m LoggingMiddleware) Handle(next APIGatewayHandler) APIGatewayHandler {
	return func(ctx context.Context, logger *zap.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		startTime := time.Now()
		reqLogger := logger.With(zap.String("requestId", request.RequestContext.RequestID))

		reqLogger.Info("request",
			zap.String("method", request.HTTPMethod),
			zap.String("path", request.Path),
			zap.Any("headers", maskSensitiveHeaders(request.Headers)),
		)
		if m.LogBodies && request.Body != "" {
			reqLogger.Debug("request body", zap.String("body", request.Body))
		}

		resp, err := next(ctx, reqLogger, request)

		fields := []zap.Field{
			zap.Int("status", resp.StatusCode),
			zap.Duration("duration", time.Since(startTime)),
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}
		reqLogger.Info("response", fields...)
		if m.LogBodies && resp.Body != "" {
			reqLogger.Debug("response body", zap.String("body", resp.Body))
		}

		return resp, err
	}
}

// maskSensitiveHeaders masks sensitive headers
func maskSensitiveHeaders(headers map[string]string) map[string]string {
	maskedHeaders := make(map[string]string, len(headers))
	for k, v := range headers {
		maskedHeaders[k] = v
	}

	for _, header := range []string{"Authorization", "X-Api-Key", "Cookie"} {
		if _, ok := maskedHeaders[header]; ok {
			maskedHeaders[header] = "***"
		}
	}

	return maskedHeaders
}
