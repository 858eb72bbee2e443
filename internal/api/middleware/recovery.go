package middleware

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/aws/aws-lambda-go/events"
	"github.com/hirosato/staging-ledger/internal/api/response"
	"github.com/hirosato/staging-ledger/internal/domain/errors"
	"go.uber.org/zap"
)

// RecoveryMiddleware turns panics and returned errors into error responses.
type RecoveryMiddleware struct{}

// NewRecoveryMiddleware creates a new recovery middleware
func NewRecoveryMiddleware() RecoveryMiddleware {
	return RecoveryMiddleware{}
}

// Handle handles the recovery middleware
func (m RecoveryMiddleware) Handle(next APIGatewayHandler) APIGatewayHandler {
	return func(ctx context.Context, logger *zap.Logger, request events.APIGatewayProxyRequest) (resp events.APIGatewayProxyResponse, err error) {
		requestID := request.RequestContext.RequestID

		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic while handling request",
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("requestId", requestID),
				)
				resp = response.Error(errors.NewInternalError("An unexpected error occurred", fmt.Errorf("panic: %v", r)), requestID)
				err = nil
			}
		}()

		resp, err = next(ctx, logger, request)
		if err != nil {
			logger.Error("request failed", zap.Error(err), zap.String("requestId", requestID))
			return response.FromError(err, requestID), nil
		}
		return resp, nil
	}
}
