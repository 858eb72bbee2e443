package response

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/hirosato/staging-ledger/internal/domain/errors"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success          bool             `json:"success"`
	Error            string           `json:"error"`
	ErrorDescription ErrorDescription `json:"error_description"`
	Metadata         ResponseMetadata `json:"metadata"`
}

// ErrorDescription represents the error details
type ErrorDescription struct {
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error creates an error response
func Error(appErr errors.AppError, requestID string) events.APIGatewayProxyResponse {
	response := ErrorResponse{
		Success: false,
		Error:   appErr.Code,
		ErrorDescription: ErrorDescription{
			Message: appErr.Message,
			Details: appErr.Details,
		},
		Metadata: newMetadata(requestID),
	}

	body, err := json.Marshal(response)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Body:       `{"success":false,"error":"INTERNAL_ERROR","error_description":{"message":"Failed to marshal error response"}}`,
			Headers:    DefaultHeaders(),
		}
	}

	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Body:       string(body),
		Headers:    DefaultHeaders(),
	}
}

// FromError converts any error into an error response. Errors that are not
// an AppError are reported as internal errors without leaking their text.
func FromError(err error, requestID string) events.APIGatewayProxyResponse {
	var appErr errors.AppError
	if stderrors.As(err, &appErr) {
		return Error(appErr, requestID)
	}
	return Error(errors.NewInternalError("An unexpected error occurred", nil), requestID)
}

// NotFound creates a not found error response
func NotFound(message string) events.APIGatewayProxyResponse {
	return Error(errors.NewNotFoundError(message), "")
}

// BadRequest creates a bad request error response
func BadRequest(message string, requestID string) events.APIGatewayProxyResponse {
	return Error(errors.NewValidationError(message), requestID)
}

func newMetadata(requestID string) ResponseMetadata {
	return ResponseMetadata{
		Version:   "1.0",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: requestID,
	}
}
