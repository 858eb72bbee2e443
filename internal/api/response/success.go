package response

import (
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

// SuccessResponse represents a success response
type SuccessResponse struct {
	Success  bool             `json:"success"`
	Data     interface{}      `json:"data"`
	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata represents the metadata for responses
type ResponseMetadata struct {
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
	RequestID string `json:"requestId,omitempty"`
}

// DefaultHeaders returns the default headers for all responses
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Content-Type":                 "application/json",
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type,X-Amz-Date,Authorization,X-Api-Key,Mcp-Session-Id",
		"Access-Control-Allow-Methods": "OPTIONS,POST",
	}
}

// Success wraps data in the standard envelope.
func Success(data interface{}, statusCode int, requestID string) events.APIGatewayProxyResponse {
	return JSON(statusCode, SuccessResponse{
		Success:  true,
		Data:     data,
		Metadata: newMetadata(requestID),
	}, requestID)
}

// OK creates a 200 response in the standard envelope
func OK(data interface{}, requestID string) events.APIGatewayProxyResponse {
	return Success(data, http.StatusOK, requestID)
}

// Raw writes data as the body without an envelope. JSON-RPC replies use this.
func Raw(data interface{}, statusCode int, requestID string) events.APIGatewayProxyResponse {
	return JSON(statusCode, data, requestID)
}

// NoContent creates a 204 response
func NoContent() events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusNoContent,
		Headers:    DefaultHeaders(),
	}
}

// JSON marshals data with the default headers.
func JSON(statusCode int, data interface{}, requestID string) events.APIGatewayProxyResponse {
	body, err := json.Marshal(data)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Body:       `{"success":false,"error":"INTERNAL_ERROR","error_description":{"message":"Failed to marshal response"}}`,
			Headers:    DefaultHeaders(),
		}
	}
	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Body:       string(body),
		Headers:    DefaultHeaders(),
	}
}
