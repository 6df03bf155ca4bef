package response

import "eventix/internal/shared/apperrors"

type StandardApiResponse struct {
	Status     string        `json:"status"`           // "success" or "error"
	StatusCode int           `json:"status_code"`      // HTTP status code
	Message    string        `json:"message"`          // Human-readable message
	Data       interface{}   `json:"data,omitempty"`   // Payload for success
	Errors     *ErrorDetails `json:"errors,omitempty"` // Error kind and details
}

// ErrorDetails is the errors payload attached to failed responses
type ErrorDetails struct {
	Kind   apperrors.Kind         `json:"kind"`
	Detail string                 `json:"detail,omitempty"`
	Meta   map[string]interface{} `json:"meta,omitempty"`
}
