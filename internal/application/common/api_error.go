package common

import "net/http"

// ApiError carries an HTTP status with its message through the service
// layer. The delivery layer maps it onto the wire error envelope.
type ApiError struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Errors     []string `json:"errors"`
}

func (e *ApiError) Error() string {
	return e.Message
}

func NewApiError(statusCode int, message string, errs ...string) *ApiError {
	if errs == nil {
		errs = []string{}
	}
	return &ApiError{StatusCode: statusCode, Message: message, Errors: errs}
}

func BadRequest(message string, errs ...string) *ApiError {
	return NewApiError(http.StatusBadRequest, message, errs...)
}

func Unauthorized(message string) *ApiError {
	return NewApiError(http.StatusUnauthorized, message)
}

func NotFound(message string) *ApiError {
	return NewApiError(http.StatusNotFound, message)
}

func Conflict(message string) *ApiError {
	return NewApiError(http.StatusConflict, message)
}

func Internal(message string) *ApiError {
	return NewApiError(http.StatusInternalServerError, message)
}
