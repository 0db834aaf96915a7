package http

import (
	"fmt"
	"net/http"
)

// AppError is an error that knows the HTTP status it should be reported with.
type AppError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Field   string                 `json:"field,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Status  int                    `json:"-"`
	Err     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

var errorCodes = map[int]string{
	http.StatusBadRequest:          "ERR_BAD_REQUEST",
	http.StatusUnauthorized:        "ERR_UNAUTHORIZED",
	http.StatusNotFound:            "ERR_NOT_FOUND",
	http.StatusTooManyRequests:     "ERR_TOO_MANY_REQUESTS",
	http.StatusInternalServerError: "ERR_INTERNAL",
	http.StatusNotImplemented:      "ERR_NOT_IMPLEMENTED",
	http.StatusServiceUnavailable:  "ERR_SERVICE_UNAVAILABLE",
}

// StatusAppError builds an AppError with the conventional code for status.
func StatusAppError(status int, message string, cause error) *AppError {
	code, ok := errorCodes[status]
	if !ok {
		code = "ERR_HTTP_" + fmt.Sprint(status)
	}
	return &AppError{Code: code, Message: message, Status: status, Err: cause}
}

func BadRequestError(message string) *AppError {
	return StatusAppError(http.StatusBadRequest, message, nil)
}

func TooManyRequestsError(message string) *AppError {
	return StatusAppError(http.StatusTooManyRequests, message, nil)
}

// NotImplementedError reports a feature that is switched off in this deployment.
func NotImplementedError(cause error) *AppError {
	return StatusAppError(http.StatusNotImplemented, cause.Error(), cause)
}
