// Package response builds the JSON envelopes shared by the HTTP server and
// the Lambda functions.
package response

import (
	"encoding/json"
	"net/http"
)

const (
	CodeValidation = "VALIDATION_ERROR"
	CodeNotFound   = "NOT_FOUND"
	CodeInternal   = "INTERNAL_ERROR"
)

// Headers carried by every response.
var defaultHeaders = map[string]string{
	"Content-Type":                 "application/json",
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Methods": "GET, POST, OPTIONS",
	"Access-Control-Allow-Headers": "Content-Type",
}

// Headers returns a fresh copy of the default response headers.
func Headers() map[string]string {
	h := make(map[string]string, len(defaultHeaders))
	for k, v := range defaultHeaders {
		h[k] = v
	}
	return h
}

type ErrorBody struct {
	Error      string `json:"error"`
	StatusCode int    `json:"statusCode"`
	ErrorCode  string `json:"errorCode,omitempty"`
}

// Result is a transport-neutral response: a status code and a body that
// is serialized as JSON.
type Result struct {
	StatusCode int
	Body       any
}

// Encode renders the body. A body that cannot be encoded is replaced by
// an internal error envelope.
func (r Result) Encode() (int, string) {
	b, err := json.Marshal(r.Body)
	if err != nil {
		fallback, _ := json.Marshal(ErrorBody{
			Error:      "Internal server error",
			StatusCode: http.StatusInternalServerError,
			ErrorCode:  CodeInternal,
		})
		return http.StatusInternalServerError, string(fallback)
	}
	return r.StatusCode, string(b)
}

func Success(body any) Result {
	return Result{StatusCode: http.StatusOK, Body: body}
}

func Created(body any) Result {
	return Result{StatusCode: http.StatusCreated, Body: body}
}

func Error(status int, message, code string) Result {
	return Result{
		StatusCode: status,
		Body:       ErrorBody{Error: message, StatusCode: status, ErrorCode: code},
	}
}

func ValidationError(message string) Result {
	return Error(http.StatusBadRequest, message, CodeValidation)
}

func NotFound(message string) Result {
	if message == "" {
		message = "Resource not found"
	}
	return Error(http.StatusNotFound, message, CodeNotFound)
}

func InternalError(message string) Result {
	if message == "" {
		message = "Internal server error"
	}
	return Error(http.StatusInternalServerError, message, CodeInternal)
}
