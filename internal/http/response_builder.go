// Package http provides HTTP server and handler implementations.
//
// This file implements a builder for JSON responses and the mapping from
// service errors to status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"ledger/internal/core"
	"ledger/internal/repository"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	payload    any
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Data sets the value encoded as the response body.
func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.payload = v
	return b
}

// Write sends the built response. A 204 carries no body.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.statusCode == http.StatusNoContent {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.payload)
}

// ErrorBody is the body of every error response.
type ErrorBody struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, code, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Data(ErrorBody{Error: code, Message: message})
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, "invalid_request", message)
}

func UnprocessableEntityError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, "validation_failed", message)
}

func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, "not_found", message)
}

func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "server_error", message)
}

func TooManyRequestsError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, "rate_limited", "Rate limit exceeded. Please try again later.")
}

// writeError maps err to a response: validation errors are 422, missing
// records 404, anything else 500 with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var resp *JSONResponseBuilder
	switch {
	case core.IsValidation(err):
		resp = UnprocessableEntityError(err.Error())
	case errors.Is(err, repository.ErrNotFound):
		resp = NotFoundError(err.Error())
	default:
		resp = InternalServerError("Internal error")
	}
	withRequestID(resp, r).Write(w)
}

func withRequestID(b *JSONResponseBuilder, r *http.Request) *JSONResponseBuilder {
	if body, ok := b.payload.(ErrorBody); ok {
		body.RequestID = middleware.GetReqID(r.Context())
		b.payload = body
	}
	return b
}
