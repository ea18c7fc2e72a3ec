// Package http provides HTTP server and handler implementations.
//
// This file implements the builder for JSON responses and the mapping from
// classified domain errors to status codes.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"cmoney/internal/core"
	applog "cmoney/internal/log"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.statusCode == http.StatusNoContent {
		w.WriteHeader(b.statusCode)
		return
	}

	payload, err := json.Marshal(b.body)
	if err != nil {
		slog.Error("Failed to encode JSON response", applog.FieldComponent, applog.ComponentHTTP, applog.FieldError, err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(append(payload, '\n'))
}

// StatusFor maps an error's kind to an HTTP status.
func StatusFor(err error) int {
	switch core.KindOf(err) {
	case core.KindValidation:
		return http.StatusBadRequest
	case core.KindForbidden:
		return http.StatusForbidden
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse builds the JSON error for err. Internal errors are reported
// generically; their detail only goes to the log.
func ErrorResponse(err error) *JSONResponseBuilder {
	status := StatusFor(err)
	body := ErrorBody{Error: "internal server error"}
	if status != http.StatusInternalServerError {
		body.Error = err.Error()
		var de *core.Error
		if errors.As(err, &de) {
			body.Error = de.Error()
			if de.Message != "" {
				body.Error = de.Message
			}
		}
		body.Fields = core.FieldsOf(err)
	}
	return NewJSONResponse().Status(status).Body(body)
}

// MessageResponse builds an error response with a fixed message.
func MessageResponse(status int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(status).Body(ErrorBody{Error: message})
}

// UnauthorizedError creates a 401 response with a bearer challenge.
func UnauthorizedError(message string) *JSONResponseBuilder {
	return MessageResponse(http.StatusUnauthorized, message).Header("WWW-Authenticate", `Bearer realm="cmoney"`)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return MessageResponse(http.StatusNotFound, message)
}
