// Package http serves the receipts ledger as a JSON API.
//
// This file implements the builder used by every handler to write
// responses: JSON bodies, error envelopes and file downloads.

package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

const contentTypeJSON = "application/json; charset=utf-8"

// ErrorBody is the envelope for every non-2xx JSON response. Details maps
// field names to the rule they failed, for validation errors.
type ErrorBody struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

// JSONResponseBuilder provides a fluent API for building API responses.
type JSONResponseBuilder struct {
	statusCode  int
	headers     map[string]string
	value       any
	raw         []byte
	contentType string
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

// JSON sets a value to be encoded as the body.
func (b *JSONResponseBuilder) JSON(v any) *JSONResponseBuilder {
	b.value = v
	b.raw = nil
	return b
}

// Bytes sets a pre-encoded body with its content type.
func (b *JSONResponseBuilder) Bytes(contentType string, data []byte) *JSONResponseBuilder {
	b.contentType = contentType
	b.raw = data
	b.value = nil
	return b
}

// Attachment marks the body as a download named filename.
func (b *JSONResponseBuilder) Attachment(filename string) *JSONResponseBuilder {
	return b.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}

// Write sends the built response. Encoding happens before the status line
// so an unencodable value turns into a 500 instead of a truncated body.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	body := b.raw
	contentType := b.contentType
	status := b.statusCode

	if b.value != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(b.value); err != nil {
			status = http.StatusInternalServerError
			buf.Reset()
			_ = json.NewEncoder(&buf).Encode(ErrorBody{Error: "failed to encode response"})
		}
		body = buf.Bytes()
		contentType = contentTypeJSON
	}

	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	if body != nil {
		w.Header().Set("Content-Length", fmt.Sprint(len(body)))
	}
	w.WriteHeader(status)
	if len(body) > 0 {
		_, _ = w.Write(body)
	}
}

// ErrorResponse creates a JSON error response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).JSON(ErrorBody{Error: message})
}

// ValidationError creates a 422 response listing the failed fields.
func ValidationError(message string, details map[string]string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(http.StatusUnprocessableEntity).
		JSON(ErrorBody{Error: message, Details: details})
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// ConfirmationRequired creates a 428 response for destructive requests sent
// without confirm=true.
func ConfirmationRequired(action string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusPreconditionRequired, action+" requires confirm=true")
}

func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}
