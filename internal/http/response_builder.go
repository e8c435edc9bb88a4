// Package http provides the JSON API server and its handlers.
//
// This file implements the Builder Pattern for JSON responses and the mapping
// from service errors to status codes.

package http

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"contas/internal/auth"
	"contas/internal/core"
	applog "contas/internal/log"
)

// ErrorBody is the payload of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	payload    any
	headers    map[string]string
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

// Body sets the value to encode.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.payload = v
	return b
}

// Created is shorthand for a 201 with body v.
func (b *JSONResponseBuilder) Created(v any) *JSONResponseBuilder {
	return b.Status(http.StatusCreated).Body(v)
}

// Error sets an error status and message body.
func (b *JSONResponseBuilder) Error(code int, message string) *JSONResponseBuilder {
	return b.Status(code).Body(ErrorBody{Error: message})
}

// Write encodes the payload and writes headers, status and body.
// A 204 is written without a body.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) error {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.statusCode == http.StatusNoContent {
		w.WriteHeader(b.statusCode)
		return nil
	}

	data, err := json.Marshal(b.payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to encode response"}`))
		return err
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_, err = w.Write(append(data, '\n'))
	return err
}

// StatusForError maps a service error to an HTTP status code and the message
// safe to show the caller.
func StatusForError(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	// Validation first: it may wrap a month or schedule error.
	case errors.Is(err, core.ErrValidation):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, core.ErrInvalidMonth), errors.Is(err, core.ErrInvalidMonthCount):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, core.ErrNoHouseholdContext):
		return http.StatusNotFound, core.ErrNoHouseholdContext.Error()
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, core.ErrNotFound.Error()
	case errors.Is(err, core.ErrAlreadyMember):
		return http.StatusConflict, core.ErrAlreadyMember.Error()
	case errors.Is(err, core.ErrInvalidDeductionSchedule):
		var se *core.ScheduleError
		if errors.As(err, &se) {
			return http.StatusInternalServerError, se.Error()
		}
		return http.StatusInternalServerError, core.ErrInvalidDeductionSchedule.Error()
	case errors.Is(err, core.ErrUpstreamFetch):
		return http.StatusInternalServerError, "failed to load salary data"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// writeError logs 5xx failures and writes the mapped error response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := StatusForError(err)
	if status >= http.StatusInternalServerError {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			applog.FieldPath, r.URL.Path,
			applog.FieldError, err)
	}
	_ = NewJSONResponse().Error(status, msg).Write(w)
}

// writeBadRequest writes a 400 with msg.
func writeBadRequest(w http.ResponseWriter, msg string) {
	_ = NewJSONResponse().Error(http.StatusBadRequest, msg).Write(w)
}
