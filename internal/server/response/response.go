// Package response writes the API's JSON envelope: a data field on success and
// an error field on failure.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/agentstation/comicmap/pkg/errors"
)

// Response is the envelope every endpoint returns.
type Response struct {
	Data  any    `json:"data"`
	Error *Error `json:"error"`
}

// Error describes a failed request.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Success creates a successful response with data.
func Success(data any) Response {
	return Response{Data: data}
}

// Fail creates an error response.
func Fail(code, message, details string) Response {
	return Response{Error: &Error{Code: code, Message: message, Details: details}}
}

// JSON writes resp with the given status. Source URLs are not HTML-escaped.
func JSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(resp)
}

// OK writes a 200 response.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Success(data))
}

// BadRequest writes a 400 error response.
func BadRequest(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusBadRequest, Fail("BAD_REQUEST", message, details))
}

// NotFound writes a 404 error response.
func NotFound(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusNotFound, Fail("NOT_FOUND", message, details))
}

// Conflict writes a 409 error response.
func Conflict(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusConflict, Fail("CONFLICT", message, details))
}

// RateLimited writes a 429 error response.
func RateLimited(w http.ResponseWriter, message string) {
	JSON(w, http.StatusTooManyRequests, Fail("RATE_LIMITED", "Rate limit exceeded", message))
}

// BadGateway writes a 502 error response for upstream failures.
func BadGateway(w http.ResponseWriter, message string) {
	JSON(w, http.StatusBadGateway, Fail("UPSTREAM_ERROR", "Upstream request failed", message))
}

// InternalError writes a 500 error response without exposing err.
func InternalError(w http.ResponseWriter, _ error) {
	JSON(w, http.StatusInternalServerError, Fail(
		"INTERNAL_ERROR",
		"Internal server error",
		"An unexpected error occurred",
	))
}

// ServiceUnavailable writes a 503 error response.
func ServiceUnavailable(w http.ResponseWriter, message string) {
	JSON(w, http.StatusServiceUnavailable, Fail("SERVICE_UNAVAILABLE", "Service unavailable", message))
}

// ErrorFromType maps typed errors, including wrapped ones, to a response.
func ErrorFromType(w http.ResponseWriter, err error) {
	var fetchErr *errors.FetchError
	switch {
	case errors.IsNotFound(err):
		NotFound(w, err.Error(), "")
	case errors.IsValidationError(err):
		BadRequest(w, err.Error(), "")
	case errors.IsConflict(err):
		Conflict(w, err.Error(), "retried on the next cycle")
	case errors.As(err, &fetchErr):
		BadGateway(w, err.Error())
	default:
		InternalError(w, err)
	}
}
