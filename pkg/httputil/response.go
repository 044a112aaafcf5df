// Package httputil provides HTTP handler utilities for consistent error handling,
// JSON encoding/decoding, and request parsing.
package httputil

import (
	"encoding/json"
	"net/http"
	"time"
)

// Envelope is the wire shape for every rejection and error body. The code
// field mirrors the HTTP status, data is always null for errors, and the
// timestamp is epoch milliseconds.
type Envelope struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

// NewEnvelope builds an error envelope stamped with the current time
func NewEnvelope(status int, message string) Envelope {
	return Envelope{
		Code:      status,
		Message:   message,
		Data:      nil,
		Timestamp: time.Now().UnixMilli(),
	}
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteEnvelope writes an error envelope with the given status code
func WriteEnvelope(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(NewEnvelope(status, message))
}

// WriteError writes an error envelope from an error value
func WriteError(w http.ResponseWriter, status int, err error) {
	WriteEnvelope(w, status, err.Error())
}

// WriteBadRequest writes a bad request envelope (400)
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteEnvelope(w, http.StatusBadRequest, message)
}

// WriteUnauthorized writes an unauthorized envelope (401)
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteEnvelope(w, http.StatusUnauthorized, message)
}

// WriteForbidden writes a forbidden envelope (403)
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteEnvelope(w, http.StatusForbidden, message)
}

// WriteTooManyRequests writes a rate limit envelope (429)
func WriteTooManyRequests(w http.ResponseWriter, message string) {
	WriteEnvelope(w, http.StatusTooManyRequests, message)
}

// WriteInternalError writes an internal server error envelope (500)
func WriteInternalError(w http.ResponseWriter, err error) {
	WriteError(w, http.StatusInternalServerError, err)
}

// WriteServiceUnavailable writes a service unavailable envelope (503)
func WriteServiceUnavailable(w http.ResponseWriter, message string) {
	WriteEnvelope(w, http.StatusServiceUnavailable, message)
}

// WriteSuccess writes a successful response (200 OK) with JSON data
func WriteSuccess(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, data)
}

// WriteNoContent writes a successful response with no content (204 No Content)
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
