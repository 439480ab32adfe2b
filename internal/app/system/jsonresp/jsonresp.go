// Package jsonresp writes the API response envelope used by every JSON route.
package jsonresp

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/clubsphere/internal/app/system/apperr"
	"go.uber.org/zap"
)

// maxBodyBytes bounds request bodies decoded by Decode.
const maxBodyBytes = 1 << 20

// Body is the standard API response envelope.
type Body struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Write sends body as JSON with the given status.
func Write(w http.ResponseWriter, status int, body Body) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// OK sends a 200 response with data.
func OK(w http.ResponseWriter, data any) {
	Write(w, http.StatusOK, Body{Success: true, Data: data})
}

// Created sends a 201 response with data.
func Created(w http.ResponseWriter, data any) {
	Write(w, http.StatusCreated, Body{Success: true, Data: data})
}

// Fail sends a failure envelope with an explicit status.
func Fail(w http.ResponseWriter, status int, msg string) {
	Write(w, status, Body{Success: false, Error: msg})
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(k apperr.Kind) int {
	switch k {
	case apperr.KindValidation, apperr.KindConflict:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as a failure envelope. Upstream and unclassified errors are
// logged with their cause and reported to the caller without it.
func Error(w http.ResponseWriter, log *zap.Logger, op string, err error) {
	kind := apperr.KindOf(err)
	status := StatusFor(kind)
	if status >= http.StatusInternalServerError && log != nil {
		log.Error(op+" failed", zap.String("kind", kind.String()), zap.Error(err))
	}
	Fail(w, status, apperr.Message(err))
}

// Decode reads a JSON body into dst. Unknown fields are ignored; an empty or
// malformed body is a validation error.
func Decode(r *http.Request, dst any) error {
	if r.Body == nil {
		return apperr.Validation("request body is required")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body is required")
		}
		return apperr.Validation("request body is not valid JSON")
	}
	return nil
}
