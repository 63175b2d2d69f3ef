// Package httputil contains shared HTTP response helpers.
package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/hustleboard/hustleboard/internal/errors"
)

// WriteJSON encodes data as the response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteErrorResponse writes the standard error envelope.
func WriteErrorResponse(w http.ResponseWriter, status int, code string, message string, details map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// WriteServiceError maps any error to either its ServiceError envelope
// or a generic internal error.
func WriteServiceError(w http.ResponseWriter, err error) {
	se := errors.GetServiceError(err)
	if se == nil {
		se = errors.Internal("internal error", err)
	}
	WriteErrorResponse(w, se.HTTPStatus, string(se.Code), se.Message, se.Details)
}

// Unauthorized writes a 401 envelope with an optional message.
func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = "unauthorized"
	}
	WriteErrorResponse(w, http.StatusUnauthorized, string(errors.CodeUnauthorized), message, nil)
}
