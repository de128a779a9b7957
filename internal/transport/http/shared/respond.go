// Package shared centralizes JSON response writing so every handler group
// produces the same envelopes.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "cleargate/pkg/domain-errors"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ErrorResponse is the uniform error envelope. Details carries structured
// context such as window reopen dates on precondition failures.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// WriteError translates a domain error into the HTTP envelope. Uncoded errors
// collapse to a generic 500 so internals never leak.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	resp := ErrorResponse{
		Error:   string(code),
		Message: "internal error",
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		resp.Message = de.Message
		resp.Details = de.Details
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), resp)
}
