package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Brownie44l1/oral-api/internal/inference"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusCode maps a failure kind to its HTTP status.
func StatusCode(kind inference.Kind) int {
	switch kind {
	case inference.KindMissingFile, inference.KindUnsupportedType, inference.KindDecode:
		return http.StatusBadRequest
	case inference.KindNotFound:
		return http.StatusNotFound
	case inference.KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	}
	// ModelUnavailable, InferenceFailure, ShapeMismatch, Internal
	return http.StatusInternalServerError
}

func sendJSON(w http.ResponseWriter, code int, obj any) {
	b, err := json.Marshal(obj)
	if err != nil {
		code = http.StatusInternalServerError
		b, _ = json.Marshal(ErrorResponse{Error: inference.MsgInternal})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(b)
}

func sendError(w http.ResponseWriter, code int, message string) {
	sendJSON(w, code, ErrorResponse{Error: message})
}
