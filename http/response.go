package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sagarc03/zipstream"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError writes a plain-text error response for the archive routes.
// It must only be called before any part of the archive body was written.
func HandleError(w http.ResponseWriter, err error) {
	if errors.Is(err, zipstream.ErrNotFound) {
		writeNotFound(w)
		return
	}

	if errors.Is(err, zipstream.ErrInvalidInput) {
		http.Error(w, "Некорректное имя архива.", http.StatusBadRequest)
		return
	}

	slog.Error("request error", "error", err)

	// Default internal error
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
