package http

import (
	"io"
	"net/http"
)

// notFoundMessage is shown when the requested archive directory does not exist.
const notFoundMessage = "Архив не существует или был удален."

func writeNotFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusNotFound)
	_, _ = io.WriteString(w, notFoundMessage)
}
