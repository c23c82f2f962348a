package http

import (
	_ "embed"
	"net/http"
)

//go:embed assets/index.html
var defaultIndexHTML []byte

func (h *Handler) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.index)
}
