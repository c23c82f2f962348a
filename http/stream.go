package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sagarc03/zipstream"
)

func (h *Handler) handleArchive(w http.ResponseWriter, r *http.Request) {
	name, err := archiveName(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	archive, err := h.service.Open(r.Context(), name)
	if err != nil {
		if errors.Is(err, zipstream.ErrNotFound) && h.config.Metrics != nil {
			h.config.Metrics.OnNotFound()
		}
		HandleError(w, err)
		return
	}

	if h.config.Metrics != nil {
		h.config.Metrics.OnStreamStart()
	}
	defer func() {
		d := h.service.Finish(archive)
		if h.config.Metrics != nil {
			h.config.Metrics.OnStreamFinish(string(d.Outcome), d.BytesSent, d.Duration())
		}
	}()

	// No Content-Length: net/http switches to chunked transfer encoding.
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", archive.Filename()))
	w.WriteHeader(http.StatusOK)

	cw := newChunkWriter(w, h.config.StallTimeout)
	if err := cw.flush(); err != nil {
		h.logger.Debug("flush headers failed", "archive", name, "err", err)
	}

	if err := archive.Stream(r.Context(), cw); err != nil {
		// Headers are out, so the only way to tell the client the archive is
		// incomplete is to drop the connection without the terminal chunk.
		panic(http.ErrAbortHandler)
	}
}

// archiveName returns the decoded {archive_hash} segment. chi matches on the
// escaped path when the URL carries escapes such as %2F, in which case the
// parameter is still escaped.
func archiveName(r *http.Request) (string, error) {
	name := chi.URLParam(r, "archive_hash")
	if r.URL.RawPath == "" {
		return name, nil
	}

	decoded, err := url.PathUnescape(name)
	if err != nil {
		return "", fmt.Errorf("archive name %q: %w", name, zipstream.ErrInvalidInput)
	}
	return decoded, nil
}

// chunkWriter writes every chunk straight through to the client.
type chunkWriter struct {
	w     http.ResponseWriter
	rc    *http.ResponseController
	stall time.Duration
}

func newChunkWriter(w http.ResponseWriter, stall time.Duration) *chunkWriter {
	return &chunkWriter{
		w:     w,
		rc:    http.NewResponseController(w),
		stall: stall,
	}
}

func (c *chunkWriter) Write(p []byte) (int, error) {
	if c.stall > 0 {
		err := c.rc.SetWriteDeadline(time.Now().Add(c.stall))
		if err != nil && !errors.Is(err, http.ErrNotSupported) {
			return 0, fmt.Errorf("set write deadline: %w", err)
		}
	}

	n, err := c.w.Write(p)
	if err != nil {
		return n, err
	}

	return n, c.flush()
}

func (c *chunkWriter) flush() error {
	err := c.rc.Flush()
	if err != nil && !errors.Is(err, http.ErrNotSupported) {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}
