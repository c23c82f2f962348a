// Package http provides the HTTP surface of zipstream.
//
// # Routes
//
//   - GET /                          static index page (text/html)
//   - GET /archive/{archive_hash}/   the named directory as a streamed zip attachment
//   - GET /healthz                   liveness check
//   - GET /downloads                 download history as JSON (when enabled)
//   - GET /metrics                   Prometheus metrics (when enabled)
//
// # Archive Downloads
//
// The archive response has no Content-Length; net/http sends it with chunked
// transfer encoding and every chunk read from the archiver is flushed to the
// client before the next read. Headers are committed only after the archiver
// has started, so a missing directory still gets a clean 404 with a plain
// text message. Once bytes are out, a failure aborts the connection instead
// of ending the chunked body, so the client sees a truncated transfer rather
// than a seemingly complete archive.
//
// # Usage
//
//	handlerCfg := http.HandlerConfig{
//	    StallTimeout: time.Minute,
//	    History:      true,
//	}
//	handler := http.NewHandler(&handlerCfg, service)
//	http.ListenAndServe(":8080", handler.Router())
//
// The service parameter must implement the Service interface with Open,
// Finish, and History methods.
package http
