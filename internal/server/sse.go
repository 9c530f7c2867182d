package server

import (
	"fmt"
	"net/http"
)

// sseWriter writes Server-Sent Events to an http.ResponseWriter. Call init once before the
// first frame.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// newSSEWriter wraps w. Without http.Flusher support frames may be buffered.
func newSSEWriter(w http.ResponseWriter) *sseWriter {
	f, _ := w.(http.Flusher)
	return &sseWriter{w: w, flusher: f}
}

func (sw *sseWriter) init() {
	h := sw.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	sw.w.WriteHeader(http.StatusOK)
	sw.flush()
}

// writeData writes one "data: <payload>\n\n" frame and flushes it.
func (sw *sseWriter) writeData(payload string) error {
	if _, err := fmt.Fprintf(sw.w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("sse: write event: %w", err)
	}
	sw.flush()
	return nil
}

// writeLine writes one newline-terminated line and flushes it.
func (sw *sseWriter) writeLine(line string) error {
	if _, err := fmt.Fprintln(sw.w, line); err != nil {
		return fmt.Errorf("stream: write line: %w", err)
	}
	sw.flush()
	return nil
}

func (sw *sseWriter) flush() {
	if sw.flusher != nil {
		sw.flusher.Flush()
	}
}
