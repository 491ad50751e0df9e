package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// handleIntents streams an instance's intents over Server-Sent Events. The
// handler owns its watch: it attaches on connect and detaches when the
// client goes away, so UIs get live intents with a single GET and no token
// bookkeeping. The optional player query parameter marks whose elimination
// the stream cares about.
func (s *Server) handleIntents(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")
	id := r.PathValue("id")
	player := r.URL.Query().Get("player")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h, err := s.manager.Watch(r.Context(), kind, id, player)
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer func() {
		// The request context is already canceled on disconnect; teardown
		// gets its own.
		if err := s.manager.Unwatch(context.Background(), h.Token); err != nil {
			s.logger.Error("unwatch on disconnect failed", "err", err)
		}
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	flusher.Flush()

	// Initial snapshot so a reconnecting UI can render without a second
	// round trip. The view may still be reconciling; later snapshots arrive
	// by polling, intents by this stream.
	if snap, err := s.manager.Snapshot(kind, id); err == nil {
		if err := writeSSE(w, "snapshot", snap); err != nil {
			return
		}
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case it, ok := <-h.Intents:
			if !ok {
				return
			}
			if err := writeSSE(w, string(it.Type), it); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, event string, data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, b)
	return err
}
