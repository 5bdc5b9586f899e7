package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const keepAliveInterval = 30 * time.Second

// handleStream pushes the owner's transaction snapshot over
// server-sent events. The first event carries the current snapshot;
// later events arrive whenever a mutation lands, already coalesced by
// the hub. Comment lines keep proxies from closing idle connections.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "", "Streaming is not supported.")
		return
	}

	owner := ownerID(r)
	sub, err := s.hub.Subscribe(r.Context(), owner)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	defer sub.Cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	s.logger.InfoContext(r.Context(), "Feed subscription opened", "owner_id", owner)
	defer s.logger.InfoContext(r.Context(), "Feed subscription closed", "owner_id", owner)

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case snapshot, open := <-sub.C:
			if !open {
				return
			}
			if err := writeSSE(w, "snapshot", snapshot); err != nil {
				return
			}
			flusher.Flush()
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func writeSSE(w http.ResponseWriter, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
