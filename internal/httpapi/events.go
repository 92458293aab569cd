package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/alexanderramin/earnclock/internal/metrics"
)

// handleEvents streams the caller's change notifications as server-sent
// events. Each event means "re-read the summary"; payloads carry ids only.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	userID := userFrom(r)
	rc := http.NewResponseController(w)

	sub, err := s.store.Observe(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	defer sub.Close()

	metrics.HTTPStreams.Inc()
	defer metrics.HTTPStreams.Dec()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, ": connected\n\n")
	if err := rc.Flush(); err != nil {
		s.logger.Warn().Err(err).Msg("Event stream cannot flush")
		return
	}

	keepAlive := time.NewTicker(s.config.KeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				s.logger.Error().Err(err).Msg("Failed to encode event")
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, data); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
