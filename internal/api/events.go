package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shaharia-lab/coffeebar/internal/eventbus"
)

// eventBuffer is how many events a slow client may lag behind before
// further events are dropped for it.
const eventBuffer = 16

// handleEvents streams machine events as server-sent events so every open UI
// follows fills and brews made elsewhere.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ch := make(chan eventbus.Event, eventBuffer)
	unsubscribe := s.events.Subscribe(func(e eventbus.Event) {
		select {
		case ch <- e:
		default:
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case e := <-ch:
			data, err := json.Marshal(e)
			if err != nil {
				s.logger.Error("encoding event", "event", e.Type, "error", err)
				continue
			}
			_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, data)
			flusher.Flush()
		}
	}
}
