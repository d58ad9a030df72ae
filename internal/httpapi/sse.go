package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// heartbeatInterval spaces SSE comment lines that keep idle streams open.
var heartbeatInterval = 15 * time.Second

type sseEvent struct {
	Task   string         `json:"task"`
	Fields map[string]any `json:"fields,omitempty"`
}

// serveEvents streams launcher events for taskID ("" for all) as
// server-sent events until the client or the server goes away.
func serveEvents(w http.ResponseWriter, r *http.Request, svc Service, taskID string) {
	fl, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	ch, cancelSub := svc.Subscribe(taskID)
	defer cancelSub()
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	eventStreams.Inc()
	defer eventStreams.Dec()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fl.Flush()

	hb := time.NewTicker(heartbeatInterval)
	defer hb.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-hb.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			fl.Flush()
		case e, ok := <-ch:
			if !ok {
				return
			}
			b, err := json.Marshal(sseEvent{Task: e.TaskID, Fields: e.Fields})
			if err != nil {
				if zlog != nil {
					zlog.Warn().Err(err).Str("event", e.Name).Msg("drop unencodable event")
				}
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Name, b); err != nil {
				return
			}
			fl.Flush()
		}
	}
}
