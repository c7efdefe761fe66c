package net

import (
	"encoding/json"
	"log"
	nethttp "net/http"
	"time"

	wspkg "sightrelay/internal/net/ws"
	"sightrelay/internal/track"
)

// HTTPHandlerConfig carries the control-surface construction options.
type HTTPHandlerConfig struct {
	Logger *log.Logger
}

// StatsResponse is the JSON control-surface statistics payload. The
// jurisdictions map is keyed by index key strings, verbatim.
type StatsResponse struct {
	Status        string         `json:"status"`
	ServerTime    int64          `json:"serverTime"`
	Relays        int            `json:"relays"`
	Jurisdictions map[string]int `json:"jurisdictions"`
}

// NewHTTPHandler assembles the daemon's HTTP surface: health, statistics and
// the websocket intake endpoint.
func NewHTTPHandler(tracker *track.Tracker, ws *wspkg.Handler, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/stats", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := StatsResponse{
			Status:        "ok",
			ServerTime:    time.Now().UnixMilli(),
			Relays:        tracker.Len(),
			Jurisdictions: tracker.Stats(),
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logger.Printf("failed to encode stats: %v", err)
		}
	})

	mux.Handle("/ws", ws)

	return mux
}
