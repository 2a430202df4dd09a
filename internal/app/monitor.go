package app

import (
	"encoding/json"
	"net/http"

	"github.com/deusflow/freegames/internal/metrics"
)

// monitorHandler serves /health and /metrics from m. A non-nil translation
// adds its stats under "translation" in /metrics.
func monitorHandler(m *metrics.Metrics, translation func() map[string]interface{}) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		stats := m.GetStats()

		status := "ok"
		code := http.StatusOK
		if !m.Healthy() {
			status = "error"
			code = http.StatusServiceUnavailable
		}

		writeJSON(w, code, map[string]interface{}{
			"status":     status,
			"last_run":   stats["last_run_time"],
			"last_error": stats["last_error"],
		})
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		stats := m.GetStats()
		if translation != nil {
			stats["translation"] = translation()
		}
		writeJSON(w, http.StatusOK, stats)
	})
	return mux
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
