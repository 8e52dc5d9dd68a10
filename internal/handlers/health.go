package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/eidaops/eidaqc/internal/version"
)

var startTime = time.Now()

// HealthResponse is the liveness payload served to schedulers and uptime
// checks. Probe outcomes are not part of it; a prober whose last cycle
// failed is still a healthy process.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// Health returns an HTTP handler for the liveness endpoint.
func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := HealthResponse{
			Status:  "healthy",
			Version: version.Short(),
			Uptime:  time.Since(startTime).Round(time.Second).String(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(response); err != nil {
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)

			return
		}
	}
}
