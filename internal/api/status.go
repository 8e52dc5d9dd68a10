// Package api holds the handlers of the ops HTTP surface.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/eidaops/eidaqc/internal/consistency"
	"github.com/eidaops/eidaqc/internal/probe"
)

// Verify interface compliance at compile time.
var _ http.Handler = (*StatusHandler)(nil)

// StatusResponse is the JSON response for /api/v1/status.
type StatusResponse struct {
	Availability *probe.StatusSnapshot `json:"availability"`
	Consistency  *consistency.Summary  `json:"consistency,omitempty"`
}

// StatusHandler handles GET /api/v1/status requests. It serves the probe
// state mirrored to Redis, not the result files, so a response is cheap and
// never touches the result tree.
type StatusHandler struct {
	probes    probe.Provider
	summaries consistency.SummaryProvider
	logger    logrus.FieldLogger
}

// NewStatusHandler creates a new status handler. Both providers may be nil
// when the Redis mirror is disabled; the endpoint then reports 503.
func NewStatusHandler(probes probe.Provider, summaries consistency.SummaryProvider, logger logrus.FieldLogger) *StatusHandler {
	return &StatusHandler{
		probes:    probes,
		summaries: summaries,
		logger:    logger.WithField("handler", "status"),
	}
}

// ServeHTTP handles the status request.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.probes == nil {
		http.Error(w, "status mirror disabled", http.StatusServiceUnavailable)

		return
	}

	snapshot, err := h.probes.Snapshot(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to read probe snapshot")
		http.Error(w, "status mirror unreachable", http.StatusBadGateway)

		return
	}

	response := StatusResponse{Availability: snapshot}

	// The consistency summary is secondary; a read failure degrades the
	// response instead of failing it.
	if h.summaries != nil {
		summary, err := h.summaries.LatestSummary(r.Context())
		if err != nil {
			h.logger.WithError(err).Warn("Failed to read consistency summary")
		} else {
			response.Consistency = summary
		}
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.WithError(err).Error("Failed to encode response")
		http.Error(w, "internal server error", http.StatusInternalServerError)

		return
	}

	h.logger.WithFields(logrus.Fields{
		"has_latest":      response.Availability.Latest != nil,
		"has_consistency": response.Consistency != nil,
	}).Debug("Served status request")
}
