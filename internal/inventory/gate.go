//nolint:tagliatelle // superior snake-case yo.
package inventory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// retryMarker is the on-disk record of the last failed refresh attempt.
type retryMarker struct {
	FailedAt time.Time `json:"failed_at"`
}

// RetryGate throttles refresh attempts against an upstream service. Once a
// failure is recorded, further attempts are denied until the configured wait
// has passed. State lives in a marker file under the state directory so it
// survives restarts and is shared between overlapping invocations.
type RetryGate struct {
	log      logrus.FieldLogger
	stateDir string
	wait     time.Duration

	now func() time.Time
}

// NewRetryGate creates a gate keeping its markers in stateDir.
func NewRetryGate(log logrus.FieldLogger, stateDir string, wait time.Duration) *RetryGate {
	return &RetryGate{
		log:      log.WithField("component", "retry_gate"),
		stateDir: stateDir,
		wait:     wait,
		now:      time.Now,
	}
}

// Allow reports whether a new attempt for resource may proceed. Without a
// recorded failure it always allows. With one, it denies until the wait has
// passed; once it has, the marker is consumed and the attempt allowed.
func (g *RetryGate) Allow(resource string) bool {
	path := g.markerPath(resource)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return true
	}

	if err != nil {
		g.log.WithError(err).WithField("path", path).Warn("Failed to read retry marker, allowing attempt")

		return true
	}

	var marker retryMarker
	if err := json.Unmarshal(data, &marker); err != nil {
		// A marker we cannot decode is useless for throttling.
		g.log.WithError(err).WithField("path", path).Warn("Removing corrupt retry marker")
		g.remove(path)

		return true
	}

	age := g.now().Sub(marker.FailedAt)
	if age <= g.wait {
		g.log.WithFields(logrus.Fields{
			"resource": resource,
			"age":      age.Round(time.Second),
			"wait":     g.wait,
		}).Debug("Retry gate closed")

		return false
	}

	g.remove(path)

	return true
}

// MarkFailed records a failed attempt for resource, closing the gate for the
// configured wait.
func (g *RetryGate) MarkFailed(resource string) {
	marker := retryMarker{FailedAt: g.now()}

	data, err := json.Marshal(marker)
	if err != nil {
		g.log.WithError(err).Error("Failed to encode retry marker")

		return
	}

	path := g.markerPath(resource)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		g.log.WithError(err).WithField("path", path).Error("Failed to write retry marker")

		return
	}

	g.log.WithField("resource", resource).Debug("Recorded failed attempt")
}

func (g *RetryGate) markerPath(resource string) string {
	return filepath.Join(g.stateDir, fmt.Sprintf("retry-%s.json", resource))
}

func (g *RetryGate) remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		g.log.WithError(err).WithField("path", path).Warn("Failed to remove retry marker")
	}
}
