//nolint:tagliatelle // superior snake-case yo.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eidaops/eidaqc/internal/redis"
	"github.com/eidaops/eidaqc/internal/status"
)

//go:generate mockgen -package mocks -destination mocks/mock_provider.go github.com/eidaops/eidaqc/internal/probe Provider

const (
	redisLatestKey      = "eidaqc:probe:latest"
	redisCountKeyPrefix = "eidaqc:probe:count:"
)

// Outcome is the cycle summary published to Redis.
type Outcome struct {
	Cycle    string      `json:"cycle"`
	Station  string      `json:"station"`
	Channel  string      `json:"channel,omitempty"`
	Status   status.Code `json:"status"`
	LoggedAt time.Time   `json:"logged_at"`
}

// StatusSnapshot is what the ops API serves: the most recent outcome, if
// one is mirrored, and the running per-status counters.
type StatusSnapshot struct {
	Latest *Outcome              `json:"latest,omitempty"`
	Counts map[status.Code]int64 `json:"counts"`
}

// Provider serves mirrored probe results to readers.
type Provider interface {
	Snapshot(ctx context.Context) (*StatusSnapshot, error)
}

// Compile-time interface compliance check.
var _ Provider = (*Mirror)(nil)

// Mirror publishes probe outcomes to Redis so dashboards can read the most
// recent result and running per-status counters without touching the result
// files. The file-based result log stays authoritative; everything here is
// best effort.
type Mirror struct {
	log   logrus.FieldLogger
	redis redis.Client
	ttl   time.Duration
}

// NewMirror creates a mirror writing through the given client. The latest
// outcome expires after ttl; counters never expire.
func NewMirror(log logrus.FieldLogger, client redis.Client, ttl time.Duration) *Mirror {
	return &Mirror{
		log:   log.WithField("component", "probe_mirror"),
		redis: client,
		ttl:   ttl,
	}
}

// Publish stores the outcome as the latest result and bumps the per-status
// counter. Failures are logged, never returned.
func (m *Mirror) Publish(ctx context.Context, outcome Outcome) {
	data, err := json.Marshal(outcome)
	if err != nil {
		m.log.WithError(err).Error("Failed to encode probe outcome")

		return
	}

	if err := m.redis.Set(ctx, redisLatestKey, string(data), m.ttl); err != nil {
		m.log.WithError(err).Warn("Failed to mirror latest probe outcome")
	}

	if _, err := m.redis.Incr(ctx, redisCountKeyPrefix+string(outcome.Status)); err != nil {
		m.log.WithError(err).Warn("Failed to bump probe status counter")
	}
}

// Snapshot reads back the mirrored state. A missing latest key (expired, or
// no probe has run yet) is not an error; missing counters read as zero.
func (m *Mirror) Snapshot(ctx context.Context) (*StatusSnapshot, error) {
	snapshot := &StatusSnapshot{Counts: make(map[status.Code]int64, len(status.All()))}

	val, err := m.redis.Get(ctx, redisLatestKey)

	switch {
	case errors.Is(err, redis.ErrKeyNotFound):
	case err != nil:
		return nil, fmt.Errorf("read latest outcome: %w", err)
	default:
		var outcome Outcome
		if err := json.Unmarshal([]byte(val), &outcome); err != nil {
			return nil, fmt.Errorf("decode latest outcome: %w", err)
		}

		snapshot.Latest = &outcome
	}

	for _, code := range status.All() {
		val, err := m.redis.Get(ctx, redisCountKeyPrefix+string(code))
		if errors.Is(err, redis.ErrKeyNotFound) {
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("read %s counter: %w", code, err)
		}

		count, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode %s counter: %w", code, err)
		}

		snapshot.Counts[code] = count
	}

	return snapshot, nil
}
