package consistency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/eidaops/eidaqc/internal/redis"
)

//go:generate mockgen -package mocks -destination mocks/mock_provider.go github.com/eidaops/eidaqc/internal/consistency SummaryProvider

// SummaryProvider serves the mirrored consistency summary to readers.
type SummaryProvider interface {
	// LatestSummary returns the most recent summary, or nil when no cycle
	// has been mirrored yet.
	LatestSummary(ctx context.Context) (*Summary, error)
}

// Compile-time interface compliance check.
var _ SummaryProvider = (*RedisSummaries)(nil)

// RedisSummaries reads back the summary the service mirrors to Redis.
type RedisSummaries struct {
	log   logrus.FieldLogger
	redis redis.Client
}

// NewRedisSummaries creates a reader over the given client.
func NewRedisSummaries(log logrus.FieldLogger, client redis.Client) *RedisSummaries {
	return &RedisSummaries{
		log:   log.WithField("component", "consistency_summaries"),
		redis: client,
	}
}

// LatestSummary implements SummaryProvider.
func (r *RedisSummaries) LatestSummary(ctx context.Context) (*Summary, error) {
	val, err := r.redis.Get(ctx, redisLatestKey)
	if errors.Is(err, redis.ErrKeyNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("read consistency summary: %w", err)
	}

	var summary Summary
	if err := json.Unmarshal([]byte(val), &summary); err != nil {
		return nil, fmt.Errorf("decode consistency summary: %w", err)
	}

	return &summary, nil
}
