//nolint:tagliatelle // superior snake-case yo.
package inventory

//go:generate mockgen -package mocks -destination mocks/mock_provider.go github.com/eidaops/eidaqc/internal/inventory Provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eidaops/eidaqc/internal/fdsn"
	"github.com/eidaops/eidaqc/internal/metrics"
)

// ErrUnavailable means no catalog could be produced from either the cache
// or the routing service.
var ErrUnavailable = errors.New("station catalog unavailable")

// retryResource names the retry gate slot guarding catalog refreshes.
const retryResource = "eidainventory"

// cacheFileName is the persisted catalog under the state directory.
const cacheFileName = "catalog-cache.json"

// Provider supplies the station catalog to the probe components.
type Provider interface {
	// GetCatalog returns the current catalog. With forceCache the persisted
	// cache is returned regardless of its age.
	GetCatalog(ctx context.Context, forceCache bool) (*fdsn.Catalog, error)
}

// Compile-time interface compliance check.
var _ Provider = (*Service)(nil)

// cacheRecord is the persisted form of a fetched catalog.
type cacheRecord struct {
	FetchedAt time.Time     `json:"fetched_at"`
	Catalog   *fdsn.Catalog `json:"catalog"`
}

// Service maintains the station catalog of the whole federation. Catalog
// queries are expensive for the routing service, so results are cached on
// disk and refreshed only when the cache has aged out, with a retry gate
// suppressing refresh storms after failures.
type Service struct {
	log       logrus.FieldLogger
	cfg       Config
	client    fdsn.Client
	validator *Validator
	gate      *RetryGate
	metrics   *metrics.Metrics

	now func() time.Time
}

// New creates the catalog cache service.
func New(log logrus.FieldLogger, cfg Config, client fdsn.Client, m *metrics.Metrics) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid inventory config: %w", err)
	}

	return &Service{
		log:       log.WithField("component", "inventory"),
		cfg:       cfg,
		client:    client,
		validator: NewValidator(log, cfg.MinNetworkCount, cfg.ReferenceNetworks, cfg.IgnoreMissingReference),
		gate:      NewRetryGate(log, cfg.StateDir, cfg.RetryWait),
		metrics:   m,
		now:       time.Now,
	}, nil
}

// GetCatalog returns the station catalog, preferring the persisted cache and
// asking the routing service only when the cache has aged out and the retry
// gate permits a new attempt. When a refresh fails, the stale cache is
// better than nothing and is returned regardless of age.
func (s *Service) GetCatalog(ctx context.Context, forceCache bool) (*fdsn.Catalog, error) {
	if forceCache {
		if catalog, ok := s.readCache(true); ok {
			return catalog, nil
		}

		s.log.Warn("No catalog in cache")
	}

	var (
		catalog *fdsn.Catalog
		ok      bool
	)

	allowed := s.gate.Allow(retryResource)
	if allowed {
		catalog, ok = s.readCache(false)
	} else {
		catalog, ok = s.readCache(true)
	}

	if ok {
		return catalog, nil
	}

	if !allowed {
		return nil, fmt.Errorf("%w: refresh suspended after a recent failure", ErrUnavailable)
	}

	fresh, err := s.refresh(ctx)
	if err == nil {
		return fresh, nil
	}

	s.gate.MarkFailed(retryResource)

	if catalog, ok := s.readCache(true); ok {
		s.log.WithError(err).Warn("Catalog refresh failed, falling back to stale cache")

		return catalog, nil
	}

	return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// refresh fetches a full channel-level catalog from the routing service,
// validates it and persists it on success.
func (s *Service) refresh(ctx context.Context) (*fdsn.Catalog, error) {
	s.log.Info("Updating catalog from routing service")

	end := s.now()
	start := end.Add(-s.cfg.Timespan)

	reqCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	catalog, err := s.client.Catalog(reqCtx, fdsn.CatalogRequest{
		BaseURL:  s.cfg.RoutingURL,
		Level:    fdsn.LevelChannel,
		Channels: s.cfg.Channels,
		Start:    start,
		End:      end,
	})
	if err != nil {
		s.metrics.ObserveCatalogRefresh(metrics.RefreshTransport)

		return nil, fmt.Errorf("catalog update failed: %w", err)
	}

	if err := s.validator.Validate(catalog); err != nil {
		s.metrics.ObserveCatalogRefresh(metrics.RefreshRejected)

		return nil, err
	}

	if err := s.writeCache(catalog); err != nil {
		// The fresh catalog is still usable even when persisting it failed.
		s.log.WithError(err).Error("Failed to persist catalog cache")
	}

	s.metrics.ObserveCatalogRefresh(metrics.RefreshSuccess)
	s.log.WithField("networks", len(catalog.Networks)).Info("Catalog updated")

	return catalog, nil
}

// readCache loads the persisted catalog. Unless ignoreAge is set, a record
// older than the configured maximum counts as absent.
func (s *Service) readCache(ignoreAge bool) (*fdsn.Catalog, bool) {
	data, err := os.ReadFile(s.cachePath())
	if os.IsNotExist(err) {
		return nil, false
	}

	if err != nil {
		s.log.WithError(err).Warn("Failed to read catalog cache")

		return nil, false
	}

	var record cacheRecord
	if err := json.Unmarshal(data, &record); err != nil {
		s.log.WithError(err).Warn("Discarding unreadable catalog cache")

		return nil, false
	}

	if record.Catalog == nil {
		return nil, false
	}

	age := s.now().Sub(record.FetchedAt)
	if !ignoreAge && age > s.cfg.CacheMaxAge {
		s.log.WithField("age", age.Round(time.Second)).Debug("Catalog cache is stale")

		return nil, false
	}

	s.log.WithFields(logrus.Fields{
		"age":      age.Round(time.Second),
		"networks": len(record.Catalog.Networks),
	}).Debug("Using cached catalog")

	return record.Catalog, true
}

// writeCache persists the catalog, replacing the previous cache file in one
// rename so concurrent readers never observe a partial write.
func (s *Service) writeCache(catalog *fdsn.Catalog) error {
	record := cacheRecord{FetchedAt: s.now(), Catalog: catalog}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}

	path := s.cachePath()

	tmp, err := os.CreateTemp(filepath.Dir(path), ".catalog-cache-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("replace cache file: %w", err)
	}

	return nil
}

func (s *Service) cachePath() string {
	return filepath.Join(s.cfg.StateDir, cacheFileName)
}
