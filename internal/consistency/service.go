//nolint:tagliatelle // superior snake-case yo.
package consistency

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eidaops/eidaqc/internal/fdsn"
	"github.com/eidaops/eidaqc/internal/metrics"
	"github.com/eidaops/eidaqc/internal/redis"
)

const (
	resultFileName   = "consistency.log"
	separator        = "=========================================================="
	headerTimeLayout = "02-Jan-2006_15:04:05"

	redisLatestKey = "eidaqc:consistency:latest"
)

// Summary is the outcome of one consistency cycle: the network sets seen
// through the routing front-end and directly at the member servers, and
// their differences.
type Summary struct {
	Level            string        `json:"level"`
	StartedAt        time.Time     `json:"started_at"`
	RoutedNetworks   []string      `json:"routed_networks"`
	DirectNetworks   []string      `json:"direct_networks"`
	MissingReference []string      `json:"missing_reference,omitempty"`
	RoutedOnly       []string      `json:"routed_only,omitempty"`
	DirectOnly       []string      `json:"direct_only,omitempty"`
	FailedServers    []string      `json:"failed_servers,omitempty"`
	Runtime          time.Duration `json:"runtime"`
}

// Service runs the catalog consistency check: every member server is asked
// for its catalog directly, the routing front-end is asked once, and the
// resulting network sets are compared.
type Service struct {
	log     logrus.FieldLogger
	cfg     Config
	client  fdsn.Client
	results *RotatingWriter
	redis   redis.Client
	metrics *metrics.Metrics

	now func() time.Time
}

// New creates the consistency probe. rds may be nil when no Redis mirror is
// configured.
func New(log logrus.FieldLogger, cfg Config, client fdsn.Client, rds redis.Client, m *metrics.Metrics) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid consistency config: %w", err)
	}

	return &Service{
		log:     log.WithField("component", "consistency"),
		cfg:     cfg,
		client:  client,
		results: NewRotatingWriter(log, filepath.Join(cfg.LogDir, resultFileName), cfg.Rotation, cfg.BackupCount),
		redis:   rds,
		metrics: m,
		now:     time.Now,
	}, nil
}

// Close releases the result log.
func (s *Service) Close() error {
	return s.results.Close()
}

// RunOnce executes one consistency cycle. Individual server failures are
// itemized in the result log and do not abort the cycle; a failed routed
// request does, because without it no comparison is possible.
func (s *Service) RunOnce(ctx context.Context) (*Summary, error) {
	started := s.now()

	s.writeRaw("")
	s.write(fmt.Sprintf("consistency test started at %s, level %s, timeout %ds (no restricted)",
		started.Format(headerTimeLayout), s.cfg.Level, int(s.cfg.RequestTimeout.Seconds())))

	direct, failed := s.directNetworks(ctx, started)

	routed, err := s.routedNetworks(ctx, started)
	if err != nil {
		s.write("        no routed result, aborting")
		s.writeSeparator()
		s.metrics.ObserveConsistencyRun(metrics.ConsistencyNoRouted)

		return nil, fmt.Errorf("no routed result: %w", err)
	}

	summary := &Summary{
		Level:            string(s.cfg.Level),
		StartedAt:        started,
		RoutedNetworks:   sortedKeys(routed),
		DirectNetworks:   sortedKeys(direct),
		MissingReference: s.missingReferences(routed),
		RoutedOnly:       difference(routed, direct),
		DirectOnly:       difference(direct, routed),
		FailedServers:    failed,
		Runtime:          s.now().Sub(started),
	}

	s.writeResults(summary)
	s.metrics.ObserveConsistencyRun(metrics.ConsistencyOK)
	s.publish(ctx, summary)

	return summary, nil
}

// directNetworks queries every reference server for its catalog and unions
// the network codes. A failing server is written to the result log and
// skipped.
func (s *Service) directNetworks(ctx context.Context, started time.Time) (map[string]struct{}, []string) {
	union := make(map[string]struct{})

	var failed []string

	for _, network := range sortedNetworkCodes(s.cfg.ReferenceServers) {
		server := s.cfg.ReferenceServers[network]

		s.write("    reading inventory from server " + server)

		catalog, err := s.fetchCatalog(ctx, server, started)
		if err != nil {
			s.write("        FAILED: " + err.Error())

			failed = append(failed, server)

			continue
		}

		for _, code := range catalog.DistinctNetworks() {
			union[code] = struct{}{}
		}
	}

	return union, failed
}

// routedNetworks queries the routing front-end once for the federated
// catalog.
func (s *Service) routedNetworks(ctx context.Context, started time.Time) (map[string]struct{}, error) {
	s.write("    reading inventory from routing client")

	catalog, err := s.fetchCatalog(ctx, s.cfg.RoutingURL, started)
	if err != nil {
		s.write("        FAILED: " + err.Error())

		return nil, err
	}

	return catalog.NetworkSet(), nil
}

func (s *Service) fetchCatalog(ctx context.Context, baseURL string, started time.Time) (*fdsn.Catalog, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	return s.client.Catalog(reqCtx, fdsn.CatalogRequest{
		BaseURL:  baseURL,
		Level:    s.cfg.Level,
		Channels: s.cfg.Channels,
		Start:    started.Add(-s.cfg.Timespan),
		End:      started,
	})
}

// missingReferences lists the configured reference networks absent from the
// routed result.
func (s *Service) missingReferences(routed map[string]struct{}) []string {
	var missing []string

	for network := range s.cfg.ReferenceServers {
		if _, ok := routed[network]; !ok {
			missing = append(missing, network)
		}
	}

	sort.Strings(missing)

	return missing
}

func (s *Service) writeResults(summary *Summary) {
	if len(summary.MissingReference) > 0 {
		s.write("missing reference networks: " + strings.Join(summary.MissingReference, ","))
	}

	s.write(fmt.Sprintf("rnets (%d) %s", len(summary.RoutedNetworks), strings.Join(summary.RoutedNetworks, ", ")))
	s.write(fmt.Sprintf("snets (%d) %s", len(summary.DirectNetworks), strings.Join(summary.DirectNetworks, ", ")))
	s.write("rnets-snets " + strings.Join(summary.RoutedOnly, ", "))
	s.write("snets-rnets " + strings.Join(summary.DirectOnly, ", "))
	s.write(fmt.Sprintf("runtime %3.1fs", summary.Runtime.Seconds()))
	s.writeSeparator()
}

// publish mirrors the summary to Redis, best effort.
func (s *Service) publish(ctx context.Context, summary *Summary) {
	if s.redis == nil {
		return
	}

	data, err := json.Marshal(summary)
	if err != nil {
		s.log.WithError(err).Error("Failed to encode consistency summary")

		return
	}

	if err := s.redis.Set(ctx, redisLatestKey, string(data), 0); err != nil {
		s.log.WithError(err).Warn("Failed to mirror consistency summary")
	}
}

// write sends a line to both the application log and the result log.
func (s *Service) write(line string) {
	s.log.Info(strings.TrimLeft(line, " "))
	s.writeRaw(line)
}

func (s *Service) writeRaw(line string) {
	if err := s.results.WriteLine(line); err != nil {
		s.log.WithError(err).Warn("Failed to write result line")
	}
}

func (s *Service) writeSeparator() {
	s.writeRaw("")
	s.writeRaw(separator)
	s.writeRaw("")
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

func sortedNetworkCodes(servers map[string]string) []string {
	codes := make([]string, 0, len(servers))
	for code := range servers {
		codes = append(codes, code)
	}

	sort.Strings(codes)

	return codes
}

// difference returns the sorted elements of a not present in b.
func difference(a, b map[string]struct{}) []string {
	var out []string

	for key := range a {
		if _, ok := b[key]; !ok {
			out = append(out, key)
		}
	}

	sort.Strings(out)

	return out
}
