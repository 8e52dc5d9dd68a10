// Package report renders the quality summary over the collected probe and
// consistency results as a markdown document.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eidaops/eidaqc/internal/consistency"
	"github.com/eidaops/eidaqc/internal/inventory"
	"github.com/eidaops/eidaqc/internal/resultlog"
)

// Generator builds the markdown report from the result logs on disk.
type Generator struct {
	log     logrus.FieldLogger
	cfg     Config
	catalog inventory.Provider
	results *resultlog.Log

	now func() time.Time
}

// New creates a report generator. The catalog provider may be nil, the
// station counters are then left out of the report.
func New(log logrus.FieldLogger, cfg Config, catalog inventory.Provider) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report config: %w", err)
	}

	return &Generator{
		log:     log.WithField("component", "report"),
		cfg:     cfg,
		catalog: catalog,
		results: resultlog.New(log, cfg.ResultDir),
		now:     time.Now,
	}, nil
}

// Render produces the report document without writing it anywhere.
func (g *Generator) Render(ctx context.Context) (string, error) {
	started := g.now()

	entries, err := g.results.ReadSince(started.Add(-g.cfg.AvailabilityWindow))
	if err != nil {
		return "", fmt.Errorf("read probe results: %w", err)
	}

	recentCutoff := started.Add(-g.cfg.RecentWindow)

	var recentEntries []resultlog.Entry

	for _, e := range entries {
		if !e.Record.LoggedAt.Before(recentCutoff) {
			recentEntries = append(recentEntries, e)
		}
	}

	cstats, err := consistency.ParseResults(g.log, g.cfg.ConsistencyDir, recentCutoff, g.cfg.ReferenceServers)
	if err != nil {
		return "", fmt.Errorf("read consistency results: %w", err)
	}

	return renderMarkdown(renderInput{
		generatedAt:  started,
		cfg:          g.cfg,
		avail:        Aggregate(entries),
		recent:       Aggregate(recentEntries),
		trend:        Trend(recentEntries, recentCutoff, started, g.cfg.Granularity),
		cons:         cstats,
		recentCutoff: recentCutoff,
		stationTotal: g.countStations(ctx),
	}), nil
}

// Run renders the report and writes it to the configured output path.
func (g *Generator) Run(ctx context.Context) error {
	document, err := g.Render(ctx)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(g.cfg.OutputPath), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	if err := os.WriteFile(g.cfg.OutputPath, []byte(document), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	g.log.WithField("path", g.cfg.OutputPath).Info("Report written")

	return nil
}

// countStations returns the number of probe-eligible stations in the catalog,
// or -1 when no catalog is available.
func (g *Generator) countStations(ctx context.Context) int {
	if g.catalog == nil {
		return -1
	}

	catalog, err := g.catalog.GetCatalog(ctx, true)
	if err != nil {
		g.log.WithError(err).Warn("Report runs without catalog counters")

		return -1
	}

	excluded := make(map[string]struct{}, len(g.cfg.ExcludeNetworks))
	for _, code := range g.cfg.ExcludeNetworks {
		excluded[code] = struct{}{}
	}

	total := 0

	for _, id := range catalog.DistinctStations() {
		if _, ok := excluded[id.Network]; ok {
			continue
		}

		total++
	}

	return total
}
