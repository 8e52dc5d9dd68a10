package report

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/eidaops/eidaqc/internal/fdsn"
	"github.com/eidaops/eidaqc/internal/inventory"
	"github.com/eidaops/eidaqc/internal/inventory/mocks"
	"github.com/eidaops/eidaqc/internal/resultlog"
	"github.com/eidaops/eidaqc/internal/status"
)

var testTime = time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return log
}

// consistencyLog holds one in-window cycle with a failing server and one
// older clean cycle that the report window must drop.
const consistencyLog = `
consistency test started at 01-Feb-2026_10:00:00, level network, timeout 240s (no restricted)
    reading inventory from server geofon
    reading inventory from server bgr
    reading inventory from routing client
rnets (2) GE, GR
snets (2) GE, GR
runtime 0.5s

==========================================================

consistency test started at 28-Feb-2026_10:00:00, level network, timeout 240s (no restricted)
    reading inventory from server geofon
        FAILED: connect timeout
    reading inventory from server bgr
    reading inventory from routing client
missing reference networks: GE
rnets (2) GR, NL
snets (1) GR
rnets-snets NL
runtime 0.3s

==========================================================
`

func newTestGenerator(t *testing.T, catalog inventory.Provider) *Generator {
	t.Helper()

	cfg := Config{
		ResultDir:        t.TempDir(),
		ConsistencyDir:   t.TempDir(),
		OutputPath:       filepath.Join(t.TempDir(), "out", "eida_report.md"),
		ReferenceServers: map[string]string{"GE": "geofon", "GR": "bgr"},
		ExcludeNetworks:  []string{"XX"},
	}

	gen, err := New(testLogger(), cfg, catalog)
	require.NoError(t, err)

	gen.now = func() time.Time { return testTime }

	return gen
}

func seedResults(t *testing.T, gen *Generator) {
	t.Helper()

	results := resultlog.New(testLogger(), gen.cfg.ResultDir)

	appendRecord := func(network, station string, code status.Code, at time.Time) {
		id := fdsn.StationID{Network: network, Station: station}
		err := results.Append(id, resultlog.Record{LoggedAt: at, Status: code, Channel: id.String() + "..HHZ"})
		require.NoError(t, err)
	}

	appendRecord("GR", "BFO", status.OK, testTime.Add(-24*time.Hour))
	appendRecord("GR", "BFO", status.NoData, testTime.Add(-12*time.Hour))
	appendRecord("NL", "HGN", status.OK, testTime.Add(-48*time.Hour))

	// Inside the 92 day window, outside the 14 day recent window.
	appendRecord("GR", "WET", status.OK, testTime.Add(-30*24*time.Hour))

	// Outside the 92 day availability window.
	appendRecord("GR", "BFO", status.NoData, testTime.Add(-100*24*time.Hour))
}

func seedConsistencyLog(t *testing.T, gen *Generator) {
	t.Helper()

	path := filepath.Join(gen.cfg.ConsistencyDir, "consistency.log")
	require.NoError(t, os.WriteFile(path, []byte(consistencyLog), 0o644))
}

func testCatalog() *fdsn.Catalog {
	return &fdsn.Catalog{Networks: []*fdsn.Network{
		{Code: "GR", Stations: []*fdsn.Station{{Code: "BFO"}, {Code: "WET"}}},
		{Code: "NL", Stations: []*fdsn.Station{{Code: "HGN"}}},
		{Code: "XX", Stations: []*fdsn.Station{{Code: "TEST"}}},
	}}
}

func TestRenderReportDocument(t *testing.T) {
	ctrl := gomock.NewController(t)
	catalog := mocks.NewMockProvider(ctrl)
	catalog.EXPECT().GetCatalog(gomock.Any(), true).Return(testCatalog(), nil)

	gen := newTestGenerator(t, catalog)
	seedResults(t, gen)
	seedConsistencyLog(t, gen)

	document, err := gen.Render(context.Background())
	require.NoError(t, err)

	assert.Contains(t, document, "# EIDA Quality Report")

	// Availability section. The excluded XX network does not count toward
	// the station total, the out-of-window record does not count at all.
	assert.Contains(t, document, "## Waveform availability")
	assert.Contains(t, document, "- unrestricted stations offering channels `HHZ,BHZ,EHZ,SHZ`: 3")
	assert.Contains(t, document, "- evaluated stations: 3")
	assert.Contains(t, document, "- number of requests: 4")
	assert.Contains(t, document, "| GR | 2 | 1 | 0 | 0 | 0 | 0 | 0 |")
	assert.Contains(t, document, "| NL | 1 | 0 | 0 | 0 | 0 | 0 | 0 |")
	assert.Contains(t, document, "| total | 3 | 1 | 0 | 0 | 0 | 0 | 0 |")

	// The recent slice drops the 30 day old GR.WET probe.
	assert.Contains(t, document, "### Recent outcomes")
	assert.Contains(t, document, "| `OK` | 2 |")
	assert.Contains(t, document, "| `NODATA` | 1 |")

	// Trend bins are 8h wide, anchored at the recent cutoff.
	assert.Contains(t, document, "### Availability trend")
	assert.Contains(t, document, "| 15-Feb-2026 06:00 | 0 | - |")
	assert.Contains(t, document, "| 27-Feb-2026 06:00 | 1 | 100.0% |")
	assert.Contains(t, document, "| 28-Feb-2026 14:00 | 1 | 0.0% |")

	// GR.BFO is half available and sorts before the fully available NL.HGN.
	bfo := strings.Index(document, "| GR.BFO | 50.0% | 2 |")
	hgn := strings.Index(document, "| NL.HGN | 100.0% | 1 |")
	require.NotEqual(t, -1, bfo)
	require.NotEqual(t, -1, hgn)
	assert.Less(t, bfo, hgn)

	// Consistency section covers only the cycle inside the 14 day window.
	assert.Contains(t, document, "## Catalog consistency")
	assert.Contains(t, document, "Cycles since 15-Feb-2026: 1 total, 0 aborted without a routed result, 0 clean (0.0%).")
	assert.Contains(t, document, "| geofon | 1 (100.0%) | 1 (100.0%) |")
	assert.NotContains(t, document, "| bgr |")
}

func TestRenderWithoutCatalogCounters(t *testing.T) {
	ctrl := gomock.NewController(t)
	catalog := mocks.NewMockProvider(ctrl)
	catalog.EXPECT().GetCatalog(gomock.Any(), true).Return(nil, errors.New("no inventory source"))

	gen := newTestGenerator(t, catalog)
	seedResults(t, gen)
	seedConsistencyLog(t, gen)

	document, err := gen.Render(context.Background())
	require.NoError(t, err)

	assert.NotContains(t, document, "unrestricted stations")
	assert.Contains(t, document, "- evaluated stations: 3")
}

func TestRenderNilCatalogProvider(t *testing.T) {
	gen := newTestGenerator(t, nil)
	seedResults(t, gen)

	document, err := gen.Render(context.Background())
	require.NoError(t, err)

	assert.NotContains(t, document, "unrestricted stations")
}

func TestRenderEmptyWindows(t *testing.T) {
	gen := newTestGenerator(t, nil)

	document, err := gen.Render(context.Background())
	require.NoError(t, err)

	assert.Contains(t, document, "No probe results in the report window.")
	assert.Contains(t, document, "No consistency results since 15-Feb-2026.")
}

func TestRenderLimitsWorstStations(t *testing.T) {
	gen := newTestGenerator(t, nil)
	gen.cfg.WorstStations = 1
	seedResults(t, gen)

	document, err := gen.Render(context.Background())
	require.NoError(t, err)

	assert.Contains(t, document, "| GR.BFO | 50.0% | 2 |")
	assert.NotContains(t, document, "| NL.HGN |")
}

func TestRunWritesReportFile(t *testing.T) {
	gen := newTestGenerator(t, nil)
	seedResults(t, gen)
	seedConsistencyLog(t, gen)

	require.NoError(t, gen.Run(context.Background()))

	data, err := os.ReadFile(gen.cfg.OutputPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# EIDA Quality Report")
}
