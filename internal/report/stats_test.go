package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eidaops/eidaqc/internal/fdsn"
	"github.com/eidaops/eidaqc/internal/resultlog"
	"github.com/eidaops/eidaqc/internal/status"
)

func entry(network, station string, code status.Code, at time.Time) resultlog.Entry {
	return resultlog.Entry{
		Station: fdsn.StationID{Network: network, Station: station},
		Record:  resultlog.Record{LoggedAt: at, Status: code},
	}
}

func TestAggregateCountsEveryRecord(t *testing.T) {
	stats := Aggregate([]resultlog.Entry{
		entry("GR", "BFO", status.OK, testTime),
		entry("GR", "BFO", status.NoData, testTime.Add(time.Hour)),
		entry("GR", "WET", status.NoServ, testTime.Add(2*time.Hour)),
		entry("NL", "HGN", status.OK, testTime.Add(3*time.Hour)),
	})

	assert.Equal(t, 4, stats.TotalProbes)
	assert.Equal(t, testTime, stats.FirstProbe)
	assert.Equal(t, testTime.Add(3*time.Hour), stats.LastProbe)

	assert.Equal(t, map[status.Code]int{
		status.OK:     2,
		status.NoData: 1,
		status.NoServ: 1,
	}, stats.StatusTotals)

	assert.Equal(t, []string{"GR", "NL"}, stats.NetworkCodes())
	assert.Equal(t, map[status.Code]int{status.OK: 1, status.NoData: 1, status.NoServ: 1}, stats.Networks["GR"])
	assert.Equal(t, map[status.Code]int{status.OK: 1}, stats.Networks["NL"])
}

func TestAggregateExcludesServiceFailuresFromAvailability(t *testing.T) {
	stats := Aggregate([]resultlog.Entry{
		entry("GR", "BFO", status.OK, testTime),
		entry("GR", "BFO", status.NoData, testTime),
		entry("GR", "BFO", status.NoServ, testTime),
		entry("GR", "BFO", status.NoServ, testTime),
	})

	assert.Len(t, stats.Stations, 1)
	station := stats.Stations[0]
	assert.Equal(t, "GR.BFO", station.Station.String())
	assert.Equal(t, 4, station.Records)
	assert.InDelta(t, 50.0, station.OKPercent, 1e-9)
}

func TestAggregateSkipsStationsWithoutDataOutcome(t *testing.T) {
	stats := Aggregate([]resultlog.Entry{
		entry("GR", "BFO", status.NoServ, testTime),
		entry("GR", "BFO", status.NoServ, testTime),
		entry("NL", "HGN", status.OK, testTime),
	})

	assert.Len(t, stats.Stations, 1)
	assert.Equal(t, "NL.HGN", stats.Stations[0].Station.String())

	// The skipped station still counts toward the raw totals.
	assert.Equal(t, 3, stats.TotalProbes)
	assert.Equal(t, 2, stats.StatusTotals[status.NoServ])

	// But not toward the hit histogram.
	assert.Equal(t, map[int]int{1: 1}, stats.HitHistogram)
}

func TestAggregateHistogramCountsServiceFailureHits(t *testing.T) {
	stats := Aggregate([]resultlog.Entry{
		entry("GR", "BFO", status.OK, testTime),
		entry("GR", "BFO", status.OK, testTime),
		entry("GR", "BFO", status.NoServ, testTime),
		entry("NL", "HGN", status.NoData, testTime),
	})

	// An evaluated station contributes all of its records to the histogram,
	// service failures included.
	assert.Equal(t, map[int]int{3: 1, 1: 1}, stats.HitHistogram)
	assert.Equal(t, []int{1, 3}, stats.HitCounts())
}

func TestAggregateSortsLeastAvailableFirst(t *testing.T) {
	stats := Aggregate([]resultlog.Entry{
		entry("GR", "BFO", status.OK, testTime),
		entry("NL", "HGN", status.NoData, testTime),
		entry("CH", "DAVOX", status.OK, testTime),
		entry("CH", "DAVOX", status.NoData, testTime),
		entry("GE", "APE", status.NoData, testTime),
	})

	got := make([]string, 0, len(stats.Stations))
	for _, station := range stats.Stations {
		got = append(got, station.Station.String())
	}

	// Zero percent stations sort by name, then the half available one, then
	// the fully available one.
	assert.Equal(t, []string{"GE.APE", "NL.HGN", "CH.DAVOX", "GR.BFO"}, got)
}

func TestAggregateEmpty(t *testing.T) {
	stats := Aggregate(nil)

	assert.Zero(t, stats.TotalProbes)
	assert.Empty(t, stats.Stations)
	assert.Empty(t, stats.NetworkCodes())
	assert.Empty(t, stats.HitCounts())
	assert.True(t, stats.FirstProbe.IsZero())
}

func TestTrendBinsRecords(t *testing.T) {
	start := testTime
	end := testTime.Add(24 * time.Hour)

	bins := Trend([]resultlog.Entry{
		entry("GR", "BFO", status.OK, start),
		entry("GR", "BFO", status.NoData, start.Add(7*time.Hour)),
		entry("NL", "HGN", status.OK, start.Add(9*time.Hour)),
		// Outside the window on both sides.
		entry("GR", "BFO", status.OK, start.Add(-time.Hour)),
		entry("GR", "BFO", status.OK, end),
	}, start, end, 8*time.Hour)

	require.Len(t, bins, 3)

	assert.Equal(t, start, bins[0].Start)
	assert.Equal(t, 2, bins[0].Records)
	assert.Equal(t, 1, bins[0].OK)

	assert.Equal(t, start.Add(8*time.Hour), bins[1].Start)
	assert.Equal(t, 1, bins[1].Records)
	assert.Equal(t, 1, bins[1].OK)

	assert.Zero(t, bins[2].Records)
}

func TestTrendPartialLastBin(t *testing.T) {
	bins := Trend(nil, testTime, testTime.Add(20*time.Hour), 8*time.Hour)

	// 20 hours at 8 hour width still covers the tail with a third bin.
	require.Len(t, bins, 3)
	assert.Equal(t, testTime.Add(16*time.Hour), bins[2].Start)
}

func TestTrendDegenerateWindow(t *testing.T) {
	assert.Nil(t, Trend(nil, testTime, testTime, 8*time.Hour))
	assert.Nil(t, Trend(nil, testTime, testTime.Add(time.Hour), 0))
}
