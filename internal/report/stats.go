package report

import (
	"sort"
	"time"

	"github.com/eidaops/eidaqc/internal/fdsn"
	"github.com/eidaops/eidaqc/internal/resultlog"
	"github.com/eidaops/eidaqc/internal/status"
)

// StationStats is the per-station availability summary. The percentage is
// computed over data outcomes only: NOSERV means the metadata service
// failed, which says nothing about the station.
type StationStats struct {
	Station   fdsn.StationID
	Counts    map[status.Code]int
	Records   int
	OKPercent float64
}

// evaluated reports whether the station has at least one data outcome.
func (s StationStats) evaluated() bool {
	return s.Records > s.Counts[status.NoServ]
}

// AvailabilityStats aggregates one window of probe records.
type AvailabilityStats struct {
	TotalProbes  int
	FirstProbe   time.Time
	LastProbe    time.Time
	StatusTotals map[status.Code]int
	// Networks maps network codes to their status counts.
	Networks map[string]map[status.Code]int
	// Stations lists evaluated stations, least available first.
	Stations []StationStats
	// HitHistogram maps a per-station record count to the number of
	// stations probed that often.
	HitHistogram map[int]int
}

// Aggregate folds probe records into availability statistics. It is a pure
// function of its input; callers select the window via the result log
// reader.
func Aggregate(entries []resultlog.Entry) *AvailabilityStats {
	stats := &AvailabilityStats{
		StatusTotals: make(map[status.Code]int),
		Networks:     make(map[string]map[status.Code]int),
		HitHistogram: make(map[int]int),
	}

	perStation := make(map[fdsn.StationID]*StationStats)

	for _, entry := range entries {
		stats.TotalProbes++
		stats.StatusTotals[entry.Record.Status]++

		if stats.FirstProbe.IsZero() || entry.Record.LoggedAt.Before(stats.FirstProbe) {
			stats.FirstProbe = entry.Record.LoggedAt
		}

		if entry.Record.LoggedAt.After(stats.LastProbe) {
			stats.LastProbe = entry.Record.LoggedAt
		}

		network := stats.Networks[entry.Station.Network]
		if network == nil {
			network = make(map[status.Code]int)
			stats.Networks[entry.Station.Network] = network
		}

		network[entry.Record.Status]++

		station := perStation[entry.Station]
		if station == nil {
			station = &StationStats{Station: entry.Station, Counts: make(map[status.Code]int)}
			perStation[entry.Station] = station
		}

		station.Counts[entry.Record.Status]++
		station.Records++
	}

	for _, station := range perStation {
		if !station.evaluated() {
			continue
		}

		outcomes := station.Records - station.Counts[status.NoServ]
		station.OKPercent = 100 * float64(station.Counts[status.OK]) / float64(outcomes)

		stats.Stations = append(stats.Stations, *station)
		stats.HitHistogram[station.Records]++
	}

	sort.Slice(stats.Stations, func(i, j int) bool {
		if stats.Stations[i].OKPercent != stats.Stations[j].OKPercent {
			return stats.Stations[i].OKPercent < stats.Stations[j].OKPercent
		}

		return stats.Stations[i].Station.String() < stats.Stations[j].Station.String()
	})

	return stats
}

// TrendBin is one granularity slice of the trend table.
type TrendBin struct {
	Start   time.Time
	Records int
	OK      int
}

// Trend buckets records into width-sized bins covering [start, end). Bins
// without records are kept so the table shows gaps.
func Trend(entries []resultlog.Entry, start, end time.Time, width time.Duration) []TrendBin {
	if width <= 0 || !end.After(start) {
		return nil
	}

	n := int((end.Sub(start) + width - 1) / width)

	bins := make([]TrendBin, n)
	for i := 0; i < n; i++ {
		bins[i].Start = start.Add(time.Duration(i) * width)
	}

	for _, entry := range entries {
		offset := entry.Record.LoggedAt.Sub(start)
		if offset < 0 {
			continue
		}

		idx := int(offset / width)
		if idx >= n {
			continue
		}

		bins[idx].Records++

		if entry.Record.Status == status.OK {
			bins[idx].OK++
		}
	}

	return bins
}

// NetworkCodes returns the networks seen in the window, sorted.
func (s *AvailabilityStats) NetworkCodes() []string {
	codes := make([]string, 0, len(s.Networks))
	for code := range s.Networks {
		codes = append(codes, code)
	}

	sort.Strings(codes)

	return codes
}

// HitCounts returns the distinct per-station record counts, sorted.
func (s *AvailabilityStats) HitCounts() []int {
	counts := make([]int, 0, len(s.HitHistogram))
	for count := range s.HitHistogram {
		counts = append(counts, count)
	}

	sort.Ints(counts)

	return counts
}
