package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/eidaops/eidaqc/internal/consistency"
	"github.com/eidaops/eidaqc/internal/status"
)

const dateLayout = "02-Jan-2006"

// tableOrder is the status column order of the network table: the common
// outcomes first, the rarer ones after.
var tableOrder = []status.Code{
	status.OK,
	status.NoData,
	status.Fragment,
	status.Incomplete,
	status.MetaFail,
	status.NoServ,
	status.RestFail,
}

type renderInput struct {
	generatedAt  time.Time
	cfg          Config
	avail        *AvailabilityStats
	recent       *AvailabilityStats
	trend        []TrendBin
	cons         *consistency.ResultStats
	recentCutoff time.Time
	stationTotal int
}

func renderMarkdown(in renderInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# EIDA Quality Report\n\n")
	fmt.Fprintf(&b, "Generated at %s UTC.\n\n", in.generatedAt.UTC().Format("02-Jan-2006 15:04"))

	writeAvailability(&b, in)
	writeConsistency(&b, in)

	return b.String()
}

func writeAvailability(b *strings.Builder, in renderInput) {
	fmt.Fprintf(b, "## Waveform availability\n\n")

	avail := in.avail
	if avail.TotalProbes == 0 {
		fmt.Fprintf(b, "No probe results in the report window.\n\n")

		return
	}

	fmt.Fprintf(b, "Random waveform requests between %s and %s.\n\n",
		avail.FirstProbe.UTC().Format(dateLayout), avail.LastProbe.UTC().Format(dateLayout))

	if in.stationTotal >= 0 {
		fmt.Fprintf(b, "- unrestricted stations offering channels `%s`: %d\n",
			strings.Join(in.cfg.WantedChannels, ","), in.stationTotal)
	}

	fmt.Fprintf(b, "- evaluated stations: %d\n", len(avail.Stations))
	fmt.Fprintf(b, "- number of requests: %d\n\n", avail.TotalProbes)

	writeNetworkTable(b, avail)
	writeStatusGlossary(b)
	writeRecentOutcomes(b, in)
	writeTrend(b, in)
	writeWorstStations(b, in)
	writeHitHistogram(b, avail)
}

func writeNetworkTable(b *strings.Builder, avail *AvailabilityStats) {
	fmt.Fprintf(b, "### Request status by network\n\n")

	fmt.Fprintf(b, "| network |")

	for _, code := range tableOrder {
		fmt.Fprintf(b, " `%s` |", code)
	}

	fmt.Fprintf(b, "\n|---------|")

	for range tableOrder {
		fmt.Fprintf(b, "-----:|")
	}

	fmt.Fprintf(b, "\n")

	for _, network := range avail.NetworkCodes() {
		fmt.Fprintf(b, "| %s |", network)

		for _, code := range tableOrder {
			fmt.Fprintf(b, " %d |", avail.Networks[network][code])
		}

		fmt.Fprintf(b, "\n")
	}

	fmt.Fprintf(b, "| total |")

	for _, code := range tableOrder {
		fmt.Fprintf(b, " %d |", avail.StatusTotals[code])
	}

	fmt.Fprintf(b, "\n\n")
}

func writeStatusGlossary(b *strings.Builder) {
	fmt.Fprintf(b, "### Status codes\n\n")
	fmt.Fprintf(b, "| code | meaning |\n")
	fmt.Fprintf(b, "|------|---------|\n")

	for _, code := range tableOrder {
		fmt.Fprintf(b, "| `%s` | %s |\n", code, code.Description())
	}

	fmt.Fprintf(b, "\n")
}

func writeRecentOutcomes(b *strings.Builder, in renderInput) {
	fmt.Fprintf(b, "### Recent outcomes\n\n")

	if in.recent.TotalProbes == 0 {
		fmt.Fprintf(b, "No probes since %s.\n\n", in.recentCutoff.UTC().Format(dateLayout))

		return
	}

	fmt.Fprintf(b, "Totals since %s.\n\n", in.recentCutoff.UTC().Format(dateLayout))
	fmt.Fprintf(b, "| status | count |\n")
	fmt.Fprintf(b, "|--------|------:|\n")

	for _, code := range tableOrder {
		fmt.Fprintf(b, "| `%s` | %d |\n", code, in.recent.StatusTotals[code])
	}

	fmt.Fprintf(b, "\n")
}

func writeTrend(b *strings.Builder, in renderInput) {
	if len(in.trend) == 0 || in.recent.TotalProbes == 0 {
		return
	}

	fmt.Fprintf(b, "### Availability trend\n\n")
	fmt.Fprintf(b, "One row per %s slice of the recent window.\n\n", in.cfg.Granularity)
	fmt.Fprintf(b, "| from | requests | ok |\n")
	fmt.Fprintf(b, "|------|---------:|---:|\n")

	for _, bin := range in.trend {
		share := "-"
		if bin.Records > 0 {
			share = fmt.Sprintf("%.1f%%", 100*float64(bin.OK)/float64(bin.Records))
		}

		fmt.Fprintf(b, "| %s | %d | %s |\n", bin.Start.UTC().Format("02-Jan-2006 15:04"), bin.Records, share)
	}

	fmt.Fprintf(b, "\n")
}

func writeWorstStations(b *strings.Builder, in renderInput) {
	stations := in.avail.Stations
	if len(stations) > in.cfg.WorstStations {
		stations = stations[:in.cfg.WorstStations]
	}

	fmt.Fprintf(b, "### Least available stations\n\n")
	fmt.Fprintf(b, "| station | availability | requests |\n")
	fmt.Fprintf(b, "|---------|-------------:|---------:|\n")

	for _, station := range stations {
		fmt.Fprintf(b, "| %s | %.1f%% | %d |\n", station.Station, station.OKPercent, station.Records)
	}

	fmt.Fprintf(b, "\n")
}

func writeHitHistogram(b *strings.Builder, avail *AvailabilityStats) {
	fmt.Fprintf(b, "### Random request distribution\n\n")
	fmt.Fprintf(b, "How many stations were hit how often by the random draw.\n\n")
	fmt.Fprintf(b, "| requests | stations |\n")
	fmt.Fprintf(b, "|---------:|---------:|\n")

	for _, count := range avail.HitCounts() {
		fmt.Fprintf(b, "| %d | %d |\n", count, avail.HitHistogram[count])
	}

	fmt.Fprintf(b, "\n")
}

func writeConsistency(b *strings.Builder, in renderInput) {
	fmt.Fprintf(b, "## Catalog consistency\n\n")

	cons := in.cons
	if cons.Cycles == 0 {
		fmt.Fprintf(b, "No consistency results since %s.\n", in.recentCutoff.UTC().Format(dateLayout))

		return
	}

	cleanPercent := 100 * float64(cons.CleanCycles) / float64(cons.Cycles)

	fmt.Fprintf(b, "Cycles since %s: %d total, %d aborted without a routed result, %d clean (%3.1f%%).\n\n",
		in.recentCutoff.UTC().Format(dateLayout), cons.Cycles, cons.AbortedCycles, cons.CleanCycles, cleanPercent)

	failed := cons.FailedServers()
	if len(failed) == 0 {
		fmt.Fprintf(b, "No server failures recorded.\n")

		return
	}

	fmt.Fprintf(b, "| server | direct failures | missing from routed |\n")
	fmt.Fprintf(b, "|--------|----------------:|--------------------:|\n")

	for _, server := range failed {
		fmt.Fprintf(b, "| %s | %d (%4.1f%%) | %d (%4.1f%%) |\n",
			server,
			cons.DirectFailures[server], 100*float64(cons.DirectFailures[server])/float64(cons.Cycles),
			cons.MissingByServer[server], 100*float64(cons.MissingByServer[server])/float64(cons.Cycles))
	}
}
