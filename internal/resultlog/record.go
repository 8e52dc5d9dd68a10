package resultlog

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/eidaops/eidaqc/internal/status"
)

// timeLayout is the timestamp format used in result lines. All timestamps
// are UTC.
const timeLayout = "20060102_1504"

// noWindow marks a record whose cycle failed before a request window was
// chosen.
const noWindow = "--------_----"

// unsetLatency is the column value for a latency that was never measured.
const unsetLatency = "    -"

// Record is one probe outcome. A record with Failure set renders the
// failure text in place of the latency columns.
type Record struct {
	LoggedAt    time.Time
	Status      status.Code
	WindowStart time.Time
	WindowEnd   time.Time
	Channel     string
	MetaLatency *time.Duration
	WaveLatency *time.Duration
	Failure     string
}

// Line renders the record as one fixed-width result line.
func (r Record) Line() string {
	windowStart := noWindow
	minutes := 0.0

	if !r.WindowStart.IsZero() {
		windowStart = r.WindowStart.UTC().Format(timeLayout)
		minutes = r.WindowEnd.Sub(r.WindowStart).Minutes()
	}

	channel := r.Channel
	if channel == "" {
		channel = "unknown"
	}

	if r.Failure != "" {
		return fmt.Sprintf("%s %-8s %s %5.2f %-15s %s\n",
			r.LoggedAt.UTC().Format(timeLayout), r.Status, windowStart, minutes, channel, r.Failure)
	}

	return fmt.Sprintf("%s %-8s %s %5.2f %-15s %s %s\n",
		r.LoggedAt.UTC().Format(timeLayout), r.Status, windowStart, minutes, channel,
		formatLatency(r.MetaLatency), formatLatency(r.WaveLatency))
}

func formatLatency(d *time.Duration) string {
	if d == nil {
		return unsetLatency
	}

	return fmt.Sprintf("%5.1f", d.Seconds())
}

// ParseLine decodes one result line. Lines written by older runs may carry
// arbitrary failure text after the channel column; that text is preserved
// verbatim in Failure.
func ParseLine(line string) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) < 6 {
		return Record{}, fmt.Errorf("result line has %d fields, want at least 6", len(fields))
	}

	loggedAt, err := time.ParseInLocation(timeLayout, fields[0], time.UTC)
	if err != nil {
		return Record{}, fmt.Errorf("bad timestamp %q: %w", fields[0], err)
	}

	code, ok := status.Parse(fields[1])
	if !ok {
		return Record{}, fmt.Errorf("unknown status %q", fields[1])
	}

	record := Record{
		LoggedAt: loggedAt,
		Status:   code,
		Channel:  fields[4],
	}

	minutes, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return Record{}, fmt.Errorf("bad request length %q: %w", fields[3], err)
	}

	if fields[2] != noWindow {
		start, err := time.ParseInLocation(timeLayout, fields[2], time.UTC)
		if err != nil {
			return Record{}, fmt.Errorf("bad window start %q: %w", fields[2], err)
		}

		record.WindowStart = start
		record.WindowEnd = start.Add(time.Duration(minutes * float64(time.Minute)))
	}

	// A completed cycle carries exactly two latency columns. Anything else
	// after the channel is failure text.
	if len(fields) == 7 {
		meta, metaOK := parseLatency(fields[5])
		if wave, waveOK := parseLatency(fields[6]); metaOK && waveOK {
			record.MetaLatency = meta
			record.WaveLatency = wave

			return record, nil
		}
	}

	record.Failure = strings.Join(fields[5:], " ")

	return record, nil
}

// parseLatency reads a latency column. "-" means the latency was never
// measured, which is valid.
func parseLatency(field string) (*time.Duration, bool) {
	if field == "-" {
		return nil, true
	}

	seconds, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return nil, false
	}

	d := time.Duration(seconds * float64(time.Second))

	return &d, true
}
