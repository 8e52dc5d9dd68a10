package resultlog

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eidaops/eidaqc/internal/fdsn"
	"github.com/eidaops/eidaqc/internal/status"
)

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return log
}

func TestAppendCreatesPerStationYearFiles(t *testing.T) {
	dir := t.TempDir()
	l := New(testLogger(), dir)

	loggedAt := time.Date(2026, 8, 25, 14, 4, 0, 0, time.UTC)
	ape := fdsn.StationID{Network: "GE", Station: "APE"}
	bfo := fdsn.StationID{Network: "GR", Station: "BFO"}

	require.NoError(t, l.Append(ape, Record{LoggedAt: loggedAt, Status: status.OK, Channel: "GE.APE..BHZ"}))
	require.NoError(t, l.Append(ape, Record{LoggedAt: loggedAt.Add(time.Hour), Status: status.NoData, Channel: "GE.APE..BHZ"}))
	require.NoError(t, l.Append(bfo, Record{LoggedAt: loggedAt, Status: status.OK, Channel: "GR.BFO..HHZ"}))

	apeData, err := os.ReadFile(filepath.Join(dir, "GE", "APE", "2026_GE.APE.dat"))
	require.NoError(t, err)
	assert.Equal(t, 2, countLines(string(apeData)))

	bfoData, err := os.ReadFile(filepath.Join(dir, "GR", "BFO", "2026_GR.BFO.dat"))
	require.NoError(t, err)
	assert.Equal(t, 1, countLines(string(bfoData)))
}

func countLines(s string) int {
	count := 0
	for _, r := range s {
		if r == '\n' {
			count++
		}
	}

	return count
}

func TestAppendDefaultsLoggedAt(t *testing.T) {
	dir := t.TempDir()
	l := New(testLogger(), dir)

	now := time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	id := fdsn.StationID{Network: "CH", Station: "DAVOX"}
	require.NoError(t, l.Append(id, Record{Status: status.OK, Channel: "CH.DAVOX..HHZ"}))

	data, err := os.ReadFile(filepath.Join(dir, "CH", "DAVOX", "2024_CH.DAVOX.dat"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "20241231_2359 OK")
}

func TestReadSince(t *testing.T) {
	dir := t.TempDir()
	l := New(testLogger(), dir)

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	ape := fdsn.StationID{Network: "GE", Station: "APE"}
	bfo := fdsn.StationID{Network: "GR", Station: "BFO"}

	require.NoError(t, l.Append(ape, Record{LoggedAt: base, Status: status.OK, Channel: "GE.APE..BHZ"}))
	require.NoError(t, l.Append(bfo, Record{LoggedAt: base.Add(24 * time.Hour), Status: status.NoData, Channel: "GR.BFO..HHZ"}))
	require.NoError(t, l.Append(ape, Record{LoggedAt: base.Add(48 * time.Hour), Status: status.Fragment, Channel: "GE.APE..BHZ"}))

	entries, err := l.ReadSince(base.Add(12 * time.Hour))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Ordered by logged-at across stations.
	assert.Equal(t, bfo, entries[0].Station)
	assert.Equal(t, status.NoData, entries[0].Record.Status)
	assert.Equal(t, ape, entries[1].Station)
	assert.Equal(t, status.Fragment, entries[1].Record.Status)
}

func TestReadSinceSkipsCorruptLines(t *testing.T) {
	dir := t.TempDir()
	l := New(testLogger(), dir)

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	id := fdsn.StationID{Network: "GE", Station: "APE"}

	require.NoError(t, l.Append(id, Record{LoggedAt: base, Status: status.OK, Channel: "GE.APE..BHZ"}))

	path := filepath.Join(dir, "GE", "APE", "2026_GE.APE.dat")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("garbage that is not a result line\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	entries, err := l.ReadSince(time.Time{})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestReadSinceMissingDirectory(t *testing.T) {
	l := New(testLogger(), filepath.Join(t.TempDir(), "does-not-exist"))

	entries, err := l.ReadSince(time.Time{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStationFromFileName(t *testing.T) {
	tests := []struct {
		name string
		file string
		want fdsn.StationID
		ok   bool
	}{
		{name: "valid", file: "2026_GE.APE.dat", want: fdsn.StationID{Network: "GE", Station: "APE"}, ok: true},
		{name: "no year prefix", file: "GE.APE.dat", ok: false},
		{name: "no station", file: "2026_GE.dat", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := stationFromFileName(tt.file)
			assert.Equal(t, tt.ok, ok)

			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
