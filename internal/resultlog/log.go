package resultlog

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eidaops/eidaqc/internal/fdsn"
)

// Entry pairs a parsed record with the station whose file carried it.
type Entry struct {
	Station fdsn.StationID
	Record  Record
}

// Log is the append-only result database: one file per network, station and
// year under the base directory. Rotation and retention of these files is
// left to the operator.
type Log struct {
	log logrus.FieldLogger
	dir string

	now func() time.Time
}

// New creates a result log rooted at dir.
func New(log logrus.FieldLogger, dir string) *Log {
	return &Log{
		log: log.WithField("component", "resultlog"),
		dir: dir,
		now: time.Now,
	}
}

// Append writes one record to the station's file for the record's year.
func (l *Log) Append(id fdsn.StationID, record Record) error {
	if record.LoggedAt.IsZero() {
		record.LoggedAt = l.now()
	}

	path := l.filePath(id, record.LoggedAt.UTC().Year())

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create result directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open result file: %w", err)
	}

	if _, err := f.WriteString(record.Line()); err != nil {
		f.Close()

		return fmt.Errorf("append result: %w", err)
	}

	return f.Close()
}

// ReadSince returns all records logged at or after cutoff, ordered by time.
// Unparseable lines are skipped.
func (l *Log) ReadSince(cutoff time.Time) ([]Entry, error) {
	var entries []Entry

	err := filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || !strings.HasSuffix(d.Name(), ".dat") {
			return nil
		}

		id, ok := stationFromFileName(d.Name())
		if !ok {
			return nil
		}

		fileEntries, err := l.readFile(path, id, cutoff)
		if err != nil {
			return err
		}

		entries = append(entries, fileEntries...)

		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("scan result directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Record.LoggedAt.Before(entries[j].Record.LoggedAt)
	})

	return entries, nil
}

func (l *Log) readFile(path string, id fdsn.StationID, cutoff time.Time) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var (
		entries []Entry
		skipped int
	)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		record, err := ParseLine(line)
		if err != nil {
			skipped++

			continue
		}

		if record.LoggedAt.Before(cutoff) {
			continue
		}

		entries = append(entries, Entry{Station: id, Record: record})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if skipped > 0 {
		l.log.WithFields(logrus.Fields{
			"file":    path,
			"skipped": skipped,
		}).Warn("Skipped unparseable result lines")
	}

	return entries, nil
}

// stationFromFileName decodes a file name like "2026_GE.APE.dat" into the
// station identifier.
func stationFromFileName(name string) (fdsn.StationID, bool) {
	base := strings.TrimSuffix(name, ".dat")

	_, netsta, ok := strings.Cut(base, "_")
	if !ok {
		return fdsn.StationID{}, false
	}

	network, station, ok := strings.Cut(netsta, ".")
	if !ok || network == "" || station == "" {
		return fdsn.StationID{}, false
	}

	return fdsn.StationID{Network: network, Station: station}, true
}

func (l *Log) filePath(id fdsn.StationID, year int) string {
	return filepath.Join(l.dir, id.Network, id.Station,
		fmt.Sprintf("%d_%s.dat", year, id.String()))
}
