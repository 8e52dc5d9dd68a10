package consistency

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Rotation selects the calendar boundary at which the result log starts a
// new file.
type Rotation string

// Supported rotation policies.
const (
	// RotateDaily starts a new file at midnight.
	RotateDaily Rotation = "daily"
	// RotateWeekly starts a new file on Monday at midnight.
	RotateWeekly Rotation = "weekly"
)

// backupSuffixLayout names rotated files after the day their period began.
const backupSuffixLayout = "2006-01-02"

// RotatingWriter appends lines to a result file and renames it away at
// calendar boundaries, keeping a bounded number of dated backups. A file
// left behind by an earlier run is attributed to the period of its last
// modification, so stale content rotates out before the first new line.
type RotatingWriter struct {
	log     logrus.FieldLogger
	path    string
	policy  Rotation
	backups int
	now     func() time.Time

	mu     sync.Mutex
	file   *os.File
	opened time.Time
}

// NewRotatingWriter creates a writer for the file at path. With backups <= 0
// rotated files are kept forever.
func NewRotatingWriter(log logrus.FieldLogger, path string, policy Rotation, backups int) *RotatingWriter {
	return &RotatingWriter{
		log:     log.WithField("component", "resultwriter"),
		path:    path,
		policy:  policy,
		backups: backups,
		now:     time.Now,
	}
}

// WriteLine appends one line, rotating first if the current file belongs to
// an earlier period.
func (w *RotatingWriter) WriteLine(line string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()

	if w.file == nil {
		if err := w.open(now); err != nil {
			return err
		}
	}

	if w.periodStart(now).After(w.opened) {
		if err := w.rotate(now); err != nil {
			return err
		}
	}

	if _, err := w.file.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("write result line: %w", err)
	}

	return nil
}

// Close releases the current file. The writer can be used again afterwards.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}

	err := w.file.Close()
	w.file = nil

	return err
}

func (w *RotatingWriter) open(now time.Time) error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create result directory: %w", err)
	}

	if info, err := os.Stat(w.path); err == nil {
		w.opened = w.periodStart(info.ModTime())
	} else {
		w.opened = w.periodStart(now)
	}

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open result file: %w", err)
	}

	w.file = f

	return nil
}

func (w *RotatingWriter) rotate(now time.Time) error {
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("close result file: %w", err)
	}

	w.file = nil

	target := w.path + "." + w.opened.Format(backupSuffixLayout)
	os.Remove(target)

	if err := os.Rename(w.path, target); err != nil {
		return fmt.Errorf("rotate result file: %w", err)
	}

	w.log.WithField("backup", filepath.Base(target)).Debug("Rotated result file")

	w.prune()

	return w.open(now)
}

// prune removes the oldest backups beyond the configured count. Failures
// are logged only; a leftover backup never blocks the probe.
func (w *RotatingWriter) prune() {
	if w.backups <= 0 {
		return
	}

	dir := filepath.Dir(w.path)
	prefix := filepath.Base(w.path) + "."

	entries, err := os.ReadDir(dir)
	if err != nil {
		w.log.WithError(err).Warn("Failed to list result backups")

		return
	}

	var backups []string

	for _, entry := range entries {
		name := entry.Name()

		suffix, ok := strings.CutPrefix(name, prefix)
		if !ok {
			continue
		}

		if _, err := time.Parse(backupSuffixLayout, suffix); err != nil {
			continue
		}

		backups = append(backups, name)
	}

	if len(backups) <= w.backups {
		return
	}

	// The date suffix sorts lexicographically, oldest first.
	sort.Strings(backups)

	for _, name := range backups[:len(backups)-w.backups] {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			w.log.WithError(err).WithField("backup", name).Warn("Failed to remove result backup")
		}
	}
}

// periodStart maps a time to the beginning of its rotation period.
func (w *RotatingWriter) periodStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())

	if w.policy == RotateWeekly {
		daysPastMonday := (int(day.Weekday()) + 6) % 7

		return day.AddDate(0, 0, -daysPastMonday)
	}

	return day
}
