//nolint:tagliatelle // superior snake-case yo.

// Package guard keeps probe invocations from overlapping. A scheduler may
// fire a new run while the previous one is still waiting on a slow server,
// so each run checks a marker file first and walks away if a live instance
// holds it.
package guard

import (
	"encoding/json"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

// killGrace is how long a stale process gets to exit after the polite
// signal before it is killed.
const killGrace = 5 * time.Second

type marker struct {
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"started_at"`
}

// Guard is a single-instance check backed by a marker file holding the
// owning process id and start time. It is a liveness check, not a lock:
// the race between check and marker creation is accepted.
type Guard struct {
	log    logrus.FieldLogger
	path   string
	maxAge time.Duration

	now   func() time.Time
	kill  func(pid int, sig os.Signal) error
	sleep func(d time.Duration)
}

// New creates a guard around the marker file at path. A marker younger
// than maxAge counts as a live instance.
func New(log logrus.FieldLogger, path string, maxAge time.Duration) *Guard {
	if maxAge <= 0 {
		maxAge = 5 * time.Minute
	}

	return &Guard{
		log:    log.WithField("component", "guard"),
		path:   path,
		maxAge: maxAge,
		now:    time.Now,
		kill:   signalProcess,
		sleep:  time.Sleep,
	}
}

// Acquire claims the marker. It returns false when another instance is
// still live, in which case the caller exits without running. A marker
// older than maxAge means the recorded process is wedged: it is terminated,
// after a grace period killed, and the marker is taken over.
func (g *Guard) Acquire() (bool, error) {
	data, err := os.ReadFile(g.path)

	switch {
	case os.IsNotExist(err):
	case err != nil:
		return false, fmt.Errorf("read instance marker: %w", err)
	default:
		var m marker

		if jsonErr := json.Unmarshal(data, &m); jsonErr != nil {
			g.log.WithError(jsonErr).Warn("Removing corrupt instance marker")
			os.Remove(g.path)

			break
		}

		age := g.now().Sub(m.StartedAt)
		if age < g.maxAge {
			g.log.WithFields(logrus.Fields{
				"pid": m.PID,
				"age": age,
			}).Info("Another instance is active")

			return false, nil
		}

		g.terminate(m.PID)
		os.Remove(g.path)
	}

	if err := g.claim(); err != nil {
		return false, err
	}

	return true, nil
}

// Release removes the marker. Called on normal completion.
func (g *Guard) Release() {
	if err := os.Remove(g.path); err != nil && !os.IsNotExist(err) {
		g.log.WithError(err).Warn("Failed to remove instance marker")
	}
}

func (g *Guard) claim() error {
	data, err := json.Marshal(marker{PID: os.Getpid(), StartedAt: g.now()})
	if err != nil {
		return fmt.Errorf("encode instance marker: %w", err)
	}

	if err := os.WriteFile(g.path, data, 0o644); err != nil {
		return fmt.Errorf("write instance marker: %w", err)
	}

	return nil
}

// terminate asks the wedged process to exit and kills it if it does not.
// Signal errors mean the process is already gone, which is fine.
func (g *Guard) terminate(pid int) {
	g.log.WithField("pid", pid).Info("Killing stale instance")

	if err := g.kill(pid, syscall.SIGTERM); err != nil {
		return
	}

	g.sleep(killGrace)

	if err := g.kill(pid, syscall.SIGKILL); err != nil {
		g.log.WithError(err).WithField("pid", pid).Debug("Force kill failed")
	}
}

func signalProcess(pid int, sig os.Signal) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}

	return proc.Signal(sig)
}
