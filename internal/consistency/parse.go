package consistency

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
)

// ResultStats aggregates consistency cycles parsed back out of the result
// log, for the report.
type ResultStats struct {
	Cycles        int
	AbortedCycles int
	CleanCycles   int
	// DirectFailures counts, per server, the cycles in which its direct
	// request failed.
	DirectFailures map[string]int
	// MissingByServer counts, per server, the cycles in which one of its
	// reference networks was missing from the routed result.
	MissingByServer map[string]int
	FirstCycle      time.Time
	LastCycle       time.Time
}

// FailedServers returns the servers with at least one recorded failure,
// sorted.
func (s *ResultStats) FailedServers() []string {
	set := make(map[string]struct{})

	for server := range s.DirectFailures {
		set[server] = struct{}{}
	}

	for server := range s.MissingByServer {
		set[server] = struct{}{}
	}

	servers := make([]string, 0, len(set))
	for server := range set {
		servers = append(servers, server)
	}

	sort.Strings(servers)

	return servers
}

// ParseResults reads the result log and its dated backups and aggregates
// all cycles started at or after cutoff. referenceServers translates
// missing reference networks into the server responsible for them, so
// routed and direct failures are counted against the same data center.
// A missing log yields empty statistics, not an error.
func ParseResults(log logrus.FieldLogger, dir string, cutoff time.Time, referenceServers map[string]string) (*ResultStats, error) {
	stats := &ResultStats{
		DirectFailures:  make(map[string]int),
		MissingByServer: make(map[string]int),
	}

	files, err := resultFiles(dir)
	if err != nil {
		return nil, err
	}

	parser := &resultParser{stats: stats, cutoff: cutoff, servers: referenceServers}

	for _, path := range files {
		if err := parser.parseFile(path); err != nil {
			log.WithError(err).WithField("file", path).Warn("Skipping unreadable consistency results")
		}
	}

	return stats, nil
}

// resultFiles lists the dated backups oldest first, then the current file,
// so cycles split across a rotation are reassembled in order.
func resultFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("list consistency results: %w", err)
	}

	var files []string

	current := false

	for _, entry := range entries {
		name := entry.Name()

		if name == resultFileName {
			current = true

			continue
		}

		suffix, ok := strings.CutPrefix(name, resultFileName+".")
		if !ok {
			continue
		}

		if _, err := time.Parse(backupSuffixLayout, suffix); err != nil {
			continue
		}

		files = append(files, filepath.Join(dir, name))
	}

	sort.Strings(files)

	if current {
		files = append(files, filepath.Join(dir, resultFileName))
	}

	return files, nil
}

type resultParser struct {
	stats   *ResultStats
	cutoff  time.Time
	servers map[string]string

	inCycle   bool
	inWindow  bool
	routed    bool
	server    string
	failed    []string
	missing   []string
	aborted   bool
	startedAt time.Time
}

func (p *resultParser) parseFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		p.parseLine(scanner.Text())
	}

	return scanner.Err()
}

func (p *resultParser) parseLine(line string) {
	trimmed := strings.TrimSpace(line)

	switch {
	case strings.HasPrefix(trimmed, "consistency test started at "):
		p.beginCycle(trimmed)
	case !p.inCycle:
	case strings.HasPrefix(trimmed, "====="):
		p.endCycle()
	case !p.inWindow:
	case strings.HasPrefix(trimmed, "reading inventory from server "):
		p.routed = false
		p.server = strings.TrimPrefix(trimmed, "reading inventory from server ")
	case trimmed == "reading inventory from routing client":
		p.routed = true
	case strings.HasPrefix(trimmed, "FAILED:"):
		if p.routed {
			p.aborted = true
		} else if p.server != "" {
			p.failed = append(p.failed, p.server)
		}
	case strings.HasPrefix(trimmed, "missing reference networks: "):
		nets := strings.TrimPrefix(trimmed, "missing reference networks: ")
		for _, net := range strings.Split(nets, ",") {
			if net = strings.TrimSpace(net); net != "" {
				p.missing = append(p.missing, net)
			}
		}
	}
}

func (p *resultParser) beginCycle(line string) {
	p.reset()

	fields := strings.Fields(line)
	if len(fields) < 5 {
		return
	}

	startedAt, err := time.Parse(headerTimeLayout, strings.TrimSuffix(fields[4], ","))
	if err != nil {
		return
	}

	p.inCycle = true
	p.startedAt = startedAt
	p.inWindow = !startedAt.Before(p.cutoff)
}

func (p *resultParser) endCycle() {
	defer p.reset()

	if !p.inWindow {
		return
	}

	s := p.stats
	s.Cycles++

	if s.FirstCycle.IsZero() || p.startedAt.Before(s.FirstCycle) {
		s.FirstCycle = p.startedAt
	}

	if p.startedAt.After(s.LastCycle) {
		s.LastCycle = p.startedAt
	}

	for _, server := range p.failed {
		s.DirectFailures[server]++
	}

	for _, net := range p.missing {
		server, ok := p.servers[net]
		if !ok {
			server = net
		}

		s.MissingByServer[server]++
	}

	switch {
	case p.aborted:
		s.AbortedCycles++
	case len(p.failed) == 0 && len(p.missing) == 0:
		s.CleanCycles++
	}
}

func (p *resultParser) reset() {
	p.inCycle = false
	p.inWindow = false
	p.routed = false
	p.server = ""
	p.failed = nil
	p.missing = nil
	p.aborted = false
	p.startedAt = time.Time{}
}
