package report

import (
	"errors"
	"time"
)

// Config holds the report settings. It is assembled by the caller from the
// application configuration.
type Config struct {
	// ResultDir is the root of the availability result tree.
	ResultDir string
	// ConsistencyDir is the directory of the rotating consistency log.
	ConsistencyDir string
	// OutputPath is the Markdown file to write.
	OutputPath string
	// AvailabilityWindow is the full availability span; RecentWindow is the
	// short span used for the recent slice, the trend table and the
	// consistency section.
	AvailabilityWindow time.Duration
	RecentWindow       time.Duration
	// Granularity is the bin width of the availability trend table.
	Granularity time.Duration
	// WantedChannels and ExcludeNetworks mirror the probe settings, used
	// for the station counters.
	WantedChannels  []string
	ExcludeNetworks []string
	// ReferenceServers translates reference networks to the server
	// responsible for them in the consistency section.
	ReferenceServers map[string]string
	// WorstStations is how many of the least available stations to list.
	WorstStations int
}

// Validate checks the settings and fills in defaults.
func (c *Config) Validate() error {
	if c.ResultDir == "" {
		return errors.New("result directory is required")
	}

	if c.ConsistencyDir == "" {
		return errors.New("consistency log directory is required")
	}

	if c.OutputPath == "" {
		return errors.New("output path is required")
	}

	if c.AvailabilityWindow == 0 {
		c.AvailabilityWindow = 92 * 24 * time.Hour
	}

	if c.RecentWindow == 0 {
		c.RecentWindow = 14 * 24 * time.Hour
	}

	if c.Granularity == 0 {
		c.Granularity = 8 * time.Hour
	}

	if len(c.WantedChannels) == 0 {
		c.WantedChannels = []string{"HHZ", "BHZ", "EHZ", "SHZ"}
	}

	if c.WorstStations == 0 {
		c.WorstStations = 10
	}

	return nil
}
