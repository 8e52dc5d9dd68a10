package consistency

import (
	"errors"
	"fmt"
	"time"

	"github.com/eidaops/eidaqc/internal/fdsn"
)

// Config holds the consistency probe settings. It is assembled by the
// caller from the application configuration.
type Config struct {
	// RoutingURL is the base URL of the routing front-end whose catalog is
	// compared against the member servers.
	RoutingURL string
	// ReferenceServers maps reference network codes to the base URL of the
	// data center serving them. One direct request is made per entry.
	ReferenceServers map[string]string
	// Level is the catalog granularity requested from every endpoint.
	Level fdsn.Level
	// Channels restrict the catalog queries.
	Channels []string
	// Timespan is how far into the past the catalog queries reach.
	Timespan time.Duration
	// RequestTimeout bounds each catalog request. Routed requests fan out
	// behind the scenes, so this is much larger than the probe timeout.
	RequestTimeout time.Duration
	// LogDir is the directory for the rotating result log.
	LogDir string
	// Rotation and BackupCount control result log rotation.
	Rotation    Rotation
	BackupCount int
}

// Validate checks the settings and fills in defaults.
func (c *Config) Validate() error {
	if c.RoutingURL == "" {
		return errors.New("routing URL is required")
	}

	if c.LogDir == "" {
		return errors.New("log directory is required")
	}

	if c.Level == "" {
		c.Level = fdsn.LevelNetwork
	}

	if _, err := fdsn.ParseLevel(string(c.Level)); err != nil {
		return err
	}

	if len(c.Channels) == 0 {
		c.Channels = []string{"HHZ", "BHZ", "EHZ", "SHZ"}
	}

	if c.Timespan == 0 {
		c.Timespan = 365 * 24 * time.Hour
	}

	if c.RequestTimeout == 0 {
		c.RequestTimeout = 240 * time.Second
	}

	if c.Rotation == "" {
		c.Rotation = RotateDaily
	}

	if c.Rotation != RotateDaily && c.Rotation != RotateWeekly {
		return fmt.Errorf("invalid rotation %q (want daily or weekly)", c.Rotation)
	}

	if c.BackupCount == 0 {
		c.BackupCount = 12
	}

	return nil
}
