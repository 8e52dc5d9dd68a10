package probe

import (
	"errors"
	"time"
)

// Config holds the availability probe settings. It is assembled by the
// caller from the application configuration.
type Config struct {
	// RoutingURL is the base URL of the routing front-end answering station
	// metadata and waveform requests for the whole federation.
	RoutingURL string
	// WantedChannels are the channel codes worth probing. Matching is on
	// the band and instrument letters, so HHZ also admits HHN and HHE.
	WantedChannels []string
	// ExcludeNetworks are never probed.
	ExcludeNetworks []string
	// NetworkWeights maps network codes to acceptance probabilities in
	// (0,1), thinning out very large networks in the station draw.
	NetworkWeights map[string]float64
	// Timespan is how far into the past request windows may reach.
	Timespan time.Duration
	// MinRequestLength and MaxRequestLength bound the drawn window length.
	MinRequestLength time.Duration
	MaxRequestLength time.Duration
	// RequestTimeout bounds each metadata and waveform request.
	RequestTimeout time.Duration
}

// Validate checks the settings and fills in defaults.
func (c *Config) Validate() error {
	if c.RoutingURL == "" {
		return errors.New("routing URL is required")
	}

	if len(c.WantedChannels) == 0 {
		c.WantedChannels = []string{"HHZ", "BHZ", "EHZ", "SHZ"}
	}

	if c.Timespan == 0 {
		c.Timespan = 365 * 24 * time.Hour
	}

	if c.MinRequestLength == 0 {
		c.MinRequestLength = 60 * time.Second
	}

	if c.MaxRequestLength == 0 {
		c.MaxRequestLength = 600 * time.Second
	}

	if c.MaxRequestLength < c.MinRequestLength {
		return errors.New("max request length must not be below min request length")
	}

	if c.RequestTimeout == 0 {
		c.RequestTimeout = 60 * time.Second
	}

	return nil
}
