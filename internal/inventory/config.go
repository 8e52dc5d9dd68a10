package inventory

import (
	"errors"
	"time"
)

// Config holds the catalog cache settings. It is assembled by the caller
// from the application configuration.
type Config struct {
	// RoutingURL is the base URL of the routing front-end answering full
	// catalog queries for the whole federation.
	RoutingURL string
	// Channels restricts catalog queries to these channel codes.
	Channels []string
	// Timespan is how far back the catalog query reaches.
	Timespan time.Duration
	// CacheMaxAge is how old the cached catalog may grow before a refresh
	// is due.
	CacheMaxAge time.Duration
	// RetryWait is how long refreshes are suspended after a failed attempt.
	RetryWait time.Duration
	// RequestTimeout bounds a single catalog request.
	RequestTimeout time.Duration
	// MinNetworkCount is the plausibility threshold for fresh catalogs.
	MinNetworkCount int
	// ReferenceNetworks are the flagship networks expected in any complete
	// catalog, usually the main network of each federation member.
	ReferenceNetworks []string
	// IgnoreMissingReference accepts fresh catalogs even when reference
	// networks are absent.
	IgnoreMissingReference bool
	// StateDir holds the cache file and the retry markers.
	StateDir string
}

// Validate checks the settings and fills in defaults.
func (c *Config) Validate() error {
	if c.StateDir == "" {
		return errors.New("state directory is required")
	}

	if c.RoutingURL == "" {
		return errors.New("routing URL is required")
	}

	if c.Timespan == 0 {
		c.Timespan = 365 * 24 * time.Hour
	}

	if c.CacheMaxAge == 0 {
		c.CacheMaxAge = 120 * time.Hour
	}

	if c.RetryWait == 0 {
		c.RetryWait = time.Hour
	}

	if c.RequestTimeout == 0 {
		c.RequestTimeout = 60 * time.Second
	}

	if c.MinNetworkCount == 0 {
		c.MinNetworkCount = 80
	}

	return nil
}
