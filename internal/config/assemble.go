package config

import (
	"sort"

	"github.com/eidaops/eidaqc/internal/consistency"
	"github.com/eidaops/eidaqc/internal/fdsn"
	"github.com/eidaops/eidaqc/internal/inventory"
	"github.com/eidaops/eidaqc/internal/probe"
	"github.com/eidaops/eidaqc/internal/redis"
	"github.com/eidaops/eidaqc/internal/report"
)

// The component packages keep plain config structs assembled by their
// caller. The builders below map the validated file sections onto them.

// InventoryConfig assembles the catalog cache settings.
func (c *Config) InventoryConfig() inventory.Config {
	return inventory.Config{
		RoutingURL:             c.Networks.RoutingURL,
		Channels:               c.Networks.WantedChannels,
		Timespan:               c.Networks.Timespan,
		CacheMaxAge:            c.Cache.MaxAge,
		RetryWait:              c.Cache.RetryWait,
		RequestTimeout:         c.Cache.RequestTimeout,
		MinNetworkCount:        c.Cache.MinNetworks,
		ReferenceNetworks:      c.ReferenceNetworkCodes(),
		IgnoreMissingReference: c.Networks.IgnoreMissingReference,
		StateDir:               c.Paths.CacheDir,
	}
}

// ProbeConfig assembles the availability probe settings.
func (c *Config) ProbeConfig() probe.Config {
	return probe.Config{
		RoutingURL:       c.Networks.RoutingURL,
		WantedChannels:   c.Networks.WantedChannels,
		ExcludeNetworks:  c.Networks.Exclude,
		NetworkWeights:   c.Networks.Weights,
		Timespan:         c.Networks.Timespan,
		MinRequestLength: c.Availability.MinRequestLength,
		MaxRequestLength: c.Availability.MaxRequestLength,
		RequestTimeout:   c.Availability.RequestTimeout,
	}
}

// ConsistencyConfig assembles the consistency probe settings.
func (c *Config) ConsistencyConfig() consistency.Config {
	return consistency.Config{
		RoutingURL:       c.Networks.RoutingURL,
		ReferenceServers: c.Networks.Reference,
		Level:            fdsn.Level(c.Consistency.Level),
		Channels:         c.Networks.WantedChannels,
		Timespan:         c.Networks.Timespan,
		RequestTimeout:   c.Consistency.RequestTimeout,
		LogDir:           c.Paths.ConsistencyDir,
		Rotation:         consistency.Rotation(c.Consistency.Rotation),
		BackupCount:      c.Consistency.BackupCount,
	}
}

// ReportConfig assembles the report generation settings.
func (c *Config) ReportConfig() report.Config {
	return report.Config{
		ResultDir:          c.Paths.ResultDir,
		ConsistencyDir:     c.Paths.ConsistencyDir,
		OutputPath:         c.Paths.ReportPath,
		AvailabilityWindow: c.Report.Window,
		RecentWindow:       c.Report.RecentWindow,
		Granularity:        c.Report.Granularity,
		WantedChannels:     c.Networks.WantedChannels,
		ExcludeNetworks:    c.Networks.Exclude,
		ReferenceServers:   c.Networks.Reference,
		WorstStations:      c.Report.WorstStations,
	}
}

// RedisClientConfig assembles the Redis client settings.
func (c *Config) RedisClientConfig() redis.Config {
	return redis.Config{
		Address:      c.Redis.Address,
		Password:     c.Redis.Password,
		DB:           c.Redis.DB,
		DialTimeout:  c.Redis.DialTimeout,
		ReadTimeout:  c.Redis.ReadTimeout,
		WriteTimeout: c.Redis.WriteTimeout,
		PoolSize:     c.Redis.PoolSize,
	}
}

// ReferenceNetworkCodes returns the reference network codes in sorted
// order.
func (c *Config) ReferenceNetworkCodes() []string {
	codes := make([]string, 0, len(c.Networks.Reference))
	for code := range c.Networks.Reference {
		codes = append(codes, code)
	}

	sort.Strings(codes)

	return codes
}
