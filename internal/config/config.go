//nolint:tagliatelle // superior snake-case yo.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultRoutingURL is the federation-wide entry point answering routed
// station and dataselect queries.
const DefaultRoutingURL = "https://eida-federator.ethz.ch"

// Config represents the complete application configuration.
type Config struct {
	LogLevel     string             `yaml:"log_level"`
	Paths        PathsConfig        `yaml:"paths"`
	Networks     NetworksConfig     `yaml:"networks"`
	Cache        CacheConfig        `yaml:"inventory_cache"`
	Availability AvailabilityConfig `yaml:"availability"`
	Guard        GuardConfig        `yaml:"guard"`
	Consistency  ConsistencyConfig  `yaml:"consistency"`
	Report       ReportConfig       `yaml:"report"`
	Redis        RedisConfig        `yaml:"redis"`
	Server       ServerConfig       `yaml:"server"`
	Daemon       DaemonConfig       `yaml:"daemon"`
}

// PathsConfig locates everything the prober reads and writes. Only the
// base directory is mandatory; the other paths default to locations
// inside it.
type PathsConfig struct {
	BaseDir        string `yaml:"base_dir"`
	ResultDir      string `yaml:"result_dir"`      // availability result logs
	ConsistencyDir string `yaml:"consistency_dir"` // rotating consistency logs
	CacheDir       string `yaml:"cache_dir"`       // inventory cache and retry marker
	ReportPath     string `yaml:"report_path"`     // rendered report
	MarkerPath     string `yaml:"marker_path"`     // single-instance marker
}

// NetworksConfig describes the federation as seen by the prober.
type NetworksConfig struct {
	RoutingURL     string   `yaml:"routing_url"`
	WantedChannels []string `yaml:"wanted_channels"`
	// Exclude lists networks that are never probed, typically temporary
	// or non-European deployments.
	Exclude []string `yaml:"exclude"`
	// Weights maps network codes to acceptance probabilities in (0,1],
	// thinning out very large networks in the station draw.
	Weights map[string]float64 `yaml:"weights"`
	// Reference maps flagship network codes to the base URL of the data
	// center serving them directly.
	Reference              map[string]string `yaml:"reference"`
	IgnoreMissingReference bool              `yaml:"ignore_missing_reference"`
	// Timespan is how far into the past catalog queries and request
	// windows reach.
	Timespan time.Duration `yaml:"timespan"`
}

// CacheConfig holds inventory cache settings.
type CacheConfig struct {
	MaxAge         time.Duration `yaml:"max_age"`    // refresh cached catalogs older than this
	RetryWait      time.Duration `yaml:"retry_wait"` // back off after a failed refresh
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MinNetworks    int           `yaml:"min_networks"` // plausibility floor for fresh catalogs
}

// AvailabilityConfig holds the waveform probe settings.
type AvailabilityConfig struct {
	MinRequestLength time.Duration `yaml:"min_request_length"`
	MaxRequestLength time.Duration `yaml:"max_request_length"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
}

// GuardConfig holds the single-instance guard settings.
type GuardConfig struct {
	// MaxAge is the marker age above which the recorded process counts as
	// wedged and is taken over.
	MaxAge time.Duration `yaml:"max_age"`
}

// ConsistencyConfig holds the catalog consistency probe settings.
type ConsistencyConfig struct {
	Level          string        `yaml:"level"` // network, station or channel
	RequestTimeout time.Duration `yaml:"request_timeout"`
	Rotation       string        `yaml:"rotation"` // daily or weekly
	BackupCount    int           `yaml:"backup_count"`
}

// ReportConfig holds the report generation settings.
type ReportConfig struct {
	Window        time.Duration `yaml:"window"`        // full availability span
	RecentWindow  time.Duration `yaml:"recent_window"` // recent slice, trend and consistency span
	Granularity   time.Duration `yaml:"granularity"`   // trend bin width
	WorstStations int           `yaml:"worst_stations"`
}

// RedisConfig holds the optional result mirror settings.
type RedisConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Address      string        `yaml:"address"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	PoolSize     int           `yaml:"pool_size"`
	// LatestTTL expires the mirrored latest-outcome key. Zero keeps it
	// until the next probe overwrites it.
	LatestTTL time.Duration `yaml:"latest_ttl"`
}

// ServerConfig contains the ops HTTP server settings used in daemon mode.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DaemonConfig holds the probe scheduling intervals of daemon mode.
type DaemonConfig struct {
	AvailabilityInterval time.Duration `yaml:"availability_interval"`
	ConsistencyInterval  time.Duration `yaml:"consistency_interval"`
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration and fills in defaults.
func (c *Config) Validate() error {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	if err := c.Paths.Validate(); err != nil {
		return fmt.Errorf("paths: %w", err)
	}

	if err := c.Networks.Validate(); err != nil {
		return fmt.Errorf("networks: %w", err)
	}

	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("inventory_cache: %w", err)
	}

	if err := c.Availability.Validate(); err != nil {
		return fmt.Errorf("availability: %w", err)
	}

	if err := c.Guard.Validate(); err != nil {
		return fmt.Errorf("guard: %w", err)
	}

	if err := c.Consistency.Validate(); err != nil {
		return fmt.Errorf("consistency: %w", err)
	}

	if err := c.Report.Validate(); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	if err := c.Redis.Validate(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	if err := c.Daemon.Validate(); err != nil {
		return fmt.Errorf("daemon: %w", err)
	}

	return nil
}

// Validate validates the path configuration and derives the unset paths
// from the base directory.
func (c *PathsConfig) Validate() error {
	if c.BaseDir == "" {
		return fmt.Errorf("base_dir is required")
	}

	if c.ResultDir == "" {
		c.ResultDir = filepath.Join(c.BaseDir, "results")
	}

	if c.ConsistencyDir == "" {
		c.ConsistencyDir = filepath.Join(c.BaseDir, "consistency")
	}

	if c.CacheDir == "" {
		c.CacheDir = filepath.Join(c.BaseDir, "cache")
	}

	if c.ReportPath == "" {
		c.ReportPath = filepath.Join(c.BaseDir, "eida_report.md")
	}

	if c.MarkerPath == "" {
		c.MarkerPath = filepath.Join(c.BaseDir, "eidaqc.run")
	}

	return nil
}

// Validate validates the network configuration and sets defaults.
func (c *NetworksConfig) Validate() error {
	// Set defaults
	if c.RoutingURL == "" {
		c.RoutingURL = DefaultRoutingURL
	}

	if len(c.WantedChannels) == 0 {
		c.WantedChannels = DefaultWantedChannels()
	}

	if c.Exclude == nil {
		c.Exclude = DefaultExcludedNetworks()
	}

	if c.Weights == nil {
		c.Weights = DefaultNetworkWeights()
	}

	if c.Reference == nil {
		c.Reference = DefaultReferenceServers()
	}

	if c.Timespan == 0 {
		c.Timespan = 365 * 24 * time.Hour
	}

	// Validate values
	if _, err := url.Parse(c.RoutingURL); err != nil {
		return fmt.Errorf("invalid routing_url: %w", err)
	}

	for network, weight := range c.Weights {
		if weight <= 0 || weight > 1 {
			return fmt.Errorf("weight for network %s must be in (0,1], got %v", network, weight)
		}
	}

	for network, server := range c.Reference {
		if server == "" {
			return fmt.Errorf("reference server for network %s cannot be empty", network)
		}
	}

	if c.Timespan < 24*time.Hour {
		return fmt.Errorf("timespan must be at least 1 day, got %v", c.Timespan)
	}

	return nil
}

// Validate validates the cache configuration and sets defaults.
func (c *CacheConfig) Validate() error {
	// Set defaults
	if c.MaxAge == 0 {
		c.MaxAge = 120 * time.Hour
	}

	if c.RetryWait == 0 {
		c.RetryWait = time.Hour
	}

	if c.RequestTimeout == 0 {
		c.RequestTimeout = 60 * time.Second
	}

	if c.MinNetworks == 0 {
		c.MinNetworks = 80
	}

	// Validate ranges
	if c.MaxAge < time.Minute {
		return fmt.Errorf("max_age must be at least 1 minute, got %v", c.MaxAge)
	}

	if c.MinNetworks < 1 {
		return fmt.Errorf("min_networks must be positive, got %d", c.MinNetworks)
	}

	return nil
}

// Validate validates the availability probe configuration and sets
// defaults.
func (c *AvailabilityConfig) Validate() error {
	// Set defaults
	if c.MinRequestLength == 0 {
		c.MinRequestLength = 60 * time.Second
	}

	if c.MaxRequestLength == 0 {
		c.MaxRequestLength = 600 * time.Second
	}

	if c.RequestTimeout == 0 {
		c.RequestTimeout = 60 * time.Second
	}

	// Validate ranges
	if c.MinRequestLength < time.Second {
		return fmt.Errorf("min_request_length must be at least 1 second, got %v", c.MinRequestLength)
	}

	if c.MaxRequestLength < c.MinRequestLength {
		return fmt.Errorf("max_request_length must not be below min_request_length")
	}

	if c.RequestTimeout < time.Second {
		return fmt.Errorf("request_timeout must be at least 1 second, got %v", c.RequestTimeout)
	}

	return nil
}

// Validate validates the guard configuration and sets defaults.
func (c *GuardConfig) Validate() error {
	if c.MaxAge == 0 {
		c.MaxAge = 300 * time.Second
	}

	if c.MaxAge < time.Second {
		return fmt.Errorf("max_age must be at least 1 second, got %v", c.MaxAge)
	}

	return nil
}

// Validate validates the consistency probe configuration and sets
// defaults.
func (c *ConsistencyConfig) Validate() error {
	// Set defaults
	if c.Level == "" {
		c.Level = "network"
	}

	if c.RequestTimeout == 0 {
		c.RequestTimeout = 240 * time.Second
	}

	if c.Rotation == "" {
		c.Rotation = "daily"
	}

	if c.BackupCount == 0 {
		c.BackupCount = 12
	}

	// Validate values
	if c.Level != "network" && c.Level != "station" && c.Level != "channel" {
		return fmt.Errorf("invalid level: %s", c.Level)
	}

	if c.Rotation != "daily" && c.Rotation != "weekly" {
		return fmt.Errorf("invalid rotation: %s", c.Rotation)
	}

	if c.BackupCount < 1 {
		return fmt.Errorf("backup_count must be positive, got %d", c.BackupCount)
	}

	return nil
}

// Validate validates the report configuration and sets defaults.
func (c *ReportConfig) Validate() error {
	// Set defaults
	if c.Window == 0 {
		c.Window = 92 * 24 * time.Hour
	}

	if c.RecentWindow == 0 {
		c.RecentWindow = 14 * 24 * time.Hour
	}

	if c.Granularity == 0 {
		c.Granularity = 8 * time.Hour
	}

	if c.WorstStations == 0 {
		c.WorstStations = 10
	}

	// Validate ranges
	if c.RecentWindow > c.Window {
		return fmt.Errorf("recent_window must not exceed window")
	}

	if c.Granularity < time.Minute {
		return fmt.Errorf("granularity must be at least 1 minute, got %v", c.Granularity)
	}

	if c.WorstStations < 1 {
		return fmt.Errorf("worst_stations must be positive, got %d", c.WorstStations)
	}

	return nil
}

// Validate validates the Redis configuration and sets defaults. A
// disabled mirror needs no further settings.
func (c *RedisConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.Address == "" {
		return fmt.Errorf("address is required when enabled")
	}

	if c.DialTimeout == 0 {
		c.DialTimeout = 5 * time.Second
	}

	if c.ReadTimeout == 0 {
		c.ReadTimeout = 3 * time.Second
	}

	if c.WriteTimeout == 0 {
		c.WriteTimeout = 3 * time.Second
	}

	if c.PoolSize == 0 {
		c.PoolSize = 10
	}

	return nil
}

// Validate validates the server configuration and sets defaults.
func (c *ServerConfig) Validate() error {
	// Set defaults
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}

	if c.Port == 0 {
		c.Port = 8341
	}

	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15 * time.Second
	}

	if c.WriteTimeout == 0 {
		c.WriteTimeout = 30 * time.Second
	}

	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}

	// Validate ranges
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Port)
	}

	return nil
}

// Validate validates the daemon configuration and sets defaults.
func (c *DaemonConfig) Validate() error {
	// Set defaults
	if c.AvailabilityInterval == 0 {
		c.AvailabilityInterval = 5 * time.Minute
	}

	if c.ConsistencyInterval == 0 {
		c.ConsistencyInterval = 24 * time.Hour
	}

	// Validate ranges
	if c.AvailabilityInterval < 30*time.Second {
		return fmt.Errorf("availability_interval must be at least 30 seconds, got %v", c.AvailabilityInterval)
	}

	if c.ConsistencyInterval < 10*time.Minute {
		return fmt.Errorf("consistency_interval must be at least 10 minutes, got %v", c.ConsistencyInterval)
	}

	return nil
}
