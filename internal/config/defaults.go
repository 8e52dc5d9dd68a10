package config

import (
	"path/filepath"
	"time"
)

// DefaultBaseDir is the stock working directory of the prober.
const DefaultBaseDir = "/var/lib/eidaqc"

// DefaultWantedChannels returns the channel codes probed by default.
func DefaultWantedChannels() []string {
	return []string{"HHZ", "BHZ", "EHZ", "SHZ"}
}

// DefaultExcludedNetworks returns the stock list of temporary and
// non-European networks skipped by the probes.
func DefaultExcludedNetworks() []string {
	return []string{
		"1N", "1T", "3C", "4H", "5M", "7A", "8C", "9C", "9H", "XK", "XN",
		"XT", "XW", "YW", "YZ", "Z3", "ZF", "ZJ", "ZM", "ZS", "AI", "AW",
		"CK", "CN", "CX", "GL", "IO", "IQ", "KC", "KP", "MQ", "NA", "ND",
		"NU", "PF", "WC", "WI",
	}
}

// DefaultNetworkWeights returns the stock acceptance probabilities. The
// Dutch network runs so many stations that it would dominate a uniform
// station draw.
func DefaultNetworkWeights() map[string]float64 {
	return map[string]float64{"NL": 0.5}
}

// DefaultReferenceServers maps the flagship network of each federation
// member to the data center serving it directly.
func DefaultReferenceServers() map[string]string {
	return map[string]string{
		"NL": "https://www.orfeus-eu.org",
		"GE": "https://geofon.gfz-potsdam.de",
		"FR": "https://ws.resif.fr",
		"CH": "https://eida.ethz.ch",
		"GR": "https://eida.bgr.de",
		"BW": "https://erde.geophysik.uni-muenchen.de",
		"RO": "https://eida-sc3.infp.ro",
		"KO": "https://eida.koeri.boun.edu.tr",
		"HL": "https://eida.gein.noa.gr",
		"NO": "http://eida.geo.uib.no",
		"CA": "https://ws.icgc.cat",
		"IV": "https://webservices.ingv.it",
	}
}

// Default returns the stock configuration, the same one Template encodes.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Paths: PathsConfig{
			BaseDir:        DefaultBaseDir,
			ResultDir:      filepath.Join(DefaultBaseDir, "results"),
			ConsistencyDir: filepath.Join(DefaultBaseDir, "consistency"),
			CacheDir:       filepath.Join(DefaultBaseDir, "cache"),
			ReportPath:     filepath.Join(DefaultBaseDir, "eida_report.md"),
			MarkerPath:     filepath.Join(DefaultBaseDir, "eidaqc.run"),
		},
		Networks: NetworksConfig{
			RoutingURL:     DefaultRoutingURL,
			WantedChannels: DefaultWantedChannels(),
			Exclude:        DefaultExcludedNetworks(),
			Weights:        DefaultNetworkWeights(),
			Reference:      DefaultReferenceServers(),
			Timespan:       365 * 24 * time.Hour,
		},
		Cache: CacheConfig{
			MaxAge:         120 * time.Hour,
			RetryWait:      time.Hour,
			RequestTimeout: 60 * time.Second,
			MinNetworks:    80,
		},
		Availability: AvailabilityConfig{
			MinRequestLength: 60 * time.Second,
			MaxRequestLength: 600 * time.Second,
			RequestTimeout:   60 * time.Second,
		},
		Guard: GuardConfig{
			MaxAge: 300 * time.Second,
		},
		Consistency: ConsistencyConfig{
			Level:          "network",
			RequestTimeout: 240 * time.Second,
			Rotation:       "daily",
			BackupCount:    12,
		},
		Report: ReportConfig{
			Window:        92 * 24 * time.Hour,
			RecentWindow:  14 * 24 * time.Hour,
			Granularity:   8 * time.Hour,
			WorstStations: 10,
		},
		Redis: RedisConfig{
			Enabled:      false,
			Address:      "localhost:6379",
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
		},
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8341,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Daemon: DaemonConfig{
			AvailabilityInterval: 5 * time.Minute,
			ConsistencyInterval:  24 * time.Hour,
		},
	}
}
