package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eidaops/eidaqc/internal/fdsn"
)

func TestConfig_ComponentAssembly(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	inv := cfg.InventoryConfig()
	assert.Equal(t, cfg.Networks.RoutingURL, inv.RoutingURL)
	assert.Equal(t, cfg.Paths.CacheDir, inv.StateDir)
	assert.Equal(t, cfg.Cache.MaxAge, inv.CacheMaxAge)
	assert.Equal(t, cfg.Cache.MinNetworks, inv.MinNetworkCount)
	assert.Equal(t, cfg.Networks.WantedChannels, inv.Channels)
	assert.Len(t, inv.ReferenceNetworks, 12)

	probeCfg := cfg.ProbeConfig()
	assert.Equal(t, cfg.Networks.RoutingURL, probeCfg.RoutingURL)
	assert.Equal(t, cfg.Networks.Exclude, probeCfg.ExcludeNetworks)
	assert.Equal(t, cfg.Networks.Weights, probeCfg.NetworkWeights)
	assert.Equal(t, cfg.Availability.MinRequestLength, probeCfg.MinRequestLength)
	assert.Equal(t, cfg.Availability.MaxRequestLength, probeCfg.MaxRequestLength)

	consCfg := cfg.ConsistencyConfig()
	assert.Equal(t, fdsn.LevelNetwork, consCfg.Level)
	assert.Equal(t, cfg.Networks.Reference, consCfg.ReferenceServers)
	assert.Equal(t, cfg.Paths.ConsistencyDir, consCfg.LogDir)
	assert.Equal(t, cfg.Consistency.RequestTimeout, consCfg.RequestTimeout)
	assert.Equal(t, 12, consCfg.BackupCount)

	repCfg := cfg.ReportConfig()
	assert.Equal(t, cfg.Paths.ResultDir, repCfg.ResultDir)
	assert.Equal(t, cfg.Paths.ConsistencyDir, repCfg.ConsistencyDir)
	assert.Equal(t, cfg.Paths.ReportPath, repCfg.OutputPath)
	assert.Equal(t, cfg.Report.Window, repCfg.AvailabilityWindow)
	assert.Equal(t, cfg.Report.RecentWindow, repCfg.RecentWindow)

	redisCfg := cfg.RedisClientConfig()
	assert.Equal(t, cfg.Redis.Address, redisCfg.Address)
	assert.Equal(t, cfg.Redis.PoolSize, redisCfg.PoolSize)
}

func TestConfig_ReferenceNetworkCodes(t *testing.T) {
	cfg := &Config{
		Networks: NetworksConfig{
			Reference: map[string]string{
				"NL": "https://www.orfeus-eu.org",
				"GE": "https://geofon.gfz-potsdam.de",
				"CH": "https://eida.ethz.ch",
			},
		},
	}

	assert.Equal(t, []string{"CH", "GE", "NL"}, cfg.ReferenceNetworkCodes())
}
