package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidateFillsDefaults(t *testing.T) {
	cfg := Config{ResultDir: "/var/lib/eidaqc/results", ConsistencyDir: "/var/lib/eidaqc/consistency", OutputPath: "/var/lib/eidaqc/report.md"}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 92*24*time.Hour, cfg.AvailabilityWindow)
	assert.Equal(t, 14*24*time.Hour, cfg.RecentWindow)
	assert.Equal(t, 8*time.Hour, cfg.Granularity)
	assert.Equal(t, []string{"HHZ", "BHZ", "EHZ", "SHZ"}, cfg.WantedChannels)
	assert.Equal(t, 10, cfg.WorstStations)
}

func TestConfigValidateRequiresPaths(t *testing.T) {
	cfg := Config{ConsistencyDir: "/tmp", OutputPath: "/tmp/report.md"}
	assert.ErrorContains(t, cfg.Validate(), "result directory")

	cfg = Config{ResultDir: "/tmp", OutputPath: "/tmp/report.md"}
	assert.ErrorContains(t, cfg.Validate(), "consistency log directory")

	cfg = Config{ResultDir: "/tmp", ConsistencyDir: "/tmp"}
	assert.ErrorContains(t, cfg.Validate(), "output path")
}
