package probe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidateFillsDefaults(t *testing.T) {
	cfg := Config{RoutingURL: "http://routing.test"}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []string{"HHZ", "BHZ", "EHZ", "SHZ"}, cfg.WantedChannels)
	assert.Equal(t, 365*24*time.Hour, cfg.Timespan)
	assert.Equal(t, time.Minute, cfg.MinRequestLength)
	assert.Equal(t, 10*time.Minute, cfg.MaxRequestLength)
	assert.Equal(t, time.Minute, cfg.RequestTimeout)
}

func TestConfigValidateRequiresRoutingURL(t *testing.T) {
	cfg := Config{}
	assert.ErrorContains(t, cfg.Validate(), "routing URL")
}

func TestConfigValidateRejectsInvertedLengths(t *testing.T) {
	cfg := Config{
		RoutingURL:       "http://routing.test",
		MinRequestLength: 10 * time.Minute,
		MaxRequestLength: time.Minute,
	}
	assert.ErrorContains(t, cfg.Validate(), "request length")
}
