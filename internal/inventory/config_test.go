package inventory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	t.Run("fills defaults", func(t *testing.T) {
		cfg := Config{
			RoutingURL: "http://routing.test",
			StateDir:   t.TempDir(),
		}

		require.NoError(t, cfg.Validate())

		assert.Equal(t, 365*24*time.Hour, cfg.Timespan)
		assert.Equal(t, 120*time.Hour, cfg.CacheMaxAge)
		assert.Equal(t, time.Hour, cfg.RetryWait)
		assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
		assert.Equal(t, 80, cfg.MinNetworkCount)
	})

	t.Run("requires state dir", func(t *testing.T) {
		cfg := Config{RoutingURL: "http://routing.test"}

		assert.Error(t, cfg.Validate())
	})

	t.Run("requires routing url", func(t *testing.T) {
		cfg := Config{StateDir: t.TempDir()}

		assert.Error(t, cfg.Validate())
	})
}
