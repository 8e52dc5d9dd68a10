package testutil

import (
	"testing"

	"github.com/eidaops/eidaqc/internal/config"
)

// NewTestConfig returns a validated config rooted in a per-test temp
// directory.
func NewTestConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := &config.Config{
		Paths: config.PathsConfig{BaseDir: t.TempDir()},
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config does not validate: %v", err)
	}

	return cfg
}
