package consistency

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/eidaops/eidaqc/internal/fdsn"
	"github.com/eidaops/eidaqc/internal/fdsn/mocks"
	"github.com/eidaops/eidaqc/internal/metrics"
	"github.com/eidaops/eidaqc/internal/redis"
	redismocks "github.com/eidaops/eidaqc/internal/redis/mocks"
)

var testTime = time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return log
}

type fixture struct {
	svc    *Service
	client *mocks.MockClient
	dir    string
}

func newTestService(t *testing.T, servers map[string]string, rds redis.Client) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)

	dir := t.TempDir()

	svc, err := New(testLogger(), Config{
		RoutingURL:       "http://routing.test",
		ReferenceServers: servers,
		LogDir:           dir,
	}, client, rds, metrics.New(prometheus.NewRegistry()))
	require.NoError(t, err)

	svc.now = func() time.Time { return testTime }
	svc.results.now = svc.now

	t.Cleanup(func() { svc.Close() })

	return &fixture{svc: svc, client: client, dir: dir}
}

func catalogOf(codes ...string) *fdsn.Catalog {
	catalog := &fdsn.Catalog{}
	for _, code := range codes {
		catalog.Networks = append(catalog.Networks, &fdsn.Network{Code: code})
	}

	return catalog
}

func readResultLog(t *testing.T, dir string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(dir, resultFileName))
	require.NoError(t, err)

	return string(data)
}

func TestRunOnceComputesSetDifferences(t *testing.T) {
	f := newTestService(t, map[string]string{
		"GE": "http://geofon.test",
		"GR": "http://bgr.test",
	}, nil)

	f.client.EXPECT().
		Catalog(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req fdsn.CatalogRequest) (*fdsn.Catalog, error) {
			assert.Equal(t, fdsn.LevelNetwork, req.Level)
			assert.Equal(t, []string{"HHZ", "BHZ", "EHZ", "SHZ"}, req.Channels)
			assert.False(t, req.IncludeRestricted)
			assert.True(t, req.End.Equal(testTime))

			switch req.BaseURL {
			case "http://geofon.test":
				return catalogOf("GE", "NL"), nil
			case "http://bgr.test":
				return catalogOf("GR"), nil
			case "http://routing.test":
				return catalogOf("FR", "GE", "NL"), nil
			default:
				return nil, errors.New("unexpected base URL " + req.BaseURL)
			}
		}).
		Times(3)

	summary, err := f.svc.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"FR", "GE", "NL"}, summary.RoutedNetworks)
	assert.Equal(t, []string{"GE", "GR", "NL"}, summary.DirectNetworks)
	assert.Equal(t, []string{"GR"}, summary.MissingReference)
	assert.Equal(t, []string{"FR"}, summary.RoutedOnly)
	assert.Equal(t, []string{"GR"}, summary.DirectOnly)
	assert.Empty(t, summary.FailedServers)

	content := readResultLog(t, f.dir)
	assert.Contains(t, content, "consistency test started at 01-Mar-2026_06:00:00, level network")
	assert.Contains(t, content, "    reading inventory from server http://geofon.test")
	assert.Contains(t, content, "    reading inventory from server http://bgr.test")
	assert.Contains(t, content, "    reading inventory from routing client")
	assert.Contains(t, content, "missing reference networks: GR")
	assert.Contains(t, content, "rnets (3) FR, GE, NL")
	assert.Contains(t, content, "snets (3) GE, GR, NL")
	assert.Contains(t, content, "rnets-snets FR")
	assert.Contains(t, content, "snets-rnets GR")
	assert.Contains(t, content, "runtime 0.0s")
	assert.Contains(t, content, separator)
}

func TestRunOnceContinuesPastServerFailure(t *testing.T) {
	f := newTestService(t, map[string]string{
		"GE": "http://geofon.test",
		"GR": "http://bgr.test",
	}, nil)

	f.client.EXPECT().
		Catalog(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req fdsn.CatalogRequest) (*fdsn.Catalog, error) {
			switch req.BaseURL {
			case "http://geofon.test":
				return nil, errors.New("connect timeout")
			case "http://bgr.test":
				return catalogOf("GR"), nil
			default:
				return catalogOf("GE", "GR"), nil
			}
		}).
		Times(3)

	summary, err := f.svc.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"http://geofon.test"}, summary.FailedServers)
	assert.Equal(t, []string{"GR"}, summary.DirectNetworks)
	assert.Equal(t, []string{"GE"}, summary.RoutedOnly)

	content := readResultLog(t, f.dir)
	assert.Contains(t, content, "        FAILED: connect timeout")
	assert.Contains(t, content, "rnets (2) GE, GR")
}

func TestRunOnceAbortsWithoutRoutedResult(t *testing.T) {
	f := newTestService(t, map[string]string{"GE": "http://geofon.test"}, nil)

	f.client.EXPECT().
		Catalog(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req fdsn.CatalogRequest) (*fdsn.Catalog, error) {
			if req.BaseURL == "http://geofon.test" {
				return catalogOf("GE"), nil
			}

			return nil, errors.New("all routes down")
		}).
		Times(2)

	summary, err := f.svc.RunOnce(context.Background())
	require.Error(t, err)
	assert.Nil(t, summary)
	assert.Contains(t, err.Error(), "no routed result")

	content := readResultLog(t, f.dir)
	assert.Contains(t, content, "        FAILED: all routes down")
	assert.Contains(t, content, "        no routed result, aborting")
	assert.Contains(t, content, separator)
}

func TestRunOncePublishesSummary(t *testing.T) {
	ctrl := gomock.NewController(t)
	rds := redismocks.NewMockClient(ctrl)

	rds.EXPECT().
		Set(gomock.Any(), "eidaqc:consistency:latest", gomock.Any(), time.Duration(0)).
		DoAndReturn(func(_ context.Context, _ string, value interface{}, _ time.Duration) error {
			var stored Summary
			require.NoError(t, json.Unmarshal([]byte(value.(string)), &stored))
			assert.Equal(t, []string{"GE"}, stored.RoutedNetworks)
			assert.Empty(t, stored.MissingReference)

			return nil
		})

	f := newTestService(t, map[string]string{"GE": "http://geofon.test"}, rds)

	f.client.EXPECT().
		Catalog(gomock.Any(), gomock.Any()).
		Return(catalogOf("GE"), nil).
		Times(2)

	_, err := f.svc.RunOnce(context.Background())
	require.NoError(t, err)
}
