package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/eidaops/eidaqc/internal/redis"
	"github.com/eidaops/eidaqc/internal/redis/mocks"
	"github.com/eidaops/eidaqc/internal/status"
)

func TestMirrorPublish(t *testing.T) {
	ctrl := gomock.NewController(t)
	rds := mocks.NewMockClient(ctrl)

	outcome := Outcome{
		Cycle:    "c-1",
		Station:  "GR.BFO",
		Channel:  "GR.BFO..HHZ",
		Status:   status.OK,
		LoggedAt: testTime,
	}

	rds.EXPECT().
		Set(gomock.Any(), "eidaqc:probe:latest", gomock.Any(), 5*time.Minute).
		DoAndReturn(func(_ context.Context, _ string, value interface{}, _ time.Duration) error {
			var stored Outcome
			require.NoError(t, json.Unmarshal([]byte(value.(string)), &stored))
			assert.Equal(t, outcome, stored)

			return nil
		})
	rds.EXPECT().
		Incr(gomock.Any(), "eidaqc:probe:count:OK").
		Return(int64(4), nil)

	mirror := NewMirror(testLogger(), rds, 5*time.Minute)
	mirror.Publish(context.Background(), outcome)
}

func TestMirrorPublishToleratesRedisErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	rds := mocks.NewMockClient(ctrl)

	rds.EXPECT().
		Set(gomock.Any(), "eidaqc:probe:latest", gomock.Any(), time.Minute).
		Return(errors.New("connection reset"))
	rds.EXPECT().
		Incr(gomock.Any(), "eidaqc:probe:count:NODATA").
		Return(int64(0), errors.New("connection reset"))

	mirror := NewMirror(testLogger(), rds, time.Minute)
	mirror.Publish(context.Background(), Outcome{Status: status.NoData, LoggedAt: testTime})
}

// mirrorOver builds a mirror whose Get calls answer from the given map and
// miss for every other key.
func mirrorOver(t *testing.T, values map[string]string) *Mirror {
	t.Helper()

	ctrl := gomock.NewController(t)
	rds := mocks.NewMockClient(ctrl)

	rds.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, key string) (string, error) {
			val, ok := values[key]
			if !ok {
				return "", fmt.Errorf("%w: %s", redis.ErrKeyNotFound, key)
			}

			return val, nil
		}).
		AnyTimes()

	return NewMirror(testLogger(), rds, time.Minute)
}

func TestMirrorSnapshot(t *testing.T) {
	mirror := mirrorOver(t, map[string]string{
		"eidaqc:probe:latest":       `{"cycle":"c-9","station":"GR.BFO","channel":"GR.BFO..HHZ","status":"OK","logged_at":"2026-03-01T06:00:00Z"}`,
		"eidaqc:probe:count:OK":     "12",
		"eidaqc:probe:count:NODATA": "3",
		"eidaqc:probe:count:NOSERV": "1",
	})

	snapshot, err := mirror.Snapshot(context.Background())
	require.NoError(t, err)

	require.NotNil(t, snapshot.Latest)
	assert.Equal(t, "c-9", snapshot.Latest.Cycle)
	assert.Equal(t, "GR.BFO", snapshot.Latest.Station)
	assert.Equal(t, status.OK, snapshot.Latest.Status)
	assert.Equal(t, testTime, snapshot.Latest.LoggedAt)

	assert.Equal(t, map[status.Code]int64{
		status.OK:     12,
		status.NoData: 3,
		status.NoServ: 1,
	}, snapshot.Counts)
}

func TestMirrorSnapshotEmptyMirror(t *testing.T) {
	mirror := mirrorOver(t, nil)

	snapshot, err := mirror.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Nil(t, snapshot.Latest)
	assert.Empty(t, snapshot.Counts)
}

func TestMirrorSnapshotCorruptLatest(t *testing.T) {
	mirror := mirrorOver(t, map[string]string{"eidaqc:probe:latest": "not json"})

	_, err := mirror.Snapshot(context.Background())
	assert.ErrorContains(t, err, "decode latest outcome")
}
