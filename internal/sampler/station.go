package sampler

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eidaops/eidaqc/internal/fdsn"
	"github.com/eidaops/eidaqc/internal/metrics"
)

// maxDraws bounds the rejection sampling loop. On any sane catalog the loop
// terminates within a handful of draws; the bound turns a pathological
// catalog with nothing selectable into a typed error instead of a hang.
const maxDraws = 10000

// ExhaustedError means rejection sampling gave up without finding an
// acceptable station.
type ExhaustedError struct {
	Attempts int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("no acceptable station after %d draws", e.Attempts)
}

// StationSampler draws stations uniformly at random from a catalog, honoring
// an exclusion list, per-network down-weighting and an operating-now filter.
type StationSampler struct {
	log     logrus.FieldLogger
	exclude map[string]struct{}
	weights map[string]float64
	metrics *metrics.Metrics

	now func() time.Time
	rng *rand.Rand
}

// NewStationSampler creates a sampler. weights maps network codes to
// acceptance probabilities in (0,1); a draw from a listed network is kept
// only with that probability, scaling down the dominance of very large
// networks in a uniform station draw.
func NewStationSampler(log logrus.FieldLogger, exclude []string, weights map[string]float64, m *metrics.Metrics) *StationSampler {
	excluded := make(map[string]struct{}, len(exclude))
	for _, code := range exclude {
		excluded[code] = struct{}{}
	}

	return &StationSampler{
		log:     log.WithField("component", "sampler"),
		exclude: excluded,
		weights: weights,
		metrics: m,
		now:     time.Now,
		rng:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// Pick selects one operating, non-excluded station from the catalog.
func (s *StationSampler) Pick(catalog *fdsn.Catalog) (fdsn.StationID, error) {
	stations := catalog.DistinctStations()
	if len(stations) == 0 {
		return fdsn.StationID{}, errors.New("catalog has no stations")
	}

	now := s.now()

	for attempt := 1; attempt <= maxDraws; attempt++ {
		id := stations[s.rng.IntN(len(stations))]

		if weight, ok := s.weights[id.Network]; ok && s.rng.Float64() > weight {
			continue
		}

		if _, ok := s.exclude[id.Network]; ok {
			continue
		}

		station, ok := catalog.Station(id)
		if !ok || !station.OperatingAt(now) {
			continue
		}

		s.metrics.ObserveSamplerAttempts(attempt)
		s.log.WithFields(logrus.Fields{
			"station":  id.String(),
			"attempts": attempt,
		}).Debug("Selected station")

		return id, nil
	}

	s.metrics.ObserveSamplerAttempts(maxDraws)

	return fdsn.StationID{}, &ExhaustedError{Attempts: maxDraws}
}
