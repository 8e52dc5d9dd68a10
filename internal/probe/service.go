package probe

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/eidaops/eidaqc/internal/fdsn"
	"github.com/eidaops/eidaqc/internal/inventory"
	"github.com/eidaops/eidaqc/internal/metrics"
	"github.com/eidaops/eidaqc/internal/mseed"
	"github.com/eidaops/eidaqc/internal/resultlog"
	"github.com/eidaops/eidaqc/internal/sampler"
	"github.com/eidaops/eidaqc/internal/status"
)

// minDurationRatio is the fraction of the requested window that must be
// covered by returned samples. Some data centers deliver marginally short
// windows, so a single missing sample must not count as incomplete.
const minDurationRatio = 0.99

// Service runs availability probe cycles: one random station, one random
// historical window, one waveform, one verdict.
type Service struct {
	log      logrus.FieldLogger
	cfg      Config
	catalog  inventory.Provider
	client   fdsn.Client
	stations *sampler.StationSampler
	windows  *sampler.WindowPicker
	results  *resultlog.Log
	mirror   *Mirror
	metrics  *metrics.Metrics

	now func() time.Time
	rng *rand.Rand
}

// New creates the availability probe. mirror may be nil when no Redis
// mirror is configured.
func New(
	log logrus.FieldLogger,
	cfg Config,
	catalog inventory.Provider,
	client fdsn.Client,
	results *resultlog.Log,
	mirror *Mirror,
	m *metrics.Metrics,
) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid probe config: %w", err)
	}

	return &Service{
		log:      log.WithField("component", "probe"),
		cfg:      cfg,
		catalog:  catalog,
		client:   client,
		stations: sampler.NewStationSampler(log, cfg.ExcludeNetworks, cfg.NetworkWeights, m),
		windows:  sampler.NewWindowPicker(cfg.MinRequestLength, cfg.MaxRequestLength),
		results:  results,
		mirror:   mirror,
		metrics:  m,
		now:      time.Now,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}, nil
}

// RunOnce executes one probe cycle: draw a station and a request window,
// fetch the station's response-level metadata, pick one matching channel,
// fetch its waveform and classify the outcome into the result log. An empty
// returned code means the cycle ended without an outcome, which happens for
// stations that are closed in the chosen window and is not an error.
func (s *Service) RunOnce(ctx context.Context, forceCache bool) (status.Code, error) {
	started := s.now()
	cycle := uuid.NewString()
	log := s.log.WithField("cycle", cycle)

	catalog, err := s.catalog.GetCatalog(ctx, forceCache)
	if err != nil {
		return "", fmt.Errorf("no catalog for probe: %w", err)
	}

	station, err := s.stations.Pick(catalog)
	if err != nil {
		return "", fmt.Errorf("station selection failed: %w", err)
	}

	window, err := s.windows.Pick(started.Add(-s.cfg.Timespan), started)
	if err != nil {
		return "", fmt.Errorf("window selection failed: %w", err)
	}

	log = log.WithFields(logrus.Fields{
		"station":      station.String(),
		"window_start": window.Start.UTC().Format(time.RFC3339),
		"length":       window.Duration(),
	})

	meta, metaLatency, err := s.fetchMeta(ctx, station, window)
	if err != nil {
		log.WithError(err).Warn("Station metadata request failed")

		record := resultlog.Record{
			LoggedAt:    s.now(),
			Status:      status.NoServ,
			WindowStart: window.Start,
			WindowEnd:   window.End,
			Failure:     err.Error(),
		}

		return status.NoServ, s.finish(ctx, log, cycle, station, record, started)
	}

	if len(meta.Channels) == 0 {
		// Catalogs list stations that can be closed in the randomly chosen
		// window. Nothing to probe, nothing to record.
		log.Debug("Station has no channel epochs in the window")

		return "", nil
	}

	candidates := matchingChannels(meta.Channels, s.cfg.WantedChannels)
	if len(candidates) == 0 {
		log.WithField("channels", channelCodes(meta)).Warn("Channel selection failed")

		return "", nil
	}

	channel := candidates[s.rng.IntN(len(candidates))]
	sourceID := meta.SourceID(channel)
	log = log.WithField("channel", sourceID)

	traces, waveLatency := s.fetchWaveform(ctx, log, meta, channel, window)

	code := s.classify(log, traces, channel, window)

	record := resultlog.Record{
		LoggedAt:    s.now(),
		Status:      code,
		WindowStart: window.Start,
		WindowEnd:   window.End,
		Channel:     sourceID,
		MetaLatency: &metaLatency,
		WaveLatency: waveLatency,
	}

	return code, s.finish(ctx, log, cycle, station, record, started)
}

// fetchMeta retrieves response-level metadata for the station, measuring
// the request latency.
func (s *Service) fetchMeta(ctx context.Context, station fdsn.StationID, window sampler.Window) (*fdsn.StationMeta, time.Duration, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	started := time.Now()

	meta, err := s.client.StationMeta(reqCtx, fdsn.StationMetaRequest{
		BaseURL: s.cfg.RoutingURL,
		Network: station.Network,
		Station: station.Station,
		Start:   window.Start,
		End:     window.End,
	})
	if err != nil {
		return nil, 0, err
	}

	return meta, time.Since(started), nil
}

// fetchWaveform retrieves the channel's samples for the window. A transport
// failure is not fatal; it classifies as missing data, with no latency.
func (s *Service) fetchWaveform(
	ctx context.Context,
	log logrus.FieldLogger,
	meta *fdsn.StationMeta,
	channel fdsn.ChannelEpoch,
	window sampler.Window,
) ([]mseed.Trace, *time.Duration) {
	reqCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	started := time.Now()

	traces, err := s.client.Waveform(reqCtx, fdsn.WaveformRequest{
		BaseURL:  s.cfg.RoutingURL,
		Network:  meta.Network,
		Station:  meta.Station,
		Location: channel.Location,
		Channel:  channel.Code,
		Start:    window.Start,
		End:      window.End,
	})
	if err != nil {
		log.WithError(err).Warn("Waveform request failed")

		return nil, nil
	}

	latency := time.Since(started)

	return traces, &latency
}

// classify turns the waveform outcome into a status code: nothing, too many
// fragments, too short, unusable response metadata, invalid samples, or OK.
func (s *Service) classify(log logrus.FieldLogger, traces []mseed.Trace, channel fdsn.ChannelEpoch, window sampler.Window) status.Code {
	if len(traces) == 0 {
		return status.NoData
	}

	if len(traces) > 1 {
		return status.Fragment
	}

	trimmed := traces[0].Trim(window.Start, window.End)

	requested := window.Duration().Seconds()

	received := 0.0
	if trimmed.SampleRate > 0 {
		received = float64(len(trimmed.Samples)) / trimmed.SampleRate
	}

	if requested <= 0 || received/requested < minDurationRatio {
		log.WithFields(logrus.Fields{
			"received":  fmt.Sprintf("%.2fs", received),
			"requested": fmt.Sprintf("%.2fs", requested),
		}).Warn("Incomplete waveform")

		return status.Incomplete
	}

	restituted, err := restitute(trimmed.Samples, channel)
	if err != nil {
		log.WithError(err).Debug("Response removal failed")

		return status.RestFail
	}

	if math.IsNaN(restituted[0]) {
		return status.MetaFail
	}

	return status.OK
}

// restitute converts raw counts to ground motion units by dividing out the
// channel's overall sensitivity.
func restitute(samples []float64, channel fdsn.ChannelEpoch) ([]float64, error) {
	sensitivity := channel.Sensitivity
	if sensitivity == 0 || math.IsNaN(sensitivity) || math.IsInf(sensitivity, 0) {
		return nil, fmt.Errorf("channel has no usable sensitivity (%v)", sensitivity)
	}

	out := make([]float64, len(samples))
	for i, v := range samples {
		out[i] = v / sensitivity
	}

	return out, nil
}

// finish records the cycle outcome in the result log, the metrics and the
// optional Redis mirror.
func (s *Service) finish(
	ctx context.Context,
	log logrus.FieldLogger,
	cycle string,
	station fdsn.StationID,
	record resultlog.Record,
	started time.Time,
) error {
	elapsed := s.now().Sub(started)

	s.metrics.ObserveProbe(string(record.Status), elapsed.Seconds())

	if s.mirror != nil {
		s.mirror.Publish(ctx, Outcome{
			Cycle:    cycle,
			Station:  station.String(),
			Channel:  record.Channel,
			Status:   record.Status,
			LoggedAt: record.LoggedAt,
		})
	}

	log.WithFields(logrus.Fields{
		"status":   record.Status,
		"duration": elapsed.Round(time.Millisecond),
	}).Info("Probe cycle finished")

	if err := s.results.Append(station, record); err != nil {
		return fmt.Errorf("append result: %w", err)
	}

	return nil
}

// matchingChannels returns the distinct channels whose band and instrument
// letters match a wanted channel code. The component letter is deliberately
// not compared.
func matchingChannels(channels []fdsn.ChannelEpoch, wanted []string) []fdsn.ChannelEpoch {
	prefixes := make(map[string]struct{}, len(wanted))

	for _, code := range wanted {
		if len(code) >= 2 {
			prefixes[code[:2]] = struct{}{}
		}
	}

	var matches []fdsn.ChannelEpoch

	seen := make(map[string]struct{})

	for _, ch := range channels {
		if _, ok := prefixes[ch.BandInstrument()]; !ok {
			continue
		}

		key := ch.Location + "." + ch.Code
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}

		matches = append(matches, ch)
	}

	return matches
}

// channelCodes lists a station's channel identifiers for log messages.
func channelCodes(meta *fdsn.StationMeta) []string {
	codes := make([]string, 0, len(meta.Channels))
	for _, ch := range meta.Channels {
		codes = append(codes, meta.SourceID(ch))
	}

	return codes
}
