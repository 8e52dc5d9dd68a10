package fdsn

//go:generate mockgen -package mocks -destination mocks/mock_client.go github.com/eidaops/eidaqc/internal/fdsn Client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eidaops/eidaqc/internal/mseed"
)

// Compile-time interface compliance check.
var _ Client = (*HTTPClient)(nil)

const fdsnTimeLayout = "2006-01-02T15:04:05"

// Level selects the granularity of a catalog query.
type Level string

// Catalog query levels of the station service.
const (
	LevelNetwork Level = "network"
	LevelStation Level = "station"
	LevelChannel Level = "channel"
)

// ParseLevel validates a level name from configuration or flags.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelNetwork, LevelStation, LevelChannel:
		return Level(s), nil
	default:
		return "", fmt.Errorf("invalid request level %q (want network, station or channel)", s)
	}
}

// TransportError wraps any failure to obtain a usable response from an
// FDSN endpoint: connection errors, timeouts, unexpected statuses and
// unparseable bodies all look the same to callers.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is or wraps a TransportError.
func IsTransport(err error) bool {
	var te *TransportError

	return errors.As(err, &te)
}

// CatalogRequest is a full-catalog query against a routing entry point or a
// single member server.
type CatalogRequest struct {
	BaseURL           string
	Level             Level
	Channels          []string
	Start             time.Time
	End               time.Time
	IncludeRestricted bool
}

// StationMetaRequest is a response-level metadata query for one station.
type StationMetaRequest struct {
	BaseURL string
	Network string
	Station string
	Start   time.Time
	End     time.Time
}

// WaveformRequest is a dataselect query for one channel over a window.
type WaveformRequest struct {
	BaseURL  string
	Network  string
	Station  string
	Location string
	Channel  string
	Start    time.Time
	End      time.Time
}

// Client is the boundary to the federated metadata and waveform services.
type Client interface {
	// Catalog fetches the network/station/channel listing at the requested
	// level. The base URL decides whether the query is routed or direct.
	Catalog(ctx context.Context, req CatalogRequest) (*Catalog, error)
	// StationMeta fetches response-level metadata for one station.
	StationMeta(ctx context.Context, req StationMetaRequest) (*StationMeta, error)
	// Waveform fetches and decodes miniSEED data for one channel. A server
	// reply of "no data" yields an empty trace list, not an error.
	Waveform(ctx context.Context, req WaveformRequest) ([]mseed.Trace, error)
}

// HTTPClient talks to FDSN station and dataselect web services.
type HTTPClient struct {
	log        logrus.FieldLogger
	httpClient *http.Client
}

// NewHTTPClient creates a client whose requests time out after the given
// duration.
func NewHTTPClient(log logrus.FieldLogger, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		log:        log.WithField("component", "fdsn"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Catalog fetches a catalog in the station text format.
func (c *HTTPClient) Catalog(ctx context.Context, req CatalogRequest) (*Catalog, error) {
	params := url.Values{}
	params.Set("level", string(req.Level))
	params.Set("format", "text")

	if len(req.Channels) > 0 {
		params.Set("channel", strings.Join(req.Channels, ","))
	}

	if !req.Start.IsZero() {
		params.Set("starttime", req.Start.UTC().Format(fdsnTimeLayout))
	}

	if !req.End.IsZero() {
		params.Set("endtime", req.End.UTC().Format(fdsnTimeLayout))
	}

	if req.IncludeRestricted {
		params.Set("includerestricted", "true")
	} else {
		params.Set("includerestricted", "false")
	}

	queryURL := endpointURL(req.BaseURL, "station", params)

	c.log.WithFields(logrus.Fields{
		"url":   queryURL,
		"level": req.Level,
	}).Debug("Fetching catalog")

	body, status, err := c.get(ctx, queryURL)
	if err != nil {
		return nil, &TransportError{Op: "catalog", URL: queryURL, Err: err}
	}

	if status != http.StatusOK {
		return nil, &TransportError{Op: "catalog", URL: queryURL, Err: statusError(status)}
	}

	catalog, err := ParseStationText(body, req.Level)
	if err != nil {
		return nil, &TransportError{Op: "catalog", URL: queryURL, Err: err}
	}

	c.log.WithField("networks", len(catalog.Networks)).Debug("Fetched catalog")

	return catalog, nil
}

// StationMeta fetches response-level metadata as StationXML.
func (c *HTTPClient) StationMeta(ctx context.Context, req StationMetaRequest) (*StationMeta, error) {
	params := url.Values{}
	params.Set("level", "response")
	params.Set("network", req.Network)
	params.Set("station", req.Station)
	params.Set("starttime", req.Start.UTC().Format(fdsnTimeLayout))
	params.Set("endtime", req.End.UTC().Format(fdsnTimeLayout))

	queryURL := endpointURL(req.BaseURL, "station", params)

	c.log.WithFields(logrus.Fields{
		"network": req.Network,
		"station": req.Station,
	}).Debug("Fetching station metadata")

	body, status, err := c.get(ctx, queryURL)
	if err != nil {
		return nil, &TransportError{Op: "station metadata", URL: queryURL, Err: err}
	}

	if status != http.StatusOK {
		return nil, &TransportError{Op: "station metadata", URL: queryURL, Err: statusError(status)}
	}

	meta, err := ParseStationXML(body)
	if err != nil {
		return nil, &TransportError{Op: "station metadata", URL: queryURL, Err: err}
	}

	return meta, nil
}

// Waveform fetches miniSEED data and assembles it into traces.
func (c *HTTPClient) Waveform(ctx context.Context, req WaveformRequest) ([]mseed.Trace, error) {
	location := req.Location
	if location == "" {
		// Dataselect services match a blank location code as "--".
		location = "--"
	}

	params := url.Values{}
	params.Set("network", req.Network)
	params.Set("station", req.Station)
	params.Set("location", location)
	params.Set("channel", req.Channel)
	params.Set("starttime", req.Start.UTC().Format(fdsnTimeLayout))
	params.Set("endtime", req.End.UTC().Format(fdsnTimeLayout))

	queryURL := endpointURL(req.BaseURL, "dataselect", params)

	c.log.WithFields(logrus.Fields{
		"channel": fmt.Sprintf("%s.%s.%s.%s", req.Network, req.Station, req.Location, req.Channel),
		"start":   req.Start.UTC().Format(fdsnTimeLayout),
	}).Debug("Fetching waveform")

	body, status, err := c.get(ctx, queryURL)
	if err != nil {
		return nil, &TransportError{Op: "waveform", URL: queryURL, Err: err}
	}

	if status == http.StatusNoContent {
		return nil, nil
	}

	if status != http.StatusOK {
		return nil, &TransportError{Op: "waveform", URL: queryURL, Err: statusError(status)}
	}

	records, err := mseed.Decode(body)
	if err != nil {
		return nil, &TransportError{Op: "waveform decode", URL: queryURL, Err: err}
	}

	return mseed.Assemble(records), nil
}

func (c *HTTPClient) get(ctx context.Context, queryURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}

	return body, resp.StatusCode, nil
}

func endpointURL(baseURL, service string, params url.Values) string {
	return fmt.Sprintf("%s/fdsnws/%s/1/query?%s",
		strings.TrimRight(baseURL, "/"), service, params.Encode())
}

func statusError(status int) error {
	if status == http.StatusNoContent {
		return errors.New("no matching data (HTTP 204)")
	}

	return fmt.Errorf("unexpected status code: %d", status)
}
