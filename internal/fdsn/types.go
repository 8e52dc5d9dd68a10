//nolint:tagliatelle // superior snake-case yo.
package fdsn

import (
	"fmt"
	"sort"
	"time"
)

// StationID identifies a station within a network.
type StationID struct {
	Network string `json:"network"`
	Station string `json:"station"`
}

// String returns the identifier as NET.STA.
func (id StationID) String() string {
	return id.Network + "." + id.Station
}

// Epoch is a validity interval. A nil End means the epoch is still open.
type Epoch struct {
	Start time.Time  `json:"start"`
	End   *time.Time `json:"end,omitempty"`
}

// OpenAt reports whether the epoch has not ended at t.
func (e Epoch) OpenAt(t time.Time) bool {
	return e.End == nil || e.End.After(t)
}

// Channel is one channel epoch of a station as listed in the catalog.
type Channel struct {
	Location   string  `json:"location"`
	Code       string  `json:"code"`
	Epoch      Epoch   `json:"epoch"`
	SampleRate float64 `json:"sample_rate"`
}

// Station is a station with its catalog-level channel listing.
type Station struct {
	Code      string    `json:"code"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Elevation float64   `json:"elevation"`
	Epochs    []Epoch   `json:"epochs"`
	Channels  []Channel `json:"channels,omitempty"`
}

// OperatingAt reports whether the station has at least one epoch that has
// not ended at t. Stations whose every epoch lies in the past are closed.
func (s *Station) OperatingAt(t time.Time) bool {
	for _, epoch := range s.Epochs {
		if epoch.OpenAt(t) {
			return true
		}
	}

	return false
}

// Network groups the stations sharing a network code.
type Network struct {
	Code        string     `json:"code"`
	Description string     `json:"description,omitempty"`
	Stations    []*Station `json:"stations,omitempty"`
}

// Catalog is the full or partial inventory of networks, stations and
// channels as returned by one catalog query. It is immutable once built; a
// refresh replaces the whole value.
type Catalog struct {
	Networks []*Network `json:"networks"`
}

// DistinctNetworks returns the sorted set of network codes.
func (c *Catalog) DistinctNetworks() []string {
	codes := make([]string, 0, len(c.Networks))
	for _, network := range c.Networks {
		codes = append(codes, network.Code)
	}

	sort.Strings(codes)

	return codes
}

// NetworkSet returns the network codes as a set for membership tests.
func (c *Catalog) NetworkSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Networks))
	for _, network := range c.Networks {
		set[network.Code] = struct{}{}
	}

	return set
}

// DistinctStations returns all station identifiers, sorted.
func (c *Catalog) DistinctStations() []StationID {
	var ids []StationID

	for _, network := range c.Networks {
		for _, station := range network.Stations {
			ids = append(ids, StationID{Network: network.Code, Station: station.Code})
		}
	}

	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Network != ids[j].Network {
			return ids[i].Network < ids[j].Network
		}

		return ids[i].Station < ids[j].Station
	})

	return ids
}

// Station looks up a station by identifier.
func (c *Catalog) Station(id StationID) (*Station, bool) {
	for _, network := range c.Networks {
		if network.Code != id.Network {
			continue
		}

		for _, station := range network.Stations {
			if station.Code == id.Station {
				return station, true
			}
		}
	}

	return nil, false
}

// CoordinatesFor returns the station coordinates for an identifier.
func (c *Catalog) CoordinatesFor(id StationID) (lat, lon float64, ok bool) {
	station, ok := c.Station(id)
	if !ok {
		return 0, 0, false
	}

	return station.Latitude, station.Longitude, true
}

// OperatingEpochs returns the station's epochs that have not ended at t.
func (c *Catalog) OperatingEpochs(id StationID, t time.Time) []Epoch {
	station, ok := c.Station(id)
	if !ok {
		return nil
	}

	var open []Epoch

	for _, epoch := range station.Epochs {
		if epoch.OpenAt(t) {
			open = append(open, epoch)
		}
	}

	return open
}

// StationMeta is the response-level metadata for a single station as
// needed by the availability probe.
type StationMeta struct {
	Network   string         `json:"network"`
	Station   string         `json:"station"`
	Latitude  float64        `json:"latitude"`
	Longitude float64        `json:"longitude"`
	Channels  []ChannelEpoch `json:"channels"`
}

// ChannelEpoch is one channel epoch with its instrument sensitivity.
type ChannelEpoch struct {
	Location             string     `json:"location"`
	Code                 string     `json:"code"`
	Start                time.Time  `json:"start"`
	End                  *time.Time `json:"end,omitempty"`
	SampleRate           float64    `json:"sample_rate"`
	Sensitivity          float64    `json:"sensitivity"`
	SensitivityFrequency float64    `json:"sensitivity_frequency"`
	InputUnits           string     `json:"input_units,omitempty"`
}

// SourceID returns the channel identifier as NET.STA.LOC.CHA.
func (m *StationMeta) SourceID(ch ChannelEpoch) string {
	return fmt.Sprintf("%s.%s.%s.%s", m.Network, m.Station, ch.Location, ch.Code)
}

// BandInstrument returns the 2-letter band and instrument prefix of the
// channel code, the part that channel selection matches on.
func (c ChannelEpoch) BandInstrument() string {
	if len(c.Code) < 2 {
		return c.Code
	}

	return c.Code[:2]
}
