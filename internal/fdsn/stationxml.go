package fdsn

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// Trimmed StationXML document model: only the elements the probe needs.
type stationXMLDoc struct {
	XMLName  xml.Name    `xml:"FDSNStationXML"`
	Networks []sxNetwork `xml:"Network"`
}

type sxNetwork struct {
	Code     string      `xml:"code,attr"`
	Stations []sxStation `xml:"Station"`
}

type sxStation struct {
	Code      string      `xml:"code,attr"`
	Latitude  float64     `xml:"Latitude"`
	Longitude float64     `xml:"Longitude"`
	Channels  []sxChannel `xml:"Channel"`
}

type sxChannel struct {
	Code       string     `xml:"code,attr"`
	Location   string     `xml:"locationCode,attr"`
	StartDate  string     `xml:"startDate,attr"`
	EndDate    string     `xml:"endDate,attr"`
	SampleRate float64    `xml:"SampleRate"`
	Response   sxResponse `xml:"Response"`
}

type sxResponse struct {
	Sensitivity sxSensitivity `xml:"InstrumentSensitivity"`
}

type sxSensitivity struct {
	Value      float64 `xml:"Value"`
	Frequency  float64 `xml:"Frequency"`
	InputUnits struct {
		Name string `xml:"Name"`
	} `xml:"InputUnits"`
}

// ParseStationXML parses a response-level StationXML document for a single
// station. Station elements repeat per epoch; their channels are merged.
func ParseStationXML(data []byte) (*StationMeta, error) {
	var doc stationXMLDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse StationXML: %w", err)
	}

	if len(doc.Networks) == 0 || len(doc.Networks[0].Stations) == 0 {
		return nil, fmt.Errorf("no station in StationXML response")
	}

	network := doc.Networks[0]
	first := network.Stations[0]

	meta := &StationMeta{
		Network:   network.Code,
		Station:   first.Code,
		Latitude:  first.Latitude,
		Longitude: first.Longitude,
	}

	for _, station := range network.Stations {
		if station.Code != first.Code {
			continue
		}

		for _, channel := range station.Channels {
			epoch, err := parseEpoch(trimXMLTime(channel.StartDate), trimXMLTime(channel.EndDate))
			if err != nil {
				continue
			}

			meta.Channels = append(meta.Channels, ChannelEpoch{
				Location:             strings.TrimSpace(channel.Location),
				Code:                 strings.TrimSpace(channel.Code),
				Start:                epoch.Start,
				End:                  epoch.End,
				SampleRate:           channel.SampleRate,
				Sensitivity:          channel.Response.Sensitivity.Value,
				SensitivityFrequency: channel.Response.Sensitivity.Frequency,
				InputUnits:           channel.Response.Sensitivity.InputUnits.Name,
			})
		}
	}

	return meta, nil
}

// trimXMLTime strips timezone suffixes StationXML producers add; catalog
// times are UTC by convention.
func trimXMLTime(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "Z")

	if idx := strings.IndexAny(s, "+"); idx > 0 {
		s = s[:idx]
	}

	return s
}
