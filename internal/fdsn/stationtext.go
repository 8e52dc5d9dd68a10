package fdsn

import (
	"bufio"
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Field counts of the station text format per level.
const (
	networkFieldCount = 5  // Network|Description|StartTime|EndTime|TotalStations
	stationFieldCount = 8  // Network|Station|Latitude|Longitude|Elevation|SiteName|StartTime|EndTime
	channelFieldCount = 17 // Network|Station|Location|Channel|Lat|Lon|Elev|Depth|Azimuth|Dip|Sensor|Scale|ScaleFreq|ScaleUnits|SampleRate|StartTime|EndTime
)

// ParseStationText parses the FDSN station web-service text format at the
// given level. Malformed lines are skipped: federated responses routinely
// contain the odd broken row and one bad line must not discard the rest.
func ParseStationText(data []byte, level Level) (*Catalog, error) {
	b := newCatalogBuilder()

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "|")

		switch level {
		case LevelNetwork:
			b.addNetworkLine(fields)
		case LevelStation:
			b.addStationLine(fields)
		case LevelChannel:
			b.addChannelLine(fields)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan station text: %w", err)
	}

	return b.build(), nil
}

type catalogBuilder struct {
	networks map[string]*Network
	stations map[string]map[string]*Station
}

func newCatalogBuilder() *catalogBuilder {
	return &catalogBuilder{
		networks: make(map[string]*Network),
		stations: make(map[string]map[string]*Station),
	}
}

func (b *catalogBuilder) network(code string) *Network {
	network, ok := b.networks[code]
	if !ok {
		network = &Network{Code: code}
		b.networks[code] = network
		b.stations[code] = make(map[string]*Station)
	}

	return network
}

func (b *catalogBuilder) station(networkCode, stationCode string) *Station {
	b.network(networkCode)

	station, ok := b.stations[networkCode][stationCode]
	if !ok {
		station = &Station{Code: stationCode}
		b.stations[networkCode][stationCode] = station
	}

	return station
}

func (b *catalogBuilder) addNetworkLine(fields []string) {
	if len(fields) < networkFieldCount || fields[0] == "" {
		return
	}

	network := b.network(strings.TrimSpace(fields[0]))
	if network.Description == "" {
		network.Description = strings.TrimSpace(fields[1])
	}
}

func (b *catalogBuilder) addStationLine(fields []string) {
	if len(fields) < stationFieldCount || fields[0] == "" || fields[1] == "" {
		return
	}

	lat, latErr := strconv.ParseFloat(fields[2], 64)
	lon, lonErr := strconv.ParseFloat(fields[3], 64)
	epoch, epochErr := parseEpoch(fields[6], fields[7])

	if latErr != nil || lonErr != nil || epochErr != nil {
		return
	}

	station := b.station(strings.TrimSpace(fields[0]), strings.TrimSpace(fields[1]))
	station.Latitude = lat
	station.Longitude = lon

	if elev, err := strconv.ParseFloat(fields[4], 64); err == nil {
		station.Elevation = elev
	}

	station.Epochs = append(station.Epochs, epoch)
}

func (b *catalogBuilder) addChannelLine(fields []string) {
	if len(fields) < channelFieldCount || fields[0] == "" || fields[1] == "" {
		return
	}

	lat, latErr := strconv.ParseFloat(fields[4], 64)
	lon, lonErr := strconv.ParseFloat(fields[5], 64)
	epoch, epochErr := parseEpoch(fields[15], fields[16])

	if latErr != nil || lonErr != nil || epochErr != nil {
		return
	}

	station := b.station(strings.TrimSpace(fields[0]), strings.TrimSpace(fields[1]))
	if station.Latitude == 0 && station.Longitude == 0 {
		station.Latitude = lat
		station.Longitude = lon
	}

	if elev, err := strconv.ParseFloat(fields[6], 64); err == nil && station.Elevation == 0 {
		station.Elevation = elev
	}

	channel := Channel{
		Location: strings.TrimSpace(fields[2]),
		Code:     strings.TrimSpace(fields[3]),
		Epoch:    epoch,
	}

	if rate, err := strconv.ParseFloat(fields[14], 64); err == nil {
		channel.SampleRate = rate
	}

	station.Channels = append(station.Channels, channel)
	station.Epochs = append(station.Epochs, epoch)
}

func (b *catalogBuilder) build() *Catalog {
	catalog := &Catalog{Networks: make([]*Network, 0, len(b.networks))}

	for code, network := range b.networks {
		stations := b.stations[code]
		network.Stations = make([]*Station, 0, len(stations))

		for _, station := range stations {
			network.Stations = append(network.Stations, station)
		}

		sort.Slice(network.Stations, func(i, j int) bool {
			return network.Stations[i].Code < network.Stations[j].Code
		})

		catalog.Networks = append(catalog.Networks, network)
	}

	sort.Slice(catalog.Networks, func(i, j int) bool {
		return catalog.Networks[i].Code < catalog.Networks[j].Code
	})

	return catalog
}

func parseEpoch(start, end string) (Epoch, error) {
	epoch := Epoch{}

	if s := strings.TrimSpace(start); s != "" {
		t, err := parseFDSNTime(s)
		if err != nil {
			return epoch, err
		}

		epoch.Start = t
	}

	if e := strings.TrimSpace(end); e != "" {
		t, err := parseFDSNTime(e)
		if err != nil {
			return epoch, err
		}

		epoch.End = &t
	}

	return epoch, nil
}

var fdsnTimeLayouts = []string{
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05.999999Z",
	"2006-01-02",
}

func parseFDSNTime(s string) (time.Time, error) {
	for _, layout := range fdsnTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unparseable time %q", s)
}
