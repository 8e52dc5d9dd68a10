package mseed

import (
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordSpec struct {
	network    string
	station    string
	location   string
	channel    string
	start      time.Time
	rateFactor int16
	rateMult   int16
	encoding   byte
	numSamples int
	payload    []byte
	order      binary.ByteOrder
}

// buildRecord assembles a 512-byte miniSEED record with a Blockette 1000
// and the payload starting at offset 64.
func buildRecord(t *testing.T, spec recordSpec) []byte {
	t.Helper()

	order := spec.order
	if order == nil {
		order = binary.BigEndian
	}

	rec := make([]byte, 512)
	copy(rec[0:6], "000001")
	rec[6] = 'D'
	copy(rec[8:13], padded(spec.station, 5))
	copy(rec[13:15], padded(spec.location, 2))
	copy(rec[15:18], padded(spec.channel, 3))
	copy(rec[18:20], padded(spec.network, 2))

	start := spec.start.UTC()
	order.PutUint16(rec[20:22], uint16(start.Year()))
	order.PutUint16(rec[22:24], uint16(start.YearDay()))
	rec[24] = byte(start.Hour())
	rec[25] = byte(start.Minute())
	rec[26] = byte(start.Second())
	order.PutUint16(rec[28:30], uint16(start.Nanosecond()/100000))

	order.PutUint16(rec[30:32], uint16(spec.numSamples))
	order.PutUint16(rec[32:34], uint16(spec.rateFactor))
	order.PutUint16(rec[34:36], uint16(spec.rateMult))
	rec[39] = 1
	order.PutUint16(rec[44:46], 64)
	order.PutUint16(rec[46:48], 48)

	order.PutUint16(rec[48:50], 1000)
	order.PutUint16(rec[50:52], 0)
	rec[52] = spec.encoding

	if order == binary.BigEndian {
		rec[53] = 1
	}

	rec[54] = 9 // 2^9 = 512 bytes

	require.LessOrEqual(t, len(spec.payload), len(rec)-64)
	copy(rec[64:], spec.payload)

	return rec
}

func padded(s string, width int) []byte {
	b := make([]byte, width)
	for i := range b {
		b[i] = ' '
	}

	copy(b, s)

	return b
}

func int32Payload(order binary.ByteOrder, values ...int32) []byte {
	out := make([]byte, 4*len(values))
	for i, v := range values {
		order.PutUint32(out[4*i:], uint32(v))
	}

	return out
}

func defaultSpec() recordSpec {
	return recordSpec{
		network:    "GR",
		station:    "BFO",
		location:   "",
		channel:    "HHZ",
		start:      time.Date(2026, 2, 24, 10, 20, 30, 0, time.UTC),
		rateFactor: 100,
		rateMult:   1,
	}
}

func TestDecodePrimitiveEncodings(t *testing.T) {
	be := binary.BigEndian

	float32Payload := make([]byte, 8)
	be.PutUint32(float32Payload[0:], math.Float32bits(1.5))
	be.PutUint32(float32Payload[4:], math.Float32bits(-2.25))

	float64Payload := make([]byte, 16)
	be.PutUint64(float64Payload[0:], math.Float64bits(3.125))
	be.PutUint64(float64Payload[8:], math.Float64bits(-0.5))

	int16Payload := make([]byte, 4)
	negSeven := int16(-7)
	be.PutUint16(int16Payload[0:], uint16(negSeven))
	be.PutUint16(int16Payload[2:], uint16(int16(1200)))

	tests := []struct {
		name     string
		encoding byte
		payload  []byte
		expected []float64
	}{
		{
			name:     "int16",
			encoding: encodingInt16,
			payload:  int16Payload,
			expected: []float64{-7, 1200},
		},
		{
			name:     "int32",
			encoding: encodingInt32,
			payload:  int32Payload(be, 1, -2, 3, 40000),
			expected: []float64{1, -2, 3, 40000},
		},
		{
			name:     "float32",
			encoding: encodingFloat32,
			payload:  float32Payload,
			expected: []float64{1.5, -2.25},
		},
		{
			name:     "float64",
			encoding: encodingFloat64,
			payload:  float64Payload,
			expected: []float64{3.125, -0.5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := defaultSpec()
			spec.encoding = tt.encoding
			spec.numSamples = len(tt.expected)
			spec.payload = tt.payload

			records, err := Decode(buildRecord(t, spec))
			require.NoError(t, err)
			require.Len(t, records, 1)

			rec := records[0]
			assert.Equal(t, "GR", rec.Network)
			assert.Equal(t, "BFO", rec.Station)
			assert.Equal(t, "HHZ", rec.Channel)
			assert.Equal(t, "GR.BFO..HHZ", rec.SourceID())
			assert.Equal(t, 100.0, rec.SampleRate)
			assert.True(t, rec.Start.Equal(spec.start), "start %v", rec.Start)
			assert.Equal(t, tt.expected, rec.Samples)
		})
	}
}

func TestDecodeSteim1(t *testing.T) {
	// Samples 10, 11, 9, 12, 12. Word 3 packs four byte differences
	// (the first one is replaced by the integration constant), word 4 one
	// 32-bit difference.
	frame := make([]byte, 64)
	be := binary.BigEndian
	be.PutUint32(frame[0:], 0x01C00000)
	be.PutUint32(frame[4:], 10) // X0
	be.PutUint32(frame[8:], 12) // Xn
	be.PutUint32(frame[12:], 0x0001FE03)
	be.PutUint32(frame[16:], 0)

	spec := defaultSpec()
	spec.encoding = encodingSteim1
	spec.numSamples = 5
	spec.payload = frame

	records, err := Decode(buildRecord(t, spec))
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, []float64{10, 11, 9, 12, 12}, records[0].Samples)
}

func TestDecodeSteim2(t *testing.T) {
	// Samples 5, 6, 4, 4. One word of five 6-bit differences
	// (0, 1, -2, 0, 0), of which the record needs the first four.
	frame := make([]byte, 64)
	be := binary.BigEndian
	be.PutUint32(frame[0:], 0x03000000)
	be.PutUint32(frame[4:], 5) // X0
	be.PutUint32(frame[8:], 4) // Xn
	be.PutUint32(frame[12:], 1<<18|62<<12)

	spec := defaultSpec()
	spec.encoding = encodingSteim2
	spec.numSamples = 4
	spec.payload = frame

	records, err := Decode(buildRecord(t, spec))
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, []float64{5, 6, 4, 4}, records[0].Samples)
}

func TestDecodeSteim2WideDifferences(t *testing.T) {
	// Differences too large for the packed sub-word forms: one 30-bit
	// and two 15-bit values.
	frame := make([]byte, 64)
	be := binary.BigEndian

	// Word 3: dnib 1, single 30-bit difference of -100000.
	// Word 4: dnib 2, two 15-bit differences 16000 and -9.
	be.PutUint32(frame[0:], 0x02800000) // nibbles: w3=2, w4=2
	be.PutUint32(frame[4:], 200000)     // X0
	be.PutUint32(frame[8:], 115991)     // Xn
	diff30 := int32(-100000)
	diff15 := int32(-9)
	be.PutUint32(frame[12:], 1<<30|uint32(diff30)&0x3FFFFFFF)
	be.PutUint32(frame[16:], 2<<30|uint32(16000)<<15|uint32(diff15)&0x7FFF)

	spec := defaultSpec()
	spec.encoding = encodingSteim2
	spec.numSamples = 3
	spec.payload = frame

	records, err := Decode(buildRecord(t, spec))
	require.NoError(t, err)
	require.Len(t, records, 1)

	// First difference is discarded, so samples start at X0.
	assert.Equal(t, []float64{200000, 216000, 215991}, records[0].Samples)
}

func TestDecodeLittleEndianRecord(t *testing.T) {
	le := binary.LittleEndian

	spec := defaultSpec()
	spec.order = le
	spec.encoding = encodingInt32
	spec.numSamples = 2
	spec.payload = int32Payload(le, 42, -42)

	records, err := Decode(buildRecord(t, spec))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []float64{42, -42}, records[0].Samples)
}

func TestDecodeMultipleRecords(t *testing.T) {
	be := binary.BigEndian

	spec1 := defaultSpec()
	spec1.encoding = encodingInt32
	spec1.numSamples = 2
	spec1.payload = int32Payload(be, 1, 2)

	headerOnly := defaultSpec()
	headerOnly.encoding = encodingInt32
	headerOnly.numSamples = 0

	spec2 := defaultSpec()
	spec2.start = spec1.start.Add(5 * time.Second)
	spec2.encoding = encodingInt32
	spec2.numSamples = 1
	spec2.payload = int32Payload(be, 3)

	data := append([]byte{}, buildRecord(t, spec1)...)
	data = append(data, buildRecord(t, headerOnly)...)
	data = append(data, buildRecord(t, spec2)...)
	data = append(data, make([]byte, 512)...) // trailing padding

	records, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []float64{1, 2}, records[0].Samples)
	assert.Equal(t, []float64{3}, records[1].Samples)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{
			name: "short header",
			data: []byte{'0', '0', '0', '0', '0', '1', 'D', 0, 1},
		},
		{
			name: "implausible year",
			data: func() []byte {
				spec := defaultSpec()
				spec.encoding = encodingInt32
				spec.numSamples = 1
				spec.payload = int32Payload(binary.BigEndian, 1)
				rec := buildRecord(t, spec)
				rec[20] = 0xFF
				rec[21] = 0xFF

				return rec
			}(),
		},
		{
			name: "bad quality indicator",
			data: func() []byte {
				spec := defaultSpec()
				spec.encoding = encodingInt32
				spec.numSamples = 1
				spec.payload = int32Payload(binary.BigEndian, 1)
				rec := buildRecord(t, spec)
				rec[6] = 'X'

				return rec
			}(),
		},
		{
			name: "truncated samples",
			data: func() []byte {
				spec := defaultSpec()
				spec.encoding = encodingInt32
				spec.numSamples = 200 // needs 800 bytes, record holds 448
				rec := buildRecord(t, spec)

				return rec
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestAssembleMergesContiguousRecords(t *testing.T) {
	start := time.Date(2026, 2, 24, 0, 0, 0, 0, time.UTC)

	records := []Record{
		{Network: "GR", Station: "BFO", Channel: "HHZ", Start: start.Add(time.Second), SampleRate: 100, Samples: []float64{3, 4}},
		{Network: "GR", Station: "BFO", Channel: "HHZ", Start: start, SampleRate: 100, Samples: make([]float64, 100)},
	}

	traces := Assemble(records)
	require.Len(t, traces, 1)
	assert.Equal(t, 102, len(traces[0].Samples))
	assert.True(t, traces[0].Start.Equal(start))
}

func TestAssembleSplitsOnGap(t *testing.T) {
	start := time.Date(2026, 2, 24, 0, 0, 0, 0, time.UTC)

	records := []Record{
		{Network: "GR", Station: "BFO", Channel: "HHZ", Start: start, SampleRate: 100, Samples: make([]float64, 100)},
		// One full second missing.
		{Network: "GR", Station: "BFO", Channel: "HHZ", Start: start.Add(2 * time.Second), SampleRate: 100, Samples: make([]float64, 100)},
	}

	traces := Assemble(records)
	require.Len(t, traces, 2)
}

func TestAssembleSeparatesChannels(t *testing.T) {
	start := time.Date(2026, 2, 24, 0, 0, 0, 0, time.UTC)

	records := []Record{
		{Network: "GR", Station: "BFO", Channel: "HHZ", Start: start, SampleRate: 100, Samples: []float64{1}},
		{Network: "GR", Station: "BFO", Channel: "HHN", Start: start, SampleRate: 100, Samples: []float64{2}},
	}

	traces := Assemble(records)
	require.Len(t, traces, 2)
}

func TestTraceTrim(t *testing.T) {
	start := time.Date(2026, 2, 24, 0, 0, 0, 0, time.UTC)
	trace := Trace{
		Start:      start,
		SampleRate: 1,
		Samples:    []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
	}

	trimmed := trace.Trim(start.Add(2*time.Second), start.Add(5*time.Second))
	assert.Equal(t, []float64{2, 3, 4, 5}, trimmed.Samples)
	assert.True(t, trimmed.Start.Equal(start.Add(2*time.Second)))
	assert.Equal(t, 3*time.Second, trimmed.Duration())

	// Window entirely outside the trace.
	empty := trace.Trim(start.Add(time.Minute), start.Add(2*time.Minute))
	assert.Empty(t, empty.Samples)

	// Window wider than the trace leaves it untouched.
	whole := trace.Trim(start.Add(-time.Minute), start.Add(time.Minute))
	assert.Equal(t, trace.Samples, whole.Samples)
}
