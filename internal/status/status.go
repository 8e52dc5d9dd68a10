// Package status defines the fixed outcome taxonomy for a single data request.
package status

// Code is the outcome of one availability probe, ordered by where it is
// detected in the request pipeline.
type Code string

const (
	// OK means the full waveform was retrieved and the instrument response
	// removed without producing invalid samples.
	OK Code = "OK"
	// NoServ means the per-station metadata request failed.
	NoServ Code = "NOSERV"
	// MetaFail means the restituted samples contain an invalid (NaN) value.
	MetaFail Code = "METAFAIL"
	// NoData means the waveform request failed or returned no traces.
	NoData Code = "NODATA"
	// Fragment means the waveform came back in more than one segment.
	Fragment Code = "FRAGMENT"
	// Incomplete means the returned duration is below 99% of the requested one.
	Incomplete Code = "INCOMPL"
	// RestFail means instrument-response removal failed.
	RestFail Code = "RESTFAIL"
)

// All returns every defined code in pipeline order.
func All() []Code {
	return []Code{OK, NoServ, MetaFail, NoData, Fragment, Incomplete, RestFail}
}

// Parse maps a code name as it appears in result files back to a Code.
func Parse(s string) (Code, bool) {
	switch Code(s) {
	case OK, NoServ, MetaFail, NoData, Fragment, Incomplete, RestFail:
		return Code(s), true
	default:
		return "", false
	}
}

// String returns the code name as written to result files.
func (c Code) String() string {
	return string(c)
}

// Description returns a short human-readable explanation for reports.
func (c Code) Description() string {
	switch c {
	case OK:
		return "waveform retrieved and restituted"
	case NoServ:
		return "station metadata request failed"
	case MetaFail:
		return "restituted data contains invalid samples"
	case NoData:
		return "no waveform data returned"
	case Fragment:
		return "waveform returned in multiple segments"
	case Incomplete:
		return "waveform shorter than requested"
	case RestFail:
		return "instrument response removal failed"
	default:
		return "unknown status"
	}
}
