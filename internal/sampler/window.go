package sampler

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Window is one requested waveform interval.
type Window struct {
	Start time.Time
	End   time.Time
}

// Duration returns the window length.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// WindowPicker draws request windows of random whole-second length, placed
// uniformly within a bounded historical span.
type WindowPicker struct {
	minLen time.Duration
	maxLen time.Duration

	rng *rand.Rand
}

// NewWindowPicker creates a picker for lengths in [minLen, maxLen). The
// upper bound is exclusive: maxLen itself is never drawn.
func NewWindowPicker(minLen, maxLen time.Duration) *WindowPicker {
	return &WindowPicker{
		minLen: minLen,
		maxLen: maxLen,
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// Pick draws one window lying fully inside [spanStart, spanEnd].
func (p *WindowPicker) Pick(spanStart, spanEnd time.Time) (Window, error) {
	length := p.randomLength()

	slack := spanEnd.Sub(spanStart) - length

	slackSeconds := int64(slack / time.Second)
	if slackSeconds <= 0 {
		return Window{}, fmt.Errorf("request length %s does not fit into span %s to %s",
			length, spanStart.Format(time.RFC3339), spanEnd.Format(time.RFC3339))
	}

	start := spanStart.Add(time.Duration(p.rng.Int64N(slackSeconds)) * time.Second)

	return Window{Start: start, End: start.Add(length)}, nil
}

func (p *WindowPicker) randomLength() time.Duration {
	spreadSeconds := int64((p.maxLen - p.minLen) / time.Second)
	if spreadSeconds <= 0 {
		return p.minLen
	}

	return p.minLen + time.Duration(p.rng.Int64N(spreadSeconds))*time.Second
}
