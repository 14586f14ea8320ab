package audio

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/faiface/beep"
)

// Clock keeps track of the number of ticks (samples) processed since the
// audio thread started, and of the deadlines the backend reported missing.
// Counters are updated by the audio thread and may be read from anywhere.
type Clock struct {
	rate beep.SampleRate

	ticks  atomic.Uint64
	missed atomic.Uint64
}

// NewClock returns a clock for the given sample rate. The rate is fixed for
// the lifetime of the clock: all stage timing is expressed in samples.
func NewClock(sampleRate int) (*Clock, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive: %d", sampleRate)
	}
	return &Clock{rate: beep.SampleRate(sampleRate)}, nil
}

func (c *Clock) SampleRate() float64 { return float64(c.rate) }

// Samples converts a duration in seconds to a number of samples.
func (c *Clock) Samples(seconds float64) int {
	return c.rate.N(time.Duration(seconds * float64(time.Second)))
}

// Duration returns the time covered by n samples.
func (c *Clock) Duration(n int) time.Duration {
	return c.rate.D(n)
}

// Advance records n processed ticks.
func (c *Clock) Advance(n int) {
	c.ticks.Add(uint64(n))
}

// Miss records a missed deadline. The envelope keeps running; the only
// effect of a miss is that stages take longer in wall clock time.
func (c *Clock) Miss() {
	c.missed.Add(1)
}

func (c *Clock) Ticks() uint64  { return c.ticks.Load() }
func (c *Clock) Missed() uint64 { return c.missed.Load() }
