package audio

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"
)

// AnalogHigh is the largest raw reading of a pot (10-bit ADC).
const AnalogHigh = 1023.

var analogRange = Range{0, AnalogHigh}

// Knob identifies one of the envelope pots.
type Knob int

const (
	KnobAttack Knob = iota
	KnobDecay
	KnobSustain
	KnobRelease
	numKnobs
)

var knobNames = [numKnobs]string{PropAttack, PropDecay, PropSustain, PropRelease}

func (k Knob) String() string {
	if k < 0 || k >= numKnobs {
		return fmt.Sprintf("knob(%d)", int(k))
	}
	return knobNames[k]
}

func ParseKnob(name string) (Knob, error) {
	for k, n := range knobNames {
		if n == name {
			return Knob(k), nil
		}
	}
	return 0, fmt.Errorf("unknown knob: %s", name)
}

// Readings holds one raw sample per knob.
type Readings [numKnobs]float64

// PotReader samples the pots.
type PotReader interface {
	ReadPots() (Readings, error)
}

// PotScaler turns raw readings into envelope parameters. Readings are
// clamped to the ADC range first, so the result is always valid.
type PotScaler struct {
	times   Range
	sustain Range
}

func NewPotScaler(maxStage float64) (PotScaler, error) {
	if maxStage <= 0 {
		return PotScaler{}, fmt.Errorf("max stage duration must be positive: %v", maxStage)
	}
	return PotScaler{times: Range{0, maxStage}, sustain: Unit}, nil
}

func (s PotScaler) value(k Knob, raw float64) float64 {
	raw = analogRange.Clamp(raw)
	if k == KnobSustain {
		return Scale(raw, analogRange, s.sustain)
	}
	return Scale(raw, analogRange, s.times)
}

// Params converts a full set of readings.
func (s PotScaler) Params(r Readings) Params {
	return Params{
		Attack:  s.value(KnobAttack, r[KnobAttack]),
		Decay:   s.value(KnobDecay, r[KnobDecay]),
		Sustain: s.value(KnobSustain, r[KnobSustain]),
		Release: s.value(KnobRelease, r[KnobRelease]),
	}
}

func (s PotScaler) apply(p *Params, k Knob, raw float64) {
	v := s.value(k, raw)
	switch k {
	case KnobAttack:
		p.Attack = v
	case KnobDecay:
		p.Decay = v
	case KnobSustain:
		p.Sustain = v
	case KnobRelease:
		p.Release = v
	case numKnobs:
	}
}

// writeCounter is a PotReader that counts the writes to each knob.
type writeCounter interface {
	Writes() [numKnobs]uint64
}

// Poll samples r every interval until ctx is done and publishes the knobs
// that moved, all changes of one poll in a single update.
//
// If r counts writes (VirtualPots), a knob moved when it was written since
// the last poll, so writes made before Poll started are published on the
// first poll. Otherwise a knob moved when its reading changed, and the first
// reading is taken as the resting position of every knob.
func Poll(ctx context.Context, interval time.Duration, r PotReader, s PotScaler, props *Props[Params]) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	counter, counted := r.(writeCounter)
	var (
		last Readings
		seen [numKnobs]uint64
	)
	poll := func() error {
		var writes [numKnobs]uint64
		if counted {
			// counts first, so a reading is never older than its count
			writes = counter.Writes()
		}
		readings, err := r.ReadPots()
		if err != nil {
			return fmt.Errorf("read pots: %w", err)
		}
		var moved [numKnobs]bool
		changed := false
		for k := range readings {
			if counted {
				moved[k] = writes[k] != seen[k]
			} else {
				moved[k] = readings[k] != last[k]
			}
			changed = changed || moved[k]
		}
		last, seen = readings, writes
		if !changed {
			return nil
		}
		err = props.Update(func(p *Params) error {
			for k, m := range moved {
				if m {
					s.apply(p, Knob(k), readings[k])
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("publish pots: %w", err)
		}
		return nil
	}

	if counted {
		if err := poll(); err != nil {
			return err
		}
	} else {
		var err error
		if last, err = r.ReadPots(); err != nil {
			return fmt.Errorf("read pots: %w", err)
		}
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if err := poll(); err != nil {
			return err
		}
	}
}

// VirtualPots are knobs set from software, e.g. the REPL. Every Set counts
// as a move, even to the current value.
type VirtualPots struct {
	raw    [numKnobs]atomic.Uint64 // float64 bits
	writes [numKnobs]atomic.Uint64
}

func (v *VirtualPots) Set(k Knob, raw float64) error {
	if k < 0 || k >= numKnobs {
		return fmt.Errorf("unknown knob: %v", k)
	}
	if math.IsNaN(raw) {
		return fmt.Errorf("%v: reading is not a number", k)
	}
	v.raw[k].Store(math.Float64bits(raw))
	v.writes[k].Add(1)
	return nil
}

// Writes returns the number of Set calls per knob.
func (v *VirtualPots) Writes() [numKnobs]uint64 {
	var w [numKnobs]uint64
	for k := range w {
		w[k] = v.writes[k].Load()
	}
	return w
}

func (v *VirtualPots) ReadPots() (Readings, error) {
	var r Readings
	for k := range r {
		r[k] = math.Float64frombits(v.raw[k].Load())
	}
	return r, nil
}
