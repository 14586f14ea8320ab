package audio

import (
	"fmt"
	"math"
)

// Pulses per quarter note
const PPQN = 960.

// Clip is a looped gate pattern.
type Clip struct {
	Length int // in pulses
	steps  []step
}

func NewClip(length float64) *Clip {
	return &Clip{Length: int(length * PPQN)}
}

// AddStep raises the gate at position and holds it for length beats. Steps
// outside the clip or without a length are ignored.
func (c *Clip) AddStep(position, length float64) {
	pos := int(position * PPQN)
	if pos < 0 || pos >= c.Length || length <= 0 {
		return
	}
	c.steps = append(c.steps, step{pos: pos, length: length})
}

func (c *Clip) Steps() int { return len(c.steps) }

type step struct {
	pos    int     // position of the step measured in PPQN from the start of a clip
	length float64 // gate length in beats
}

type seqParams struct {
	bpm  float64
	clip *Clip
}

const (
	PropBPM  = "bpm"
	PropClip = "clip"
)

// Sequencer drives the gate of a Gater from a looped Clip. It is a Ticker
// and must be ticked from the audio thread before the Gater is processed.
type Sequencer struct {
	*Props[seqParams]
	gater      Gater
	sampleRate float64
	pulses     float64 // pulses elapsed since start

	pending []int // frames until a gate-off, relative to the next buffer
	events  []gateEvent
}

func NewSequencer(clock *Clock, gater Gater) *Sequencer {
	props := NewProps(seqParams{bpm: 120})
	registerFloat64(props, PropBPM, 1, 500, func(p *seqParams) *float64 { return &p.bpm })
	props.Register(PropClip, func(p *seqParams) interface{} { return p.clip }, setClip)
	return &Sequencer{
		Props:      props,
		gater:      gater,
		sampleRate: clock.SampleRate(),
		events:     make([]gateEvent, 0, 64),
	}
}

func (s *Sequencer) Tick(numSamples int) {
	s.events = s.events[:0]

	// gate-offs carried over from earlier buffers
	pending := s.pending[:0]
	for _, n := range s.pending {
		if n < numSamples {
			s.events = append(s.events, gateEvent{offset: n})
		} else {
			pending = append(pending, n-numSamples)
		}
	}
	s.pending = pending

	p := s.Load()
	if p.clip == nil || p.clip.Length <= 0 {
		s.flush()
		return
	}

	var (
		clipLen   = float64(p.clip.Length)
		// multiply before dividing so whole numbers of pulses stay exact
		toSamples = func(pulses float64) float64 { return pulses * 60 * s.sampleRate / (p.bpm * PPQN) }
		start     = s.pulses
		end       = start + float64(numSamples)*p.bpm*PPQN/(60*s.sampleRate)
	)
	for base := math.Floor(start/clipLen) * clipLen; base < end; base += clipLen {
		for _, st := range p.clip.steps {
			pos := base + float64(st.pos)
			if pos < start || pos >= end {
				continue
			}
			offset := int(math.Round(toSamples(pos - start)))
			if offset >= numSamples {
				offset = numSamples - 1
			}
			// Release one frame early so back to back steps retrigger.
			duration := int(st.length*60*s.sampleRate/p.bpm) - 1
			if duration < 1 {
				duration = 1
			}
			s.events = append(s.events, gateEvent{offset: offset, high: true})
			if off := offset + duration; off < numSamples {
				s.events = append(s.events, gateEvent{offset: off})
			} else {
				s.pending = append(s.pending, off-numSamples)
			}
		}
	}
	s.pulses = end
	s.flush()
}

// flush hands the collected events to the gater in offset order, gate-offs
// before gate-ons at the same offset.
func (s *Sequencer) flush() {
	ev := s.events
	for i := 1; i < len(ev); i++ {
		for j := i; j > 0 && eventLess(ev[j], ev[j-1]); j-- {
			ev[j], ev[j-1] = ev[j-1], ev[j]
		}
	}
	for _, e := range ev {
		s.gater.Gate(e.offset, e.high)
	}
}

func eventLess(a, b gateEvent) bool {
	if a.offset != b.offset {
		return a.offset < b.offset
	}
	return !a.high && b.high
}

func setClip(v interface{}, dest *seqParams) error {
	switch c := v.(type) {
	case *Clip:
		dest.clip = c
		return nil
	case nil:
		dest.clip = nil
		return nil
	}
	return fmt.Errorf("value is not a clip: %v", v)
}
