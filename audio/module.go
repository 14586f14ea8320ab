package audio

import (
	"fmt"
	"math"
	"sync/atomic"
)

// Gater receives gate changes scheduled at a frame offset within the next
// buffer.
type Gater interface {
	Gate(offset int, high bool)
}

// Source is processed once per audio buffer by a backend.
type Source interface {
	Process([][]float32)
}

// Ticker is advanced once per audio buffer, before any Source is processed.
type Ticker interface {
	Tick(numSamples int)
}

// Module is the envelope generator: gate input, edge detection, the
// envelope state machine and the output stage. Process and Gate must only
// be called from the audio thread. SetGate, Status and the parameter Props
// can be used from anywhere.
type Module struct {
	clock  *Clock
	params *Props[Params]
	output Range

	env    *Envelope
	edges  edgeDetector
	events *eventBuffer
	manual atomic.Bool
	seq    bool // sequenced gate level
	trig   atomic.Int64
	pulse  int // frames left of the current trigger

	stage   atomic.Int32
	level   atomic.Uint64 // float64 bits of the last normalized output
	gate    atomic.Bool
	dropped atomic.Uint64
}

// NewModule returns a module ticking at the clock's rate and reading its
// parameters from params. Normalized output is scaled into output before it
// is handed to a backend.
func NewModule(clock *Clock, params *Props[Params], output Range) (*Module, error) {
	if err := output.Validate(); err != nil {
		return nil, fmt.Errorf("output range: %w", err)
	}
	return &Module{
		clock:  clock,
		params: params,
		output: output,
		env:    NewEnvelope(clock.SampleRate()),
		events: newEventBuffer(64),
	}, nil
}

func (m *Module) Clock() *Clock          { return m.clock }
func (m *Module) Params() *Props[Params] { return m.params }

// SetGate sets the level of the manual gate input. It is sampled once per
// tick and ORed with the sequenced gate and any trigger.
func (m *Module) SetGate(high bool) {
	m.manual.Store(high)
}

// Trigger raises the gate for length frames, starting with the next buffer
// the audio thread processes. A trigger always restarts the attack, even
// while the gate is already high. A later trigger replaces a pending one.
func (m *Module) Trigger(length int) {
	if length < 1 {
		length = 1
	}
	m.trig.Store(int64(length))
}

// Gate schedules a change of the sequenced gate level. Events must be
// scheduled in offset order. If the queue is full the event is dropped and
// counted.
func (m *Module) Gate(offset int, high bool) {
	if !m.events.tryPush(gateEvent{offset: offset, high: high}) {
		m.dropped.Add(1)
	}
}

// Process runs one tick per frame and adds the output to every channel.
func (m *Module) Process(out [][]float32) {
	if len(out) == 0 {
		return
	}
	m.run(len(out[0]), func(i int, v float64) {
		sample := float32(Scale(v, Unit, m.output))
		for ch := range out {
			out[ch][i] += sample
		}
	})
}

// run executes n ticks, handing each normalized output to emit.
func (m *Module) run(n int, emit func(i int, v float64)) {
	var out float64
	if l := m.trig.Swap(0); l > 0 {
		m.pulse = int(l)
		m.edges.prev = false
	}
	for i := 0; i < n; i++ {
		m.events.iter(i+1, func(ev gateEvent) { m.seq = ev.high })
		level := m.manual.Load() || m.seq || m.pulse > 0
		if m.pulse > 0 {
			m.pulse--
		}
		out = m.env.Tick(m.edges.classify(level), m.params.Load())
		emit(i, out)
	}
	// events scheduled past the end of the buffer apply from the next one
	m.events.iter(-1, func(ev gateEvent) { m.seq = ev.high })

	m.clock.Advance(n)
	m.stage.Store(int32(m.env.State().Stage))
	m.level.Store(math.Float64bits(out))
	m.gate.Store(m.edges.prev)
}

// Status is a snapshot of the module for diagnostics.
type Status struct {
	Stage   Stage
	Output  float64 // normalized output of the last tick
	Gate    bool
	Ticks   uint64
	Missed  uint64
	Dropped uint64
}

// Status returns the state as of the last processed buffer.
func (m *Module) Status() Status {
	return Status{
		Stage:   Stage(m.stage.Load()),
		Output:  math.Float64frombits(m.level.Load()),
		Gate:    m.gate.Load(),
		Ticks:   m.clock.Ticks(),
		Missed:  m.clock.Missed(),
		Dropped: m.dropped.Load(),
	}
}
