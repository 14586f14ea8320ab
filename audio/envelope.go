package audio

import "fmt"

// Stage is one phase of the envelope.
type Stage int

const (
	StageIdle Stage = iota
	StageAttack
	StageDecay
	StageSustain
	StageRelease
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageAttack:
		return "attack"
	case StageDecay:
		return "decay"
	case StageSustain:
		return "sustain"
	case StageRelease:
		return "release"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Params are the envelope parameters. Times are in seconds and must not be
// negative, Sustain is a level in [0, 1]. A published Params value is never
// modified; see Props.
type Params struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

// State is the only thing an Envelope carries from one tick to the next.
type State struct {
	Stage Stage
	Count int // samples elapsed in Stage
}

// Envelope is a linear ADSR state machine advanced one sample at a time.
// It is not safe for concurrent use; a Module owns one and ticks it from
// the audio thread.
type Envelope struct {
	sampleRate float64
	state      State
}

func NewEnvelope(sampleRate float64) *Envelope {
	return &Envelope{sampleRate: sampleRate}
}

func (e *Envelope) State() State { return e.state }

func (e *Envelope) enter(stage Stage) {
	e.state = State{Stage: stage}
}

// Tick applies the gate edge for this sample, returns the normalized output
// for the current stage and then advances the stage counter.
//
// The output is computed from the count before it advances, so the first
// sample of every stage yields that stage's starting value. A zero length
// stage outputs its end value on its first sample and moves on during the
// same tick.
func (e *Envelope) Tick(edge Edge, p *Params) float64 {
	switch edge {
	case Rising:
		e.enter(StageAttack)
	case Falling:
		switch e.state.Stage {
		case StageAttack, StageDecay, StageSustain:
			e.enter(StageRelease)
		case StageIdle, StageRelease:
		}
	case Unchanged:
	}

	var (
		out    float64
		length float64 // stage length in samples
		next   Stage
	)
	switch e.state.Stage {
	case StageIdle:
		return 0
	case StageSustain:
		return p.Sustain
	case StageAttack:
		length = p.Attack * e.sampleRate
		out = 1
		if p.Attack != 0 {
			out = e.progress(length)
		}
		next = StageDecay
	case StageDecay:
		length = p.Decay * e.sampleRate
		out = p.Sustain
		if p.Decay != 0 {
			out = p.Sustain + (1-e.progress(length))*(1-p.Sustain)
		}
		next = StageSustain
	case StageRelease:
		length = p.Release * e.sampleRate
		out = 0
		if p.Release != 0 {
			out = p.Sustain * (1 - e.progress(length))
		}
		next = StageIdle
	}

	if float64(e.state.Count) >= length {
		e.enter(next)
	} else {
		e.state.Count++
	}
	return out
}

// progress is the fraction of a stage of length samples already elapsed.
// It saturates at 1 so a stage shortened mid-flight can't overshoot.
func (e *Envelope) progress(length float64) float64 {
	f := float64(e.state.Count) / length
	if f > 1 {
		return 1
	}
	return f
}
