package audio

// Edge classifies the gate level of one tick against the previous one.
type Edge int

const (
	Unchanged Edge = iota
	Rising
	Falling
)

func (e Edge) String() string {
	switch e {
	case Unchanged:
		return "unchanged"
	case Rising:
		return "rising"
	case Falling:
		return "falling"
	}
	return "invalid"
}

// edgeDetector remembers the gate level of the last tick. It is owned by
// the audio thread and must not be shared.
type edgeDetector struct {
	prev bool
}

func (d *edgeDetector) classify(level bool) Edge {
	prev := d.prev
	d.prev = level
	switch {
	case level && !prev:
		return Rising
	case !level && prev:
		return Falling
	}
	return Unchanged
}
