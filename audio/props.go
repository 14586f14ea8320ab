package audio

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
)

// Props publishes a snapshot of device configuration of type T. Readers
// (the audio thread) call Load and never block; they always observe a whole
// snapshot, never a mix of old and new fields. Writers go through Set,
// SetAll or Update, which copy the current snapshot, modify the copy and
// swap it in. All properties should be registered before any reads take place.
type Props[T any] struct {
	mu      sync.Mutex // serializes writers
	current atomic.Pointer[T]
	props   map[string]prop[T]
}

type prop[T any] struct {
	get func(*T) interface{}
	set setter[T]
}

type setter[T any] func(val interface{}, dest *T) error

func NewProps[T any](init T) *Props[T] {
	p := &Props[T]{props: make(map[string]prop[T])}
	p.current.Store(&init)
	return p
}

// Load returns the current snapshot. The result must not be modified.
func (p *Props[T]) Load() *T {
	return p.current.Load()
}

// Update applies f to a copy of the current snapshot and publishes the
// result, unless f returns an error.
func (p *Props[T]) Update(f func(*T) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	next := *p.current.Load()
	if err := f(&next); err != nil {
		return err
	}
	p.current.Store(&next)
	return nil
}

// Set updates the property with value. The key has to be registered first using Register.
func (p *Props[T]) Set(key string, value interface{}) error {
	prop, ok := p.props[key]
	if !ok {
		return fmt.Errorf("unknown property %s", key)
	}
	if err := p.Update(func(v *T) error { return prop.set(value, v) }); err != nil {
		return fmt.Errorf("set property %s: %w", key, err)
	}
	return nil
}

// SetAll updates several properties and publishes them together. Nothing is
// published if any of them fails.
func (p *Props[T]) SetAll(values map[string]interface{}) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		if _, ok := p.props[k]; !ok {
			return fmt.Errorf("unknown property %s", k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return p.Update(func(v *T) error {
		for _, k := range keys {
			if err := p.props[k].set(values[k], v); err != nil {
				return fmt.Errorf("set property %s: %w", k, err)
			}
		}
		return nil
	})
}

func (p *Props[T]) Get(key string) (interface{}, error) {
	prop, ok := p.props[key]
	if !ok {
		return nil, fmt.Errorf("unknown property %s", key)
	}
	return prop.get(p.Load()), nil
}

// Register adds a new property.
func (p *Props[T]) Register(key string, get func(*T) interface{}, set setter[T]) {
	p.props[key] = prop[T]{get: get, set: set}
}

// Keys returns the registered property names in sorted order.
func (p *Props[T]) Keys() []string {
	keys := make([]string, 0, len(p.props))
	for k := range p.props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func registerFloat64[T any](p *Props[T], key string, min, max float64, field func(*T) *float64) {
	p.Register(key,
		func(v *T) interface{} { return *field(v) },
		func(v interface{}, dest *T) error {
			f, err := toFloat64(v)
			if err != nil {
				return err
			}
			if math.IsNaN(f) || f < min || f > max {
				return fmt.Errorf("property value is not in valid range %v - %v: %v", min, max, f)
			}
			*field(dest) = f
			return nil
		})
}

func toFloat64(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("value is not a float64: %v", v)
	}
}

const (
	PropAttack  = "attack"
	PropDecay   = "decay"
	PropSustain = "sustain"
	PropRelease = "release"
)

// NewEnvelopeProps registers the four envelope parameters. Times are limited
// to [0, maxStage] seconds and the sustain level to [0, 1]. The initial
// parameters are validated the same way later updates are.
func NewEnvelopeProps(maxStage float64, init Params) (*Props[Params], error) {
	if maxStage <= 0 {
		return nil, fmt.Errorf("max stage duration must be positive: %v", maxStage)
	}
	props := NewProps(Params{})
	registerFloat64(props, PropAttack, 0, maxStage, func(p *Params) *float64 { return &p.Attack })
	registerFloat64(props, PropDecay, 0, maxStage, func(p *Params) *float64 { return &p.Decay })
	registerFloat64(props, PropSustain, 0, 1, func(p *Params) *float64 { return &p.Sustain })
	registerFloat64(props, PropRelease, 0, maxStage, func(p *Params) *float64 { return &p.Release })

	if err := props.SetAll(map[string]interface{}{
		PropAttack:  init.Attack,
		PropDecay:   init.Decay,
		PropSustain: init.Sustain,
		PropRelease: init.Release,
	}); err != nil {
		return nil, err
	}
	return props, nil
}
