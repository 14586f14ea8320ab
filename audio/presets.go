package audio

import (
	"fmt"
	"sort"
)

type Device interface {
	Set(key string, val interface{}) error
	Get(key string) (interface{}, error)
}

type preset map[string]interface{}

var presets = map[string]preset{
	"pluck": {
		PropAttack:  0.,
		PropDecay:   0.15,
		PropSustain: 0.,
		PropRelease: 0.05,
	},
	"pad": {
		PropAttack:  1.5,
		PropDecay:   1.,
		PropSustain: 0.7,
		PropRelease: 2.5,
	},
	"gate": {
		PropAttack:  0.,
		PropDecay:   0.,
		PropSustain: 1.,
		PropRelease: 0.,
	},
	"swell": {
		PropAttack:  3.,
		PropDecay:   0.,
		PropSustain: 1.,
		PropRelease: 4.,
	},
}

// batchDevice can apply several properties as one update.
type batchDevice interface {
	SetAll(values map[string]interface{}) error
}

// LoadPreset applies a named parameter set to d. Devices that support it get
// the whole preset in a single update; others are set one property at a time.
func LoadPreset(name string, d Device) error {
	p, ok := presets[name]
	if !ok {
		return fmt.Errorf("unknown preset: %v", name)
	}
	if b, ok := d.(batchDevice); ok {
		return b.SetAll(p)
	}
	for _, k := range sortedKeys(p) {
		if err := d.Set(k, p[k]); err != nil {
			return err
		}
	}
	return nil
}

// Presets returns the names of all presets.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedKeys(p preset) []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
