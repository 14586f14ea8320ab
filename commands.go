package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mrdg/envgen/audio"
	"github.com/mrdg/envgen/dub"
	"github.com/mrdg/envgen/script"
)

type command struct {
	name    string
	usage   string
	run     func(*env, []dub.Node) (string, error)
	minArgs int
	maxArgs int
}

var commands []command

func init() {
	commands = []command{
		{"set", "set <param> <value>", setCommand, 2, 2},
		{"get", "get <param>", getCommand, 1, 1},
		{"pot", "pot <param> <0-1023>", potCommand, 2, 2},
		{"gate", "gate on|off", gateCommand, 1, 1},
		{"trig", "trig <seconds>", trigCommand, 1, 1},
		{"preset", "preset <name>", presetCommand, 1, 1},
		{"bpm", "bpm <beats per minute>", bpmCommand, 1, 1},
		{"loop", "loop <beats> [steps]", loopCommand, 2, 2},
		{"stop", "stop", stopCommand, 0, 0},
		{"status", "status", statusCommand, 0, 0},
		{"render", `render "<file>" <seconds> [gate seconds]`, renderCommand, 2, 3},
		{"run", `run "<script>"`, runCommand, 1, 1},
		{"help", "help", helpCommand, 0, 0},
	}
}

func setCommand(env *env, args []dub.Node) (string, error) {
	var prop string
	if err := readArgs(args[:1], &prop); err != nil {
		return "", err
	}
	switch v := args[1].(type) {
	case dub.Number:
		return "", env.setProp(prop, float64(v))
	default:
		return "", fmt.Errorf("unsupported property type: %v", v)
	}
}

func getCommand(env *env, args []dub.Node) (string, error) {
	var prop string
	if err := readArgs(args, &prop); err != nil {
		return "", err
	}
	v, err := env.getProp(prop)
	if err != nil {
		return "", err
	}
	return fmt.Sprint(v), nil
}

func potCommand(env *env, args []dub.Node) (string, error) {
	var knob string
	var raw float64
	if err := readArgs(args, &knob, &raw); err != nil {
		return "", err
	}
	return "", env.Pot(knob, raw)
}

func gateCommand(env *env, args []dub.Node) (string, error) {
	var level string
	if err := readArgs(args, &level); err != nil {
		return "", err
	}
	switch level {
	case "on":
		env.SetGate(true)
	case "off":
		env.SetGate(false)
	default:
		return "", fmt.Errorf("gate must be on or off: %s", level)
	}
	return "", nil
}

func trigCommand(env *env, args []dub.Node) (string, error) {
	var seconds float64
	if err := readArgs(args, &seconds); err != nil {
		return "", err
	}
	if seconds <= 0 {
		return "", fmt.Errorf("trigger length must be positive: %v", seconds)
	}
	env.module.Trigger(env.clock.Samples(seconds))
	return "", nil
}

func presetCommand(env *env, args []dub.Node) (string, error) {
	var name string
	if err := readArgs(args, &name); err != nil {
		return "", err
	}
	return "", audio.LoadPreset(name, env.params)
}

func bpmCommand(env *env, args []dub.Node) (string, error) {
	var bpm float64
	if err := readArgs(args, &bpm); err != nil {
		return "", err
	}
	return "", env.seq.Set(audio.PropBPM, bpm)
}

func loopCommand(env *env, args []dub.Node) (string, error) {
	var length float64
	var pattern []dub.Node
	if err := readArgs(args, &length, &pattern); err != nil {
		return "", err
	}
	if length <= 0 {
		return "", fmt.Errorf("loop length must be positive: %v", length)
	}
	clip := audio.NewClip(length)
	if err := evalPattern(pattern, clip, length, new(float64)); err != nil {
		return "", err
	}
	return "", env.seq.Set(audio.PropClip, clip)
}

// evalPattern divides divLength beats evenly over the items of pattern. A
// number is a step whose gate is held for that many slots, 0 is a rest, and
// a nested array subdivides its slot.
func evalPattern(pattern []dub.Node, clip *audio.Clip, divLength float64, pos *float64) error {
	if len(pattern) == 0 {
		return nil
	}
	slot := divLength / float64(len(pattern))
	for _, item := range pattern {
		switch v := item.(type) {
		case dub.Number:
			if v < 0 {
				return fmt.Errorf("negative gate length %v in pattern", v)
			}
			if v > 0 {
				clip.AddStep(*pos, float64(v)*slot)
			}
			*pos += slot
		case dub.Array:
			if err := evalPattern(v, clip, slot, pos); err != nil {
				return err
			}
			if len(v) == 0 {
				*pos += slot
			}
		default:
			return fmt.Errorf("invalid %v in pattern %v", v, pattern)
		}
	}
	return nil
}

func stopCommand(env *env, args []dub.Node) (string, error) {
	return "", env.seq.Set(audio.PropClip, nil)
}

func statusCommand(env *env, args []dub.Node) (string, error) {
	var b strings.Builder
	renderStatus(&b, env.Status(), terminalWidth(env.out), env.color)
	p := env.params.Load()
	fmt.Fprintf(&b, "\nattack %vs  decay %vs  sustain %v  release %vs", p.Attack, p.Decay, p.Sustain, p.Release)
	return b.String(), nil
}

var errNothingToRender = errors.New("nothing to render: give a gate length or start a loop")

// renderCommand renders the current parameters offline. With a gate length
// the gate is held once from the start; otherwise the running loop drives
// it.
func renderCommand(env *env, args []dub.Node) (string, error) {
	var file string
	var seconds, hold float64
	var err error
	if len(args) == 3 {
		err = readArgs(args, &file, &seconds, &hold)
	} else {
		err = readArgs(args, &file, &seconds)
	}
	if err != nil {
		return "", err
	}

	clock, err := audio.NewClock(env.rate)
	if err != nil {
		return "", err
	}
	m, err := audio.NewModule(clock, env.params, audio.Unit)
	if err != nil {
		return "", err
	}
	var tickers []audio.Ticker
	switch {
	case hold > 0:
		m.Trigger(clock.Samples(hold))
	case len(args) == 3:
		return "", fmt.Errorf("gate length must be positive: %v", hold)
	default:
		v, _ := env.seq.Get(audio.PropClip)
		clip, _ := v.(*audio.Clip)
		if clip == nil {
			return "", errNothingToRender
		}
		bpm, _ := env.seq.Get(audio.PropBPM)
		seq := audio.NewSequencer(clock, m)
		if err := seq.SetAll(map[string]interface{}{audio.PropBPM: bpm, audio.PropClip: clip}); err != nil {
			return "", err
		}
		tickers = append(tickers, seq)
	}

	f, err := os.Create(file)
	if err != nil {
		return "", err
	}
	if err := audio.Render(f, m, seconds, tickers...); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return fmt.Sprintf("wrote %d samples to %s", clock.Ticks(), file), nil
}

func runCommand(env *env, args []dub.Node) (string, error) {
	var file string
	if err := readArgs(args, &file); err != nil {
		return "", err
	}
	return "", script.Run(env.ctx, file, env)
}

func helpCommand(env *env, args []dub.Node) (string, error) {
	var lines []string
	for _, cmd := range commands {
		lines = append(lines, "  "+cmd.usage)
	}
	lines = append(lines, "presets: "+strings.Join(audio.Presets(), ", "))
	return strings.Join(lines, "\n"), nil
}

func readArgs(args []dub.Node, slots ...interface{}) error {
	if len(args) != len(slots) {
		return errors.New("not enough arguments")
	}
	for n, arg := range args {
		dest := slots[n]
		switch p := dest.(type) {
		case *string:
			switch s := arg.(type) {
			case dub.String:
				*p = string(s)
			case dub.Identifier:
				*p = string(s)
			default:
				return fmt.Errorf("argument error: expected a string or identifier")
			}
		case *float64:
			n, ok := arg.(dub.Number)
			if !ok {
				return fmt.Errorf("argument error: expected a number")
			}
			*p = float64(n)
		case *[]dub.Node:
			arr, ok := arg.(dub.Array)
			if !ok {
				return fmt.Errorf("argument error: expected an array")
			}
			*p = arr
		default:
			panic("readArgs: unhandled destination type: " + fmt.Sprint(p))
		}
	}
	return nil
}
