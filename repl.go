package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/term"

	"github.com/mrdg/envgen/audio"
	"github.com/mrdg/envgen/dub"
)

type env struct {
	ctx      context.Context
	out      io.Writer
	color    bool
	rate     int
	maxStage float64

	clock   *audio.Clock
	params  *audio.Props[audio.Params]
	module  *audio.Module
	seq     *audio.Sequencer
	pots    *audio.VirtualPots
	scaler  audio.PotScaler
	devices []audio.Device
}

func newEnv(a *args, out io.Writer) (*env, error) {
	clock, err := audio.NewClock(a.Rate)
	if err != nil {
		return nil, err
	}
	params, err := audio.NewEnvelopeProps(a.MaxStage, a.params())
	if err != nil {
		return nil, err
	}
	module, err := audio.NewModule(clock, params, audio.Range{Min: a.OutMin, Max: a.OutMax})
	if err != nil {
		return nil, err
	}
	scaler, err := audio.NewPotScaler(a.MaxStage)
	if err != nil {
		return nil, err
	}
	seq := audio.NewSequencer(clock, module)
	return &env{
		ctx:      context.Background(),
		out:      out,
		color:    isTerminal(out),
		rate:     a.Rate,
		maxStage: a.MaxStage,
		clock:    clock,
		params:   params,
		module:   module,
		seq:      seq,
		pots:     new(audio.VirtualPots),
		scaler:   scaler,
		devices:  []audio.Device{params, seq},
	}, nil
}

// Set implements script.Host.
func (e *env) Set(key string, v interface{}) error {
	return e.setProp(key, v)
}

// Pot implements script.Host.
func (e *env) Pot(name string, raw float64) error {
	knob, err := audio.ParseKnob(name)
	if err != nil {
		return err
	}
	return e.pots.Set(knob, raw)
}

// SetGate implements script.Host.
func (e *env) SetGate(high bool) {
	e.module.SetGate(high)
}

// Status implements script.Host.
func (e *env) Status() audio.Status {
	return e.module.Status()
}

func (e *env) setProp(prop string, v interface{}) error {
	for _, d := range e.devices {
		if _, err := d.Get(prop); err == nil {
			return d.Set(prop, v)
		}
	}
	return fmt.Errorf("unknown property: %s", prop)
}

func (e *env) getProp(prop string) (interface{}, error) {
	for _, d := range e.devices {
		if v, err := d.Get(prop); err == nil {
			return v, nil
		}
	}
	return nil, fmt.Errorf("unknown property: %s", prop)
}

func (e *env) eval(input string) (string, error) {
	command, err := dub.Parse(input)
	if err != nil {
		return "", err
	}
	name := string(command.Name)
	for _, cmd := range commands {
		if name != cmd.name {
			continue
		}
		if n := len(command.Args); n < cmd.minArgs || n > cmd.maxArgs {
			if cmd.minArgs == cmd.maxArgs {
				return "", fmt.Errorf("%s: wrong number of arguments: want %v, got %v",
					cmd.name, cmd.minArgs, n)
			}
			return "", fmt.Errorf("%s: wrong number of arguments: want %v to %v, got %v",
				cmd.name, cmd.minArgs, cmd.maxArgs, n)
		}
		result, err := cmd.run(e, command.Args)
		if err != nil {
			return result, fmt.Errorf("%s error: %w", cmd.name, err)
		}
		return result, nil
	}
	return "", fmt.Errorf("unknown command: %s", name)
}

func (e *env) completer() *readline.PrefixCompleter {
	var props []readline.PrefixCompleterInterface
	for _, d := range e.devices {
		if k, ok := d.(interface{ Keys() []string }); ok {
			for _, key := range k.Keys() {
				props = append(props, readline.PcItem(key))
			}
		}
	}
	var knobs []readline.PrefixCompleterInterface
	for _, key := range e.params.Keys() {
		knobs = append(knobs, readline.PcItem(key))
	}
	var presets []readline.PrefixCompleterInterface
	for _, name := range audio.Presets() {
		presets = append(presets, readline.PcItem(name))
	}

	var items []readline.PrefixCompleterInterface
	for _, cmd := range commands {
		switch cmd.name {
		case "set", "get":
			items = append(items, readline.PcItem(cmd.name, props...))
		case "pot":
			items = append(items, readline.PcItem(cmd.name, knobs...))
		case "preset":
			items = append(items, readline.PcItem(cmd.name, presets...))
		case "gate":
			items = append(items, readline.PcItem(cmd.name, readline.PcItem("on"), readline.PcItem("off")))
		default:
			items = append(items, readline.PcItem(cmd.name))
		}
	}
	return readline.NewPrefixCompleter(items...)
}

func repl(env *env) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:       "> ",
		AutoComplete: env.completer(),
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				return nil
			}
			continue
		}
		if err == io.EOF {
			return err
		}
		if err != nil {
			fmt.Fprintln(env.out, err)
			continue
		}
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}
		if result, err := env.eval(line); err != nil {
			fmt.Fprintln(env.out, err)
		} else if result != "" {
			fmt.Fprintln(env.out, result)
		}
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
