package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/alexflint/go-arg"
	"golang.org/x/sync/errgroup"

	"github.com/mrdg/envgen/audio"
	"github.com/mrdg/envgen/script"
)

type args struct {
	Rate     int           `arg:"--rate,env:ENVGEN_RATE" default:"6000" help:"sample rate in Hz, fixed for the session"`
	MaxStage float64       `arg:"--max-stage,env:ENVGEN_MAX_STAGE" default:"10" help:"longest attack, decay or release in seconds"`
	Buffer   int           `arg:"--buffer,env:ENVGEN_BUFFER" default:"256" help:"frames per audio buffer"`
	Channels int           `arg:"--channels" default:"2" help:"output channels, all carry the envelope"`
	Backend  string        `arg:"--backend,env:ENVGEN_BACKEND" default:"portaudio" help:"portaudio, beep or timer"`
	OutMin   float64       `arg:"--out-min" default:"0" help:"output value for a normalized 0"`
	OutMax   float64       `arg:"--out-max" default:"1" help:"output value for a normalized 1"`
	Attack   float64       `arg:"--attack" default:"0.01" help:"attack time in seconds"`
	Decay    float64       `arg:"--decay" default:"0.2" help:"decay time in seconds"`
	Sustain  float64       `arg:"--sustain" default:"0.7" help:"sustain level, 0 to 1"`
	Release  float64       `arg:"--release" default:"0.5" help:"release time in seconds"`
	Preset   string        `arg:"--preset" help:"load a preset on startup"`
	Poll     time.Duration `arg:"--poll" default:"10ms" help:"pot polling interval"`
	Monitor  time.Duration `arg:"--monitor" help:"print the status line at this interval, 0 disables"`
	Script   string        `arg:"--script" help:"Lua automation script to run in the background"`
	Run      string        `arg:"--run" help:"file of commands to evaluate before the prompt"`
	Quiet    bool          `arg:"-q,--quiet" help:"discard log output"`
}

func (args) Description() string {
	return "envgen is an ADSR envelope generator driven by a gate."
}

func (a *args) validate() error {
	if a.Rate <= 0 {
		return fmt.Errorf("rate must be positive: %d", a.Rate)
	}
	if a.MaxStage <= 0 {
		return fmt.Errorf("max-stage must be positive: %v", a.MaxStage)
	}
	if a.Buffer <= 0 {
		return fmt.Errorf("buffer must be positive: %d", a.Buffer)
	}
	if a.Channels <= 0 {
		return fmt.Errorf("channels must be positive: %d", a.Channels)
	}
	if a.Poll <= 0 {
		return fmt.Errorf("poll must be positive: %v", a.Poll)
	}
	if a.Monitor < 0 {
		return fmt.Errorf("monitor can't be negative: %v", a.Monitor)
	}
	switch a.Backend {
	case "portaudio", "beep", "timer":
	default:
		return fmt.Errorf("unknown backend: %s", a.Backend)
	}
	return audio.Range{Min: a.OutMin, Max: a.OutMax}.Validate()
}

func (a *args) params() audio.Params {
	return audio.Params{
		Attack:  a.Attack,
		Decay:   a.Decay,
		Sustain: a.Sustain,
		Release: a.Release,
	}
}

type backend interface {
	audio.Backend
	AddSources(...audio.Source)
	AddTicker(audio.Ticker)
}

func openBackend(a *args, clock *audio.Clock) (backend, error) {
	switch a.Backend {
	case "portaudio":
		return audio.NewSink(clock, a.Channels, a.Buffer)
	case "beep":
		return audio.NewSpeaker(clock, a.Buffer), nil
	case "timer":
		return audio.NewTimer(clock, a.Buffer), nil
	}
	return nil, fmt.Errorf("unknown backend: %s", a.Backend)
}

func main() {
	var a args
	p := arg.MustParse(&a)
	if err := a.validate(); err != nil {
		p.Fail(err.Error())
	}
	if a.Quiet {
		log.SetOutput(io.Discard)
	}

	env, err := newEnv(&a, os.Stdout)
	if err != nil {
		log.Fatal(err)
	}
	if a.Preset != "" {
		if err := audio.LoadPreset(a.Preset, env.params); err != nil {
			log.Fatal(err)
		}
	}

	var commands []string
	if a.Run != "" {
		f, err := os.Open(a.Run)
		if err != nil {
			log.Fatal(err)
		}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			commands = append(commands, strings.TrimSpace(scanner.Text()))
		}
		f.Close()
		if err := scanner.Err(); err != nil {
			log.Fatal(err)
		}
	}

	b, err := openBackend(&a, env.clock)
	if err != nil {
		log.Fatalf("%s: %v", a.Backend, err)
	}
	b.AddTicker(env.seq)
	b.AddSources(env.module)
	if err := b.Start(); err != nil {
		log.Fatalf("%s: %v", a.Backend, err)
	}
	log.Printf("envgen: %s backend running at %d Hz", a.Backend, a.Rate)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	g, ctx := errgroup.WithContext(ctx)
	env.ctx = ctx

	g.Go(func() error {
		return audio.Poll(ctx, a.Poll, env.pots, env.scaler, env.params)
	})
	if a.Monitor > 0 {
		g.Go(func() error {
			return monitor(ctx, env, a.Monitor)
		})
	}
	if a.Script != "" {
		g.Go(func() error {
			if err := script.Run(ctx, a.Script, env); err != nil && ctx.Err() == nil {
				log.Printf("script: %v", err)
			}
			return nil
		})
	}

	for _, line := range commands {
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, err := env.eval(line); err != nil {
			log.Fatal(err)
		}
	}

	if err := repl(env); err != nil && err != io.EOF {
		log.Print(err)
	}
	cancel()
	if err := g.Wait(); err != nil {
		log.Print(err)
	}
	if err := b.Stop(); err != nil {
		log.Printf("%s: %v", a.Backend, err)
	}
}
