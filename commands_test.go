package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mrdg/envgen/audio"
)

func newTestEnv(t *testing.T) *env {
	t.Helper()
	a := &args{
		Rate:     1000,
		MaxStage: 10,
		Buffer:   64,
		Channels: 1,
		Backend:  "timer",
		OutMax:   1,
		Attack:   0.01,
		Decay:    0.01,
		Sustain:  0.5,
		Release:  0.01,
	}
	if err := a.validate(); err != nil {
		t.Fatal(err)
	}
	env, err := newEnv(a, new(bytes.Buffer))
	if err != nil {
		t.Fatal(err)
	}
	return env
}

func mustEval(t *testing.T, env *env, input string) string {
	t.Helper()
	result, err := env.eval(input)
	if err != nil {
		t.Fatalf("%s: %v", input, err)
	}
	return result
}

func TestSetGet(t *testing.T) {
	env := newTestEnv(t)
	mustEval(t, env, "set attack 2.5")
	if want, got := "2.5", mustEval(t, env, "get attack"); want != got {
		t.Errorf("want %s, got %s", want, got)
	}
	if want, got := 2.5, env.params.Load().Attack; want != got {
		t.Errorf("want published attack %v, got %v", want, got)
	}
	mustEval(t, env, "set bpm 90")
	if want, got := "90", mustEval(t, env, "get bpm"); want != got {
		t.Errorf("want %s, got %s", want, got)
	}
}

func TestSetErrors(t *testing.T) {
	env := newTestEnv(t)
	for _, input := range []string{
		"set attack 11",
		"set sustain 1.5",
		"set release -1",
		"set nope 1",
		`set attack "fast"`,
		"get nope",
		"set attack",
		"nope",
	} {
		if _, err := env.eval(input); err == nil {
			t.Errorf("%s: expected an error", input)
		}
	}
	if want, got := 0.01, env.params.Load().Attack; want != got {
		t.Errorf("want attack unchanged at %v, got %v", want, got)
	}
}

func TestPresetCommand(t *testing.T) {
	env := newTestEnv(t)
	mustEval(t, env, "preset pad")
	want := audio.Params{Attack: 1.5, Decay: 1, Sustain: 0.7, Release: 2.5}
	if got := *env.params.Load(); got != want {
		t.Errorf("want %+v, got %+v", want, got)
	}
	if _, err := env.eval("preset nope"); err == nil {
		t.Error("expected an error for an unknown preset")
	}
}

func TestGateCommand(t *testing.T) {
	env := newTestEnv(t)
	mustEval(t, env, "gate on")
	mustEval(t, env, "gate off")
	if _, err := env.eval("gate maybe"); err == nil {
		t.Error("expected an error for an invalid gate level")
	}
	if _, err := env.eval("trig 0"); err == nil {
		t.Error("expected an error for a zero length trigger")
	}
}

func TestPotCommand(t *testing.T) {
	env := newTestEnv(t)
	mustEval(t, env, "pot sustain 512")
	r, err := env.pots.ReadPots()
	if err != nil {
		t.Fatal(err)
	}
	if want, got := 512.0, r[audio.KnobSustain]; want != got {
		t.Errorf("want reading %v, got %v", want, got)
	}
	if _, err := env.eval("pot volume 10"); err == nil {
		t.Error("expected an error for an unknown knob")
	}
}

func TestLoop(t *testing.T) {
	tests := []struct {
		input string
		steps int
	}{
		{"loop 4 [1 0 1 0]", 2},
		{"loop 4 [1 [1 1]]", 3},
		{"loop 1 [2 0]", 1},
		{"loop 2 [[] 1]", 1},
		{"loop 4 []", 0},
	}
	for _, test := range tests {
		env := newTestEnv(t)
		mustEval(t, env, test.input)
		v, err := env.seq.Get(audio.PropClip)
		if err != nil {
			t.Fatal(err)
		}
		clip := v.(*audio.Clip)
		if got := clip.Steps(); got != test.steps {
			t.Errorf("%s: want %d steps, got %d", test.input, test.steps, got)
		}
	}

	env := newTestEnv(t)
	for _, input := range []string{"loop 0 [1]", "loop 4 [1 -1]", `loop 4 ["x"]`, "loop 4 1"} {
		if _, err := env.eval(input); err == nil {
			t.Errorf("%s: expected an error", input)
		}
	}
	mustEval(t, env, "loop 4 [1]")
	mustEval(t, env, "stop")
	if v, _ := env.seq.Get(audio.PropClip); v.(*audio.Clip) != nil {
		t.Error("want no clip after stop")
	}
}

func TestRenderCommand(t *testing.T) {
	env := newTestEnv(t)
	dir := t.TempDir()

	file := filepath.Join(dir, "hold.wav")
	result := mustEval(t, env, `render "`+file+`" 0.1 0.05`)
	if want := "wrote 100 samples"; !strings.HasPrefix(result, want) {
		t.Errorf("want result starting with %q, got %q", want, result)
	}
	info, err := os.Stat(file)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() <= 200 {
		t.Errorf("want header and 100 16-bit samples, got %d bytes", info.Size())
	}

	_, err = env.eval(`render "` + filepath.Join(dir, "none.wav") + `" 0.1`)
	if !errors.Is(err, errNothingToRender) {
		t.Errorf("want %v, got %v", errNothingToRender, err)
	}

	mustEval(t, env, "loop 1 [1 1]")
	mustEval(t, env, `render "`+filepath.Join(dir, "loop.wav")+`" 1`)

	if _, err := env.eval(`render "` + filepath.Join(dir, "bad.wav") + `" 0.1 -1`); err == nil {
		t.Error("expected an error for a negative gate length")
	}
	if status := env.Status(); status.Ticks != 0 {
		t.Errorf("rendering should not advance the live clock, got %d ticks", status.Ticks)
	}
}

func TestStatusAndHelp(t *testing.T) {
	env := newTestEnv(t)
	status := mustEval(t, env, "status")
	for _, want := range []string{"idle", "gate off", "sustain 0.5"} {
		if !strings.Contains(status, want) {
			t.Errorf("status %q doesn't contain %q", status, want)
		}
	}
	help := mustEval(t, env, "help")
	for _, cmd := range commands {
		if !strings.Contains(help, cmd.usage) {
			t.Errorf("help doesn't mention %s", cmd.name)
		}
	}
}

func TestRunCommand(t *testing.T) {
	env := newTestEnv(t)
	file := filepath.Join(t.TempDir(), "slow.lua")
	if err := os.WriteFile(file, []byte(`set("attack", 3)`), 0o644); err != nil {
		t.Fatal(err)
	}
	mustEval(t, env, `run "`+file+`"`)
	if want, got := 3.0, env.params.Load().Attack; want != got {
		t.Errorf("want attack %v, got %v", want, got)
	}
}

func TestReadArgs(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.eval("bpm fast"); err == nil {
		t.Error("expected an error for a non-numeric bpm")
	}
	if _, err := env.eval("bpm 1000"); err == nil {
		t.Error("expected an error for an out of range bpm")
	}
}

func TestTrigCommand(t *testing.T) {
	env := newTestEnv(t)
	mustEval(t, env, "trig 0.002")

	out := [][]float32{make([]float32, 64)}
	env.module.Process(out)
	if out[0][0] != 0 || out[0][1] == 0 {
		t.Errorf("want the attack to start on the first frame, got %v", out[0][:4])
	}
	if st := env.Status(); st.Gate {
		t.Errorf("want the gate low again by the end of the buffer: %+v", st)
	}
}
