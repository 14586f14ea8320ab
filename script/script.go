// Package script runs Lua automation against the envelope generator. A
// script is one more parameter source and gate input; it runs on its own
// goroutine and never touches the audio thread directly.
//
// Globals available to scripts:
//
//	set(name, value)   set an envelope parameter
//	pot(name, raw)     move a virtual pot to a raw reading (0-1023)
//	gate(level)        set the manual gate, true or false
//	sleep(seconds)     wait, returns early with an error when cancelled
//	status()           current stage name and normalized output
package script

import (
	"context"
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/mrdg/envgen/audio"
)

// Host is what a script acts on.
type Host interface {
	Set(key string, value interface{}) error
	Pot(name string, raw float64) error
	SetGate(high bool)
	Status() audio.Status
}

// Run executes the Lua file at path until it returns or ctx is done.
func Run(ctx context.Context, path string, host Host) error {
	L := newState(ctx, host)
	defer L.Close()
	if err := L.DoFile(path); err != nil {
		return fmt.Errorf("script %s: %w", path, err)
	}
	return nil
}

// RunString is Run for a script held in memory.
func RunString(ctx context.Context, src string, host Host) error {
	L := newState(ctx, host)
	defer L.Close()
	if err := L.DoString(src); err != nil {
		return fmt.Errorf("script: %w", err)
	}
	return nil
}

func newState(ctx context.Context, host Host) *lua.LState {
	L := lua.NewState()
	L.SetContext(ctx)
	for name, fn := range map[string]lua.LGFunction{
		"set":    setFn(host),
		"pot":    potFn(host),
		"gate":   gateFn(host),
		"sleep":  sleepFn(ctx),
		"status": statusFn(host),
	} {
		L.SetGlobal(name, L.NewFunction(fn))
	}
	return L
}

func setFn(host Host) lua.LGFunction {
	return func(L *lua.LState) int {
		name := L.CheckString(1)
		value := L.CheckNumber(2)
		if err := host.Set(name, float64(value)); err != nil {
			L.RaiseError("%v", err)
		}
		return 0
	}
}

func potFn(host Host) lua.LGFunction {
	return func(L *lua.LState) int {
		name := L.CheckString(1)
		raw := L.CheckNumber(2)
		if err := host.Pot(name, float64(raw)); err != nil {
			L.RaiseError("%v", err)
		}
		return 0
	}
}

func gateFn(host Host) lua.LGFunction {
	return func(L *lua.LState) int {
		host.SetGate(L.CheckBool(1))
		return 0
	}
}

func sleepFn(ctx context.Context) lua.LGFunction {
	return func(L *lua.LState) int {
		seconds := float64(L.CheckNumber(1))
		if seconds < 0 {
			L.ArgError(1, "negative duration")
		}
		timer := time.NewTimer(time.Duration(seconds * float64(time.Second)))
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			L.RaiseError("interrupted: %v", ctx.Err())
		}
		return 0
	}
}

func statusFn(host Host) lua.LGFunction {
	return func(L *lua.LState) int {
		st := host.Status()
		L.Push(lua.LString(st.Stage.String()))
		L.Push(lua.LNumber(st.Output))
		return 2
	}
}
