package audio

import (
	"reflect"
	"testing"
)

type testGater struct {
	events []gateEvent
}

func (g *testGater) Gate(offset int, high bool) {
	g.events = append(g.events, gateEvent{offset: offset, high: high})
}

func (g *testGater) flush() {
	g.events = nil
}

func TestSequencer(t *testing.T) {
	const bpm = 120.0
	const bufferSize = 1000 // one second, two beats
	clock, err := NewClock(1000)
	if err != nil {
		t.Fatal(err)
	}
	gater := &testGater{}

	seq := NewSequencer(clock, gater)
	if err := seq.Set(PropBPM, bpm); err != nil {
		t.Fatal(err)
	}

	clip := NewClip(4)
	clip.AddStep(0, 0.5)    // first beat
	clip.AddStep(1.25, 0.5) // 2nd 16th note on second beat
	clip.AddStep(3, 2)      // last beat, held across the loop point

	if err := seq.Set(PropClip, clip); err != nil {
		t.Fatal(err)
	}

	seq.Tick(bufferSize)
	if want, got := []gateEvent{
		{offset: 0, high: true},
		{offset: 249},
		{offset: 625, high: true},
		{offset: 874},
	}, gater.events; !reflect.DeepEqual(want, got) {
		t.Errorf("wrong events:\nwant: %+v\ngot:  %+v", want, got)
	}

	gater.flush()
	seq.Tick(bufferSize)
	if want, got := []gateEvent{
		{offset: 500, high: true},
	}, gater.events; !reflect.DeepEqual(want, got) {
		t.Errorf("wrong events:\nwant: %+v\ngot:  %+v", want, got)
	}

	gater.flush()
	seq.Tick(bufferSize)
	if want, got := []gateEvent{
		{offset: 0, high: true},
		{offset: 249},
		{offset: 499},
		{offset: 625, high: true},
		{offset: 874},
	}, gater.events; !reflect.DeepEqual(want, got) {
		t.Errorf("wrong events:\nwant: %+v\ngot:  %+v", want, got)
	}
}

func TestSequencerStop(t *testing.T) {
	clock, _ := NewClock(1000)
	gater := &testGater{}
	seq := NewSequencer(clock, gater)

	clip := NewClip(1)
	clip.AddStep(0, 1)
	if err := seq.Set(PropClip, clip); err != nil {
		t.Fatal(err)
	}
	seq.Tick(100)
	if err := seq.Set(PropClip, nil); err != nil {
		t.Fatal(err)
	}
	gater.flush()
	seq.Tick(400)

	if want, got := []gateEvent{{offset: 399}}, gater.events; !reflect.DeepEqual(want, got) {
		t.Errorf("pending gate-off not delivered after stop:\nwant: %+v\ngot:  %+v", want, got)
	}
	gater.flush()
	seq.Tick(1000)
	if len(gater.events) != 0 {
		t.Errorf("unexpected events after stop: %+v", gater.events)
	}
}

func TestClipAddStep(t *testing.T) {
	clip := NewClip(2)
	clip.AddStep(-1, 1)
	clip.AddStep(2, 1)
	clip.AddStep(1, 0)
	clip.AddStep(1.5, 0.25)
	if want, got := 1, clip.Steps(); want != got {
		t.Errorf("want %d steps, got %d", want, got)
	}
}

func TestSequencerRejectsBadValues(t *testing.T) {
	clock, _ := NewClock(1000)
	seq := NewSequencer(clock, &testGater{})
	if err := seq.Set(PropBPM, 0.); err == nil {
		t.Error("expected an error for bpm 0")
	}
	if err := seq.Set(PropClip, "loop"); err == nil {
		t.Error("expected an error for a non-clip value")
	}
}
