package main

import (
	"strings"
	"testing"

	"github.com/mrdg/envgen/audio"
)

func TestRenderStatus(t *testing.T) {
	tests := []struct {
		status  audio.Status
		width   int
		want    []string
		notWant []string
	}{
		{
			status:  audio.Status{Stage: audio.StageSustain, Output: 0.5, Gate: true, Ticks: 10},
			width:   80,
			want:    []string{"●", "sustain", "0.500", "gate on", "ticks 10", "[████"},
			notWant: []string{"missed", "dropped", "\033["},
		},
		{
			status: audio.Status{Stage: audio.StageIdle, Missed: 3, Dropped: 2},
			width:  80,
			want:   []string{"○", "idle", "0.000", "gate off", "missed 3", "dropped 2", "[···"},
		},
		{
			status:  audio.Status{Stage: audio.StageRelease, Output: 1},
			width:   20,
			want:    []string{"release"},
			notWant: []string{"["},
		},
	}
	for _, test := range tests {
		var b strings.Builder
		renderStatus(&b, test.status, test.width, false)
		line := b.String()
		for _, s := range test.want {
			if !strings.Contains(line, s) {
				t.Errorf("%q doesn't contain %q", line, s)
			}
		}
		for _, s := range test.notWant {
			if strings.Contains(line, s) {
				t.Errorf("%q contains %q", line, s)
			}
		}
		if strings.Contains(line, "\n") {
			t.Errorf("status line contains a newline: %q", line)
		}
	}
}

func TestRenderStatusColor(t *testing.T) {
	var b strings.Builder
	renderStatus(&b, audio.Status{Stage: audio.StageAttack, Output: 0.25}, 80, true)
	if want := colorize("●", colorRed); !strings.HasPrefix(b.String(), want) {
		t.Errorf("want line to start with %q, got %q", want, b.String())
	}
}

func TestMeterFull(t *testing.T) {
	var b strings.Builder
	renderStatus(&b, audio.Status{Stage: audio.StageDecay, Output: 1}, 200, false)
	if strings.Contains(b.String(), "·") {
		t.Errorf("want a full meter at output 1, got %q", b.String())
	}
}
