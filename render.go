package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/mrdg/envgen/audio"
)

const defaultWidth = 80

// renderStatus writes a single status line: an LED lit while the envelope
// is active, the stage, a level meter and the counters.
func renderStatus(w io.Writer, st audio.Status, width int, color bool) {
	led := "●"
	if st.Stage == audio.StageIdle {
		led = "○"
	}
	if color {
		led = colorize(led, stageColor(st.Stage))
	}
	gate := "off"
	if st.Gate {
		gate = "on"
	}
	info := fmt.Sprintf(" %-7s %.3f gate %-3s ticks %d", st.Stage, st.Output, gate, st.Ticks)
	if st.Missed > 0 {
		info += fmt.Sprintf(" missed %d", st.Missed)
	}
	if st.Dropped > 0 {
		info += fmt.Sprintf(" dropped %d", st.Dropped)
	}

	meterWidth := width - len([]rune(info)) - 5
	if meterWidth > 40 {
		meterWidth = 40
	}
	var meter string
	if meterWidth > 0 {
		lit := int(st.Output*float64(meterWidth) + 0.5)
		if lit > meterWidth {
			lit = meterWidth
		}
		meter = strings.Repeat("█", lit) + strings.Repeat("·", meterWidth-lit)
		if color {
			meter = colorize(meter, colorBlue)
		}
		meter = " [" + meter + "]"
	}
	fmt.Fprintf(w, "%s%s%s", led, info, meter)
}

func stageColor(s audio.Stage) int {
	switch s {
	case audio.StageAttack:
		return colorRed
	case audio.StageDecay:
		return colorYellow
	case audio.StageSustain:
		return colorGreen
	case audio.StageRelease:
		return colorMagenta
	}
	return colorBlack
}

func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return defaultWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return defaultWidth
	}
	return width
}

// monitor prints the status line every interval until ctx is done. On a
// terminal the line is redrawn in place.
func monitor(ctx context.Context, env *env, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	inPlace := isTerminal(env.out)
	var missed uint64
	for {
		select {
		case <-ctx.Done():
			if inPlace {
				fmt.Fprintln(env.out)
			}
			return nil
		case <-ticker.C:
		}
		st := env.Status()
		if st.Missed > missed {
			log.Printf("clock: %d missed deadlines", st.Missed-missed)
			missed = st.Missed
		}
		var b strings.Builder
		if inPlace {
			b.WriteString("\r\033[K")
		}
		renderStatus(&b, st, terminalWidth(env.out), env.color)
		if !inPlace {
			b.WriteString("\n")
		}
		io.WriteString(env.out, b.String())
	}
}

const (
	colorBlack = iota + 30
	colorRed
	colorGreen
	colorYellow
	colorBlue
	colorMagenta
)

func colorize(text string, color int) string {
	return fmt.Sprintf("\033[%dm%s\033[0m", color, text)
}
