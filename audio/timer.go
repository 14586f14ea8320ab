package audio

import (
	"context"
	"errors"
	"time"
)

// Timer drives sources from an OS timer instead of an audio device. The
// output is discarded; it exists for running headless, where the envelope
// is only observed through Status or rendered offline.
//
// Every buffer is processed even when the timer falls behind: late buffers
// are caught up in a burst and each wake-up that came a whole buffer late
// is recorded on the clock as a missed deadline.
type Timer struct {
	clock      *Clock
	bufferSize int
	sources    []Source
	tickers    []Ticker
	buf        [][]float32

	cancel context.CancelFunc
	done   chan struct{}
}

func NewTimer(clock *Clock, bufferSize int) *Timer {
	return &Timer{
		clock:      clock,
		bufferSize: bufferSize,
		buf:        [][]float32{make([]float32, bufferSize)},
	}
}

func (t *Timer) AddSources(sources ...Source) {
	t.sources = append(t.sources, sources...)
}

func (t *Timer) AddTicker(ticker Ticker) {
	t.tickers = append(t.tickers, ticker)
}

func (t *Timer) Start() error {
	if t.cancel != nil {
		return errors.New("timer already started")
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.done = make(chan struct{})
	go t.loop(ctx)
	return nil
}

func (t *Timer) Stop() error {
	if t.cancel == nil {
		return nil
	}
	t.cancel()
	<-t.done
	t.cancel = nil
	return nil
}

func (t *Timer) loop(ctx context.Context) {
	defer close(t.done)

	period := t.clock.Duration(t.bufferSize)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	due := time.Now().Add(period)
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if now.Sub(due) >= period {
				t.clock.Miss()
			}
			for !due.After(now) {
				Mix(t.buf, t.tickers, t.sources)
				due = due.Add(period)
			}
		}
	}
}
