package audio

import (
	"sync/atomic"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

// Speaker plays sources through beep's speaker package. beep pulls stereo
// frames from a streamer on its own goroutine; every frame pulled is one
// tick. Underruns are not reported by beep, so Missed stays zero.
type Speaker struct {
	clock      *Clock
	bufferSize int
	sources    []Source
	tickers    []Ticker
	buf        [2][]float32
	stopped    atomic.Bool
}

func NewSpeaker(clock *Clock, bufferSize int) *Speaker {
	s := &Speaker{clock: clock, bufferSize: bufferSize}
	for ch := range s.buf {
		s.buf[ch] = make([]float32, bufferSize)
	}
	return s
}

func (s *Speaker) Start() error {
	if err := speaker.Init(s.clock.rate, s.bufferSize); err != nil {
		return err
	}
	speaker.Play(beep.StreamerFunc(s.stream))
	return nil
}

// Stop ends the stream; beep removes a streamer once it reports it is drained.
func (s *Speaker) Stop() error {
	s.stopped.Store(true)
	return nil
}

func (s *Speaker) AddSources(sources ...Source) {
	s.sources = append(s.sources, sources...)
}

func (s *Speaker) AddTicker(ticker Ticker) {
	s.tickers = append(s.tickers, ticker)
}

func (s *Speaker) stream(samples [][2]float64) (int, bool) {
	if s.stopped.Load() {
		return 0, false
	}
	n := len(samples)
	out := s.buf[:]
	for ch := range out {
		if cap(out[ch]) < n {
			out[ch] = make([]float32, n)
		}
		out[ch] = out[ch][:n]
	}
	Mix(out, s.tickers, s.sources)
	for i := range samples {
		samples[i][0] = float64(out[0][i])
		samples[i][1] = float64(out[1][i])
	}
	return n, true
}
