package audio

import (
	"github.com/gordonklaus/portaudio"
)

// Backend drives sources from an audio device.
type Backend interface {
	Start() error
	Stop() error
}

// Sink is a portaudio output stream. Its callback is the sample clock: every
// frame the device asks for is one tick.
type Sink struct {
	clock   *Clock
	sources []Source
	tickers []Ticker
	stream  *portaudio.Stream
}

func NewSink(clock *Clock, channels, bufferSize int) (*Sink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	s := &Sink{clock: clock}
	stream, err := portaudio.OpenDefaultStream(0, channels, clock.SampleRate(), bufferSize, s.process)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	s.stream = stream
	return s, nil
}

func (s *Sink) Start() error {
	return s.stream.Start()
}

func (s *Sink) Stop() error {
	err := s.stream.Close()
	portaudio.Terminate()
	return err
}

func (s *Sink) AddSources(sources ...Source) {
	s.sources = append(s.sources, sources...)
}

func (s *Sink) AddTicker(ticker Ticker) {
	s.tickers = append(s.tickers, ticker)
}

func (s *Sink) process(out [][]float32, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
	if flags&portaudio.OutputUnderflow != 0 {
		s.clock.Miss()
	}
	Mix(out, s.tickers, s.sources)
}

// Mix clears out, advances the tickers and lets every source process the
// buffer. Backends call it once per buffer.
func Mix(out [][]float32, tickers []Ticker, sources []Source) {
	for i := range out {
		for j := range out[i] {
			out[i][j] = 0.
		}
	}
	if len(out) == 0 {
		return
	}
	for _, ticker := range tickers {
		ticker.Tick(len(out[0]))
	}
	for _, source := range sources {
		source.Process(out)
	}
}
