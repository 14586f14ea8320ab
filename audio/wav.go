package audio

import (
	"errors"
	"io"
	"math"

	wav "github.com/youpy/go-wav"
)

// PCM16 is the code range rendered envelopes are written in. The envelope
// is unipolar, so only the positive half of a signed 16-bit sample is used.
var PCM16 = Range{0, math.MaxInt16}

const renderBlock = 256

// Render runs m for the given number of seconds without an audio device and
// writes its output to w as a mono 16-bit WAV file. Tickers are advanced once
// per block before the module is processed, like a backend would.
func Render(w io.Writer, m *Module, seconds float64, tickers ...Ticker) error {
	if seconds <= 0 {
		return errors.New("render length must be positive")
	}
	total := m.clock.Samples(seconds)
	writer := wav.NewWriter(w, uint32(total), 1, uint32(m.clock.SampleRate()), 16)

	samples := make([]wav.Sample, renderBlock)
	for done := 0; done < total; done += renderBlock {
		n := renderBlock
		if total-done < n {
			n = total - done
		}
		for _, t := range tickers {
			t.Tick(n)
		}
		m.run(n, func(i int, v float64) {
			samples[i].Values[0] = int(math.Round(Scale(v, Unit, PCM16)))
		})
		if err := writer.WriteSamples(samples[:n]); err != nil {
			return err
		}
	}
	return nil
}
