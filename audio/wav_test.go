package audio

import (
	"bytes"
	"io"
	"testing"

	wav "github.com/youpy/go-wav"
)

func TestRender(t *testing.T) {
	m := newTestModule(t, 1000, squareParams, Unit)

	var buf bytes.Buffer
	m.Trigger(100)
	if err := Render(&buf, m, 0.5); err != nil {
		t.Fatal(err)
	}

	r := wav.NewReader(bytes.NewReader(buf.Bytes()))
	format, err := r.Format()
	if err != nil {
		t.Fatal(err)
	}
	if format.SampleRate != 1000 || format.NumChannels != 1 || format.BitsPerSample != 16 {
		t.Errorf("unexpected format: %+v", format)
	}

	var values []int
	for {
		samples, err := r.ReadSamples()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		for _, s := range samples {
			values = append(values, r.IntValue(s, 0))
		}
	}
	if want, got := 500, len(values); want != got {
		t.Fatalf("want %d samples, got %d", want, got)
	}
	for i, v := range values {
		want := 0
		if i < 100 {
			want = 32767
		}
		if v != want {
			t.Fatalf("sample %d: want %d, got %d", i, want, v)
		}
	}
}

func TestRenderRejectsEmpty(t *testing.T) {
	m := newTestModule(t, 1000, squareParams, Unit)
	if err := Render(io.Discard, m, 0); err == nil {
		t.Error("expected an error for a zero length render")
	}
}
