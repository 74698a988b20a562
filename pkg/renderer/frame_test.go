package renderer

import (
	"testing"

	"github.com/df07/go-path-tracer/pkg/core"
)

func TestToneMap(t *testing.T) {
	tests := []struct {
		name     string
		colour   core.Colour
		expected RGB8
	}{
		{"black", core.NewVec3(0, 0, 0), RGB8{0, 0, 0}},
		{"white clamps below 256", core.NewVec3(1, 1, 1), RGB8{255, 255, 255}},
		{"gamma 2", core.NewVec3(0.25, 0.01, 0.64), RGB8{128, 25, 204}},
		{"over-bright clamps", core.NewVec3(4, 100, 1.5), RGB8{255, 255, 255}},
		{"negative clamps to zero", core.NewVec3(-1, -0.5, 0), RGB8{0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToneMap(tt.colour); got != tt.expected {
				t.Errorf("ToneMap(%v) = %v, expected %v", tt.colour, got, tt.expected)
			}
		})
	}
}

func TestAccumulator_AveragesSamples(t *testing.T) {
	acc := NewAccumulator(2, 1)

	if err := acc.AddSample([]core.Colour{core.NewVec3(1, 0, 0), core.NewVec3(0.5, 0.5, 0.5)}); err != nil {
		t.Fatalf("AddSample error: %v", err)
	}
	if err := acc.AddSample([]core.Colour{core.NewVec3(0, 0, 1), core.NewVec3(0.5, 0.5, 0.5)}); err != nil {
		t.Fatalf("AddSample error: %v", err)
	}
	if acc.Samples() != 2 {
		t.Errorf("Expected 2 samples, got %d", acc.Samples())
	}

	frame := acc.Frame()
	if got := frame.Colour(0, 0); !got.Equals(core.NewVec3(0.5, 0, 0.5)) {
		t.Errorf("Expected average (0.5, 0, 0.5), got %v", got)
	}
	if got := frame.Colour(1, 0); !got.Equals(core.NewVec3(0.5, 0.5, 0.5)) {
		t.Errorf("Expected average (0.5, 0.5, 0.5), got %v", got)
	}

	// The frame is a snapshot
	if err := acc.AddSample([]core.Colour{core.NewVec3(10, 10, 10), core.NewVec3(10, 10, 10)}); err != nil {
		t.Fatalf("AddSample error: %v", err)
	}
	if frame.Samples != 2 || !frame.Colour(1, 0).Equals(core.NewVec3(0.5, 0.5, 0.5)) {
		t.Error("Frame changed after later samples were added")
	}
}

func TestAccumulator_RejectsWrongSize(t *testing.T) {
	acc := NewAccumulator(2, 2)
	if err := acc.AddSample(make([]core.Colour, 3)); err == nil {
		t.Error("Expected an error for a sample of the wrong size")
	}
	if acc.Samples() != 0 {
		t.Errorf("Rejected sample should not be counted, got %d", acc.Samples())
	}
}

func TestFrame_PixelsAndImage(t *testing.T) {
	acc := NewAccumulator(2, 2)
	sample := []core.Colour{
		core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0), // top row
		core.NewVec3(0, 0, 1), core.NewVec3(0.25, 0.25, 0.25), // bottom row
	}
	if err := acc.AddSample(sample); err != nil {
		t.Fatalf("AddSample error: %v", err)
	}
	frame := acc.Frame()

	pixels := frame.Pixels()
	expected := []RGB8{{255, 0, 0}, {0, 255, 0}, {0, 0, 255}, {128, 128, 128}}
	if len(pixels) != len(expected) {
		t.Fatalf("Expected %d pixels, got %d", len(expected), len(pixels))
	}
	for i := range expected {
		if pixels[i] != expected[i] {
			t.Errorf("Pixel %d = %v, expected %v", i, pixels[i], expected[i])
		}
	}

	img := frame.Image()
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			if got, want := img.RGBAAt(x, y), frame.Pixel(x, y).RGBA(); got != want {
				t.Errorf("Image pixel (%d,%d) = %v, expected %v", x, y, got, want)
			}
		}
	}
}

func TestFrame_NoSamplesIsBlack(t *testing.T) {
	frame := NewAccumulator(3, 2).Frame()
	if got := frame.Colour(2, 1); !got.Equals(core.Colour{}) {
		t.Errorf("Expected black, got %v", got)
	}
}
