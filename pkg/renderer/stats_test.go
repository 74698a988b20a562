package renderer

import (
	"image"
	"image/color"
	"math"
	"testing"
	"time"

	"github.com/df07/go-path-tracer/pkg/core"
)

func TestCalculateAverageLuminance(t *testing.T) {
	// Red 0.2126, green 0.7152, blue 0.0722, black 0: average 0.25
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	img.Set(1, 0, color.RGBA{0, 255, 0, 255})
	img.Set(0, 1, color.RGBA{0, 0, 255, 255})
	img.Set(1, 1, color.RGBA{0, 0, 0, 255})

	avgLum := CalculateAverageLuminance(img)
	expected := 0.25
	tolerance := 0.0001

	if avgLum < expected-tolerance || avgLum > expected+tolerance {
		t.Errorf("Expected average luminosity %f, got %f", expected, avgLum)
	}
}

func TestCalculateAverageLuminance_White(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{255, 255, 255, 255})

	avgLum := CalculateAverageLuminance(img)
	if avgLum < 0.9999 || avgLum > 1.0001 {
		t.Errorf("Expected average luminosity 1, got %f", avgLum)
	}

	if got := CalculateAverageLuminance(image.NewRGBA(image.Rect(0, 0, 0, 0))); got != 0 {
		t.Errorf("Empty image should have zero luminance, got %f", got)
	}
}

func TestNewRenderStats(t *testing.T) {
	acc := NewAccumulator(2, 2)
	for i := 0; i < 3; i++ {
		if err := acc.AddSample(make([]core.Colour, 4)); err != nil {
			t.Fatal(err)
		}
	}

	frame := acc.Frame()
	stats := NewRenderStats(frame, frame.Image(), 10, 2, time.Second)
	if stats.TotalPixels != 4 || stats.TotalSamples != 12 || stats.SamplesPerPixel != 3 {
		t.Errorf("Unexpected counts %+v", stats)
	}
	if stats.MaxSamples != 10 || stats.Pass != 2 || stats.Duration != time.Second {
		t.Errorf("Unexpected metadata %+v", stats)
	}
	if stats.AverageLuminance != 0 {
		t.Errorf("Black frame should have zero luminance, got %f", stats.AverageLuminance)
	}

	// Luminance comes from the image handed in, not a fresh tone map
	white := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := range white.Pix {
		white.Pix[i] = 255
	}
	if got := NewRenderStats(frame, white, 10, 2, time.Second).AverageLuminance; math.Abs(got-1) > 1e-9 {
		t.Errorf("Expected luminance of the given image, got %f", got)
	}
}
