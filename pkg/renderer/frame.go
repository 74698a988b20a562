package renderer

import (
	"fmt"
	"image"
	"image/color"

	"github.com/df07/go-path-tracer/pkg/core"
)

// Tone mapping constants. Channels are clamped just below one so that the
// 256 multiplier never produces 256.
const (
	quantizeScale = 256.0
	maxIntensity  = 0.999
)

// RGB8 is a tone-mapped, quantized pixel
type RGB8 struct {
	R, G, B uint8
}

// ToneMap converts an averaged linear colour into an output pixel:
// gamma 2 (square root), clamp to [0, 0.999], then scale by 256
func ToneMap(c core.Colour) RGB8 {
	c = c.Sqrt().Clamp(0, maxIntensity)
	return RGB8{
		R: uint8(quantizeScale * c.X),
		G: uint8(quantizeScale * c.Y),
		B: uint8(quantizeScale * c.Z),
	}
}

// RGBA returns the pixel as an opaque image colour
func (p RGB8) RGBA() color.RGBA {
	return color.RGBA{R: p.R, G: p.G, B: p.B, A: 255}
}

// Accumulator sums per-sample images element-wise. It is not safe for
// concurrent use; callers feed it samples in a fixed order.
type Accumulator struct {
	width, height int
	sum           []core.Colour
	samples       int
}

// NewAccumulator creates an empty accumulator for a width x height image
func NewAccumulator(width, height int) *Accumulator {
	return &Accumulator{
		width:  width,
		height: height,
		sum:    make([]core.Colour, width*height),
	}
}

// AddSample adds one sample image (row-major, top row first)
func (a *Accumulator) AddSample(colours []core.Colour) error {
	if len(colours) != len(a.sum) {
		return fmt.Errorf("sample has %d pixels, expected %d", len(colours), len(a.sum))
	}
	for i, c := range colours {
		a.sum[i] = a.sum[i].Add(c)
	}
	a.samples++
	return nil
}

// Samples returns the number of samples per pixel accumulated so far
func (a *Accumulator) Samples() int {
	return a.samples
}

// Frame returns a snapshot of the current average that is unaffected by
// later samples
func (a *Accumulator) Frame() *Frame {
	sum := make([]core.Colour, len(a.sum))
	copy(sum, a.sum)
	return &Frame{
		Width:   a.width,
		Height:  a.height,
		Samples: a.samples,
		sum:     sum,
	}
}

// Frame is an accumulated image. Pixel (0,0) is the top-left corner.
type Frame struct {
	Width   int
	Height  int
	Samples int // Samples per pixel
	sum     []core.Colour
}

// Colour returns the averaged linear colour of pixel (x, y)
func (f *Frame) Colour(x, y int) core.Colour {
	if f.Samples == 0 {
		return core.Colour{}
	}
	return f.sum[y*f.Width+x].Multiply(1.0 / float64(f.Samples))
}

// Pixel returns the tone-mapped pixel at (x, y)
func (f *Frame) Pixel(x, y int) RGB8 {
	return ToneMap(f.Colour(x, y))
}

// Pixels returns all tone-mapped pixels, row-major with the top row first
func (f *Frame) Pixels() []RGB8 {
	pixels := make([]RGB8, 0, f.Width*f.Height)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			pixels = append(pixels, f.Pixel(x, y))
		}
	}
	return pixels
}

// Image returns the tone-mapped frame as an RGBA image
func (f *Frame) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			img.SetRGBA(x, y, f.Pixel(x, y).RGBA())
		}
	}
	return img
}
