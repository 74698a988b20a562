package renderer

import (
	"image"
	"time"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	TotalPixels      int           // Total number of pixels rendered
	TotalSamples     int           // Total number of samples taken
	SamplesPerPixel  int           // Samples accumulated in every pixel
	MaxSamples       int           // Samples per pixel the render is aiming for
	Pass             int           // Pass that produced these stats (0 for one-shot renders)
	Duration         time.Duration // Wall time spent producing the samples
	AverageLuminance float64       // Mean luminance of the tone-mapped image
}

// NewRenderStats summarises a frame. img is the frame's tone-mapped image,
// which the caller has usually built already.
func NewRenderStats(frame *Frame, img image.Image, maxSamples, pass int, duration time.Duration) RenderStats {
	pixels := frame.Width * frame.Height
	return RenderStats{
		TotalPixels:      pixels,
		TotalSamples:     pixels * frame.Samples,
		SamplesPerPixel:  frame.Samples,
		MaxSamples:       maxSamples,
		Pass:             pass,
		Duration:         duration,
		AverageLuminance: CalculateAverageLuminance(img),
	}
}

// CalculateAverageLuminance returns the mean luminance of an image in [0, 1]
// using Rec. 709 weights
func CalculateAverageLuminance(img image.Image) float64 {
	bounds := img.Bounds()
	pixels := bounds.Dx() * bounds.Dy()
	if pixels == 0 {
		return 0
	}

	total := 0.0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			total += (0.2126*float64(r) + 0.7152*float64(g) + 0.0722*float64(b)) / 0xffff
		}
	}
	return total / float64(pixels)
}
