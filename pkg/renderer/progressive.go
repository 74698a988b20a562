package renderer

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/df07/go-path-tracer/pkg/core"
	"github.com/df07/go-path-tracer/pkg/scene"
)

// DefaultLogger implements core.Logger by writing to stdout
type DefaultLogger struct{}

func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// NewDefaultLogger creates a new default logger
func NewDefaultLogger() core.Logger {
	return &DefaultLogger{}
}

// ProgressiveConfig contains configuration for progressive rendering
type ProgressiveConfig struct {
	InitialSamples     int   // Samples for first pass (1 recommended)
	MaxSamplesPerPixel int   // Maximum total samples per pixel
	MaxPasses          int   // Maximum number of passes
	NumWorkers         int   // Number of parallel workers (0 = use CPU count)
	Seed               int64 // Base seed for every sample's generator
}

// DefaultProgressiveConfig returns sensible default values
func DefaultProgressiveConfig() ProgressiveConfig {
	return ProgressiveConfig{
		InitialSamples:     1,
		MaxSamplesPerPixel: 50,
		MaxPasses:          7, // 1, then even steps up to 50
		NumWorkers:         0, // Auto-detect CPU count
		Seed:               DefaultSeed,
	}
}

// normalize fixes values that would make the pass schedule meaningless
func (c ProgressiveConfig) normalize() ProgressiveConfig {
	if c.MaxSamplesPerPixel <= 0 {
		c.MaxSamplesPerPixel = 1
	}
	if c.InitialSamples <= 0 {
		c.InitialSamples = 1
	}
	if c.InitialSamples > c.MaxSamplesPerPixel {
		c.InitialSamples = c.MaxSamplesPerPixel
	}
	if c.MaxPasses <= 0 {
		c.MaxPasses = 1
	}
	// Each pass after the first must add at least one sample
	if maxPasses := c.MaxSamplesPerPixel - c.InitialSamples + 1; c.MaxPasses > maxPasses {
		c.MaxPasses = maxPasses
	}
	return c
}

// ProgressiveRaytracer manages progressive rendering with multiple passes.
// Every pass adds samples to the same accumulator, so the last pass matches
// a one-shot render with the same seed and sample count.
type ProgressiveRaytracer struct {
	config      ProgressiveConfig
	raytracer   *Raytracer   // Base raytracer for actual rendering
	accumulator *Accumulator // Samples gathered so far
	workerPool  *WorkerPool  // Worker pool for parallel processing
	started     bool
	logger      core.Logger
}

// NewProgressiveRaytracer creates a new progressive raytracer
func NewProgressiveRaytracer(s *scene.Scene, width, height int, config ProgressiveConfig, logger core.Logger) *ProgressiveRaytracer {
	config = config.normalize()
	if logger == nil {
		logger = NewDefaultLogger()
	}

	raytracer := NewRaytracer(s, width, height)
	raytracer.SetSeed(config.Seed)
	raytracer.SetNumWorkers(config.NumWorkers)

	return &ProgressiveRaytracer{
		config:      config,
		raytracer:   raytracer,
		accumulator: NewAccumulator(width, height),
		workerPool:  NewWorkerPool(raytracer, config.Seed, config.NumWorkers),
		logger:      logger,
	}
}

// GetConfig returns the normalized configuration
func (pr *ProgressiveRaytracer) GetConfig() ProgressiveConfig {
	return pr.config
}

// getSamplesForPass calculates the target total samples for a given pass
func (pr *ProgressiveRaytracer) getSamplesForPass(passNumber int) int {
	// Special case: if only 1 pass, use all samples
	if pr.config.MaxPasses == 1 {
		return pr.config.MaxSamplesPerPixel
	}

	// First pass is a quick preview
	if passNumber == 1 {
		return pr.config.InitialSamples
	}

	// Divide remaining samples evenly across remaining passes
	remainingSamples := pr.config.MaxSamplesPerPixel - pr.config.InitialSamples
	remainingPasses := pr.config.MaxPasses - 1
	samplesPerPass := remainingSamples / remainingPasses

	targetSamples := pr.config.InitialSamples + (passNumber-1)*samplesPerPass

	// For the final pass, use all remaining samples
	if passNumber >= pr.config.MaxPasses {
		targetSamples = pr.config.MaxSamplesPerPixel
	}

	return targetSamples
}

// RenderPass renders a single progressive pass using parallel processing and
// returns the accumulated frame so far
func (pr *ProgressiveRaytracer) RenderPass(ctx context.Context, passNumber int) (*Frame, RenderStats, error) {
	frame, _, stats, err := pr.renderPass(ctx, passNumber)
	return frame, stats, err
}

// renderPass renders a pass and tone-maps the result once for both the
// stats and the caller
func (pr *ProgressiveRaytracer) renderPass(ctx context.Context, passNumber int) (*Frame, *image.RGBA, RenderStats, error) {
	targetSamples := pr.getSamplesForPass(passNumber)

	pr.logger.Printf("Pass %d: Target %d samples per pixel (using %d workers)...\n",
		passNumber, targetSamples, pr.workerPool.GetNumWorkers())

	if !pr.started {
		pr.workerPool.Start()
		pr.started = true
	}

	startTime := time.Now()
	if err := pr.workerPool.RenderSamples(ctx, pr.accumulator, targetSamples); err != nil {
		return nil, nil, RenderStats{}, err
	}

	frame := pr.accumulator.Frame()
	img := frame.Image()
	stats := NewRenderStats(frame, img, pr.config.MaxSamplesPerPixel, passNumber, time.Since(startTime))
	return frame, img, stats, nil
}

// Close stops the worker pool. It is only needed when driving RenderPass
// directly; RenderProgressive closes the pool itself.
func (pr *ProgressiveRaytracer) Close() {
	if pr.started {
		pr.workerPool.Stop()
		pr.started = false
	}
}

// PassResult contains the result of a single pass
type PassResult struct {
	PassNumber int
	Frame      *Frame
	Image      *image.RGBA
	Stats      RenderStats
	IsLast     bool
}

// RenderProgressive renders with channel-based communication.
// The caller should drain the pass channel; the error channel receives at
// most one error and both channels are closed when rendering stops.
func (pr *ProgressiveRaytracer) RenderProgressive(ctx context.Context) (<-chan PassResult, <-chan error) {
	passChan := make(chan PassResult, 1)
	errChan := make(chan error, 1)

	go func() {
		defer close(passChan)
		defer close(errChan)
		defer pr.Close()

		pr.logger.Printf("Starting progressive rendering with %d passes...\n", pr.config.MaxPasses)

		for pass := 1; pass <= pr.config.MaxPasses; pass++ {
			// Check if client disconnected before starting this pass
			select {
			case <-ctx.Done():
				pr.logger.Printf("Rendering cancelled before pass %d\n", pass)
				errChan <- ctx.Err()
				return
			default:
			}

			frame, img, stats, err := pr.renderPass(ctx, pass)
			if err != nil {
				errChan <- err
				return
			}

			pr.logger.Printf("Pass %d completed in %v (%d samples/pixel)\n",
				pass, stats.Duration, stats.SamplesPerPixel)

			isLast := pass == pr.config.MaxPasses || stats.SamplesPerPixel >= pr.config.MaxSamplesPerPixel
			result := PassResult{
				PassNumber: pass,
				Frame:      frame,
				Image:      img,
				Stats:      stats,
				IsLast:     isLast,
			}

			select {
			case passChan <- result:
			case <-ctx.Done():
				return
			}

			if isLast {
				if pass < pr.config.MaxPasses {
					pr.logger.Printf("Reached maximum samples per pixel (%d), stopping.\n", pr.config.MaxSamplesPerPixel)
				}
				return
			}
		}
	}()

	return passChan, errChan
}
