package renderer

import (
	"context"

	"github.com/df07/go-path-tracer/pkg/core"
	"github.com/df07/go-path-tracer/pkg/integrator"
	"github.com/df07/go-path-tracer/pkg/scene"
)

// DefaultSeed is the base seed used when none is configured
const DefaultSeed int64 = 42

// Raytracer handles the rendering process
type Raytracer struct {
	scene      *scene.Scene
	integrator integrator.Integrator
	width      int
	height     int
	config     scene.SamplingConfig
	seed       int64
	numWorkers int
}

// NewRaytracer creates a new raytracer using the scene's sampling configuration
func NewRaytracer(s *scene.Scene, width, height int) *Raytracer {
	return &Raytracer{
		scene:      s,
		integrator: integrator.NewPathTracingIntegrator(s.Background),
		width:      width,
		height:     height,
		config:     s.SamplingConfig,
		seed:       DefaultSeed,
	}
}

// SetSamplingConfig updates the sampling configuration
func (rt *Raytracer) SetSamplingConfig(config scene.SamplingConfig) {
	rt.config = config
}

// MergeSamplingConfig updates only the non-zero fields of the sampling configuration
func (rt *Raytracer) MergeSamplingConfig(updates scene.SamplingConfig) {
	if updates.SamplesPerPixel != 0 {
		rt.config.SamplesPerPixel = updates.SamplesPerPixel
	}
	if updates.MaxDepth != 0 {
		rt.config.MaxDepth = updates.MaxDepth
	}
}

// GetSamplingConfig returns the current sampling configuration
func (rt *Raytracer) GetSamplingConfig() scene.SamplingConfig {
	return rt.config
}

// SetSeed sets the base seed from which every sample's generator is derived
func (rt *Raytracer) SetSeed(seed int64) {
	rt.seed = seed
}

// SetNumWorkers sets the worker count used by Render (0 = use CPU count)
func (rt *Raytracer) SetNumWorkers(n int) {
	rt.numWorkers = n
}

// Size returns the image dimensions
func (rt *Raytracer) Size() (width, height int) {
	return rt.width, rt.height
}

// RenderSample traces one jittered sample through every pixel and returns the
// linear colours row-major with the top row first
func (rt *Raytracer) RenderSample(sampler core.Sampler) []core.Colour {
	colours := make([]core.Colour, 0, rt.width*rt.height)
	camera := rt.scene.Camera

	// j counts rows from the bottom of the image plane
	for j := rt.height - 1; j >= 0; j-- {
		for i := 0; i < rt.width; i++ {
			s := (float64(i) + sampler.Get1D()) / float64(rt.width)
			t := (float64(j) + sampler.Get1D()) / float64(rt.height)

			ray := camera.GetRay(s, t, sampler)
			colours = append(colours, rt.integrator.RayColor(ray, rt.scene.World, sampler, rt.config.MaxDepth))
		}
	}

	return colours
}

// Render traces SamplesPerPixel samples on a worker pool and returns the
// accumulated frame. The result depends only on the scene, the sampling
// configuration and the seed.
func (rt *Raytracer) Render(ctx context.Context) (*Frame, error) {
	accumulator := NewAccumulator(rt.width, rt.height)

	pool := NewWorkerPool(rt, rt.seed, rt.numWorkers)
	pool.Start()
	defer pool.Stop()

	if err := pool.RenderSamples(ctx, accumulator, rt.config.SamplesPerPixel); err != nil {
		return nil, err
	}
	return accumulator.Frame(), nil
}
