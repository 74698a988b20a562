package renderer

import (
	"fmt"

	"github.com/df07/go-path-tracer/pkg/core"
	"github.com/df07/go-path-tracer/pkg/geometry"
	"github.com/df07/go-path-tracer/pkg/scene"
)

// JobRequest describes a progressive render. Zero values fall back to the
// scene's own settings or the progressive defaults.
type JobRequest struct {
	Scene      string `json:"scene"`      // Built-in scene ID or .json file name
	Width      int    `json:"width"`      // Image width; height follows the scene's aspect ratio
	MaxSamples int    `json:"maxSamples"` // Maximum samples per pixel
	MaxPasses  int    `json:"maxPasses"`  // Maximum number of passes
	MaxDepth   int    `json:"maxDepth"`   // Maximum ray bounce depth
	Workers    int    `json:"workers"`    // 0 = use CPU count
	Seed       int64  `json:"seed"`       // 0 = DefaultSeed
}

// JobLimits bounds what a remote client may request
type JobLimits struct {
	MinWidth   int
	MaxWidth   int
	MaxSamples int
	MaxPasses  int
	MaxDepth   int
}

// DefaultJobLimits returns the limits used by the servers
func DefaultJobLimits() JobLimits {
	return JobLimits{
		MinWidth:   16,
		MaxWidth:   2000,
		MaxSamples: 10000,
		MaxPasses:  10000,
		MaxDepth:   1000,
	}
}

// Validate checks the request against the limits. Zero fields are allowed and
// mean "use the default".
func (r JobRequest) Validate(limits JobLimits) error {
	if r.Scene == "" {
		return fmt.Errorf("scene is required")
	}
	if r.Width != 0 && (r.Width < limits.MinWidth || r.Width > limits.MaxWidth) {
		return fmt.Errorf("width must be between %d and %d, got: %d", limits.MinWidth, limits.MaxWidth, r.Width)
	}
	if r.MaxSamples < 0 || r.MaxSamples > limits.MaxSamples {
		return fmt.Errorf("maxSamples must be between 0 and %d (0 for the default), got: %d", limits.MaxSamples, r.MaxSamples)
	}
	if r.MaxPasses < 0 || r.MaxPasses > limits.MaxPasses {
		return fmt.Errorf("maxPasses must be between 0 and %d (0 for the default), got: %d", limits.MaxPasses, r.MaxPasses)
	}
	if r.MaxDepth < 0 || r.MaxDepth > limits.MaxDepth {
		return fmt.Errorf("maxDepth must be between 0 and %d (0 for the default), got: %d", limits.MaxDepth, r.MaxDepth)
	}
	if r.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got: %d", r.Workers)
	}
	return nil
}

// RenderJob is a configured scene and the progressive raytracer that renders it
type RenderJob struct {
	Scene     *scene.Scene
	Raytracer *ProgressiveRaytracer
	Config    ProgressiveConfig
}

// NewRenderJob builds the scene named by the request and a progressive
// raytracer for it. Scene files are resolved inside sceneDir and may not
// escape it.
func NewRenderJob(req JobRequest, sceneDir string, logger core.Logger) (*RenderJob, error) {
	sceneObj, err := scene.CreateInDir(sceneDir, req.Scene, geometry.CameraConfig{Width: req.Width})
	if err != nil {
		return nil, err
	}
	if req.MaxDepth > 0 {
		sceneObj.SamplingConfig.MaxDepth = req.MaxDepth
	}

	config := DefaultProgressiveConfig()
	config.MaxSamplesPerPixel = sceneObj.SamplingConfig.SamplesPerPixel
	if req.MaxSamples > 0 {
		config.MaxSamplesPerPixel = req.MaxSamples
	}
	if req.MaxPasses > 0 {
		config.MaxPasses = req.MaxPasses
	}
	if req.Seed != 0 {
		config.Seed = req.Seed
	}
	config.NumWorkers = req.Workers

	raytracer := NewProgressiveRaytracer(sceneObj,
		sceneObj.SamplingConfig.Width, sceneObj.SamplingConfig.Height, config, logger)

	return &RenderJob{
		Scene:     sceneObj,
		Raytracer: raytracer,
		Config:    raytracer.GetConfig(),
	}, nil
}
