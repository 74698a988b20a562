package scene

import (
	"github.com/df07/go-path-tracer/pkg/core"
	"github.com/df07/go-path-tracer/pkg/geometry"
)

// Scene contains all the elements needed for rendering. It is built once
// and only read while rendering.
type Scene struct {
	Camera         *geometry.Camera
	World          *geometry.HittableList // Objects in the scene
	Background     core.Gradient          // Colour seen by rays that escape
	SamplingConfig SamplingConfig
	CameraConfig   geometry.CameraConfig
}

// SamplingConfig contains rendering configuration
type SamplingConfig struct {
	Width           int `json:"width"`           // Image width
	Height          int `json:"height"`          // Image height
	SamplesPerPixel int `json:"samplesPerPixel"` // Number of rays per pixel
	MaxDepth        int `json:"maxDepth"`        // Maximum ray bounce depth
}

// DefaultSamplingConfig returns the sampling settings used when a scene
// does not choose its own
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		SamplesPerPixel: 100,
		MaxDepth:        50,
	}
}

// newScene wires a camera and an empty world together. Image dimensions
// always follow the camera configuration.
func newScene(cameraConfig geometry.CameraConfig, samplingConfig SamplingConfig) *Scene {
	samplingConfig.Width = cameraConfig.Width
	samplingConfig.Height = cameraConfig.Height()

	return &Scene{
		Camera:         geometry.NewCamera(cameraConfig),
		World:          geometry.NewHittableList(),
		Background:     core.SkyGradient(),
		SamplingConfig: samplingConfig,
		CameraConfig:   cameraConfig,
	}
}

// mergeCamera applies an optional override to a scene's default camera
func mergeCamera(defaults geometry.CameraConfig, overrides []geometry.CameraConfig) geometry.CameraConfig {
	if len(overrides) > 0 {
		return geometry.MergeCameraConfig(defaults, overrides[0])
	}
	return defaults
}

// GetPrimitiveCount returns the total number of primitive objects in the scene
func (s *Scene) GetPrimitiveCount() int {
	return countPrimitives(s.World)
}

// countPrimitives counts leaf objects, descending into nested lists
func countPrimitives(object geometry.Hittable) int {
	switch obj := object.(type) {
	case *geometry.HittableList:
		count := 0
		for _, child := range obj.Objects {
			count += countPrimitives(child)
		}
		return count
	default:
		return 1
	}
}
