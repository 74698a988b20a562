package scene

import (
	"github.com/df07/go-path-tracer/pkg/core"
	"github.com/df07/go-path-tracer/pkg/geometry"
	"github.com/df07/go-path-tracer/pkg/material"
)

// metalFuzz lists the roughness of each sphere in the metals scene, left to right
var metalFuzz = []float64{0.0, 0.1, 0.25, 0.5, 1.0}

// NewMetalsScene creates a row of metal spheres whose fuzz increases from a
// perfect mirror to fully rough
func NewMetalsScene(cameraOverrides ...geometry.CameraConfig) *Scene {
	defaultCameraConfig := geometry.CameraConfig{
		Center:      core.NewVec3(0, 1.2, 4),
		LookAt:      core.NewVec3(0, 0.4, -1),
		Up:          core.NewVec3(0, 1, 0),
		Width:       400,
		AspectRatio: 16.0 / 9.0,
		VFov:        45.0,
	}
	cameraConfig := mergeCamera(defaultCameraConfig, cameraOverrides)

	s := newScene(cameraConfig, DefaultSamplingConfig())

	s.World.Add(geometry.NewSphere(core.NewVec3(0, -1000, -1), 1000, material.NewLambertian(core.NewVec3(0.45, 0.45, 0.5))))

	spacing := 1.1
	left := -spacing * float64(len(metalFuzz)-1) / 2
	for i, fuzz := range metalFuzz {
		hue := 360.0 * float64(i) / float64(len(metalFuzz))
		albedo := oklchToRGB(0.8, 0.08, hue)
		center := core.NewVec3(left+float64(i)*spacing, 0.5, -1)
		s.World.Add(geometry.NewSphere(center, 0.5, material.NewMetal(albedo, fuzz)))
	}

	return s
}
