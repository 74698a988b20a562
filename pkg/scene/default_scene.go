package scene

import (
	"github.com/df07/go-path-tracer/pkg/core"
	"github.com/df07/go-path-tracer/pkg/geometry"
	"github.com/df07/go-path-tracer/pkg/material"
)

// NewDefaultScene creates the classic four-sphere scene: a yellow ground, a
// blue diffuse sphere between a hollow glass sphere and a gold mirror, seen
// from above with a wide aperture
func NewDefaultScene(cameraOverrides ...geometry.CameraConfig) *Scene {
	defaultCameraConfig := geometry.CameraConfig{
		Center:        core.NewVec3(3, 3, 2),
		LookAt:        core.NewVec3(0, 0, -1),
		Up:            core.NewVec3(0, 1, 0),
		Width:         400,
		AspectRatio:   16.0 / 9.0,
		VFov:          20.0,
		Aperture:      2.0,
		FocusDistance: 0.0, // Auto-calculate focus distance
	}
	cameraConfig := mergeCamera(defaultCameraConfig, cameraOverrides)

	s := newScene(cameraConfig, DefaultSamplingConfig())

	materialGround := material.NewLambertian(core.NewVec3(0.8, 0.8, 0.0))
	materialCenter := material.NewLambertian(core.NewVec3(0.1, 0.2, 0.5))
	materialLeft := material.NewDielectric(1.5)
	materialRight := material.NewMetal(core.NewVec3(0.8, 0.6, 0.2), 0.0)

	s.World.Add(geometry.NewSphere(core.NewVec3(0, -100.5, -1), 100, materialGround))
	s.World.Add(geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5, materialCenter))
	// Negative inner radius turns the glass into a thin hollow shell
	s.World.Add(geometry.NewSphere(core.NewVec3(-1, 0, -1), 0.5, materialLeft))
	s.World.Add(geometry.NewSphere(core.NewVec3(-1, 0, -1), -0.45, materialLeft))
	s.World.Add(geometry.NewSphere(core.NewVec3(1, 0, -1), 0.5, materialRight))

	return s
}

// NewSimpleScene creates a single diffuse sphere resting on a huge ground
// sphere, viewed head-on through a pinhole camera
func NewSimpleScene(cameraOverrides ...geometry.CameraConfig) *Scene {
	defaultCameraConfig := geometry.CameraConfig{
		Center:      core.NewVec3(0, 0, 0),
		LookAt:      core.NewVec3(0, 0, -1),
		Up:          core.NewVec3(0, 1, 0),
		Width:       400,
		AspectRatio: 16.0 / 9.0,
		VFov:        90.0,
	}
	cameraConfig := mergeCamera(defaultCameraConfig, cameraOverrides)

	s := newScene(cameraConfig, DefaultSamplingConfig())

	s.World.Add(geometry.NewSphere(core.NewVec3(0, -100.5, -1), 100, material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5))))
	s.World.Add(geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5, material.NewLambertian(core.NewVec3(0.1, 0.2, 0.5))))

	return s
}
