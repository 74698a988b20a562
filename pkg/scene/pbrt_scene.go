package scene

import (
	"fmt"
	"math"

	"github.com/df07/go-path-tracer/pkg/core"
	"github.com/df07/go-path-tracer/pkg/geometry"
	"github.com/df07/go-path-tracer/pkg/loaders"
	"github.com/df07/go-path-tracer/pkg/material"
)

// NewPBRTScene loads a PBRT file and builds the sphere scene it describes
func NewPBRTScene(path string, cameraOverrides ...geometry.CameraConfig) (*Scene, error) {
	pbrtScene, err := loaders.LoadPBRT(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load PBRT file %s: %w", path, err)
	}
	s, err := BuildPBRTScene(pbrtScene, cameraOverrides...)
	if err != nil {
		return nil, fmt.Errorf("PBRT scene %s: %w", path, err)
	}
	return s, nil
}

// BuildPBRTScene converts a parsed PBRT scene. Only spheres are supported;
// light sources and other unsupported directives have already been skipped
// by the parser and the sky gradient lights the scene.
func BuildPBRTScene(pbrtScene *loaders.PBRTScene, cameraOverrides ...geometry.CameraConfig) (*Scene, error) {
	cameraConfig, err := convertCamera(pbrtScene)
	if err != nil {
		return nil, err
	}
	cameraConfig = mergeCamera(cameraConfig, cameraOverrides)
	if err := validateCamera(cameraConfig); err != nil {
		return nil, err
	}

	sampling := DefaultSamplingConfig()
	if pbrtScene.Sampler != nil {
		if spp, ok := pbrtScene.Sampler.GetIntParam("pixelsamples"); ok && spp > 0 {
			sampling.SamplesPerPixel = spp
		}
	}
	if pbrtScene.Integrator != nil {
		if depth, ok := pbrtScene.Integrator.GetIntParam("maxdepth"); ok && depth > 0 {
			sampling.MaxDepth = depth
		}
	}

	s := newScene(cameraConfig, sampling)

	materials := make([]material.Material, len(pbrtScene.Materials))
	for i := range pbrtScene.Materials {
		mat, err := convertMaterial(&pbrtScene.Materials[i])
		if err != nil {
			return nil, fmt.Errorf("material %d: %w", i, err)
		}
		materials[i] = mat
	}

	var defaultMaterial material.Material = material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5))
	for i := range pbrtScene.Shapes {
		shape := &pbrtScene.Shapes[i]
		if shape.Subtype != "sphere" {
			return nil, fmt.Errorf("shape %d: unsupported shape %q (only spheres)", i, shape.Subtype)
		}

		radius := 1.0
		if r, ok := shape.GetFloatParam("radius"); ok {
			radius = r
		}
		if radius <= 0 {
			return nil, fmt.Errorf("shape %d: sphere radius must be positive, got %f", i, radius)
		}
		scale := shape.Transform.Scale()
		radius *= math.Abs(scale)
		// A mirroring scale flips orientation like ReverseOrientation does
		if shape.Reversed != (scale < 0) {
			radius = -radius // inward normals, as for the inner surface of a hollow glass ball
		}

		mat := defaultMaterial
		if shape.MaterialIndex >= 0 {
			mat = materials[shape.MaterialIndex]
		}
		s.World.Add(geometry.NewSphere(shape.Transform.ApplyPoint(core.Vec3{}), radius, mat))
	}

	if s.World.Len() == 0 {
		return nil, fmt.Errorf("scene has no spheres")
	}
	return s, nil
}

// convertCamera reads LookAt, Camera and Film into a camera configuration
func convertCamera(pbrtScene *loaders.PBRTScene) (geometry.CameraConfig, error) {
	config := geometry.CameraConfig{
		Center:      core.NewVec3(0, 0, 0),
		LookAt:      core.NewVec3(0, 0, -1),
		Up:          core.NewVec3(0, 1, 0),
		Width:       400,
		AspectRatio: 16.0 / 9.0,
		VFov:        90,
	}

	if pbrtScene.LookAt != nil {
		config.Center = *pbrtScene.LookAt
		config.LookAt = *pbrtScene.LookAtTo
		config.Up = *pbrtScene.LookAtUp
	}

	if film := pbrtScene.Film; film != nil {
		xres, xok := film.GetIntParam("xresolution")
		yres, yok := film.GetIntParam("yresolution")
		if xok != yok {
			return config, fmt.Errorf("film needs both xresolution and yresolution")
		}
		if xok {
			if xres <= 0 || yres <= 0 {
				return config, fmt.Errorf("film resolution must be positive, got %dx%d", xres, yres)
			}
			config.Width = xres
			config.AspectRatio = float64(xres) / float64(yres)
		}
	}

	if camera := pbrtScene.Camera; camera != nil {
		if camera.Subtype != "perspective" {
			return config, fmt.Errorf("unsupported camera type %q (only perspective)", camera.Subtype)
		}
		if fov, ok := camera.GetFloatParam("fov"); ok {
			config.VFov = verticalFOV(fov, config.AspectRatio)
		}
		if lensRadius, ok := camera.GetFloatParam("lensradius"); ok {
			config.Aperture = 2 * lensRadius
		}
		if focus, ok := camera.GetFloatParam("focaldistance"); ok {
			config.FocusDistance = focus
		}
	}

	return config, nil
}

// verticalFOV converts a field of view that spans the shorter image axis,
// which is how PBRT defines it, to a vertical field of view
func verticalFOV(fov, aspectRatio float64) float64 {
	if aspectRatio >= 1 {
		return fov
	}
	half := math.Tan(fov * math.Pi / 360)
	return 2 * math.Atan(half/aspectRatio) * 180 / math.Pi
}

// convertMaterial maps PBRT materials onto lambertian, metal and dielectric
func convertMaterial(stmt *loaders.PBRTStatement) (material.Material, error) {
	switch stmt.Subtype {
	case "diffuse":
		albedo := core.NewVec3(0.7, 0.7, 0.7)
		if reflectance, ok := stmt.GetRGBParam("reflectance"); ok {
			albedo = reflectance
		}
		return material.NewLambertian(albedo), nil

	case "conductor":
		albedo := core.NewVec3(0.7, 0.6, 0.5)
		if reflectance, ok := stmt.GetRGBParam("reflectance"); ok {
			albedo = reflectance
		}
		fuzz := 0.0
		if roughness, ok := stmt.GetFloatParam("roughness"); ok {
			fuzz = math.Max(0, math.Min(1, roughness))
		}
		return material.NewMetal(albedo, fuzz), nil

	case "dielectric":
		eta := 1.5
		if e, ok := stmt.GetFloatParam("eta"); ok {
			eta = e
		}
		if eta <= 0 {
			return nil, fmt.Errorf("dielectric eta must be positive, got %f", eta)
		}
		return material.NewDielectric(eta), nil

	default:
		return nil, fmt.Errorf("unsupported material type %q", stmt.Subtype)
	}
}
