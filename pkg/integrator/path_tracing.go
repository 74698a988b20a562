package integrator

import (
	"math"

	"github.com/df07/go-path-tracer/pkg/core"
	"github.com/df07/go-path-tracer/pkg/geometry"
)

// Self-intersection guard for scattered rays
const shadowAcneEpsilon = 0.001

// PathTracingIntegrator implements unidirectional path tracing with no
// explicit light sampling. All light comes from the background.
type PathTracingIntegrator struct {
	background core.Gradient
}

// NewPathTracingIntegrator creates a new path tracing integrator
func NewPathTracingIntegrator(background core.Gradient) *PathTracingIntegrator {
	return &PathTracingIntegrator{background: background}
}

// RayColor computes the color for a single ray using unidirectional path tracing
func (pt *PathTracingIntegrator) RayColor(ray core.Ray, world geometry.Hittable, sampler core.Sampler, depth int) core.Colour {
	// If we've exceeded the ray bounce limit, no more light is gathered
	if depth <= 0 {
		return core.Colour{}
	}

	hit, isHit := world.Hit(ray, shadowAcneEpsilon, math.Inf(1))
	if !isHit {
		return pt.background.Sample(ray.Direction)
	}

	scatter, didScatter := hit.Material.Scatter(ray, *hit, sampler)
	if !didScatter {
		return core.Colour{}
	}

	return scatter.Attenuation.MultiplyVec(pt.RayColor(scatter.Scattered, world, sampler, depth-1))
}

// Background returns the gradient seen by rays that escape the scene
func (pt *PathTracingIntegrator) Background() core.Gradient {
	return pt.background
}
