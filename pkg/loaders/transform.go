package loaders

import (
	"fmt"
	"math"

	"github.com/df07/go-path-tracer/pkg/core"
)

// Transform is an object-to-world map built from rotations, translations and
// uniform scales. Those are the only transforms that keep a sphere a sphere.
type Transform struct {
	m      [3][3]float64 // Linear part
	offset core.Vec3
	scale  float64 // Product of every uniform scale applied so far
}

// IdentityTransform returns the transform that leaves points unchanged
func IdentityTransform() Transform {
	return Transform{
		m:     [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		scale: 1,
	}
}

// ApplyPoint maps an object-space point into world space
func (t Transform) ApplyPoint(p core.Vec3) core.Vec3 {
	return core.NewVec3(
		t.m[0][0]*p.X+t.m[0][1]*p.Y+t.m[0][2]*p.Z,
		t.m[1][0]*p.X+t.m[1][1]*p.Y+t.m[1][2]*p.Z,
		t.m[2][0]*p.X+t.m[2][1]*p.Y+t.m[2][2]*p.Z,
	).Add(t.offset)
}

// Scale returns the accumulated uniform scale factor. It is negative after
// an odd number of mirroring scales.
func (t Transform) Scale() float64 {
	return t.scale
}

// Translate appends a translation by d, applied before t
func (t Transform) Translate(d core.Vec3) Transform {
	linear := t
	linear.offset = core.Vec3{}
	t.offset = t.offset.Add(linear.ApplyPoint(d))
	return t
}

// Scaled appends a scale by (x, y, z). Only uniform scales are accepted.
func (t Transform) Scaled(x, y, z float64) (Transform, error) {
	if x != y || y != z {
		return t, fmt.Errorf("non-uniform scale %g %g %g would distort spheres", x, y, z)
	}
	if x == 0 {
		return t, fmt.Errorf("scale factor must be non-zero")
	}
	for i := range t.m {
		for j := range t.m[i] {
			t.m[i][j] *= x
		}
	}
	t.scale *= x
	return t, nil
}

// Rotated appends a rotation of angle degrees about axis
func (t Transform) Rotated(angle float64, axis core.Vec3) (Transform, error) {
	if axis.LengthSquared() == 0 {
		return t, fmt.Errorf("rotation axis must be non-zero")
	}
	a := axis.Normalize()
	theta := angle * math.Pi / 180
	s, c := math.Sin(theta), math.Cos(theta)
	k := 1 - c

	r := [3][3]float64{
		{c + k*a.X*a.X, k*a.X*a.Y - s*a.Z, k*a.X*a.Z + s*a.Y},
		{k*a.X*a.Y + s*a.Z, c + k*a.Y*a.Y, k*a.Y*a.Z - s*a.X},
		{k*a.X*a.Z - s*a.Y, k*a.Y*a.Z + s*a.X, c + k*a.Z*a.Z},
	}

	var product [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for n := 0; n < 3; n++ {
				product[i][j] += t.m[i][n] * r[n][j]
			}
		}
	}
	t.m = product
	return t, nil
}
