package core

import (
	"math"
	"testing"
)

func TestVec3_Arithmetic(t *testing.T) {
	a := NewVec3(1, 2, 3)
	b := NewVec3(4, -5, 6)

	tests := []struct {
		name     string
		got      Vec3
		expected Vec3
	}{
		{"Add", a.Add(b), NewVec3(5, -3, 9)},
		{"Subtract", a.Subtract(b), NewVec3(-3, 7, -3)},
		{"Negate", a.Negate(), NewVec3(-1, -2, -3)},
		{"Multiply", a.Multiply(2), NewVec3(2, 4, 6)},
		{"MultiplyVec", a.MultiplyVec(b), NewVec3(4, -10, 18)},
		{"Divide", a.Divide(2), NewVec3(0.5, 1, 1.5)},
		{"DivideVec", b.DivideVec(a), NewVec3(4, -2.5, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.got.ApproxEquals(tt.expected, 1e-12) {
				t.Errorf("Expected %v, got %v", tt.expected, tt.got)
			}
		})
	}

	// Operations never mutate the receiver
	if !a.Equals(NewVec3(1, 2, 3)) {
		t.Errorf("Receiver was mutated: %v", a)
	}
}

func TestVec3_DotAndCross(t *testing.T) {
	x := NewVec3(1, 0, 0)
	y := NewVec3(0, 1, 0)
	z := NewVec3(0, 0, 1)

	if got := x.Cross(y); !got.Equals(z) {
		t.Errorf("x cross y: expected %v, got %v", z, got)
	}
	if got := y.Cross(x); !got.Equals(z.Negate()) {
		t.Errorf("y cross x: expected %v, got %v", z.Negate(), got)
	}

	a := NewVec3(1, 2, 3)
	b := NewVec3(4, 5, 6)
	if got := a.Dot(b); got != 32 {
		t.Errorf("Expected dot product 32, got %f", got)
	}

	// The cross product is orthogonal to both inputs
	c := a.Cross(b)
	if math.Abs(c.Dot(a)) > 1e-12 || math.Abs(c.Dot(b)) > 1e-12 {
		t.Errorf("Cross product %v is not orthogonal to inputs", c)
	}
	if !c.Equals(NewVec3(-3, 6, -3)) {
		t.Errorf("Expected (-3, 6, -3), got %v", c)
	}
}

func TestVec3_Length(t *testing.T) {
	v := NewVec3(2, 3, 6)
	if v.LengthSquared() != 49 {
		t.Errorf("Expected squared length 49, got %f", v.LengthSquared())
	}
	if v.Length() != 7 {
		t.Errorf("Expected length 7, got %f", v.Length())
	}
}

func TestVec3_NormalizeHasUnitLength(t *testing.T) {
	sampler := NewSeededSampler(7)
	for i := 0; i < 1000; i++ {
		v := RandomVecInRange(sampler, -100, 100)
		if v.Length() == 0 {
			continue
		}
		if got := v.Normalize().Length(); math.Abs(got-1.0) > 1e-12 {
			t.Fatalf("Normalize(%v) has length %f", v, got)
		}
	}

	if zero := (Vec3{}).Normalize(); !zero.Equals(Vec3{}) {
		t.Errorf("Normalizing the zero vector should return zero, got %v", zero)
	}
}

func TestVec3_ReflectFlipsNormalComponent(t *testing.T) {
	sampler := NewSeededSampler(11)
	for i := 0; i < 1000; i++ {
		n := RandomUnitVector(sampler)
		v := RandomVecInRange(sampler, -5, 5)

		reflected := v.Reflect(n)
		if math.Abs(reflected.Dot(n)+v.Dot(n)) > 1e-9 {
			t.Fatalf("dot(reflect(v,n), n) = %f, expected %f", reflected.Dot(n), -v.Dot(n))
		}
		if math.Abs(reflected.Length()-v.Length()) > 1e-9 {
			t.Fatalf("Reflection changed length: %f -> %f", v.Length(), reflected.Length())
		}
	}
}

func TestVec3_Refract(t *testing.T) {
	normal := NewVec3(0, 1, 0)

	t.Run("Normal incidence passes straight through", func(t *testing.T) {
		in := NewVec3(0, -1, 0)
		out := in.Refract(normal, 1.0/1.5)
		if !out.ApproxEquals(in, 1e-12) {
			t.Errorf("Expected %v, got %v", in, out)
		}
	})

	t.Run("Snell's law holds", func(t *testing.T) {
		in := NewVec3(1, -1, 0).Normalize()
		eta := 1.0 / 1.5
		out := in.Refract(normal, eta)

		sinIn := in.Cross(normal).Length()
		sinOut := out.Normalize().Cross(normal).Length()
		if math.Abs(sinOut-eta*sinIn) > 1e-9 {
			t.Errorf("Expected sin(out) = %f, got %f", eta*sinIn, sinOut)
		}
		if math.Abs(out.Length()-1.0) > 1e-9 {
			t.Errorf("Refracted unit vector should stay unit length, got %f", out.Length())
		}
	})

	t.Run("Index ratio of one leaves direction unchanged", func(t *testing.T) {
		in := NewVec3(0.3, -0.8, 0.2).Normalize()
		out := in.Refract(normal, 1.0)
		if !out.ApproxEquals(in, 1e-12) {
			t.Errorf("Expected %v, got %v", in, out)
		}
	})
}

func TestVec3_NearZero(t *testing.T) {
	tests := []struct {
		name     string
		v        Vec3
		expected bool
	}{
		{"zero", NewVec3(0, 0, 0), true},
		{"tiny", NewVec3(1e-9, -1e-9, 5e-10), true},
		{"one component large", NewVec3(1e-9, 1e-3, 0), false},
		{"unit", NewVec3(1, 0, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.NearZero(); got != tt.expected {
				t.Errorf("NearZero(%v) = %t, expected %t", tt.v, got, tt.expected)
			}
		})
	}
}

func TestVec3_ClampAndSqrt(t *testing.T) {
	v := NewVec3(-0.5, 0.25, 4)

	if got := v.Clamp(0, 0.999); !got.Equals(NewVec3(0, 0.25, 0.999)) {
		t.Errorf("Unexpected clamp result %v", got)
	}
	if got := v.Sqrt(); !got.Equals(NewVec3(0, 0.5, 2)) {
		t.Errorf("Unexpected sqrt result %v", got)
	}
}

func TestRay_At(t *testing.T) {
	ray := NewRay(NewVec3(1, 2, 3), NewVec3(0, 0, -2))

	if got := ray.At(0); !got.Equals(ray.Origin) {
		t.Errorf("At(0) should be the origin, got %v", got)
	}
	if got := ray.At(1.5); !got.Equals(NewVec3(1, 2, 0)) {
		t.Errorf("Expected (1, 2, 0), got %v", got)
	}
}

func TestGradient_Sample(t *testing.T) {
	sky := SkyGradient()

	if got := sky.Sample(NewVec3(0, 1, 0)); !got.ApproxEquals(sky.Top, 1e-12) {
		t.Errorf("Straight up should be the top colour, got %v", got)
	}
	if got := sky.Sample(NewVec3(0, -3, 0)); !got.ApproxEquals(sky.Bottom, 1e-12) {
		t.Errorf("Straight down should be the bottom colour, got %v", got)
	}

	// Horizontal rays sit half way
	expected := NewVec3(0.75, 0.85, 1.0)
	if got := sky.Sample(NewVec3(0, 0, -1)); !got.ApproxEquals(expected, 1e-12) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}
