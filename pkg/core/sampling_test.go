package core

import (
	"math"
	"testing"
)

func TestRandomVecInRange_Bounds(t *testing.T) {
	sampler := NewSeededSampler(42)
	for i := 0; i < 1000; i++ {
		v := RandomVecInRange(sampler, -2, 3)
		for _, c := range []float64{v.X, v.Y, v.Z} {
			if c < -2 || c >= 3 {
				t.Fatalf("Component %f outside [-2, 3)", c)
			}
		}

		u := RandomVec(sampler)
		for _, c := range []float64{u.X, u.Y, u.Z} {
			if c < 0 || c >= 1 {
				t.Fatalf("Component %f outside [0, 1)", c)
			}
		}
	}
}

func TestRandomInUnitSphere_InsideBall(t *testing.T) {
	sampler := NewSeededSampler(42)

	const n = 20000
	var mean Vec3
	inner := 0
	for i := 0; i < n; i++ {
		p := RandomInUnitSphere(sampler)
		if p.LengthSquared() >= 1.0 {
			t.Fatalf("Point %v is not strictly inside the unit ball", p)
		}
		if p.Length() < 0.5 {
			inner++
		}
		mean = mean.Add(p)
	}

	// Uniform in the ball, not on its surface: a radius-0.5 ball holds 1/8 of the volume
	fraction := float64(inner) / n
	if math.Abs(fraction-0.125) > 0.02 {
		t.Errorf("Expected ~12.5%% of points within radius 0.5, got %.1f%%", fraction*100)
	}

	mean = mean.Divide(n)
	if mean.Length() > 0.05 {
		t.Errorf("Expected points centred on the origin, mean is %v", mean)
	}
}

func TestRandomUnitVector_UnitLength(t *testing.T) {
	sampler := NewSeededSampler(42)
	for i := 0; i < 1000; i++ {
		v := RandomUnitVector(sampler)
		if math.Abs(v.Length()-1.0) > 1e-12 {
			t.Fatalf("Expected unit vector, got length %f", v.Length())
		}
	}
}

func TestRandomInUnitDisk(t *testing.T) {
	sampler := NewSeededSampler(42)
	for i := 0; i < 1000; i++ {
		p := RandomInUnitDisk(sampler)
		if p.Z != 0 {
			t.Fatalf("Disk sample must lie in the z=0 plane, got %v", p)
		}
		if p.LengthSquared() >= 1.0 {
			t.Fatalf("Disk sample %v outside unit disk", p)
		}
	}
}

func TestSeededSampler_Reproducible(t *testing.T) {
	a := NewSeededSampler(1234)
	b := NewSeededSampler(1234)
	for i := 0; i < 100; i++ {
		if a.Get1D() != b.Get1D() {
			t.Fatalf("Samplers with the same seed diverged at draw %d", i)
		}
	}
}

func TestSampleSeed(t *testing.T) {
	seen := make(map[int64]int)
	for i := 0; i < 1000; i++ {
		seed := SampleSeed(42, i)
		if prev, ok := seen[seed]; ok {
			t.Fatalf("Sample %d reuses the seed of sample %d", i, prev)
		}
		seen[seed] = i
		if seed < 0 {
			t.Fatalf("Seed should be non-negative, got %d", seed)
		}
	}

	if SampleSeed(42, 3) != SampleSeed(42, 3) {
		t.Error("SampleSeed should be a pure function")
	}
	if SampleSeed(42, 3) == SampleSeed(43, 3) {
		t.Error("Different base seeds should give different sample seeds")
	}
}
