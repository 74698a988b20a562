package scene

import (
	"strings"
	"testing"

	"github.com/df07/go-path-tracer/pkg/core"
	"github.com/df07/go-path-tracer/pkg/geometry"
	"github.com/df07/go-path-tracer/pkg/material"
)

const glassSceneJSON = `{
  "name": "Glass",
  "camera": {"center": [0, 1, 3], "lookAt": [0, 0, -1], "width": 64, "aspectRatio": 2, "vfov": 40, "aperture": 0.1},
  "sampling": {"samplesPerPixel": 16, "maxDepth": 8},
  "background": {"top": "skyblue", "bottom": [1, 1, 1]},
  "materials": {
    "glass": {"type": "dielectric", "ior": 1.5}
  },
  "spheres": [
    {"center": [0, -100.5, -1], "radius": 100, "material": {"type": "lambertian", "albedo": [0.8, 0.8, 0]}},
    {"center": [0, 0, -1], "radius": 0.5, "material": {"type": "ref", "ref": "glass"}},
    {"center": [0, 0, -1], "radius": -0.45, "material": {"type": "ref", "ref": "glass"}},
    {"center": [1, 0, -1], "radius": 0.5, "material": {"type": "metal", "albedo": "Gold", "fuzz": 3}}
  ]
}`

func TestParseScene(t *testing.T) {
	s, err := ParseScene([]byte(glassSceneJSON))
	if err != nil {
		t.Fatalf("ParseScene() error: %v", err)
	}

	if s.SamplingConfig.Width != 64 || s.SamplingConfig.Height != 32 {
		t.Errorf("Expected 64x32, got %dx%d", s.SamplingConfig.Width, s.SamplingConfig.Height)
	}
	if s.SamplingConfig.SamplesPerPixel != 16 || s.SamplingConfig.MaxDepth != 8 {
		t.Errorf("Sampling overrides not applied: %+v", s.SamplingConfig)
	}
	if !s.CameraConfig.Up.Equals(core.NewVec3(0, 1, 0)) {
		t.Errorf("Expected default up vector, got %v", s.CameraConfig.Up)
	}

	// skyblue is #87CEEB
	expectedTop := core.NewVec3(135.0/255, 206.0/255, 235.0/255)
	if !s.Background.Top.ApproxEquals(expectedTop, 1e-12) {
		t.Errorf("Expected top colour %v, got %v", expectedTop, s.Background.Top)
	}

	if s.World.Len() != 4 {
		t.Fatalf("Expected 4 spheres, got %d", s.World.Len())
	}
	outer := s.World.Objects[1].(*geometry.Sphere)
	inner := s.World.Objects[2].(*geometry.Sphere)
	if outer.Material != inner.Material {
		t.Error("Spheres referencing the same named material should share it")
	}
	if inner.Radius != -0.45 {
		t.Errorf("Negative radius should be preserved, got %f", inner.Radius)
	}

	metal, ok := s.World.Objects[3].(*geometry.Sphere).Material.(*material.Metal)
	if !ok {
		t.Fatal("Expected a metal material")
	}
	if metal.Fuzz != 1 {
		t.Errorf("Fuzz should be clamped to 1, got %f", metal.Fuzz)
	}
	expectedGold := core.NewVec3(1, 215.0/255, 0)
	if !metal.Albedo.ApproxEquals(expectedGold, 1e-12) {
		t.Errorf("Expected gold albedo %v, got %v", expectedGold, metal.Albedo)
	}
}

func TestParseScene_Defaults(t *testing.T) {
	s, err := ParseScene([]byte(`{
  "camera": {"center": [0, 0, 0], "lookAt": [0, 0, -1]},
  "spheres": [{"center": [0, 0, -1], "radius": 0.5, "material": {"type": "lambertian", "albedo": [0.5, 0.5, 0.5]}}]
}`))
	if err != nil {
		t.Fatalf("ParseScene() error: %v", err)
	}

	defaults := DefaultSamplingConfig()
	if s.SamplingConfig.SamplesPerPixel != defaults.SamplesPerPixel || s.SamplingConfig.MaxDepth != defaults.MaxDepth {
		t.Errorf("Expected default sampling, got %+v", s.SamplingConfig)
	}
	if s.Background != core.SkyGradient() {
		t.Errorf("Expected the default sky, got %+v", s.Background)
	}
	if s.CameraConfig.Width != 400 || s.CameraConfig.VFov != 90 {
		t.Errorf("Expected default camera, got %+v", s.CameraConfig)
	}
}

func TestParseScene_Errors(t *testing.T) {
	camera := `"camera": {"center": [0, 0, 0], "lookAt": [0, 0, -1]}`

	testCases := []struct {
		name    string
		json    string
		wantErr string
	}{
		{"malformed json", `{`, "invalid scene JSON"},
		{"short vector", `{"camera": {"center": [0, 0], "lookAt": [0, 0, -1]}}`, "3 components"},
		{"no spheres", `{` + camera + `}`, "no spheres"},
		{"zero radius", `{` + camera + `, "spheres": [{"center": [0,0,-1], "radius": 0, "material": {"type": "lambertian"}}]}`, "radius"},
		{"unknown material", `{` + camera + `, "spheres": [{"center": [0,0,-1], "radius": 1, "material": {"type": "plastic"}}]}`, "unknown material type"},
		{"missing material", `{` + camera + `, "spheres": [{"center": [0,0,-1], "radius": 1}]}`, "material type is required"},
		{"bad ior", `{` + camera + `, "spheres": [{"center": [0,0,-1], "radius": 1, "material": {"type": "dielectric"}}]}`, "ior"},
		{"dangling ref", `{` + camera + `, "spheres": [{"center": [0,0,-1], "radius": 1, "material": {"type": "ref", "ref": "nope"}}]}`, "unknown material reference"},
		{"unknown colour", `{` + camera + `, "spheres": [{"center": [0,0,-1], "radius": 1, "material": {"type": "lambertian", "albedo": "blurple"}}]}`, "unknown colour name"},
		{"camera at target", `{"camera": {"center": [0, 0, -1], "lookAt": [0, 0, -1]}, "spheres": [{"center": [0,0,-1], "radius": 1, "material": {"type": "lambertian"}}]}`, "must differ"},
		{"up parallel to view", `{"camera": {"center": [0, 0, 0], "lookAt": [0, 5, 0]}, "spheres": [{"center": [0,0,-1], "radius": 1, "material": {"type": "lambertian"}}]}`, "parallel"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseScene([]byte(tc.json))
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoadSceneFile_Missing(t *testing.T) {
	if _, err := LoadSceneFile("does-not-exist.json"); err == nil {
		t.Error("Expected an error for a missing file")
	}
}
