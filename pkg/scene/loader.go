package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"golang.org/x/image/colornames"

	"github.com/df07/go-path-tracer/pkg/core"
	"github.com/df07/go-path-tracer/pkg/geometry"
	"github.com/df07/go-path-tracer/pkg/material"
)

// FileConfig is the JSON form of a scene file
type FileConfig struct {
	Name       string                    `json:"name,omitempty"`
	Camera     CameraFileConfig          `json:"camera"`
	Sampling   SamplingConfig            `json:"sampling"`
	Background *GradientConfig           `json:"background,omitempty"`
	Spheres    []SphereConfig            `json:"spheres"`
	Materials  map[string]MaterialConfig `json:"materials,omitempty"` // Named materials shared between spheres
}

// CameraFileConfig mirrors geometry.CameraConfig with JSON-friendly vectors
type CameraFileConfig struct {
	Center        Vec3Config `json:"center"`
	LookAt        Vec3Config `json:"lookAt"`
	Up            Vec3Config `json:"up"`
	Width         int        `json:"width,omitempty"`
	AspectRatio   float64    `json:"aspectRatio,omitempty"`
	VFov          float64    `json:"vfov,omitempty"`
	Aperture      float64    `json:"aperture,omitempty"`
	FocusDistance float64    `json:"focusDistance,omitempty"`
}

// GradientConfig describes the background sky
type GradientConfig struct {
	Top    ColourConfig `json:"top"`
	Bottom ColourConfig `json:"bottom"`
}

// SphereConfig describes one sphere. Material is either an inline material
// or a reference into FileConfig.Materials via Ref.
type SphereConfig struct {
	Center   Vec3Config     `json:"center"`
	Radius   float64        `json:"radius"`
	Material MaterialConfig `json:"material"`
}

// MaterialConfig describes a material. Type is one of lambertian, metal, dielectric or ref.
type MaterialConfig struct {
	Type            string       `json:"type"`
	Albedo          ColourConfig `json:"albedo"`
	Fuzz            float64      `json:"fuzz,omitempty"`
	RefractiveIndex float64      `json:"ior,omitempty"`
	Ref             string       `json:"ref,omitempty"`
}

// Vec3Config is a vector written as a three element JSON array
type Vec3Config core.Vec3

// UnmarshalJSON reads [x, y, z]
func (v *Vec3Config) UnmarshalJSON(data []byte) error {
	var xyz []float64
	if err := json.Unmarshal(data, &xyz); err != nil {
		return fmt.Errorf("vector must be an array of 3 numbers: %w", err)
	}
	if len(xyz) != 3 {
		return fmt.Errorf("vector must have 3 components, got %d", len(xyz))
	}
	*v = Vec3Config(core.NewVec3(xyz[0], xyz[1], xyz[2]))
	return nil
}

// MarshalJSON writes [x, y, z]
func (v Vec3Config) MarshalJSON() ([]byte, error) {
	return json.Marshal([]float64{v.X, v.Y, v.Z})
}

// ColourConfig is a linear RGB colour written either as [r, g, b] in [0,1]
// or as a CSS colour name such as "skyblue"
type ColourConfig core.Colour

// UnmarshalJSON reads a colour array or a colour name
func (c *ColourConfig) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		rgba, ok := colornames.Map[strings.ToLower(name)]
		if !ok {
			return fmt.Errorf("unknown colour name %q", name)
		}
		*c = ColourConfig(core.NewVec3(float64(rgba.R)/255, float64(rgba.G)/255, float64(rgba.B)/255))
		return nil
	}

	var v Vec3Config
	if err := v.UnmarshalJSON(data); err != nil {
		return err
	}
	*c = ColourConfig(v)
	return nil
}

// MarshalJSON writes [r, g, b]
func (c ColourConfig) MarshalJSON() ([]byte, error) {
	return Vec3Config(c).MarshalJSON()
}

// LoadSceneFile reads a JSON scene file and builds the scene it describes
func LoadSceneFile(path string, cameraOverrides ...geometry.CameraConfig) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file: %w", err)
	}
	s, err := ParseScene(data, cameraOverrides...)
	if err != nil {
		return nil, fmt.Errorf("scene file %s: %w", path, err)
	}
	return s, nil
}

// ParseScene builds a scene from its JSON description
func ParseScene(data []byte, cameraOverrides ...geometry.CameraConfig) (*Scene, error) {
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid scene JSON: %w", err)
	}
	return cfg.Build(cameraOverrides...)
}

// Build validates the configuration and constructs the scene, filling in
// defaults for anything left out
func (cfg FileConfig) Build(cameraOverrides ...geometry.CameraConfig) (*Scene, error) {
	cameraConfig := cfg.Camera.toCameraConfig()
	cameraConfig = mergeCamera(cameraConfig, cameraOverrides)
	if err := validateCamera(cameraConfig); err != nil {
		return nil, err
	}

	sampling := DefaultSamplingConfig()
	if cfg.Sampling.SamplesPerPixel > 0 {
		sampling.SamplesPerPixel = cfg.Sampling.SamplesPerPixel
	}
	if cfg.Sampling.MaxDepth > 0 {
		sampling.MaxDepth = cfg.Sampling.MaxDepth
	}

	s := newScene(cameraConfig, sampling)
	if cfg.Background != nil {
		s.Background = core.Gradient{Top: core.Colour(cfg.Background.Top), Bottom: core.Colour(cfg.Background.Bottom)}
	}

	if len(cfg.Spheres) == 0 {
		return nil, fmt.Errorf("scene has no spheres")
	}

	named := make(map[string]material.Material, len(cfg.Materials))
	for name, matConfig := range cfg.Materials {
		if matConfig.Type == "ref" {
			return nil, fmt.Errorf("material %q: named materials cannot be references", name)
		}
		mat, err := matConfig.build(nil)
		if err != nil {
			return nil, fmt.Errorf("material %q: %w", name, err)
		}
		named[name] = mat
	}

	for i, sc := range cfg.Spheres {
		if sc.Radius == 0 {
			return nil, fmt.Errorf("sphere %d: radius must be non-zero", i)
		}
		mat, err := sc.Material.build(named)
		if err != nil {
			return nil, fmt.Errorf("sphere %d: %w", i, err)
		}
		s.World.Add(geometry.NewSphere(core.Point3(sc.Center), sc.Radius, mat))
	}

	return s, nil
}

func (c CameraFileConfig) toCameraConfig() geometry.CameraConfig {
	config := geometry.CameraConfig{
		Center:        core.Point3(c.Center),
		LookAt:        core.Point3(c.LookAt),
		Up:            core.Vec3(c.Up),
		Width:         c.Width,
		AspectRatio:   c.AspectRatio,
		VFov:          c.VFov,
		Aperture:      c.Aperture,
		FocusDistance: c.FocusDistance,
	}
	if config.Up.Equals(core.Vec3{}) {
		config.Up = core.NewVec3(0, 1, 0)
	}
	if config.Width == 0 {
		config.Width = 400
	}
	if config.AspectRatio == 0 {
		config.AspectRatio = 16.0 / 9.0
	}
	if config.VFov == 0 {
		config.VFov = 90
	}
	return config
}

func validateCamera(config geometry.CameraConfig) error {
	if config.Width <= 0 {
		return fmt.Errorf("camera width must be positive, got %d", config.Width)
	}
	if config.AspectRatio <= 0 {
		return fmt.Errorf("camera aspect ratio must be positive, got %f", config.AspectRatio)
	}
	if config.VFov <= 0 || config.VFov >= 180 {
		return fmt.Errorf("camera vfov must be in (0, 180), got %f", config.VFov)
	}
	view := config.LookAt.Subtract(config.Center)
	if view.NearZero() {
		return fmt.Errorf("camera center and lookAt must differ")
	}
	if view.Cross(config.Up).NearZero() {
		return fmt.Errorf("camera up vector must not be parallel to the view direction")
	}
	if config.Aperture < 0 {
		return fmt.Errorf("camera aperture must not be negative, got %f", config.Aperture)
	}
	return nil
}

func (m MaterialConfig) build(named map[string]material.Material) (material.Material, error) {
	switch strings.ToLower(m.Type) {
	case "lambertian":
		return material.NewLambertian(core.Colour(m.Albedo)), nil
	case "metal":
		return material.NewMetal(core.Colour(m.Albedo), m.Fuzz), nil
	case "dielectric":
		if m.RefractiveIndex <= 0 {
			return nil, fmt.Errorf("dielectric needs a positive ior, got %f", m.RefractiveIndex)
		}
		return material.NewDielectric(m.RefractiveIndex), nil
	case "ref":
		mat, ok := named[m.Ref]
		if !ok {
			return nil, fmt.Errorf("unknown material reference %q", m.Ref)
		}
		return mat, nil
	case "":
		return nil, fmt.Errorf("material type is required")
	default:
		return nil, fmt.Errorf("unknown material type %q", m.Type)
	}
}
