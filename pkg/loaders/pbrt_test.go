package loaders

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-path-tracer/pkg/core"
)

func TestTokenizePBRT(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "simple statement",
			input:    `Camera "perspective"`,
			expected: []string{`Camera`, `"perspective"`},
		},
		{
			name:     "statement with parameters",
			input:    `Camera "perspective" "float fov" 45`,
			expected: []string{`Camera`, `"perspective"`, `"float fov"`, `45`},
		},
		{
			name:     "statement with array",
			input:    `Material "diffuse" "rgb reflectance" [0.7 0.3 0.1]`,
			expected: []string{`Material`, `"diffuse"`, `"rgb reflectance"`, `[0.7 0.3 0.1]`},
		},
		{
			name:     "tabs and quoted array",
			input:    "Material\t\"dielectric\" \"string name\" [ \"glass\" ]",
			expected: []string{`Material`, `"dielectric"`, `"string name"`, `[ "glass" ]`},
		},
		{
			name:     "lookAt statement",
			input:    `LookAt 278 278 -800 278 278 0 0 1 0`,
			expected: []string{`LookAt`, `278`, `278`, `-800`, `278`, `278`, `0`, `0`, `1`, `0`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tokenizePBRT(tt.input)
			if len(result) != len(tt.expected) {
				t.Fatalf("tokenizePBRT() = %v, want %v", result, tt.expected)
			}
			for i, token := range result {
				if token != tt.expected[i] {
					t.Errorf("tokenizePBRT()[%d] = %q, want %q", i, token, tt.expected[i])
				}
			}
		})
	}
}

func TestParseStatement(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		expectedType  string
		expectedSub   string
		expectedParam string
		expectedValue []string
	}{
		{
			name:          "camera statement",
			input:         `Camera "perspective" "float fov" 45`,
			expectedType:  "Camera",
			expectedSub:   "perspective",
			expectedParam: "fov",
			expectedValue: []string{"45"},
		},
		{
			name:          "material with RGB",
			input:         `Material "diffuse" "rgb reflectance" [0.7 0.3 0.1]`,
			expectedType:  "Material",
			expectedSub:   "diffuse",
			expectedParam: "reflectance",
			expectedValue: []string{"0.7", "0.3", "0.1"},
		},
		{
			name:          "string value is unquoted",
			input:         `Film "rgb" "string filename" "out.png"`,
			expectedType:  "Film",
			expectedSub:   "rgb",
			expectedParam: "filename",
			expectedValue: []string{"out.png"},
		},
		{
			name:          "translate takes bare values",
			input:         `Translate 1 -2 3.5`,
			expectedType:  "Translate",
			expectedParam: "values",
			expectedValue: []string{"1", "-2", "3.5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := parseStatement(tt.input)
			if err != nil {
				t.Fatalf("parseStatement() error = %v", err)
			}
			if stmt.Type != tt.expectedType {
				t.Errorf("Type = %q, want %q", stmt.Type, tt.expectedType)
			}
			if stmt.Subtype != tt.expectedSub {
				t.Errorf("Subtype = %q, want %q", stmt.Subtype, tt.expectedSub)
			}
			param, ok := stmt.Parameters[tt.expectedParam]
			if !ok {
				t.Fatalf("missing parameter %q in %v", tt.expectedParam, stmt.Parameters)
			}
			if strings.Join(param.Values, ",") != strings.Join(tt.expectedValue, ",") {
				t.Errorf("values = %v, want %v", param.Values, tt.expectedValue)
			}
		})
	}

	if _, err := parseStatement(`Shape "sphere" "radius" 1`); err == nil {
		t.Error("Expected an error for a parameter without a type")
	}
}

func TestGetParameterMethods(t *testing.T) {
	stmt, err := parseStatement(`Material "conductor" "float roughness" 0.25 "rgb reflectance" [0.9 0.8 0.7] "integer count" 4 "string kind" "gold"`)
	if err != nil {
		t.Fatalf("parseStatement() error = %v", err)
	}

	if v, ok := stmt.GetFloatParam("roughness"); !ok || v != 0.25 {
		t.Errorf("GetFloatParam(roughness) = %v, %v", v, ok)
	}
	if v, ok := stmt.GetIntParam("count"); !ok || v != 4 {
		t.Errorf("GetIntParam(count) = %v, %v", v, ok)
	}
	if v, ok := stmt.GetRGBParam("reflectance"); !ok || !v.Equals(core.NewVec3(0.9, 0.8, 0.7)) {
		t.Errorf("GetRGBParam(reflectance) = %v, %v", v, ok)
	}
	if v, ok := stmt.GetStringParam("kind"); !ok || v != "gold" {
		t.Errorf("GetStringParam(kind) = %q, %v", v, ok)
	}
	if _, ok := stmt.GetFloatParam("missing"); ok {
		t.Error("GetFloatParam should report a missing parameter")
	}
	if _, ok := stmt.GetIntParam("roughness"); ok {
		t.Error("GetIntParam should reject a fractional value")
	}
}

func TestParsePBRT_Basic(t *testing.T) {
	content := `LookAt 0 1 4  0 0 0  0 1 0
Camera "perspective" "float fov" 40
Film "rgb" "integer xresolution" 320 "integer yresolution" 180
Sampler "independent" "integer pixelsamples" 16
WorldBegin
LightSource "infinite" "rgb L" [1 1 1]
Material "diffuse" "rgb reflectance" [0.5 0.5 0.5]
Shape "sphere" "float radius" 1.0
WorldEnd`

	scene, err := ParsePBRT(strings.NewReader(content))
	if err != nil {
		t.Fatalf("ParsePBRT() error = %v", err)
	}

	if scene.Camera == nil || scene.Film == nil || scene.Sampler == nil {
		t.Fatalf("Expected camera, film and sampler, got %+v", scene)
	}
	if scene.LookAt == nil || !scene.LookAt.Equals(core.NewVec3(0, 1, 4)) {
		t.Errorf("LookAt eye = %v", scene.LookAt)
	}
	if scene.LookAtUp == nil || !scene.LookAtUp.Equals(core.NewVec3(0, 1, 0)) {
		t.Errorf("LookAt up = %v", scene.LookAtUp)
	}
	if len(scene.Materials) != 1 || len(scene.Shapes) != 1 {
		t.Fatalf("Expected 1 material and 1 shape, got %d and %d", len(scene.Materials), len(scene.Shapes))
	}
	if scene.Shapes[0].MaterialIndex != 0 {
		t.Errorf("Shape material index = %d, want 0", scene.Shapes[0].MaterialIndex)
	}
	if len(scene.Ignored) != 1 || scene.Ignored[0] != "LightSource" {
		t.Errorf("Ignored = %v, want [LightSource]", scene.Ignored)
	}
}

func TestParsePBRT_MultiLineParameters(t *testing.T) {
	content := `Camera "perspective"
    "float fov" 40
Film "rgb"
    "integer xresolution" 200
    "integer yresolution" 100
WorldBegin
Material "diffuse"
    "rgb reflectance" [ 0.5 0.5
                        0.5 ]
Shape "sphere"
    "float radius" 2.0
WorldEnd`

	scene, err := ParsePBRT(strings.NewReader(content))
	if err != nil {
		t.Fatalf("ParsePBRT() error = %v", err)
	}
	if x, ok := scene.Film.GetIntParam("yresolution"); !ok || x != 100 {
		t.Errorf("yresolution = %d, %v", x, ok)
	}
	if r, ok := scene.Shapes[0].GetFloatParam("radius"); !ok || r != 2.0 {
		t.Errorf("radius = %v, %v", r, ok)
	}
	if _, ok := scene.Materials[0].GetRGBParam("reflectance"); !ok {
		t.Error("Array split across lines should parse")
	}
}

func TestParsePBRT_GraphicsState(t *testing.T) {
	content := `WorldBegin
Material "diffuse" "rgb reflectance" [1 0 0]
Shape "sphere" "float radius" 0.5

AttributeBegin
    Material "diffuse" "rgb reflectance" [0 0 1]
    Translate 0 2 0
    ReverseOrientation
    Shape "sphere" "float radius" 0.3
AttributeEnd

Shape "sphere" "float radius" 0.7
WorldEnd`

	scene, err := ParsePBRT(strings.NewReader(content))
	if err != nil {
		t.Fatalf("ParsePBRT() error = %v", err)
	}
	if len(scene.Shapes) != 3 {
		t.Fatalf("Expected 3 shapes, got %d", len(scene.Shapes))
	}

	inner, after := scene.Shapes[1], scene.Shapes[2]
	if inner.MaterialIndex != 1 || !inner.Reversed {
		t.Errorf("Shape inside the block: material %d reversed %v", inner.MaterialIndex, inner.Reversed)
	}
	if !inner.Transform.ApplyPoint(core.Vec3{}).Equals(core.NewVec3(0, 2, 0)) {
		t.Errorf("Shape inside the block should be translated, got %v", inner.Transform.ApplyPoint(core.Vec3{}))
	}

	// AttributeEnd restores material, transform and orientation
	if after.MaterialIndex != 0 || after.Reversed {
		t.Errorf("Shape after the block: material %d reversed %v", after.MaterialIndex, after.Reversed)
	}
	if !after.Transform.ApplyPoint(core.Vec3{}).Equals(core.Vec3{}) {
		t.Errorf("Transform should be restored, got %v", after.Transform.ApplyPoint(core.Vec3{}))
	}
}

func TestParsePBRT_NamedMaterials(t *testing.T) {
	content := `WorldBegin
MakeNamedMaterial "glass" "string type" "dielectric" "float eta" 1.5
MakeNamedMaterial "chalk" "string type" "diffuse"
NamedMaterial "glass"
Shape "sphere"
NamedMaterial "chalk"
Shape "sphere"
WorldEnd`

	scene, err := ParsePBRT(strings.NewReader(content))
	if err != nil {
		t.Fatalf("ParsePBRT() error = %v", err)
	}
	if len(scene.Materials) != 2 {
		t.Fatalf("Expected 2 materials, got %d", len(scene.Materials))
	}
	if scene.Materials[0].Subtype != "dielectric" || scene.Materials[1].Subtype != "diffuse" {
		t.Errorf("Material subtypes = %q, %q", scene.Materials[0].Subtype, scene.Materials[1].Subtype)
	}
	if scene.Shapes[0].MaterialIndex != 0 || scene.Shapes[1].MaterialIndex != 1 {
		t.Errorf("Shape material indices = %d, %d", scene.Shapes[0].MaterialIndex, scene.Shapes[1].MaterialIndex)
	}
}

func TestParsePBRT_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unmatched AttributeEnd", "WorldBegin\nAttributeEnd", "without matching"},
		{"unclosed AttributeBegin", "WorldBegin\nAttributeBegin\nShape \"sphere\"", "never closed"},
		{"camera inside world", "WorldBegin\nCamera \"perspective\"", "before WorldBegin"},
		{"non-uniform scale", "WorldBegin\nScale 1 2 1", "non-uniform"},
		{"matrix transform", "WorldBegin\nConcatTransform [1 0 0 0 0 1 0 0 0 0 1 0 0 0 0 1]", "not supported"},
		{"bad lookAt", "LookAt 0 0 0 1 1 1", "9 values"},
		{"unknown named material", "WorldBegin\nNamedMaterial \"nope\"", "unknown named material"},
		{"dangling continuation", "\"float fov\" 40", "continuation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePBRT(strings.NewReader(tt.content))
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadPBRT(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ball.pbrt")
	if err := os.WriteFile(path, []byte("WorldBegin\nShape \"sphere\"\nWorldEnd\n"), 0644); err != nil {
		t.Fatal(err)
	}

	scene, err := LoadPBRT(path)
	if err != nil {
		t.Fatalf("LoadPBRT() error = %v", err)
	}
	if len(scene.Shapes) != 1 || scene.Shapes[0].MaterialIndex != -1 {
		t.Errorf("Expected one shape with no material, got %+v", scene.Shapes)
	}

	if _, err := LoadPBRT(filepath.Join(dir, "ball.txt")); err == nil {
		t.Error("Expected non-.pbrt files to be rejected")
	}
	if _, err := LoadPBRT(filepath.Join(dir, "missing.pbrt")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}
