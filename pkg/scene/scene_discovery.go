package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/df07/go-path-tracer/pkg/geometry"
)

// ErrUnknownScene is returned when a scene name matches no built-in scene
var ErrUnknownScene = errors.New("unknown scene")

// Seed used by the sphere grid when it is created by name
const SphereGridSeed = 42

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier, accepted by CreateInDir
	Name        string `json:"name"`        // Scene name
	Description string `json:"description"` // Optional description
	Group       string `json:"group"`       // Grouping category
	Type        string `json:"type"`        // "builtin", "json" or "pbrt"
	FilePath    string `json:"filePath"`    // Path to the scene file (file types only)
}

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string      `json:"name"`
	Scenes []SceneInfo `json:"scenes"`
}

// ScenesResponse represents the complete response for /api/scenes
type ScenesResponse struct {
	Groups []SceneGroup `json:"groups"`
}

const builtInGroup = "Built-in Scenes"

type builtInScene struct {
	info   SceneInfo
	create func(overrides ...geometry.CameraConfig) *Scene
}

var builtInScenes = []builtInScene{
	{
		info:   SceneInfo{ID: "default", Name: "Default Scene", Description: "Diffuse, hollow glass and gold spheres on a yellow ground"},
		create: NewDefaultScene,
	},
	{
		info:   SceneInfo{ID: "simple", Name: "Simple", Description: "One diffuse sphere on a ground sphere"},
		create: NewSimpleScene,
	},
	{
		info:   SceneInfo{ID: "spheregrid", Name: "Sphere Grid", Description: "Random field of small spheres around three large ones"},
		create: func(overrides ...geometry.CameraConfig) *Scene {
			return NewSphereGridScene(SphereGridSeed, overrides...)
		},
	},
	{
		info:   SceneInfo{ID: "metals", Name: "Metals", Description: "Metal spheres from mirror to fully rough"},
		create: NewMetalsScene,
	},
}

// ListScenes returns the built-in scenes in a stable order
func ListScenes() []SceneInfo {
	scenes := make([]SceneInfo, 0, len(builtInScenes))
	for _, b := range builtInScenes {
		info := b.info
		info.Group = builtInGroup
		info.Type = "builtin"
		scenes = append(scenes, info)
	}
	return scenes
}

// Create builds a scene by name. Names ending in .json or .pbrt are loaded
// from disk; anything else must be a built-in scene ID. A missing scene file
// is reported as ErrUnknownScene.
func Create(name string, cameraOverrides ...geometry.CameraConfig) (*Scene, error) {
	var s *Scene
	var err error
	switch sceneFileType(name) {
	case "json":
		s, err = LoadSceneFile(name, cameraOverrides...)
	case "pbrt":
		s, err = NewPBRTScene(name, cameraOverrides...)
	default:
		return createBuiltIn(name, cameraOverrides...)
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScene, name)
	}
	return s, err
}

func createBuiltIn(name string, cameraOverrides ...geometry.CameraConfig) (*Scene, error) {
	for _, b := range builtInScenes {
		if b.info.ID == name {
			return b.create(cameraOverrides...), nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownScene, name)
}

// CreateInDir is Create with scene file names resolved inside dir. Names that
// would escape dir are rejected as unknown.
func CreateInDir(dir, name string, cameraOverrides ...geometry.CameraConfig) (*Scene, error) {
	if sceneFileType(name) != "" {
		if filepath.Base(name) != name {
			return nil, fmt.Errorf("%w: %q", ErrUnknownScene, name)
		}
		name = filepath.Join(dir, name)
	}
	return Create(name, cameraOverrides...)
}

// sceneFileType returns "json" or "pbrt" for scene file names and "" otherwise
func sceneFileType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return "json"
	case ".pbrt":
		return "pbrt"
	}
	return ""
}

// ListSceneFiles scans dir for .json and .pbrt scene files. A missing directory is not an error.
func ListSceneFiles(dir string) ([]SceneInfo, error) {
	if _, err := os.Stat(dir); err != nil {
		return []SceneInfo{}, nil
	}

	var files []string
	for _, pattern := range []string{"*.json", "*.pbrt"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
		}
		files = append(files, matches...)
	}

	scenes := make([]SceneInfo, 0, len(files))
	for _, filePath := range files {
		sceneInfo, err := ParseSceneMetadata(filePath)
		if err != nil {
			// Skip unreadable files but keep the rest
			fmt.Printf("Warning: failed to parse metadata for %s: %v\n", filePath, err)
			continue
		}
		scenes = append(scenes, sceneInfo)
	}

	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].Name < scenes[j].Name
	})

	return scenes, nil
}

// ParseSceneMetadata reads the name, description and group of a scene file.
// The file name provides fallbacks for anything missing.
func ParseSceneMetadata(filePath string) (SceneInfo, error) {
	filename := filepath.Base(filePath)
	nameWithoutExt := strings.TrimSuffix(filename, filepath.Ext(filename))

	sceneInfo := SceneInfo{
		ID:       filename,
		Name:     titleCase(nameWithoutExt),
		Group:    "Scene Files",
		Type:     sceneFileType(filename),
		FilePath: filePath,
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return sceneInfo, err
	}

	if sceneInfo.Type == "pbrt" {
		// A leading comment line doubles as the description
		firstLine, _, _ := strings.Cut(strings.TrimSpace(string(data)), "\n")
		if strings.HasPrefix(firstLine, "#") {
			sceneInfo.Description = strings.TrimSpace(strings.TrimLeft(firstLine, "#"))
		}
		return sceneInfo, nil
	}

	var header struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Group       string `json:"group"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return sceneInfo, fmt.Errorf("invalid scene JSON: %w", err)
	}

	if header.Name != "" {
		sceneInfo.Name = header.Name
	}
	sceneInfo.Description = header.Description
	if header.Group != "" {
		sceneInfo.Group = header.Group
	}

	return sceneInfo, nil
}

// ListAllScenes returns built-in scenes and the scene files in dir, grouped by category
func ListAllScenes(dir string) (ScenesResponse, error) {
	var response ScenesResponse

	fileScenes, err := ListSceneFiles(dir)
	if err != nil {
		return response, fmt.Errorf("failed to list scene files: %w", err)
	}

	allScenes := append(ListScenes(), fileScenes...)

	groupMap := make(map[string][]SceneInfo)
	for _, scene := range allScenes {
		groupMap[scene.Group] = append(groupMap[scene.Group], scene)
	}

	// Built-in first, then alphabetical
	var groupNames []string
	for groupName := range groupMap {
		if groupName != builtInGroup {
			groupNames = append(groupNames, groupName)
		}
	}
	sort.Strings(groupNames)

	if group, exists := groupMap[builtInGroup]; exists {
		response.Groups = append(response.Groups, SceneGroup{
			Name:   builtInGroup,
			Scenes: group,
		})
	}

	for _, groupName := range groupNames {
		response.Groups = append(response.Groups, SceneGroup{
			Name:   groupName,
			Scenes: groupMap[groupName],
		})
	}

	return response, nil
}

// titleCase converts a filename-style string to title case
// e.g., "glass-spheres" -> "Glass Spheres"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
		}
	}

	return strings.Join(words, " ")
}
