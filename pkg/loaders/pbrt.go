package loaders

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/df07/go-path-tracer/pkg/core"
)

// PBRTStatement represents a parsed PBRT statement
type PBRTStatement struct {
	Type          string               // Statement type (Camera, Material, Shape, etc.)
	Subtype       string               // Subtype (perspective, diffuse, sphere, etc.)
	Parameters    map[string]PBRTParam // Named parameters
	MaterialIndex int                  // Shapes: index into PBRTScene.Materials (-1 = no material)
	Transform     Transform            // Shapes: object-to-world transform in effect
	Reversed      bool                 // Shapes: ReverseOrientation was in effect
}

// PBRTParam represents a parameter with type and value(s)
type PBRTParam struct {
	Type   string   // Parameter type (float, rgb, point3, etc.)
	Values []string // Parameter values as strings
}

// PBRTScene contains the parts of a PBRT file a sphere renderer can use
type PBRTScene struct {
	// Pre-WorldBegin statements
	Camera     *PBRTStatement
	LookAt     *core.Vec3 // Eye position
	LookAtTo   *core.Vec3 // Look at target
	LookAtUp   *core.Vec3 // Up vector
	Film       *PBRTStatement
	Sampler    *PBRTStatement
	Integrator *PBRTStatement

	// World content
	Materials []PBRTStatement
	Shapes    []PBRTStatement
	Ignored   []string // Directives that were skipped, such as light sources
}

// GraphicsState is the per-attribute-block state saved by AttributeBegin
type GraphicsState struct {
	MaterialIndex int
	Transform     Transform
	Reversed      bool
}

// PBRTParser encapsulates the state and logic for parsing PBRT files
type PBRTParser struct {
	scene          *PBRTScene
	state          GraphicsState
	stateStack     []GraphicsState
	namedMaterials map[string]int
	inWorld        bool
	statementLines []string
}

// ParsePBRT parses PBRT content from an io.Reader
func ParsePBRT(reader io.Reader) (*PBRTScene, error) {
	parser := NewPBRTParser()

	scanner := bufio.NewScanner(reader)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		if err := parser.processLine(scanner.Text()); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNumber, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading input: %w", err)
	}

	if err := parser.finalize(); err != nil {
		return nil, err
	}
	return parser.scene, nil
}

// LoadPBRT loads and parses a PBRT scene file
func LoadPBRT(filename string) (*PBRTScene, error) {
	if !strings.HasSuffix(strings.ToLower(filename), ".pbrt") {
		return nil, fmt.Errorf("invalid file type: only .pbrt files are allowed")
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PBRT file: %w", err)
	}
	defer file.Close()

	return ParsePBRT(file)
}

// NewPBRTParser creates a new PBRT parser instance
func NewPBRTParser() *PBRTParser {
	return &PBRTParser{
		scene: &PBRTScene{},
		state: GraphicsState{
			MaterialIndex: -1,
			Transform:     IdentityTransform(),
		},
		namedMaterials: make(map[string]int),
	}
}

// processLine processes a single line of PBRT input
func (p *PBRTParser) processLine(line string) error {
	line = strings.TrimSpace(line)

	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	// Directives without arguments
	switch line {
	case "WorldBegin", "WorldEnd", "AttributeBegin", "AttributeEnd", "ReverseOrientation", "Identity":
		if err := p.flush(); err != nil {
			return err
		}
		return p.processDirective(line)
	}

	if isStatementStart(line) {
		if err := p.flush(); err != nil {
			return err
		}
		p.statementLines = []string{line}
		return nil
	}

	if len(p.statementLines) == 0 {
		return fmt.Errorf("unexpected continuation line: %s", line)
	}
	p.statementLines = append(p.statementLines, line)
	return nil
}

// flush parses and routes the statement accumulated so far
func (p *PBRTParser) flush() error {
	if len(p.statementLines) == 0 {
		return nil
	}
	fullStatement := strings.Join(p.statementLines, " ")
	p.statementLines = nil

	stmt, err := parseStatement(fullStatement)
	if err != nil {
		return fmt.Errorf("error parsing statement '%s': %w", fullStatement, err)
	}
	return p.routeStatement(stmt)
}

func (p *PBRTParser) processDirective(directive string) error {
	switch directive {
	case "WorldBegin":
		p.inWorld = true
		p.state.Transform = IdentityTransform()
	case "WorldEnd":
		p.inWorld = false
	case "AttributeBegin":
		p.stateStack = append(p.stateStack, p.state)
	case "AttributeEnd":
		if len(p.stateStack) == 0 {
			return fmt.Errorf("AttributeEnd without matching AttributeBegin")
		}
		p.state = p.stateStack[len(p.stateStack)-1]
		p.stateStack = p.stateStack[:len(p.stateStack)-1]
	case "ReverseOrientation":
		p.state.Reversed = !p.state.Reversed
	case "Identity":
		p.state.Transform = IdentityTransform()
	}
	return nil
}

// finalize processes any remaining accumulated statement
func (p *PBRTParser) finalize() error {
	if err := p.flush(); err != nil {
		return fmt.Errorf("at end of file: %w", err)
	}
	if len(p.stateStack) > 0 {
		return fmt.Errorf("%d AttributeBegin block(s) never closed", len(p.stateStack))
	}
	return nil
}

// routeStatement applies a parsed statement to the scene or the graphics state
func (p *PBRTParser) routeStatement(stmt *PBRTStatement) error {
	switch stmt.Type {
	case "LookAt":
		if err := parseLookAt(stmt, p.scene); err != nil {
			return fmt.Errorf("error parsing LookAt: %w", err)
		}
		return nil
	case "Translate", "Rotate", "Scale":
		if !p.inWorld {
			p.scene.Ignored = append(p.scene.Ignored, stmt.Type)
			return nil
		}
		transform, err := applyTransform(p.state.Transform, stmt)
		if err != nil {
			return err
		}
		p.state.Transform = transform
		return nil
	case "Transform", "ConcatTransform":
		return fmt.Errorf("%s is not supported; use Translate, Rotate and uniform Scale", stmt.Type)
	}

	if !p.inWorld {
		switch stmt.Type {
		case "Camera":
			p.scene.Camera = stmt
		case "Film":
			p.scene.Film = stmt
		case "Sampler":
			p.scene.Sampler = stmt
		case "Integrator":
			p.scene.Integrator = stmt
		default:
			p.scene.Ignored = append(p.scene.Ignored, stmt.Type)
		}
		return nil
	}

	switch stmt.Type {
	case "Material":
		p.scene.Materials = append(p.scene.Materials, *stmt)
		p.state.MaterialIndex = len(p.scene.Materials) - 1
	case "MakeNamedMaterial":
		materialType, ok := stmt.GetStringParam("type")
		if !ok {
			return fmt.Errorf("named material %q has no type", stmt.Subtype)
		}
		p.scene.Materials = append(p.scene.Materials, PBRTStatement{
			Type:       "Material",
			Subtype:    materialType,
			Parameters: stmt.Parameters,
		})
		p.namedMaterials[stmt.Subtype] = len(p.scene.Materials) - 1
	case "NamedMaterial":
		index, ok := p.namedMaterials[stmt.Subtype]
		if !ok {
			return fmt.Errorf("unknown named material %q", stmt.Subtype)
		}
		p.state.MaterialIndex = index
	case "Shape":
		stmt.MaterialIndex = p.state.MaterialIndex
		stmt.Transform = p.state.Transform
		stmt.Reversed = p.state.Reversed
		p.scene.Shapes = append(p.scene.Shapes, *stmt)
	case "Camera", "Film", "Sampler", "Integrator":
		return fmt.Errorf("%s must appear before WorldBegin", stmt.Type)
	default:
		p.scene.Ignored = append(p.scene.Ignored, stmt.Type)
	}
	return nil
}

// applyTransform appends a Translate, Rotate or Scale statement to t
func applyTransform(t Transform, stmt *PBRTStatement) (Transform, error) {
	values, err := parseFloats(stmt.Parameters["values"].Values)
	if err != nil {
		return t, fmt.Errorf("%s: %w", stmt.Type, err)
	}

	switch stmt.Type {
	case "Translate":
		if len(values) != 3 {
			return t, fmt.Errorf("Translate requires 3 values, got %d", len(values))
		}
		return t.Translate(core.NewVec3(values[0], values[1], values[2])), nil
	case "Scale":
		if len(values) != 3 {
			return t, fmt.Errorf("Scale requires 3 values, got %d", len(values))
		}
		return t.Scaled(values[0], values[1], values[2])
	default:
		if len(values) != 4 {
			return t, fmt.Errorf("Rotate requires 4 values, got %d", len(values))
		}
		return t.Rotated(values[0], core.NewVec3(values[1], values[2], values[3]))
	}
}

// parseLookAt parses a LookAt statement into scene camera vectors
func parseLookAt(stmt *PBRTStatement, scene *PBRTScene) error {
	// eyex eyey eyez atx aty atz upx upy upz
	values, err := parseFloats(stmt.Parameters["values"].Values)
	if err != nil {
		return err
	}
	if len(values) != 9 {
		return fmt.Errorf("LookAt requires 9 values")
	}

	eye := core.NewVec3(values[0], values[1], values[2])
	at := core.NewVec3(values[3], values[4], values[5])
	up := core.NewVec3(values[6], values[7], values[8])
	scene.LookAt, scene.LookAtTo, scene.LookAtUp = &eye, &at, &up
	return nil
}

func parseFloats(values []string) ([]float64, error) {
	floats := make([]float64, len(values))
	for i, s := range values {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number '%s'", s)
		}
		floats[i] = f
	}
	return floats, nil
}

// tokenizePBRT tokenizes a PBRT line respecting quoted strings and brackets
func tokenizePBRT(line string) []string {
	var tokens []string
	var current strings.Builder
	inQuotes := false
	inBrackets := false

	emit := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, char := range line {
		switch {
		case char == '"' && !inBrackets:
			current.WriteRune(char)
			if inQuotes {
				emit()
			}
			inQuotes = !inQuotes
		case char == '[' && !inQuotes:
			emit()
			current.WriteRune(char)
			inBrackets = true
		case char == ']' && !inQuotes && inBrackets:
			current.WriteRune(char)
			emit()
			inBrackets = false
		case (char == ' ' || char == '\t') && !inQuotes && !inBrackets:
			emit()
		default:
			current.WriteRune(char)
		}
	}
	emit()

	return tokens
}

// bareValueStatements take a list of unquoted numbers instead of parameters
var bareValueStatements = map[string]bool{
	"LookAt": true, "Translate": true, "Rotate": true, "Scale": true,
	"Transform": true, "ConcatTransform": true,
}

// parseStatement parses a single PBRT statement
func parseStatement(line string) (*PBRTStatement, error) {
	parts := tokenizePBRT(line)
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty statement")
	}

	if bareValueStatements[parts[0]] {
		var values []string
		for _, part := range parts[1:] {
			values = append(values, strings.Fields(strings.Trim(part, "[]"))...)
		}
		return &PBRTStatement{
			Type:       parts[0],
			Parameters: map[string]PBRTParam{"values": {Type: "float", Values: values}},
		}, nil
	}

	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid statement format")
	}

	stmt := &PBRTStatement{
		Type:       parts[0],
		Parameters: make(map[string]PBRTParam),
	}

	// Subtype is the quoted string after the type
	if isQuoted(parts[1]) {
		stmt.Subtype = strings.Trim(parts[1], "\"")
		parts = parts[2:]
	} else {
		parts = parts[1:]
	}

	// Parameters: "type name" value-or-array
	for i := 0; i < len(parts); i++ {
		if !isQuoted(parts[i]) {
			continue
		}
		paramParts := strings.Fields(strings.Trim(parts[i], "\""))
		if len(paramParts) != 2 {
			return nil, fmt.Errorf("parameter %s must be declared as \"type name\"", parts[i])
		}

		var values []string
		if i+1 < len(parts) {
			i++
			value := parts[i]
			if strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]") {
				values = strings.Fields(strings.Trim(value, "[] "))
			} else {
				values = []string{value}
			}
		}
		for j, v := range values {
			values[j] = strings.Trim(v, "\"")
		}

		stmt.Parameters[paramParts[1]] = PBRTParam{
			Type:   paramParts[0],
			Values: values,
		}
	}

	return stmt, nil
}

func isQuoted(token string) bool {
	return len(token) >= 2 && strings.HasPrefix(token, "\"") && strings.HasSuffix(token, "\"")
}

// GetFloatParam extracts a float parameter from a PBRT statement
func (stmt *PBRTStatement) GetFloatParam(name string) (float64, bool) {
	param, exists := stmt.Parameters[name]
	if !exists || len(param.Values) == 0 {
		return 0, false
	}
	val, err := strconv.ParseFloat(param.Values[0], 64)
	if err != nil {
		return 0, false
	}
	return val, true
}

// GetIntParam extracts an integer parameter from a PBRT statement
func (stmt *PBRTStatement) GetIntParam(name string) (int, bool) {
	param, exists := stmt.Parameters[name]
	if !exists || len(param.Values) == 0 {
		return 0, false
	}
	val, err := strconv.Atoi(param.Values[0])
	if err != nil {
		return 0, false
	}
	return val, true
}

// GetRGBParam extracts an RGB color parameter from a PBRT statement
func (stmt *PBRTStatement) GetRGBParam(name string) (core.Colour, bool) {
	param, exists := stmt.Parameters[name]
	if !exists || len(param.Values) != 3 {
		return core.Colour{}, false
	}
	rgb, err := parseFloats(param.Values)
	if err != nil {
		return core.Colour{}, false
	}
	return core.NewVec3(rgb[0], rgb[1], rgb[2]), true
}

// GetStringParam extracts a string parameter from a PBRT statement
func (stmt *PBRTStatement) GetStringParam(name string) (string, bool) {
	param, exists := stmt.Parameters[name]
	if !exists || len(param.Values) == 0 {
		return "", false
	}
	return param.Values[0], true
}

// isStatementStart reports whether a line begins a new directive. Directives
// are capitalised identifiers; continuation lines start with a quote, a
// bracket or a number.
func isStatementStart(line string) bool {
	return line != "" && line[0] >= 'A' && line[0] <= 'Z'
}
