package rpc

import (
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/df07/go-path-tracer/pkg/renderer"
)

// Requests and frames travel as google.protobuf.Struct messages so the
// service needs no generated code.

// Frame is one progressive pass as seen by a client
type Frame struct {
	Pass             int
	TotalPasses      int
	SamplesPerPixel  int
	TotalSamples     int
	Duration         time.Duration
	AverageLuminance float64
	IsLast           bool
	Width            int
	Height           int
	Pixels           []byte // RGB triples, row-major, top row first
}

// Image converts the frame's pixels to an RGBA image
func (f Frame) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for i := 0; i < f.Width*f.Height; i++ {
		img.SetRGBA(i%f.Width, i/f.Width, color.RGBA{R: f.Pixels[3*i], G: f.Pixels[3*i+1], B: f.Pixels[3*i+2], A: 255})
	}
	return img
}

// RequestToStruct encodes a render request
func RequestToStruct(req renderer.JobRequest) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"scene":      req.Scene,
		"width":      req.Width,
		"maxSamples": req.MaxSamples,
		"maxPasses":  req.MaxPasses,
		"maxDepth":   req.MaxDepth,
		"workers":    req.Workers,
		"seed":       strconv.FormatInt(req.Seed, 10), // a float64 would lose bits past 2^53
	})
}

// RequestFromStruct decodes a render request. Missing fields stay zero;
// unknown fields and fields of the wrong kind are errors.
func RequestFromStruct(s *structpb.Struct) (renderer.JobRequest, error) {
	var req renderer.JobRequest
	for key, value := range s.GetFields() {
		var err error
		switch key {
		case "scene":
			req.Scene, err = stringField(key, value)
		case "width":
			req.Width, err = intField(key, value)
		case "maxSamples":
			req.MaxSamples, err = intField(key, value)
		case "maxPasses":
			req.MaxPasses, err = intField(key, value)
		case "maxDepth":
			req.MaxDepth, err = intField(key, value)
		case "workers":
			req.Workers, err = intField(key, value)
		case "seed":
			req.Seed, err = seedField(key, value)
		default:
			err = fmt.Errorf("unknown field %q", key)
		}
		if err != nil {
			return renderer.JobRequest{}, err
		}
	}
	return req, nil
}

func stringField(key string, value *structpb.Value) (string, error) {
	s, ok := value.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}
	return s.StringValue, nil
}

func intField(key string, value *structpb.Value) (int, error) {
	n, ok := value.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%s must be a number", key)
	}
	if n.NumberValue != math.Trunc(n.NumberValue) || math.Abs(n.NumberValue) > 1<<53 {
		return 0, fmt.Errorf("%s must be an integer, got %v", key, n.NumberValue)
	}
	return int(n.NumberValue), nil
}

// seedField reads a seed sent as a decimal string. Plain numbers are
// accepted within the exactly representable range.
func seedField(key string, value *structpb.Value) (int64, error) {
	if s, ok := value.GetKind().(*structpb.Value_StringValue); ok {
		seed, err := strconv.ParseInt(s.StringValue, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be a decimal int64, got %q", key, s.StringValue)
		}
		return seed, nil
	}
	n, err := intField(key, value)
	return int64(n), err
}

// passToStruct encodes a pass result with its quantized pixels compressed
func passToStruct(result renderer.PassResult, totalPasses int, compressor Compressor) (*structpb.Struct, error) {
	frame := result.Frame
	pixels := frame.Pixels()
	raw := make([]byte, 0, 3*len(pixels))
	for _, p := range pixels {
		raw = append(raw, p.R, p.G, p.B)
	}
	payload, err := compressor.Compress(raw)
	if err != nil {
		return nil, fmt.Errorf("compress frame: %w", err)
	}

	return structpb.NewStruct(map[string]interface{}{
		"pass":             result.PassNumber,
		"totalPasses":      totalPasses,
		"samplesPerPixel":  result.Stats.SamplesPerPixel,
		"totalSamples":     result.Stats.TotalSamples,
		"durationMs":       result.Stats.Duration.Milliseconds(),
		"averageLuminance": result.Stats.AverageLuminance,
		"isLast":           result.IsLast,
		"width":            frame.Width,
		"height":           frame.Height,
		"encoding":         compressor.Name(),
		"pixels":           base64.StdEncoding.EncodeToString(payload),
	})
}

// frameFromStruct decodes a frame message produced by passToStruct
func frameFromStruct(s *structpb.Struct, compressor Compressor) (Frame, error) {
	fields := s.GetFields()
	number := func(key string) int { return int(fields[key].GetNumberValue()) }

	frame := Frame{
		Pass:             number("pass"),
		TotalPasses:      number("totalPasses"),
		SamplesPerPixel:  number("samplesPerPixel"),
		TotalSamples:     number("totalSamples"),
		Duration:         time.Duration(number("durationMs")) * time.Millisecond,
		AverageLuminance: fields["averageLuminance"].GetNumberValue(),
		IsLast:           fields["isLast"].GetBoolValue(),
		Width:            number("width"),
		Height:           number("height"),
	}

	if encoding := fields["encoding"].GetStringValue(); encoding != compressor.Name() {
		return Frame{}, fmt.Errorf("unsupported encoding %q", encoding)
	}
	payload, err := base64.StdEncoding.DecodeString(fields["pixels"].GetStringValue())
	if err != nil {
		return Frame{}, fmt.Errorf("decode pixels: %w", err)
	}
	frame.Pixels, err = compressor.Decompress(payload)
	if err != nil {
		return Frame{}, err
	}
	if len(frame.Pixels) != 3*frame.Width*frame.Height {
		return Frame{}, fmt.Errorf("frame has %d bytes, expected %d", len(frame.Pixels), 3*frame.Width*frame.Height)
	}
	return frame, nil
}
