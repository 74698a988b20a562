package output

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"

	"github.com/df07/go-path-tracer/pkg/renderer"
)

var bundleNameCleaner = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

const (
	BundleVersion   = 1
	passesFileName  = "passes.jsonl.sz"
	framesFileName  = "frames.bin.zst"
	manifestName    = "manifest.json"
	frameHeaderSize = 4 * 5
)

// Manifest describes a render bundle so readers can locate its parts
type Manifest struct {
	Version    int    `json:"version"`
	CreatedAt  string `json:"created_at"`
	Scene      string `json:"scene"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Seed       int64  `json:"seed"`
	MaxSamples int    `json:"max_samples"`
	PassesPath string `json:"passes_path"`
	FramesPath string `json:"frames_path"`
}

// BundleInfo is the render metadata recorded in the manifest
type BundleInfo struct {
	Scene      string
	Width      int
	Height     int
	Seed       int64
	MaxSamples int
}

// PassRecord is one line of the pass log
type PassRecord struct {
	Pass             int     `json:"pass"`
	SamplesPerPixel  int     `json:"samples_per_pixel"`
	TotalSamples     int     `json:"total_samples"`
	DurationMs       int64   `json:"duration_ms"`
	AverageLuminance float64 `json:"average_luminance"`
	IsLast           bool    `json:"is_last"`
	CapturedAt       string  `json:"captured_at"`
}

// BundleWriter streams every pass of a progressive render to disk: a snappy
// compressed JSON-lines pass log and a zstd compressed stream of quantized
// frames
type BundleWriter struct {
	mu           sync.Mutex
	dir          string
	now          func() time.Time
	manifest     Manifest
	passFile     *os.File
	passStream   *snappy.Writer
	frameFile    *os.File
	frameStream  *zstd.Encoder
	passesStored int
}

// NewBundleWriter creates root/<name>-<timestamp>/ and opens its compressed sinks
func NewBundleWriter(root string, info BundleInfo, clock func() time.Time) (*BundleWriter, Manifest, error) {
	if root == "" {
		return nil, Manifest{}, fmt.Errorf("bundle root must be provided")
	}
	if clock == nil {
		clock = time.Now
	}

	cleaned := bundleNameCleaner.ReplaceAllString(info.Scene, "")
	if cleaned == "" {
		cleaned = "render"
	}
	created := clock().UTC()
	path := filepath.Join(root, fmt.Sprintf("%s-%s", cleaned, created.Format("20060102T150405Z")))

	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, Manifest{}, fmt.Errorf("failed to create bundle directory: %w", err)
	}

	manifest := Manifest{
		Version:    BundleVersion,
		CreatedAt:  created.Format(time.RFC3339Nano),
		Scene:      info.Scene,
		Width:      info.Width,
		Height:     info.Height,
		Seed:       info.Seed,
		MaxSamples: info.MaxSamples,
		PassesPath: passesFileName,
		FramesPath: framesFileName,
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, Manifest{}, err
	}
	if err := os.WriteFile(filepath.Join(path, manifestName), append(data, '\n'), 0o644); err != nil {
		return nil, Manifest{}, fmt.Errorf("failed to write manifest: %w", err)
	}

	passFile, err := os.Create(filepath.Join(path, passesFileName))
	if err != nil {
		return nil, Manifest{}, err
	}
	frameFile, err := os.Create(filepath.Join(path, framesFileName))
	if err != nil {
		passFile.Close()
		return nil, Manifest{}, err
	}
	frameStream, err := zstd.NewWriter(frameFile)
	if err != nil {
		passFile.Close()
		frameFile.Close()
		return nil, Manifest{}, err
	}

	return &BundleWriter{
		dir:         path,
		now:         clock,
		manifest:    manifest,
		passFile:    passFile,
		passStream:  snappy.NewBufferedWriter(passFile),
		frameFile:   frameFile,
		frameStream: frameStream,
	}, manifest, nil
}

// Directory returns the directory backing the bundle
func (w *BundleWriter) Directory() string {
	if w == nil {
		return ""
	}
	return w.dir
}

// AppendPass records one progressive pass: its stats line and its frame
func (w *BundleWriter) AppendPass(result renderer.PassResult) error {
	if w == nil {
		return fmt.Errorf("bundle writer not initialised")
	}
	frame := result.Frame
	if frame == nil {
		return fmt.Errorf("pass %d has no frame", result.PassNumber)
	}
	if frame.Width != w.manifest.Width || frame.Height != w.manifest.Height {
		return fmt.Errorf("pass %d is %dx%d, bundle is %dx%d",
			result.PassNumber, frame.Width, frame.Height, w.manifest.Width, w.manifest.Height)
	}

	record := PassRecord{
		Pass:             result.PassNumber,
		SamplesPerPixel:  result.Stats.SamplesPerPixel,
		TotalSamples:     result.Stats.TotalSamples,
		DurationMs:       result.Stats.Duration.Milliseconds(),
		AverageLuminance: result.Stats.AverageLuminance,
		IsLast:           result.IsLast,
		CapturedAt:       w.now().UTC().Format(time.RFC3339Nano),
	}
	line, err := json.Marshal(record)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.passStream.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write pass log: %w", err)
	}
	if err := w.passStream.Flush(); err != nil {
		return fmt.Errorf("failed to flush pass log: %w", err)
	}

	// Length-prefixed frame: pass, samples, width, height, payload size, then RGB bytes
	pixels := frame.Pixels()
	payload := make([]byte, 0, 3*len(pixels))
	for _, p := range pixels {
		payload = append(payload, p.R, p.G, p.B)
	}
	header := make([]byte, frameHeaderSize)
	binary.LittleEndian.PutUint32(header[0:4], uint32(result.PassNumber))
	binary.LittleEndian.PutUint32(header[4:8], uint32(frame.Samples))
	binary.LittleEndian.PutUint32(header[8:12], uint32(frame.Width))
	binary.LittleEndian.PutUint32(header[12:16], uint32(frame.Height))
	binary.LittleEndian.PutUint32(header[16:20], uint32(len(payload)))
	if _, err := w.frameStream.Write(header); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	if _, err := w.frameStream.Write(payload); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}

	w.passesStored++
	return nil
}

// PassesStored returns the number of passes appended so far
func (w *BundleWriter) PassesStored() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.passesStored
}

// Close flushes all streams and releases file handles, reporting the first failure
func (w *BundleWriter) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	var firstErr error
	if err := w.passStream.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := w.passFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := w.frameStream.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := w.frameFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
