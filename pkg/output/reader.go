package output

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
)

// FrameRecord is one quantized frame read back from a bundle
type FrameRecord struct {
	Pass    int
	Samples int
	Width   int
	Height  int
	Pixels  []byte // RGB triples, row-major, top row first
}

// Image converts the record to an RGBA image
func (f FrameRecord) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for i := 0; i < f.Width*f.Height; i++ {
		img.SetRGBA(i%f.Width, i/f.Width, color.RGBA{
			R: f.Pixels[3*i],
			G: f.Pixels[3*i+1],
			B: f.Pixels[3*i+2],
			A: 255,
		})
	}
	return img
}

// Bundle is a fully loaded render bundle
type Bundle struct {
	Manifest Manifest
	Passes   []PassRecord
	Frames   []FrameRecord
}

// OpenBundle loads the manifest, pass log and frames stored in dir
func OpenBundle(dir string) (*Bundle, error) {
	if dir == "" {
		return nil, fmt.Errorf("bundle directory must be provided")
	}

	data, err := os.ReadFile(filepath.Join(dir, manifestName))
	if err != nil {
		return nil, err
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if manifest.Version != BundleVersion {
		return nil, fmt.Errorf("unsupported bundle version %d", manifest.Version)
	}

	passes, err := readPasses(filepath.Join(dir, manifest.PassesPath))
	if err != nil {
		return nil, err
	}
	frames, err := readFrames(filepath.Join(dir, manifest.FramesPath))
	if err != nil {
		return nil, err
	}
	if len(passes) != len(frames) {
		return nil, fmt.Errorf("bundle has %d pass records but %d frames", len(passes), len(frames))
	}

	return &Bundle{Manifest: manifest, Passes: passes, Frames: frames}, nil
}

func readPasses(path string) ([]PassRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var passes []PassRecord
	scanner := bufio.NewScanner(snappy.NewReader(file))
	for scanner.Scan() {
		var record PassRecord
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			return nil, fmt.Errorf("parse pass record: %w", err)
		}
		passes = append(passes, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read pass log: %w", err)
	}
	return passes, nil
}

func readFrames(path string) ([]FrameRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder, err := zstd.NewReader(file)
	if err != nil {
		return nil, err
	}
	defer decoder.Close()

	var frames []FrameRecord
	header := make([]byte, frameHeaderSize)
	for {
		if _, err := io.ReadFull(decoder, header); err != nil {
			if errors.Is(err, io.EOF) {
				return frames, nil
			}
			return nil, fmt.Errorf("read frame header: %w", err)
		}

		record := FrameRecord{
			Pass:    int(binary.LittleEndian.Uint32(header[0:4])),
			Samples: int(binary.LittleEndian.Uint32(header[4:8])),
			Width:   int(binary.LittleEndian.Uint32(header[8:12])),
			Height:  int(binary.LittleEndian.Uint32(header[12:16])),
		}
		size := int(binary.LittleEndian.Uint32(header[16:20]))
		if size != 3*record.Width*record.Height {
			return nil, fmt.Errorf("frame for pass %d has %d bytes, expected %d",
				record.Pass, size, 3*record.Width*record.Height)
		}
		record.Pixels = make([]byte, size)
		if _, err := io.ReadFull(decoder, record.Pixels); err != nil {
			return nil, fmt.Errorf("read frame payload: %w", err)
		}
		frames = append(frames, record)
	}
}
