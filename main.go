package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/df07/go-path-tracer/pkg/core"
	"github.com/df07/go-path-tracer/pkg/output"
	"github.com/df07/go-path-tracer/pkg/renderer"
	"github.com/df07/go-path-tracer/pkg/rpc"
	"github.com/df07/go-path-tracer/pkg/scene"
)

// options holds the parsed command line
type options struct {
	Scene    string
	SceneDir string
	Width    int
	Samples  int
	Depth    int
	Passes   int
	Workers  int
	Seed     int64
	Format   output.Format
	Out      string
	Bundle   string
	Remote   string
	Help     bool
}

func parseFlags(args []string, stderr io.Writer) (options, *flag.FlagSet, error) {
	var opts options
	var format string

	fs := flag.NewFlagSet("raytracer", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.Scene, "scene", "default", "Built-in scene ID or scene file name (see -help)")
	fs.StringVar(&opts.SceneDir, "scene-dir", "scenes", "Directory scene files are loaded from")
	fs.IntVar(&opts.Width, "width", 0, "Image width (0 = scene default); height follows the aspect ratio")
	fs.IntVar(&opts.Samples, "samples", 0, "Samples per pixel (0 = scene default)")
	fs.IntVar(&opts.Depth, "depth", 0, "Maximum ray bounce depth (0 = scene default)")
	fs.IntVar(&opts.Passes, "passes", 1, "Progressive passes; intermediate passes are logged and bundled")
	fs.IntVar(&opts.Workers, "workers", 0, "Parallel workers (0 = CPU count)")
	fs.Int64Var(&opts.Seed, "seed", renderer.DefaultSeed, "Base random seed")
	fs.StringVar(&format, "format", "png", "Output format: ppm or png")
	fs.StringVar(&opts.Out, "out", "", "Output file (default output/<scene>/render_<timestamp>.<format>)")
	fs.StringVar(&opts.Bundle, "bundle", "", "Directory to write a compressed bundle of every pass to")
	fs.StringVar(&opts.Remote, "remote", "", "Render on a gRPC render service at host:port instead of locally")
	fs.BoolVar(&opts.Help, "help", false, "Show help information")

	if err := fs.Parse(args); err != nil {
		return opts, fs, err
	}

	var err error
	if opts.Format, err = output.ParseFormat(format); err != nil {
		return opts, fs, err
	}
	if opts.Width < 0 || opts.Samples < 0 || opts.Depth < 0 || opts.Workers < 0 {
		return opts, fs, fmt.Errorf("width, samples, depth and workers must not be negative")
	}
	if opts.Passes < 1 {
		return opts, fs, fmt.Errorf("passes must be at least 1, got %d", opts.Passes)
	}
	if opts.Bundle != "" && opts.Remote != "" {
		return opts, fs, fmt.Errorf("-bundle is only supported for local renders")
	}
	return opts, fs, nil
}

func (o options) jobRequest() renderer.JobRequest {
	return renderer.JobRequest{
		Scene:      o.Scene,
		Width:      o.Width,
		MaxSamples: o.Samples,
		MaxPasses:  o.Passes,
		MaxDepth:   o.Depth,
		Workers:    o.Workers,
		Seed:       o.Seed,
	}
}

// outputPath picks output/<scene>/render_<timestamp>.<ext> unless -out was given
func outputPath(opts options, now time.Time) string {
	if opts.Out != "" {
		return opts.Out
	}
	name := strings.TrimSuffix(filepath.Base(opts.Scene), filepath.Ext(opts.Scene))
	return filepath.Join("output", name,
		fmt.Sprintf("render_%s.%s", now.Format("20060102_150405"), opts.Format))
}

func printHelp(w io.Writer, fs *flag.FlagSet, sceneDir string) {
	fmt.Fprintln(w, "Path Tracer")
	fmt.Fprintln(w, "Usage: raytracer [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)

	scenes, err := scene.ListAllScenes(sceneDir)
	if err != nil {
		fmt.Fprintf(w, "Failed to list scenes: %v\n", err)
		return
	}
	for _, group := range scenes.Groups {
		fmt.Fprintf(w, "%s:\n", group.Name)
		for _, info := range group.Scenes {
			fmt.Fprintf(w, "  %-16s %s\n", info.ID, info.Description)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output will be saved to output/<scene>/render_<timestamp>.<format>")
}

// renderLocal renders progressively in-process, optionally bundling every pass
func renderLocal(ctx context.Context, opts options, logger core.Logger) (*renderer.Frame, error) {
	job, err := renderer.NewRenderJob(opts.jobRequest(), opts.SceneDir, logger)
	if err != nil {
		return nil, err
	}

	width, height := job.Scene.SamplingConfig.Width, job.Scene.SamplingConfig.Height
	logger.Printf("Rendering %s at %dx%d, %d samples per pixel, max depth %d (%d primitives)\n",
		opts.Scene, width, height, job.Config.MaxSamplesPerPixel,
		job.Scene.SamplingConfig.MaxDepth, job.Scene.GetPrimitiveCount())

	var bundle *output.BundleWriter
	if opts.Bundle != "" {
		bundle, _, err = output.NewBundleWriter(opts.Bundle, output.BundleInfo{
			Scene:      opts.Scene,
			Width:      width,
			Height:     height,
			Seed:       job.Config.Seed,
			MaxSamples: job.Config.MaxSamplesPerPixel,
		}, nil)
		if err != nil {
			return nil, err
		}
		defer func() {
			if closeErr := bundle.Close(); closeErr != nil {
				logger.Printf("Error closing bundle: %v\n", closeErr)
			}
		}()
		logger.Printf("Writing pass bundle to %s\n", bundle.Directory())
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var last *renderer.Frame
	var bundleErr error
	passChan, errChan := job.Raytracer.RenderProgressive(ctx)
	for result := range passChan {
		last = result.Frame
		logger.Printf("Pass %d: %d samples per pixel, average luminance %.3f\n",
			result.PassNumber, result.Stats.SamplesPerPixel, result.Stats.AverageLuminance)
		if bundle != nil && bundleErr == nil {
			if bundleErr = bundle.AppendPass(result); bundleErr != nil {
				cancel()
			}
		}
	}
	if bundleErr != nil {
		return nil, fmt.Errorf("failed to write bundle: %w", bundleErr)
	}
	if err := <-errChan; err != nil {
		return nil, err
	}
	if last == nil {
		return nil, errors.New("render produced no passes")
	}
	return last, nil
}

// renderRemote streams the render from a gRPC render service
func renderRemote(ctx context.Context, opts options, logger core.Logger) (*rpc.Frame, error) {
	conn, err := grpc.NewClient(opts.Remote, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", opts.Remote, err)
	}
	defer conn.Close()

	var last *rpc.Frame
	err = rpc.Render(ctx, conn, opts.jobRequest(), func(frame rpc.Frame) error {
		logger.Printf("Pass %d/%d: %d samples per pixel (%v on the server)\n",
			frame.Pass, frame.TotalPasses, frame.SamplesPerPixel, frame.Duration)
		last = &frame
		return nil
	})
	if err != nil {
		return nil, err
	}
	if last == nil {
		return nil, errors.New("render service sent no frames")
	}
	return last, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, fs, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if opts.Help {
		printHelp(stdout, fs, opts.SceneDir)
		return nil
	}

	logger := renderer.NewDefaultLogger()
	logger.Printf("Starting Path Tracer...\n")
	startTime := time.Now()

	path := outputPath(opts, startTime)
	if opts.Remote != "" {
		frame, err := renderRemote(ctx, opts, logger)
		if err != nil {
			return err
		}
		if err := output.SaveImage(path, frame.Image(), opts.Format); err != nil {
			return err
		}
	} else {
		frame, err := renderLocal(ctx, opts, logger)
		if err != nil {
			return err
		}
		if err := output.SaveImage(path, frame.Image(), opts.Format); err != nil {
			return err
		}
	}

	logger.Printf("Render completed in %v\n", time.Since(startTime))
	fmt.Fprintf(stdout, "Render saved as %s\n", path)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
