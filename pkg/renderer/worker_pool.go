package renderer

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/df07/go-path-tracer/pkg/core"
)

// SampleTask asks a worker to render one full-image sample
type SampleTask struct {
	SampleIndex int // Also selects the sample's random seed
}

// SampleResult contains one rendered sample image
type SampleResult struct {
	SampleIndex int
	Colours     []core.Colour
}

// WorkerPool manages parallel sample rendering. Each sample gets its own
// generator seeded from (seed, sample index), so results do not depend on
// which worker rendered them.
type WorkerPool struct {
	taskQueue   chan SampleTask
	resultQueue chan SampleResult
	workers     []*Worker
	numWorkers  int
	window      int // Maximum samples in flight
	wg          sync.WaitGroup
}

// Worker handles individual sample rendering tasks
type Worker struct {
	ID          int
	raytracer   *Raytracer
	seed        int64
	taskQueue   chan SampleTask
	resultQueue chan SampleResult
}

// NewWorkerPool creates a worker pool with the specified number of workers
func NewWorkerPool(raytracer *Raytracer, seed int64, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	// Queues are sized to the in-flight window so neither side ever blocks
	window := 2 * numWorkers
	wp := &WorkerPool{
		taskQueue:   make(chan SampleTask, window),
		resultQueue: make(chan SampleResult, window),
		numWorkers:  numWorkers,
		window:      window,
	}

	for i := 0; i < numWorkers; i++ {
		worker := &Worker{
			ID:          i,
			raytracer:   raytracer,
			seed:        seed,
			taskQueue:   wp.taskQueue,
			resultQueue: wp.resultQueue,
		}
		wp.workers = append(wp.workers, worker)
	}

	return wp
}

// Start begins all workers
func (wp *WorkerPool) Start() {
	for _, worker := range wp.workers {
		wp.wg.Add(1)
		go worker.run(&wp.wg)
	}
}

// Stop gracefully shuts down all workers
func (wp *WorkerPool) Stop() {
	close(wp.taskQueue) // No more tasks
	wp.wg.Wait()        // Wait for workers to finish
	close(wp.resultQueue)
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// RenderSamples renders samples accumulator.Samples() up to target-1 and adds
// them to the accumulator in sample-index order. At most window samples are
// outstanding at once, which bounds memory. On cancellation the in-flight
// samples are drained and discarded so the pool can be reused.
func (wp *WorkerPool) RenderSamples(ctx context.Context, accumulator *Accumulator, target int) error {
	next := accumulator.Samples()
	pending := make(map[int][]core.Colour)
	inFlight := 0

	drain := func() {
		for ; inFlight > 0; inFlight-- {
			<-wp.resultQueue
		}
	}

	for accumulator.Samples() < target {
		if err := ctx.Err(); err != nil {
			drain()
			return err
		}

		// Keep the window full
		for next < target && next-accumulator.Samples() < wp.window {
			wp.taskQueue <- SampleTask{SampleIndex: next}
			next++
			inFlight++
		}

		select {
		case result, ok := <-wp.resultQueue:
			if !ok {
				return fmt.Errorf("worker pool closed unexpectedly")
			}
			inFlight--
			pending[result.SampleIndex] = result.Colours

			// Reduce every sample that is now in order
			for {
				colours, ready := pending[accumulator.Samples()]
				if !ready {
					break
				}
				delete(pending, accumulator.Samples())
				if err := accumulator.AddSample(colours); err != nil {
					drain()
					return err
				}
			}
		case <-ctx.Done():
			drain()
			return ctx.Err()
		}
	}

	return nil
}

// run is the main worker loop
func (w *Worker) run(wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range w.taskQueue {
		sampler := core.NewSeededSampler(core.SampleSeed(w.seed, task.SampleIndex))
		w.resultQueue <- SampleResult{
			SampleIndex: task.SampleIndex,
			Colours:     w.raytracer.RenderSample(sampler),
		}
	}
}
