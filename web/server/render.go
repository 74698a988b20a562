package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/df07/go-path-tracer/pkg/core"
	"github.com/df07/go-path-tracer/pkg/renderer"
	"github.com/df07/go-path-tracer/pkg/scene"
)

const writeTimeout = 10 * time.Second

// Event is one JSON message on the render websocket
type Event struct {
	Type string      `json:"type"` // "console", "pass", "error", "complete"
	Data interface{} `json:"data"`
}

// PassUpdate is sent after every progressive pass
type PassUpdate struct {
	PassNumber       int     `json:"passNumber"`
	TotalPasses      int     `json:"totalPasses"`
	ImageData        string  `json:"imageData"` // Base64 encoded PNG
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	SamplesPerPixel  int     `json:"samplesPerPixel"`
	MaxSamples       int     `json:"maxSamples"`
	TotalPixels      int     `json:"totalPixels"`
	TotalSamples     int     `json:"totalSamples"`
	AverageLuminance float64 `json:"averageLuminance"`
	PassMs           int64   `json:"passMs"`
	ElapsedMs        int64   `json:"elapsedMs"`
	PrimitiveCount   int     `json:"primitiveCount"`
	IsLast           bool    `json:"isLast"`
}

// handleRender streams a progressive render over a websocket. Request errors
// are reported with an HTTP status before the upgrade; render errors arrive
// as "error" events.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRenderRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request: " + err.Error()})
		return
	}

	consoleChan, webLogger := setupConsoleLogging()
	job, err := renderer.NewRenderJob(req, s.sceneDir, webLogger)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, scene.ErrUnknownScene) {
			status = http.StatusNotFound
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Websocket upgrade failed: %v", err)
		job.Raytracer.Close()
		return
	}
	defer conn.Close()

	// Hijacked connections outlive the request context, so a reader detects disconnects
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go readUntilClosed(conn, cancel)

	events := make(chan Event, 100)
	writerDone := make(chan struct{})
	go s.writeEvents(conn, events, cancel, writerDone)

	var consoleWG sync.WaitGroup
	consoleWG.Add(1)
	go func() {
		defer consoleWG.Done()
		streamConsoleMessages(ctx, consoleChan, events)
	}()

	s.handleRenderingEvents(ctx, events, job, time.Now())

	// Stop the console forwarder before closing the channel it writes to
	cancel()
	consoleWG.Wait()
	close(events)
	<-writerDone
}

// setupConsoleLogging creates console channel and web logger for a render
func setupConsoleLogging() (chan ConsoleMessage, core.Logger) {
	consoleChan := make(chan ConsoleMessage, 50)
	renderID := fmt.Sprintf("render-%d", time.Now().UnixNano())
	return consoleChan, NewWebLogger(renderID, consoleChan)
}

// readUntilClosed discards client messages and cancels the render once the
// connection is closed
func readUntilClosed(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeEvents is the only goroutine writing to the websocket. After a write
// fails it cancels the render and discards the remaining events.
func (s *Server) writeEvents(conn *websocket.Conn, events <-chan Event, cancel context.CancelFunc, done chan<- struct{}) {
	defer close(done)

	failed := false
	for event := range events {
		if failed {
			continue
		}
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(event); err != nil {
			log.Printf("Websocket write failed: %v", err)
			failed = true
			cancel()
		}
	}

	if !failed {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "render finished"))
	}
}

// streamConsoleMessages forwards console messages until the render ends
func streamConsoleMessages(ctx context.Context, consoleChan <-chan ConsoleMessage, events chan<- Event) {
	for {
		select {
		case msg := <-consoleChan:
			select {
			case events <- Event{Type: "console", Data: msg}:
			case <-ctx.Done():
				return
			default:
				// Channel full, skip message to avoid blocking
			}
		case <-ctx.Done():
			return
		}
	}
}

// handleRenderingEvents runs the render and turns its passes into events
func (s *Server) handleRenderingEvents(ctx context.Context, events chan<- Event, job *renderer.RenderJob, startTime time.Time) {
	send := func(event Event) bool {
		select {
		case events <- event:
			return true
		case <-ctx.Done():
			return false
		}
	}

	primitiveCount := job.Scene.GetPrimitiveCount()
	passChan, errChan := job.Raytracer.RenderProgressive(ctx)

	for result := range passChan {
		imageData, err := imageToBase64PNG(result.Image)
		if err != nil {
			send(Event{Type: "error", Data: fmt.Sprintf("failed to encode image: %v", err)})
			continue
		}

		update := PassUpdate{
			PassNumber:       result.PassNumber,
			TotalPasses:      job.Config.MaxPasses,
			ImageData:        imageData,
			Width:            result.Frame.Width,
			Height:           result.Frame.Height,
			SamplesPerPixel:  result.Stats.SamplesPerPixel,
			MaxSamples:       result.Stats.MaxSamples,
			TotalPixels:      result.Stats.TotalPixels,
			TotalSamples:     result.Stats.TotalSamples,
			AverageLuminance: result.Stats.AverageLuminance,
			PassMs:           result.Stats.Duration.Milliseconds(),
			ElapsedMs:        time.Since(startTime).Milliseconds(),
			PrimitiveCount:   primitiveCount,
			IsLast:           result.IsLast,
		}
		send(Event{Type: "pass", Data: update})
	}

	if err := <-errChan; err != nil {
		if ctx.Err() == nil {
			send(Event{Type: "error", Data: fmt.Sprintf("Rendering failed: %v", err)})
		}
		return
	}
	send(Event{Type: "complete", Data: "Rendering completed"})
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
