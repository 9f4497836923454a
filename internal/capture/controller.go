// Package capture drives an audio recording device through a simple
// Idle -> Recording -> Idle state machine, accumulating encoded chunks and
// assembling them into a single payload on stop.
package capture

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrPermissionDenied is returned by Start when the platform refuses
	// device access. No state changes.
	ErrPermissionDenied = errors.New("capture: microphone access denied")

	// ErrAlreadyRecording is returned by Start while a capture is running.
	ErrAlreadyRecording = errors.New("capture: recording already in progress")
)

// Chunk is one encoded audio fragment delivered by the device.
type Chunk []byte

// Stream is an open device session delivering encoded chunks.
type Stream interface {
	// Chunks yields encoded fragments in arrival order. The channel closes
	// after Finalize once the encoder has flushed.
	Chunks() <-chan Chunk

	// MIMEType reports the actual encoded type. Platforms default to
	// different encodings, so this is read, never assumed.
	MIMEType() string

	// Finalize stops encoding; pending chunks drain, then Chunks closes.
	Finalize()

	// Close releases the underlying device.
	Close() error
}

// Source opens recording sessions. The production CLI uses a file-backed
// source; tests inject fakes.
type Source interface {
	Open(ctx context.Context) (Stream, error)
}

// Payload is the assembled recording emitted on stop.
type Payload struct {
	Data     []byte
	MIMEType string
}

// Controller owns at most one recording at a time. Callers are expected to
// keep the record control unreachable while a classification call is
// outstanding; the controller itself only guards its own state.
type Controller struct {
	source Source
	log    zerolog.Logger

	mu        sync.Mutex
	recording bool
	stream    Stream
	buf       []byte
	elapsed   int // whole seconds, for display

	drained chan struct{} // closed when the chunk reader exits
	stop    chan struct{} // closed to halt the tick counter
}

// NewController builds a controller over the given source.
func NewController(source Source, log zerolog.Logger) *Controller {
	return &Controller{source: source, log: log}
}

// Start opens the device and begins accumulating chunks. It fails with
// ErrPermissionDenied (untouched state) when the source refuses access and
// with ErrAlreadyRecording when a capture is already running.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.recording {
		c.mu.Unlock()
		return ErrAlreadyRecording
	}
	c.mu.Unlock()

	stream, err := c.source.Open(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.recording = true
	c.stream = stream
	c.buf = nil
	c.elapsed = 0
	c.drained = make(chan struct{})
	c.stop = make(chan struct{})

	go c.accumulate(stream)
	go c.tick()

	c.log.Debug().Str("mime_type", stream.MIMEType()).Msg("Recording started")
	return nil
}

// accumulate appends every non-empty chunk in arrival order.
func (c *Controller) accumulate(stream Stream) {
	defer close(c.drained)
	for chunk := range stream.Chunks() {
		if len(chunk) == 0 {
			continue
		}
		c.mu.Lock()
		c.buf = append(c.buf, chunk...)
		c.mu.Unlock()
	}
}

// tick counts elapsed whole seconds for display.
func (c *Controller) tick() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			c.elapsed++
			c.mu.Unlock()
		case <-c.stop:
			return
		}
	}
}

// Stop finalizes the encoder, assembles the accumulated chunks into one
// payload tagged with the stream's mime type, releases the device and returns
// to Idle. Calling Stop while Idle is a no-op: it returns ok=false and emits
// nothing.
func (c *Controller) Stop() (Payload, bool) {
	c.mu.Lock()
	if !c.recording {
		c.mu.Unlock()
		return Payload{}, false
	}
	stream := c.stream
	drained := c.drained
	c.mu.Unlock()

	stream.Finalize()
	<-drained

	c.mu.Lock()
	defer c.mu.Unlock()

	payload := Payload{
		Data:     c.buf,
		MIMEType: stream.MIMEType(),
	}

	if err := stream.Close(); err != nil {
		c.log.Warn().Err(err).Msg("Failed to release recording device")
	}
	close(c.stop)

	c.recording = false
	c.stream = nil
	c.buf = nil

	c.log.Debug().Int("bytes", len(payload.Data)).Int("seconds", c.elapsed).Msg("Recording stopped")
	return payload, true
}

// Recording reports whether a capture is in progress.
func (c *Controller) Recording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recording
}

// Elapsed returns the whole seconds recorded so far, for display.
func (c *Controller) Elapsed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed
}

// Close releases any still-open device and tick counter regardless of state.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.recording {
		return
	}
	c.stream.Finalize()
	if err := c.stream.Close(); err != nil {
		c.log.Warn().Err(err).Msg("Failed to release recording device")
	}
	close(c.stop)
	c.recording = false
	c.stream = nil
	c.buf = nil
}
