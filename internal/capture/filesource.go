package capture

import (
	"context"
	"fmt"
	"os"

	"github.com/gabriel-vasile/mimetype"
)

const defaultChunkSize = 32 * 1024

// FileSource replays an already-encoded audio file as a chunked stream, the
// stand-in for a microphone device outside the browser. The whole file is
// queued at open time, so the replay finishes as fast as the reader drains it.
type FileSource struct {
	Path      string
	ChunkSize int
}

func (s *FileSource) Open(ctx context.Context) (Stream, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, ErrPermissionDenied
		}
		return nil, fmt.Errorf("capture: open %s: %w", s.Path, err)
	}

	size := s.ChunkSize
	if size <= 0 {
		size = defaultChunkSize
	}

	chunks := (len(data) + size - 1) / size
	ch := make(chan Chunk, chunks)
	for start := 0; start < len(data); start += size {
		end := start + size
		if end > len(data) {
			end = len(data)
		}
		ch <- Chunk(data[start:end])
	}
	close(ch)

	return &fileStream{ch: ch, mime: mimetype.Detect(data).String()}, nil
}

type fileStream struct {
	ch   chan Chunk
	mime string
}

func (s *fileStream) Chunks() <-chan Chunk { return s.ch }

func (s *fileStream) MIMEType() string { return s.mime }

// Finalize is a no-op: the replay is fully queued at open time.
func (s *fileStream) Finalize() {}

func (s *fileStream) Close() error { return nil }
