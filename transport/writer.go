package transport

import (
	"fmt"
	"io"
	"sync"

	"github.com/goccy/go-json"
)

// FrameWriter serializes writes onto an io.Writer, prefixing each JSON
// body with a Content-Length header. Writes are never batched.
type FrameWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewFrameWriter wraps the given writer (typically a child process's stdin).
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w}
}

// WriteMessage marshals v and writes it as one length-prefixed frame.
func (f *FrameWriter) WriteMessage(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal adapter frame: %w", err)
	}
	return f.WriteFrame(data)
}

// WriteFrame writes a raw JSON body with its Content-Length header.
func (f *FrameWriter) WriteFrame(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	header := fmt.Sprintf("%s: %d\r\n\r\n", "Content-Length", len(data))
	if _, err := io.WriteString(f.w, header); err != nil {
		return err
	}
	_, err := f.w.Write(data)
	return err
}
