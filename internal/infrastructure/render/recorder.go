package render

import (
	"context"
	"fmt"
	"io"
	"sync"

	"ArticleAugmenter/internal/inject"
	"ArticleAugmenter/internal/ports"
)

// Recorder writes every command as one JSON line, then forwards it to next
// (if any). Hosts that execute commands out of process read this stream.
type Recorder struct {
	mu   sync.Mutex
	w    io.Writer
	next ports.Surface
}

var _ ports.Surface = (*Recorder)(nil)

// NewRecorder wires the writer and an optional downstream surface.
func NewRecorder(w io.Writer, next ports.Surface) *Recorder {
	return &Recorder{w: w, next: next}
}

// Dispatch records cmd and forwards it.
func (r *Recorder) Dispatch(ctx context.Context, cmd inject.Command) error {
	raw, err := cmd.Encode()
	if err != nil {
		return err
	}

	r.mu.Lock()
	_, err = fmt.Fprintf(r.w, "%s\n", raw)
	r.mu.Unlock()
	if err != nil {
		return fmt.Errorf("write command: %w", err)
	}

	if r.next == nil {
		return nil
	}
	return r.next.Dispatch(ctx, cmd)
}

// LockedWriter serializes writes so several recorders can share one stream.
type LockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewLockedWriter wraps w.
func NewLockedWriter(w io.Writer) *LockedWriter {
	return &LockedWriter{w: w}
}

func (l *LockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
