package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

// asyncWriter fans log lines out to every sink from a single goroutine
// so handler calls never block on disk or stderr. The first write error
// is sticky and reported to all later calls.
type asyncWriter struct {
	lines chan []byte
	syncs chan chan error
	done  chan struct{}

	closeOnce sync.Once

	mu    sync.Mutex
	sinks []*bufio.Writer
	err   error
}

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	w := &asyncWriter{
		lines: make(chan []byte, 256),
		syncs: make(chan chan error),
		done:  make(chan struct{}),
	}
	for _, out := range writers {
		if out == nil {
			continue
		}
		w.sinks = append(w.sinks, bufio.NewWriterSize(out, bufSize))
	}
	go w.run()
	return w
}

func (w *asyncWriter) run() {
	defer close(w.done)
	for {
		select {
		case line, ok := <-w.lines:
			if !ok {
				w.flushSinks()
				return
			}
			if len(line) > 0 {
				w.recordErr(w.writeSinks(line))
			}
		case ack := <-w.syncs:
			ack <- w.flushSinks()
		}
	}
}

// Write hands the line to the fan-out goroutine. The payload is copied
// since slog reuses record buffers. Blocks when the queue is full so no
// line is ever dropped.
func (w *asyncWriter) Write(p []byte) error {
	if err := w.firstErr(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	line := append([]byte(nil), p...)
	w.lines <- line
	return nil
}

// Flush forces buffered content out to every sink and waits for it.
func (w *asyncWriter) Flush() error {
	if err := w.firstErr(); err != nil {
		return err
	}
	ack := make(chan error, 1)
	w.syncs <- ack
	return <-ack
}

// Close drains pending lines, flushes the sinks, and returns the first
// write error seen over the writer's lifetime.
func (w *asyncWriter) Close() error {
	w.closeOnce.Do(func() {
		close(w.lines)
	})
	<-w.done
	return w.firstErr()
}

func (w *asyncWriter) writeSinks(line []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, sink := range w.sinks {
		if _, err := sink.Write(line); err != nil {
			return err
		}
		if err := sink.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func (w *asyncWriter) flushSinks() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var errs []error
	for _, sink := range w.sinks {
		if err := sink.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *asyncWriter) firstErr() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *asyncWriter) recordErr(err error) {
	if err == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err == nil {
		w.err = err
	}
}
