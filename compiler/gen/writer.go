package gen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Writer writes generated files to the target directory in parallel.
type Writer struct {
	outDir  string
	workers int

	// Metrics for performance monitoring
	mu      sync.Mutex
	metrics *WriterMetrics
}

// WriterMetrics tracks generation performance
type WriterMetrics struct {
	FilesWritten int
	TotalBytes   int64
}

// NewWriter creates a writer for outDir.
func NewWriter(outDir string) *Writer {
	return &Writer{
		outDir:  outDir,
		workers: runtime.GOMAXPROCS(0),
		metrics: &WriterMetrics{},
	}
}

// WithWorkers sets the number of parallel workers.
func (w *Writer) WithWorkers(n int) *Writer {
	if n > 0 {
		w.workers = n
	}
	return w
}

// Metrics returns the write metrics.
func (w *Writer) Metrics() WriterMetrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	return *w.metrics
}

// WriteAll writes every output in parallel. It stops at the first error.
func (w *Writer) WriteAll(ctx context.Context, outputs []*Output) error {
	if err := os.MkdirAll(w.outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(w.workers)
	for _, out := range outputs {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return w.write(out)
			}
		})
	}
	return eg.Wait()
}

// write renders one file and writes it to disk. Nothing is left behind
// when rendering or writing fails.
func (w *Writer) write(out *Output) error {
	path := filepath.Join(w.outDir, out.Filename)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", out.Filename, err)
	}
	var buf bytes.Buffer
	// Jennifer renders with correct imports and formatting
	if err := out.File.Render(&buf); err != nil {
		return fmt.Errorf("render %s: %w", out.Filename, err)
	}
	n := int64(buf.Len())
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write %s: %w", out.Filename, err)
	}
	_, werr := buf.WriteTo(f)
	if err := errors.Join(werr, f.Close()); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("write %s: %w", out.Filename, err)
	}

	w.mu.Lock()
	w.metrics.FilesWritten++
	w.metrics.TotalBytes += n
	w.mu.Unlock()
	return nil
}
