package diag

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Reporter collects diagnostics and logs each one as it arrives.
// It is safe for concurrent use. A nil *Reporter discards everything.
type Reporter struct {
	mu     sync.Mutex
	logger *slog.Logger
	errs   []error
}

// NewReporter returns a Reporter logging to the given logger.
// A nil logger falls back to slog.Default().
func NewReporter(logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{logger: logger}
}

// Report records err. Nil errors are ignored.
func (r *Reporter) Report(err error) {
	if r == nil || err == nil {
		return
	}
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
	r.logger.LogAttrs(context.Background(), slog.LevelWarn, err.Error(),
		slog.String("kind", KindOf(err).String()))
}

// Diagnostics returns a copy of everything reported so far, in order.
func (r *Reporter) Diagnostics() []error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

// Count returns the number of diagnostics of the given kind.
func (r *Reporter) Count(kind Kind) int {
	n := 0
	for _, err := range r.Diagnostics() {
		if KindOf(err) == kind {
			n++
		}
	}
	return n
}

// Len returns the total number of diagnostics.
func (r *Reporter) Len() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errs)
}

// Err joins all diagnostics into one error, or returns nil.
func (r *Reporter) Err() error {
	return errors.Join(r.Diagnostics()...)
}

// Logger returns the logger used by the reporter.
func (r *Reporter) Logger() *slog.Logger {
	if r == nil || r.logger == nil {
		return slog.Default()
	}
	return r.logger
}
