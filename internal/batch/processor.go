package batch

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Concurrency limits.
const (
	// DefaultConcurrency is the number of items processed at once.
	DefaultConcurrency = 4

	// MaxConcurrency bounds NewProcessor.
	MaxConcurrency = 32
)

// Common batch processing errors.
var (
	ErrInvalidConcurrency = errors.New("concurrency must be between 1 and 32")
	ErrNilCallback        = errors.New("batch callback cannot be nil")

	errNotRun = errors.New("item not processed")
)

// ItemFunc processes one item.
type ItemFunc[T, R any] func(ctx context.Context, item T) (R, error)

// ProgressCallback is invoked after each item completes. Calls are
// serialized.
type ProgressCallback func(snap ProgressSnapshot)

// Outcome is the result for the item at Index.
type Outcome[R any] struct {
	Index int
	Value R
	Err   error
}

// Processor runs an ItemFunc over a slice.
type Processor[T, R any] struct {
	concurrency int
	onProgress  ProgressCallback
}

// NewProcessor creates a processor running at most concurrency items at once.
func NewProcessor[T, R any](concurrency int) (*Processor[T, R], error) {
	if concurrency < 1 || concurrency > MaxConcurrency {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidConcurrency, concurrency)
	}
	return &Processor[T, R]{concurrency: concurrency}, nil
}

// NewProcessorWithDefaults creates a processor with DefaultConcurrency.
func NewProcessorWithDefaults[T, R any]() *Processor[T, R] {
	return &Processor[T, R]{concurrency: DefaultConcurrency}
}

// WithProgressCallback sets a progress callback for the processor.
func (p *Processor[T, R]) WithProgressCallback(callback ProgressCallback) *Processor[T, R] {
	p.onProgress = callback
	return p
}

// Concurrency returns the configured limit.
func (p *Processor[T, R]) Concurrency() int {
	return p.concurrency
}

// Run calls fn for every item. Outcomes are returned in input order with
// each item's error recorded on its Outcome. The returned error is non-nil
// only when ctx ends before every item ran.
func (p *Processor[T, R]) Run(ctx context.Context, items []T, fn ItemFunc[T, R]) ([]Outcome[R], error) {
	if fn == nil {
		return nil, ErrNilCallback
	}

	outcomes := make([]Outcome[R], len(items))
	for i := range outcomes {
		outcomes[i] = Outcome[R]{Index: i, Err: errNotRun}
	}
	progress := NewProgress(len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, item := range items {
		i, item := i, item
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, err := fn(gctx, item)
			outcomes[i] = Outcome[R]{Index: i, Value: v, Err: err}

			if p.onProgress != nil {
				progress.notify(err, p.onProgress)
			} else {
				progress.Add(err)
			}
			return nil
		})
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		for i := range outcomes {
			if errors.Is(outcomes[i].Err, errNotRun) {
				outcomes[i].Err = err
			}
		}
		return outcomes, err
	}
	return outcomes, nil
}

// Errors returns the failed outcomes' errors joined, or nil.
func Errors[R any](outcomes []Outcome[R]) error {
	var errs []error
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, fmt.Errorf("item %d: %w", o.Index, o.Err))
		}
	}
	return errors.Join(errs...)
}
