// Package batch runs one single-document operation per item of a batch concurrently and
// returns the outcomes in input order.
package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/jacentio/docfront/envelope"
)

var (
	// ErrNilOperation is returned when a batch is run without an operation.
	ErrNilOperation = errors.New("docfront: batch operation is nil")

	// ErrTooLarge is returned when a batch has more items than allowed.
	ErrTooLarge = errors.New("docfront: batch exceeds the maximum size")

	// ErrMalformed is returned when the batch container cannot be decoded.
	ErrMalformed = errors.New("docfront: malformed batch")
)

// Op is a single-document operation. A non-nil error is a fatal failure; it becomes a
// BadRequest envelope for that item only.
type Op[T any] func(ctx context.Context, item T) (envelope.Envelope, error)

// Source produces the items of a batch.
type Source[T any] func() ([]T, error)

// Slice returns a Source over items.
func Slice[T any](items []T) Source[T] {
	return func() ([]T, error) {
		return items, nil
	}
}

// DecodeJSON returns a Source that decodes raw as a JSON array of T.
func DecodeJSON[T any](raw []byte) Source[T] {
	return func() ([]T, error) {
		var items []T
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		if items == nil {
			return nil, fmt.Errorf("%w: expected a JSON array", ErrMalformed)
		}
		return items, nil
	}
}

// Map converts the items of src with f.
func Map[T, U any](src Source[T], f func(T) U) Source[U] {
	return func() ([]U, error) {
		items, err := src()
		if err != nil {
			return nil, err
		}
		out := make([]U, len(items))
		for i, item := range items {
			out[i] = f(item)
		}
		return out, nil
	}
}

// Options tune a batch run.
type Options struct {
	// MaxItems rejects larger batches as a whole. 0 means no limit.
	MaxItems int

	// Concurrency limits in-flight items. 0 means all items start at once.
	Concurrency int

	// Logger receives batch failures. Defaults to slog.Default().
	Logger *slog.Logger
}

type task[T any] struct {
	index int
	item  T
}

// Run applies op to every item of src and returns exactly one envelope per item, in
// input order. Items never short-circuit each other.
//
// If the batch cannot be built (src fails, op is nil, or the batch is too large) the
// result is a single BadRequest envelope describing why.
func Run[T any](ctx context.Context, src Source[T], op Op[T], opts Options) []envelope.Envelope {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tasks, err := plan(src, op, opts)
	if err != nil {
		logger.Warn("batch rejected", "error", err)
		return []envelope.Envelope{envelope.BadRequest(err.Error(), err)}
	}

	results := make([]envelope.Envelope, len(tasks))

	var g errgroup.Group
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}
	for _, t := range tasks {
		g.Go(func() error {
			results[t.index] = runOne(ctx, op, t, logger)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func plan[T any](src Source[T], op Op[T], opts Options) ([]task[T], error) {
	if op == nil {
		return nil, ErrNilOperation
	}
	if src == nil {
		return nil, fmt.Errorf("%w: no items", ErrMalformed)
	}
	items, err := src()
	if err != nil {
		return nil, err
	}
	if opts.MaxItems > 0 && len(items) > opts.MaxItems {
		return nil, fmt.Errorf("%w: %d items, limit %d", ErrTooLarge, len(items), opts.MaxItems)
	}

	tasks := make([]task[T], len(items))
	for i, item := range items {
		tasks[i] = task[T]{index: i, item: item}
	}
	return tasks, nil
}

func runOne[T any](ctx context.Context, op Op[T], t task[T], logger *slog.Logger) (env envelope.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("docfront: batch item %d panicked: %v", t.index, r)
			logger.Error("batch item panicked", "index", t.index, "error", err)
			env = envelope.BadRequest(err.Error(), err)
		}
	}()

	env, err := op(ctx, t.item)
	if err != nil {
		logger.Warn("batch item failed", "index", t.index, "error", err)
		return envelope.BadRequest(err.Error(), err)
	}
	return env
}
