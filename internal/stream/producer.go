// Package stream produces lazy sequences and delivers them to a consumer
// under consumer-driven demand.
package stream

import (
	"context"
	"errors"
	"iter"
	"time"
)

// ErrEndOfStream is returned by Producer.Next once a finite sequence has no
// more elements.
var ErrEndOfStream = errors.New("stream: end of sequence")

// Producer yields the elements of one sequence, one per call to Next.
//
// Next blocks until the next element is ready, the sequence completes
// (ErrEndOfStream) or ctx is done (ctx.Err()). Any other error is a fault.
// Close releases whatever the producer holds (timers, cursors, subscriptions)
// and is safe to call more than once. A Producer is used by one goroutine.
type Producer[T any] interface {
	Next(ctx context.Context) (T, error)
	Close() error
}

// ProducerFunc adapts a plain function into a Producer with nothing to release.
type ProducerFunc[T any] func(ctx context.Context) (T, error)

func (f ProducerFunc[T]) Next(ctx context.Context) (T, error) {
	return f(ctx)
}

func (f ProducerFunc[T]) Close() error {
	return nil
}

type arithmeticProducer struct {
	next  int64
	step  int64
	count int
	taken int
}

// Arithmetic yields count elements start, start+step, start+2*step, ... and
// then completes. Each element is computed when it is asked for.
func Arithmetic(start, step int64, count int) Producer[int64] {
	return &arithmeticProducer{next: start, step: step, count: count}
}

func (p *arithmeticProducer) Next(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if p.taken >= p.count {
		return 0, ErrEndOfStream
	}

	v := p.next
	p.next += p.step
	p.taken++

	return v, nil
}

func (p *arithmeticProducer) Close() error {
	p.taken = p.count
	return nil
}

type sliceProducer[T any] struct {
	values []T
	pos    int
}

// FromSlice yields the given values in order and then completes.
func FromSlice[T any](values ...T) Producer[T] {
	return &sliceProducer[T]{values: values}
}

// Just yields v once and then completes.
func Just[T any](v T) Producer[T] {
	return &sliceProducer[T]{values: []T{v}}
}

func (p *sliceProducer[T]) Next(ctx context.Context) (T, error) {
	var zero T

	if err := ctx.Err(); err != nil {
		return zero, err
	}

	if p.pos >= len(p.values) {
		return zero, ErrEndOfStream
	}

	v := p.values[p.pos]
	p.pos++

	return v, nil
}

func (p *sliceProducer[T]) Close() error {
	p.pos = len(p.values)
	return nil
}

type intervalProducer struct {
	period time.Duration
	ticker *time.Ticker
	n      int64
}

// Interval yields 0, 1, 2, ... with one element per period, forever. The
// first element arrives one period after the first call to Next. The ticker
// is created lazily and stopped by Close; a slow consumer makes ticks
// coalesce rather than queue, so values stay consecutive.
func Interval(period time.Duration) Producer[int64] {
	return &intervalProducer{period: period}
}

func (p *intervalProducer) Next(ctx context.Context) (int64, error) {
	if p.ticker == nil {
		p.ticker = time.NewTicker(p.period)
	}

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-p.ticker.C:
	}

	v := p.n
	p.n++

	return v, nil
}

func (p *intervalProducer) Close() error {
	if p.ticker != nil {
		p.ticker.Stop()
	}

	return nil
}

type seqProducer[T any] struct {
	next func() (T, error, bool)
	stop func()
}

// FromSeq pulls elements from seq on demand. The sequence is started by the
// first call to Next; Close stops it early if the consumer goes away.
func FromSeq[T any](seq iter.Seq2[T, error]) Producer[T] {
	next, stop := iter.Pull2(seq)
	return &seqProducer[T]{next: next, stop: stop}
}

func (p *seqProducer[T]) Next(ctx context.Context) (T, error) {
	var zero T

	if err := ctx.Err(); err != nil {
		return zero, err
	}

	v, err, ok := p.next()
	if !ok {
		return zero, ErrEndOfStream
	}

	if err != nil {
		return zero, err
	}

	return v, nil
}

func (p *seqProducer[T]) Close() error {
	p.stop()
	return nil
}

// Collect drains p into a slice. It is meant for finite producers; it closes
// p before returning.
func Collect[T any](ctx context.Context, p Producer[T]) ([]T, error) {
	defer p.Close()

	var out []T
	for {
		v, err := p.Next(ctx)
		if errors.Is(err, ErrEndOfStream) {
			return out, nil
		}

		if err != nil {
			return out, err
		}

		out = append(out, v)
	}
}

type mapProducer[T, U any] struct {
	src Producer[T]
	fn  func(T) U
}

// Map yields fn applied to each element of src.
func Map[T, U any](src Producer[T], fn func(T) U) Producer[U] {
	return &mapProducer[T, U]{src: src, fn: fn}
}

func (p *mapProducer[T, U]) Next(ctx context.Context) (U, error) {
	v, err := p.src.Next(ctx)
	if err != nil {
		var zero U
		return zero, err
	}

	return p.fn(v), nil
}

func (p *mapProducer[T, U]) Close() error {
	return p.src.Close()
}
