package stream

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

var ErrAlreadyStarted = errors.New("stream: delivery already started")

// State is the lifecycle position of a Delivery.
type State int32

const (
	StateIdle State = iota
	StateProducing
	StateCompleted
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProducing:
		return "producing"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// FaultError reports that the producer failed mid-stream. Elements written
// before the fault stay delivered.
type FaultError struct {
	Emitted int64
	Err     error
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("stream fault after %d elements: %v", e.Emitted, e.Err)
}

func (e *FaultError) Unwrap() error {
	return e.Err
}

// Sink receives the elements of a delivery in production order.
type Sink[T any] interface {
	Write(v T) error
	// Close is called once, only when the producer completes naturally.
	Close() error
}

// Delivery binds one Producer to one Sink for the lifetime of a request.
//
// Elements are pulled under demand with a prefetch of one: the producer task
// computes the next element while the current one is being written and then
// waits until the writer asks for more. A slow sink therefore slows the
// producer down instead of growing a buffer.
type Delivery[T any] struct {
	producer Producer[T]
	sink     Sink[T]
	metrics  *Metrics

	state   atomic.Int32
	emitted atomic.Int64
	started time.Time
}

// Option configures a Delivery.
type Option func(*deliveryOptions)

type deliveryOptions struct {
	metrics *Metrics
}

// WithMetrics records the delivery on m instead of the instruments of the
// global meter provider.
func WithMetrics(m *Metrics) Option {
	return func(o *deliveryOptions) {
		o.metrics = m
	}
}

func NewDelivery[T any](producer Producer[T], sink Sink[T], opts ...Option) *Delivery[T] {
	o := deliveryOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	if o.metrics == nil {
		o.metrics = defaultMetrics()
	}

	return &Delivery[T]{
		producer: producer,
		sink:     sink,
		metrics:  o.metrics,
	}
}

func (d *Delivery[T]) State() State {
	return State(d.state.Load())
}

// Emitted returns the number of elements handed to the sink successfully.
func (d *Delivery[T]) Emitted() int64 {
	return d.emitted.Load()
}

// Elapsed returns the time since Run started.
func (d *Delivery[T]) Elapsed() time.Duration {
	if d.started.IsZero() {
		return 0
	}

	return time.Since(d.started)
}

// Run delivers the sequence until it completes, fails or ctx is cancelled.
// Completion and cancellation return nil; see State for which one happened.
// A producer fault returns a *FaultError. The producer is always closed
// before Run returns.
func (d *Delivery[T]) Run(ctx context.Context) error {
	if !d.state.CompareAndSwap(int32(StateIdle), int32(StateProducing)) {
		return ErrAlreadyStarted
	}

	d.started = time.Now()
	d.metrics.begin(ctx)

	var writeErr error

	g, gctx := errgroup.WithContext(ctx)
	items := make(chan T)
	demand := make(chan struct{}, 1)

	g.Go(func() error {
		defer close(items)
		defer d.producer.Close()

		for {
			select {
			case <-gctx.Done():
				return nil
			case <-demand:
			}

			v, err := d.producer.Next(gctx)
			if err != nil {
				if errors.Is(err, ErrEndOfStream) || gctx.Err() != nil {
					return nil
				}

				return &FaultError{Emitted: d.emitted.Load(), Err: err}
			}

			select {
			case items <- v:
			case <-gctx.Done():
				return nil
			}
		}
	})

	g.Go(func() error {
		demand <- struct{}{}

		for v := range items {
			if gctx.Err() != nil {
				return nil
			}

			select {
			case demand <- struct{}{}:
			case <-gctx.Done():
				return nil
			}

			if err := d.sink.Write(v); err != nil {
				writeErr = err
				return err
			}

			d.emitted.Add(1)
			d.metrics.element(ctx)
		}

		return nil
	})

	err := g.Wait()

	var fault *FaultError
	switch {
	case errors.As(err, &fault):
		d.finish(ctx, StateFailed)
		return fault
	case writeErr != nil, ctx.Err() != nil:
		d.finish(ctx, StateCancelled)
		return nil
	}

	if err := d.sink.Close(); err != nil {
		d.finish(ctx, StateCancelled)
		return nil
	}

	d.finish(ctx, StateCompleted)
	return nil
}

func (d *Delivery[T]) finish(ctx context.Context, s State) {
	d.state.Store(int32(s))
	d.metrics.end(ctx, s)
}
