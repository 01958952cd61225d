package stream

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

type recordingSink[T any] struct {
	mu      sync.Mutex
	got     []T
	closed  bool
	onWrite func(n int, v T) error
}

func (s *recordingSink[T]) Write(v T) error {
	s.mu.Lock()
	n := len(s.got)
	s.mu.Unlock()

	if s.onWrite != nil {
		if err := s.onWrite(n, v); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.got = append(s.got, v)
	s.mu.Unlock()

	return nil
}

func (s *recordingSink[T]) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	return nil
}

func (s *recordingSink[T]) values() []T {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]T(nil), s.got...)
}

func (s *recordingSink[T]) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

// trackingProducer counts calls into the wrapped producer.
type trackingProducer[T any] struct {
	Producer[T]
	nexts  atomic.Int64
	closes atomic.Int64
}

func track[T any](p Producer[T]) *trackingProducer[T] {
	return &trackingProducer[T]{Producer: p}
}

func (p *trackingProducer[T]) Next(ctx context.Context) (T, error) {
	p.nexts.Add(1)
	return p.Producer.Next(ctx)
}

func (p *trackingProducer[T]) Close() error {
	p.closes.Add(1)
	return p.Producer.Close()
}

// counter yields 0, 1, 2, ... without waiting.
func counter() Producer[int64] {
	var n int64 = -1
	return ProducerFunc[int64](func(ctx context.Context) (int64, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n++
		return n, nil
	})
}

var errBoom = errors.New("boom")
