package core

import (
	"context"
	"iter"
	"runtime"
	"sync"
	"sync/atomic"
)

// StreamItem is one element on the channel between the reader goroutine and an
// EventStream. Exactly one of Event or Err is meaningful.
type StreamItem[T any] struct {
	Event T
	Err   error
}

// EventStream is an ordered, lazily produced sequence of typed events backed by
// one HTTP connection.
//
// Stream Rules:
//   - The producer closes the channel after its last item and only then closes done
//   - At most one item carries an error, and it is the last item
//   - The producer owns the connection and releases it before closing done
//   - Close cancels the producer and waits until the connection is released
//
// Consumers either call Next/Event/Err in a loop or range over All. Callers that
// stop reading early should call Close (All does so automatically). A handle
// dropped without Close cancels its producer once it is garbage collected, so
// the connection is not held forever, but only Close releases it promptly.
//
//	stream, err := client.Messages().CreateStream(ctx, req)
//	if err != nil {
//	    return err
//	}
//	defer stream.Close()
//	for stream.Next() {
//	    handle(stream.Event())
//	}
//	return stream.Err()
type EventStream[T any] struct {
	parent context.Context
	ch     <-chan StreamItem[T]
	cancel context.CancelFunc
	done   <-chan struct{}

	cur       T
	err       error
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewEventStream wires a consumer handle to a producer goroutine.
// parent is the caller's context; cancel stops the producer; done is closed once
// the producer has released its connection.
func NewEventStream[T any](parent context.Context, ch <-chan StreamItem[T], cancel context.CancelFunc, done <-chan struct{}) *EventStream[T] {
	s := &EventStream[T]{
		parent: parent,
		ch:     ch,
		cancel: cancel,
		done:   done,
	}
	// The producer holds ch and cancel but never s, so s becomes unreachable
	// as soon as the consumer drops it.
	runtime.AddCleanup(s, func(cancel context.CancelFunc) { cancel() }, cancel)
	return s
}

// Next blocks until the next event is available. It returns false at the end of
// the stream, after a terminal error, or once the stream has been closed.
func (s *EventStream[T]) Next() bool {
	if s.err != nil || s.closed.Load() {
		return false
	}

	item, ok := <-s.ch
	if !ok {
		if !s.closed.Load() && s.parent.Err() != nil {
			s.err = s.parent.Err()
		}
		s.cancel()
		return false
	}
	if item.Err != nil {
		s.err = item.Err
		s.cancel()
		return false
	}

	s.cur = item.Event
	return true
}

// Event returns the event read by the last successful call to Next.
func (s *EventStream[T]) Event() T {
	return s.cur
}

// Err returns the terminal error, or nil if the stream ended cleanly or was closed.
func (s *EventStream[T]) Err() error {
	return s.err
}

// Close stops the producer, releases the connection and waits for both.
// It is safe to call more than once and from another goroutine.
func (s *EventStream[T]) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.cancel()
		<-s.done
	})
	return nil
}

// Done is closed once the underlying connection has been released.
func (s *EventStream[T]) Done() <-chan struct{} {
	return s.done
}

// All returns an iterator over the remaining events. A terminal error is yielded
// once as the last pair. Breaking out of the loop closes the stream.
func (s *EventStream[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		defer s.Close()
		for s.Next() {
			if !yield(s.Event(), nil) {
				return
			}
		}
		if err := s.Err(); err != nil {
			var zero T
			yield(zero, err)
		}
	}
}

// Collect drains the stream into a slice. The stream is closed on return.
func (s *EventStream[T]) Collect() ([]T, error) {
	var events []T
	for ev, err := range s.All() {
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
	return events, nil
}
