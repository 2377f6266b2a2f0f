package pushstream

import (
	"context"
	"sync"
)

// Stream is a single-consumer prompt queue. Producers call Push and Close;
// the consumer loops on Next until it reports completion.
type Stream struct {
	mu     sync.Mutex
	queue  []string
	closed bool
	wake   chan struct{}
}

// New creates an open, empty stream.
func New() *Stream {
	return &Stream{
		wake: make(chan struct{}, 1),
	}
}

// Push appends one prompt to the stream.
// Pushing after Close is a no-op; the prompt is dropped.
func (s *Stream) Push(text string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, text)
	s.mu.Unlock()
	s.signal()
}

// Close marks that no further prompts will arrive. Prompts already queued
// remain consumable; Next reports completion only once the queue is empty.
func (s *Stream) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.signal()
}

// Closed reports whether Close has been called.
func (s *Stream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Len returns the number of prompts currently queued.
func (s *Stream) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Next returns the next prompt in FIFO order, blocking while the stream is
// open and empty. It returns ok=false once the stream is closed and drained,
// or when ctx is cancelled.
func (s *Stream) Next(ctx context.Context) (string, bool) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			text := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return text, true
		}
		if s.closed {
			s.mu.Unlock()
			return "", false
		}
		s.mu.Unlock()

		select {
		case <-s.wake:
		case <-ctx.Done():
			return "", false
		}
	}
}

// signal wakes a single waiter. The buffered channel coalesces signals that
// arrive while no waiter is parked.
func (s *Stream) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
