package session

import (
	"context"
	"sync/atomic"

	"github.com/finsig/smolder-c-ffi/core"
)

// Session is the receiving side of one chain's response stream.
type Session struct {
	id        core.ChainID
	responses <-chan string

	// turn admits one waiter at a time onto the channel.
	turn    chan struct{}
	waiting atomic.Int32
	removed atomic.Bool
	gone    chan struct{}
}

// New wraps responses for chain id. A nil channel yields a stream that is
// already ended.
func New(id core.ChainID, responses <-chan string) *Session {
	return &Session{
		id:        id,
		responses: responses,
		turn:      make(chan struct{}, 1),
		gone:      make(chan struct{}),
	}
}

// ID returns the chain the session belongs to.
func (s *Session) ID() core.ChainID {
	return s.id
}

// Next blocks until the next response is available and returns it with
// ok set. When the stream has ended or the session was marked removed it
// returns ok false and a nil error. It returns ctx.Err() if ctx is done
// first, either while queued behind another waiter or while parked on the
// channel.
func (s *Session) Next(ctx context.Context) (response string, ok bool, err error) {
	s.waiting.Add(1)
	defer s.waiting.Add(-1)

	select {
	case s.turn <- struct{}{}:
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
	defer func() { <-s.turn }()

	if s.responses == nil || s.removed.Load() {
		return "", false, nil
	}

	select {
	case response, ok = <-s.responses:
		return response, ok, nil
	case <-s.gone:
		return "", false, nil
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
}

// Waiting returns the number of callers currently inside Next.
func (s *Session) Waiting() int {
	return int(s.waiting.Load())
}

// MarkRemoved ends the stream for every current and future waiter, whether
// or not the engine has closed the channel yet. Responses still buffered are
// not delivered.
func (s *Session) MarkRemoved() {
	if s.removed.CompareAndSwap(false, true) {
		close(s.gone)
	}
}

// Removed reports whether MarkRemoved has been called.
func (s *Session) Removed() bool {
	return s.removed.Load()
}
