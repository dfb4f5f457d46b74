package llm

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// Stream is the reply of one turn. Every value returned by Current is the
// whole reply accumulated so far, whatever the provider's ChunkMode, and each
// value is a prefix of the next. A Stream is not restartable.
//
//	for s.Next() {
//		render(s.Current())
//	}
//	if err := s.Err(); err != nil { ... }
type Stream struct {
	family Family
	mode   ChunkMode

	ctx    context.Context
	cancel context.CancelFunc
	chunks <-chan string
	errs   <-chan error

	acc      string
	emitted  bool
	complete bool
	finished bool
	err      error

	hookMu   sync.Mutex
	onFinish []func(text string, err error)
}

func newStream(ctx context.Context, p Provider, req Request) *Stream {
	ctx, cancel := context.WithCancel(ctx)
	chunks, errs := p.StreamAnswer(ctx, req)
	return &Stream{
		family: p.Family(),
		mode:   p.Mode(),
		ctx:    ctx,
		cancel: cancel,
		chunks: chunks,
		errs:   errs,
	}
}

func (s *Stream) Family() Family { return s.family }

// Next waits for the reply to grow. It returns false once the provider has
// finished or failed; check Err and Complete afterwards.
func (s *Stream) Next() bool {
	if s.finished {
		return false
	}
	for {
		select {
		case <-s.ctx.Done():
			s.fail(s.ctx.Err())
			return false
		case chunk, ok := <-s.chunks:
			if !ok {
				return s.end()
			}
			text, err := s.accumulate(chunk)
			if err != nil {
				s.fail(err)
				return false
			}
			if s.emitted && text == s.acc {
				continue
			}
			s.acc = text
			s.emitted = true
			return true
		}
	}
}

func (s *Stream) accumulate(chunk string) (string, error) {
	if s.mode == CumulativeSnapshots {
		if !strings.HasPrefix(chunk, s.acc) {
			return "", ErrSnapshotRegressed
		}
		return chunk, nil
	}
	return s.acc + chunk, nil
}

// end runs when the chunk channel closes. A reply that never grew is still
// reported once so callers always see a final value.
func (s *Stream) end() bool {
	if err, _ := <-s.errs; err != nil {
		s.fail(err)
		return false
	}
	s.complete = true
	s.finish(nil)
	if !s.emitted {
		s.emitted = true
		return true
	}
	return false
}

func (s *Stream) fail(err error) {
	var ge *GenerationError
	if !errors.As(err, &ge) {
		ge = &GenerationError{Family: s.family, Partial: s.acc, Err: err}
	}
	s.err = ge
	s.finish(ge)
}

func (s *Stream) finish(err error) {
	s.hookMu.Lock()
	if s.finished {
		s.hookMu.Unlock()
		return
	}
	s.finished = true
	hooks := s.onFinish
	s.onFinish = nil
	s.hookMu.Unlock()

	s.cancel()
	// unblock a producer still trying to send
	go func(ch <-chan string) {
		for range ch {
		}
	}(s.chunks)

	for _, fn := range hooks {
		fn(s.acc, err)
	}
}

// Current is the full reply text so far.
func (s *Stream) Current() string { return s.acc }

// Err is nil unless the provider failed or the stream was closed early.
func (s *Stream) Err() error { return s.err }

// Complete reports whether the provider signalled the end of the reply.
func (s *Stream) Complete() bool { return s.complete }

// Text returns the final reply and whether it is complete.
func (s *Stream) Text() (string, bool) { return s.acc, s.complete }

// OnFinish registers fn to run once when the stream completes, fails or is
// closed. err is nil only for a complete reply. Registering on a finished
// stream runs fn immediately.
func (s *Stream) OnFinish(fn func(text string, err error)) {
	s.hookMu.Lock()
	if !s.finished {
		s.onFinish = append(s.onFinish, fn)
		s.hookMu.Unlock()
		return
	}
	s.hookMu.Unlock()
	fn(s.acc, s.err)
}

// Close abandons the turn. It is safe to call after the stream finished.
func (s *Stream) Close() {
	if s.finished {
		return
	}
	s.fail(context.Canceled)
}
