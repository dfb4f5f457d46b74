package llm

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeProvider replays fixed chunks; block keeps the stream open until the
// turn's context ends.
type fakeProvider struct {
	family Family
	mode   ChunkMode
	chunks []string
	err    error
	block  bool

	mu    sync.Mutex
	reqs  []Request
	close int
}

func (f *fakeProvider) Family() Family  { return f.family }
func (f *fakeProvider) Mode() ChunkMode { return f.mode }

func (f *fakeProvider) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.close++
	return nil
}

func (f *fakeProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

func (f *fakeProvider) lastRequest() Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reqs[len(f.reqs)-1]
}

func (f *fakeProvider) StreamAnswer(ctx context.Context, req Request) (<-chan string, <-chan error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()

	out := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errs)
		for _, c := range f.chunks {
			if !send(ctx, out, c) {
				errs <- ctx.Err()
				return
			}
		}
		if f.block {
			<-ctx.Done()
			errs <- ctx.Err()
			return
		}
		if f.err != nil {
			errs <- f.err
		}
	}()
	return out, errs
}

func collect(s *Stream) []string {
	var out []string
	for s.Next() {
		out = append(out, s.Current())
	}
	return out
}

// requireCumulative checks that every value extends the previous one.
func requireCumulative(t *testing.T, got []string) {
	t.Helper()
	for i := 1; i < len(got); i++ {
		require.True(t, strings.HasPrefix(got[i], got[i-1]), "value %d %q does not extend %q", i, got[i], got[i-1])
		require.GreaterOrEqual(t, len(got[i]), len(got[i-1]))
	}
}
