package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/yoockh/sprachpartner/internal/models"
	"github.com/yoockh/sprachpartner/internal/providers/llm"
)

type fakeProvider struct {
	family llm.Family
	chunks []string
	err    error

	mu   sync.Mutex
	reqs []llm.Request
}

func (f *fakeProvider) Family() llm.Family  { return f.family }
func (f *fakeProvider) Mode() llm.ChunkMode { return llm.DeltaChunks }
func (f *fakeProvider) Close() error        { return nil }

func (f *fakeProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

func (f *fakeProvider) lastRequest() llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reqs[len(f.reqs)-1]
}

func (f *fakeProvider) StreamAnswer(ctx context.Context, req llm.Request) (<-chan string, <-chan error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()

	out := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errs)
		for _, c := range f.chunks {
			select {
			case out <- c:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
		if f.err != nil {
			errs <- f.err
		}
	}()
	return out, errs
}

type fakeStats struct {
	mu   sync.Mutex
	rows []models.TurnStat
}

func (f *fakeStats) Record(_ context.Context, stat *models.TurnStat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, *stat)
	return nil
}

func (f *fakeStats) ListBySession(_ context.Context, sessionID string, _ int) ([]models.TurnStat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.TurnStat
	for _, r := range f.rows {
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStats) snapshot() []models.TurnStat {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.TurnStat, len(f.rows))
	copy(out, f.rows)
	return out
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *memCache) SetJSON(_ context.Context, key string, val any, _ time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = b
	return nil
}

func (c *memCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

func collect(s *llm.Stream) []string {
	var out []string
	for s.Next() {
		out = append(out, s.Current())
	}
	return out
}
