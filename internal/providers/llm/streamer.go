package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Streamer dispatches turns to the provider handle of the selected family.
// Handles are built once at startup and shared by all turns.
type Streamer struct {
	mu           sync.RWMutex
	providers    map[Family]Provider
	disabled     map[Family]error
	defaultModel string
}

func NewStreamer(providers ...Provider) *Streamer {
	s := &Streamer{
		providers:    map[Family]Provider{},
		disabled:     map[Family]error{},
		defaultModel: DefaultModel,
	}
	for _, p := range providers {
		if p != nil {
			s.providers[p.Family()] = p
		}
	}
	return s
}

// SetDefaultModel changes the model used when a turn names none.
func (s *Streamer) SetDefaultModel(id string) error {
	sel, err := ParseSelector(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultModel = sel.Model
	return nil
}

func (s *Streamer) DefaultModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultModel
}

// Resolve is ParseSelector with this streamer's default model.
func (s *Streamer) Resolve(id string) (Selector, error) {
	if strings.TrimSpace(id) == "" {
		id = s.DefaultModel()
	}
	return ParseSelector(id)
}

// Disable makes every turn for f fail with reason, e.g. a missing credential.
func (s *Streamer) Disable(f Family, reason error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.providers, f)
	s.disabled[f] = reason
}

// Available lists the families that can take turns.
func (s *Streamer) Available() []Family {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Family
	for _, f := range []Family{FamilyOpenAI, FamilyAnthropic, FamilyGemini} {
		if _, ok := s.providers[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Stream opens one provider request for the turn. Unknown families are
// rejected before any request is made.
func (s *Streamer) Stream(ctx context.Context, sel Selector, req Request) (*Stream, error) {
	if !sel.Family.Valid() {
		return nil, &UnsupportedProviderError{ID: string(sel.Family)}
	}

	s.mu.RLock()
	p, ok := s.providers[sel.Family]
	reason := s.disabled[sel.Family]
	s.mu.RUnlock()

	if !ok {
		if reason != nil {
			return nil, reason
		}
		return nil, fmt.Errorf("%w: %s", ErrProviderNotConfigured, sel.Family)
	}

	if req.Model == "" {
		req.Model = sel.Model
	}
	return newStream(ctx, p, req), nil
}

// Close releases every provider handle.
func (s *Streamer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var first error
	for _, p := range s.providers {
		if err := p.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
