package llm

import (
	"context"

	"github.com/yoockh/sprachpartner/internal/models"
)

// ChunkMode describes what each value on a provider's chunk channel means.
type ChunkMode int

const (
	// DeltaChunks carry only the newly generated text.
	DeltaChunks ChunkMode = iota
	// CumulativeSnapshots carry the whole reply generated so far.
	CumulativeSnapshots
	// DiscreteObjects carry the text extracted from one streamed response object.
	DiscreteObjects
)

func (m ChunkMode) String() string {
	switch m {
	case DeltaChunks:
		return "delta"
	case CumulativeSnapshots:
		return "cumulative"
	case DiscreteObjects:
		return "discrete"
	default:
		return "unknown"
	}
}

// Request is one turn as handed to a provider adapter. Adapters must not
// modify History.
type Request struct {
	Model     string
	System    string
	History   []models.HistoryEntry
	Utterance string
}

type Provider interface {
	Family() Family
	Mode() ChunkMode
	// StreamAnswer returns a stream of text chunks. Both channels are closed
	// when the provider is done; errs carries at most one error.
	StreamAnswer(ctx context.Context, req Request) (chunks <-chan string, errs <-chan error)
	Close() error
}

func send(ctx context.Context, out chan<- string, s string) bool {
	select {
	case out <- s:
		return true
	case <-ctx.Done():
		return false
	}
}
