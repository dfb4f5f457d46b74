package llm

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/yoockh/sprachpartner/internal/models"
)

const (
	DefaultAnthropicMaxTokens  = 1024
	DefaultAnthropicHistoryCap = 20

	// anthropicCapMessage is appended once when a conversation grows past the cap.
	anthropicCapMessage = "DONE"
)

// AnthropicMessages streams the Messages API. The system instruction is a
// separate request field and only user/assistant turns are sent.
type AnthropicMessages struct {
	client     anthropic.Client
	maxTokens  int64
	historyCap int
}

type AnthropicOption func(*AnthropicMessages)

func WithMaxTokens(n int64) AnthropicOption {
	return func(a *AnthropicMessages) {
		if n > 0 {
			a.maxTokens = n
		}
	}
}

func WithHistoryCap(n int) AnthropicOption {
	return func(a *AnthropicMessages) {
		if n > 0 {
			a.historyCap = n
		}
	}
}

func NewAnthropicMessages(apiKey string, opts []AnthropicOption, reqOpts ...option.RequestOption) *AnthropicMessages {
	reqOpts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, reqOpts...)
	a := &AnthropicMessages{
		client:     anthropic.NewClient(reqOpts...),
		maxTokens:  DefaultAnthropicMaxTokens,
		historyCap: DefaultAnthropicHistoryCap,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

func (a *AnthropicMessages) Family() Family  { return FamilyAnthropic }
func (a *AnthropicMessages) Mode() ChunkMode { return DeltaChunks }
func (a *AnthropicMessages) Close() error    { return nil }

// anthropicTurns builds the message list: history stripped to role/content,
// the new user turn, then a single DONE turn when the list exceeds historyCap.
func anthropicTurns(req Request, historyCap int) []models.HistoryEntry {
	turns := make([]models.HistoryEntry, 0, len(req.History)+2)
	for _, h := range req.History {
		if h.Role == models.RoleSystem {
			continue
		}
		turns = append(turns, models.HistoryEntry{Role: h.Role, Content: h.Content})
	}
	turns = append(turns, models.HistoryEntry{Role: models.RoleUser, Content: req.Utterance})
	if len(turns) > historyCap {
		turns = append(turns, models.HistoryEntry{Role: models.RoleUser, Content: anthropicCapMessage})
	}
	return turns
}

func toAnthropicMessages(turns []models.HistoryEntry) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, len(turns))
	for i, t := range turns {
		block := anthropic.NewTextBlock(t.Content)
		if t.Role == models.RoleAssistant {
			out[i] = anthropic.NewAssistantMessage(block)
		} else {
			out[i] = anthropic.NewUserMessage(block)
		}
	}
	return out
}

func (a *AnthropicMessages) params(req Request) anthropic.MessageNewParams {
	return anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: a.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: req.System}},
		Messages:  toAnthropicMessages(anthropicTurns(req, a.historyCap)),
	}
}

func (a *AnthropicMessages) StreamAnswer(ctx context.Context, req Request) (<-chan string, <-chan error) {
	out := make(chan string, 32)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		stream := a.client.Messages.NewStreaming(ctx, a.params(req))
		defer stream.Close()

		for stream.Next() {
			event := stream.Current()
			ev, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
			if !ok {
				continue
			}
			delta, ok := ev.Delta.AsAny().(anthropic.TextDelta)
			if !ok || delta.Text == "" {
				continue
			}
			if !send(ctx, out, delta.Text) {
				errs <- ctx.Err()
				return
			}
		}
		if err := stream.Err(); err != nil {
			errs <- err
		}
	}()

	return out, errs
}
