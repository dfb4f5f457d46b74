package llm

import (
	"context"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/yoockh/sprachpartner/internal/models"
)

// OpenAIChat streams chat completions. The system instruction is the first
// message of the list and chunks are deltas.
type OpenAIChat struct {
	client openai.Client
}

func NewOpenAIChat(apiKey string, opts ...option.RequestOption) *OpenAIChat {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAIChat{client: openai.NewClient(opts...)}
}

func (o *OpenAIChat) Family() Family  { return FamilyOpenAI }
func (o *OpenAIChat) Mode() ChunkMode { return DeltaChunks }
func (o *OpenAIChat) Close() error    { return nil }

func openAIMessages(req Request) []models.HistoryEntry {
	msgs := make([]models.HistoryEntry, 0, len(req.History)+2)
	msgs = append(msgs, models.HistoryEntry{Role: models.RoleSystem, Content: req.System})
	msgs = append(msgs, req.History...)
	return append(msgs, models.HistoryEntry{Role: models.RoleUser, Content: req.Utterance})
}

func toOpenAIMessages(msgs []models.HistoryEntry) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, len(msgs))
	for i, m := range msgs {
		switch m.Role {
		case models.RoleSystem:
			out[i] = openai.SystemMessage(m.Content)
		case models.RoleAssistant:
			out[i] = openai.AssistantMessage(m.Content)
		default:
			out[i] = openai.UserMessage(m.Content)
		}
	}
	return out
}

func (o *OpenAIChat) StreamAnswer(ctx context.Context, req Request) (<-chan string, <-chan error) {
	out := make(chan string, 32)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		stream := o.client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
			Model:    req.Model,
			Messages: toOpenAIMessages(openAIMessages(req)),
		})
		defer stream.Close()

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
				continue
			}
			if !send(ctx, out, chunk.Choices[0].Delta.Content) {
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
