package llm

import (
	"context"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// VertexGemini streams Gemini on Vertex AI. The system instruction is bound
// on the model instance built for each turn, the prompt is the utterance
// alone, and each streamed response object contributes its text.
type VertexGemini struct {
	client    *vertexgenai.Client
	maxTokens int32
}

func NewVertexGemini(ctx context.Context, projectID, location string, maxTokens int32, opts ...option.ClientOption) (*VertexGemini, error) {
	if location == "" {
		location = "us-central1"
	}
	c, err := vertexgenai.NewClient(ctx, projectID, location, opts...)
	if err != nil {
		return nil, err
	}
	return &VertexGemini{client: c, maxTokens: maxTokens}, nil
}

func (v *VertexGemini) Family() Family  { return FamilyGemini }
func (v *VertexGemini) Mode() ChunkMode { return DiscreteObjects }
func (v *VertexGemini) Close() error    { return v.client.Close() }

// geminiPrompt flattens the turn: history is not sent to this family.
func geminiPrompt(req Request) string { return req.Utterance }

func bindSystemInstruction(m *vertexgenai.GenerativeModel, system string, maxTokens int32) {
	m.SystemInstruction = &vertexgenai.Content{Parts: []vertexgenai.Part{vertexgenai.Text(system)}}
	if maxTokens > 0 {
		m.SetMaxOutputTokens(maxTokens)
	}
}

func responseText(resp *vertexgenai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(vertexgenai.Text); ok {
				b.WriteString(string(t))
			}
		}
	}
	return b.String()
}

func (v *VertexGemini) StreamAnswer(ctx context.Context, req Request) (<-chan string, <-chan error) {
	out := make(chan string, 32)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		m := v.client.GenerativeModel(req.Model)
		bindSystemInstruction(m, req.System, v.maxTokens)

		it := m.GenerateContentStream(ctx, vertexgenai.Text(geminiPrompt(req)))
		for {
			resp, err := it.Next()
			if err == iterator.Done {
				return
			}
			if err != nil {
				errs <- err
				return
			}

			text := responseText(resp)
			if text == "" {
				continue
			}
			if !send(ctx, out, text) {
				errs <- ctx.Err()
				return
			}
		}
	}()

	return out, errs
}
