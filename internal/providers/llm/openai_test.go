package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/sprachpartner/internal/models"
)

func TestOpenAIMessagesSystemFirst(t *testing.T) {
	history := []models.HistoryEntry{
		{Role: models.RoleUser, Content: "Hallo"},
		{Role: models.RoleAssistant, Content: "Hallo! Wie heißt du?"},
	}
	req := Request{System: "sys", History: history, Utterance: "Ich heiße Sam."}

	msgs := openAIMessages(req)

	require.Len(t, msgs, 4)
	assert.Equal(t, models.HistoryEntry{Role: models.RoleSystem, Content: "sys"}, msgs[0])
	assert.Equal(t, history, msgs[1:3])
	assert.Equal(t, models.HistoryEntry{Role: models.RoleUser, Content: "Ich heiße Sam."}, msgs[3])
	assert.Len(t, history, 2)
}

func TestToOpenAIMessagesKeepsLength(t *testing.T) {
	assert.Empty(t, toOpenAIMessages(nil))
	assert.Len(t, toOpenAIMessages([]models.HistoryEntry{
		{Role: models.RoleSystem, Content: "s"},
		{Role: models.RoleUser, Content: "u"},
		{Role: models.RoleAssistant, Content: "a"},
	}), 3)
}

func TestOpenAIChatStreamsThroughStreamer(t *testing.T) {
	bodies := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies <- b

		w.Header().Set("Content-Type", "text/event-stream")
		for _, piece := range []string{"Hal", "lo", "!"} {
			fmt.Fprintf(w, "data: {\"id\":\"c1\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"gpt-4o-mini\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q},\"finish_reason\":null}]}\n\n", piece)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	p := NewOpenAIChat("test-key", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	s := NewStreamer(p)

	stream, err := s.Stream(context.Background(), Selector{Family: FamilyOpenAI, Model: "gpt-4o-mini"}, Request{
		System:    "sys",
		History:   []models.HistoryEntry{{Role: models.RoleAssistant, Content: "Wie geht's?"}},
		Utterance: "Gut, danke.",
	})
	require.NoError(t, err)

	got := collect(stream)
	require.NoError(t, stream.Err())
	assert.Equal(t, []string{"Hal", "Hallo", "Hallo!"}, got)
	assert.True(t, stream.Complete())

	var sent struct {
		Model    string `json:"model"`
		Stream   bool   `json:"stream"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(<-bodies, &sent))
	assert.Equal(t, "gpt-4o-mini", sent.Model)
	assert.True(t, sent.Stream)
	require.Len(t, sent.Messages, 3)
	assert.Equal(t, "system", sent.Messages[0].Role)
	assert.Equal(t, "sys", sent.Messages[0].Content)
	assert.Equal(t, "assistant", sent.Messages[1].Role)
	assert.Equal(t, "user", sent.Messages[2].Role)
	assert.Equal(t, "Gut, danke.", sent.Messages[2].Content)
}

func TestOpenAIChatCapabilities(t *testing.T) {
	p := NewOpenAIChat("k")
	assert.Equal(t, FamilyOpenAI, p.Family())
	assert.Equal(t, DeltaChunks, p.Mode())
	assert.NoError(t, p.Close())
}
