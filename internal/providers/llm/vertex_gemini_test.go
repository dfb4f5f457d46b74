package llm

import (
	"testing"

	vertexgenai "cloud.google.com/go/vertexai/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/sprachpartner/internal/models"
)

func TestGeminiPromptIgnoresHistory(t *testing.T) {
	req := Request{
		System:    "sys",
		History:   []models.HistoryEntry{{Role: models.RoleUser, Content: "earlier"}},
		Utterance: "Was machst du gern?",
	}
	assert.Equal(t, "Was machst du gern?", geminiPrompt(req))
}

func TestBindSystemInstructionOnModel(t *testing.T) {
	m := &vertexgenai.GenerativeModel{}

	bindSystemInstruction(m, "sys", 512)

	require.NotNil(t, m.SystemInstruction)
	require.Len(t, m.SystemInstruction.Parts, 1)
	assert.Equal(t, vertexgenai.Text("sys"), m.SystemInstruction.Parts[0])
	require.NotNil(t, m.MaxOutputTokens)
	assert.Equal(t, int32(512), *m.MaxOutputTokens)
}

func TestResponseTextConcatenatesParts(t *testing.T) {
	resp := &vertexgenai.GenerateContentResponse{
		Candidates: []*vertexgenai.Candidate{
			{Content: &vertexgenai.Content{Parts: []vertexgenai.Part{vertexgenai.Text("Hal"), vertexgenai.Text("lo")}}},
			{Content: nil},
		},
	}
	assert.Equal(t, "Hallo", responseText(resp))
	assert.Equal(t, "", responseText(nil))
	assert.Equal(t, "", responseText(&vertexgenai.GenerateContentResponse{}))
}
