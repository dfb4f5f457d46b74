package stt

import (
	"testing"

	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLanguage(t *testing.T) {
	cases := map[string]string{
		"":      "de-DE",
		"de":    "de-DE",
		"DE-de": "de-DE",
		"en":    "en-US",
		"en-GB": "en-GB",
		"fr-FR": "fr-FR",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeLanguage(in), in)
	}
}

func TestBestAlternative(t *testing.T) {
	results := []*speechpb.SpeechRecognitionResult{
		{Alternatives: []*speechpb.SpeechRecognitionAlternative{
			{Transcript: "ich bin müde", Confidence: 0.62},
			{Transcript: "", Confidence: 0.99},
		}},
		{Alternatives: []*speechpb.SpeechRecognitionAlternative{
			{Transcript: "Ich bin müde.", Confidence: 0.91},
		}},
	}

	text, conf, err := bestAlternative(results)
	require.NoError(t, err)
	assert.Equal(t, "Ich bin müde.", text)
	assert.InDelta(t, 0.91, conf, 0.0001)
}

func TestConfigDropsDuplicateAlternate(t *testing.T) {
	g := &GoogleSpeech{SampleRateHz: 16000, Alternates: []string{"en-US"}}

	cfg := g.config("en")
	assert.Equal(t, "en-US", cfg.LanguageCode)
	assert.Empty(t, cfg.AlternativeLanguageCodes)

	cfg = g.config("")
	assert.Equal(t, "de-DE", cfg.LanguageCode)
	assert.Equal(t, []string{"en-US"}, cfg.AlternativeLanguageCodes)
}
