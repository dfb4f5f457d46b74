package stt

import (
	"context"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
)

type GoogleSpeech struct {
	c *speech.Client

	Encoding     speechpb.RecognitionConfig_AudioEncoding
	SampleRateHz int32
	// Alternates are also accepted, so a learner slipping into English is still transcribed.
	Alternates []string
}

func NewGoogleSpeech(ctx context.Context, opts ...option.ClientOption) (*GoogleSpeech, error) {
	c, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GoogleSpeech{
		c:            c,
		Encoding:     speechpb.RecognitionConfig_LINEAR16,
		SampleRateHz: 16000,
		Alternates:   []string{"en-US"},
	}, nil
}

func (g *GoogleSpeech) Close() error { return g.c.Close() }

func (g *GoogleSpeech) config(language string) *speechpb.RecognitionConfig {
	language = NormalizeLanguage(language)
	var alts []string
	for _, a := range g.Alternates {
		if a != language {
			alts = append(alts, a)
		}
	}
	return &speechpb.RecognitionConfig{
		Encoding:                   g.Encoding,
		SampleRateHertz:            g.SampleRateHz,
		LanguageCode:               language,
		AlternativeLanguageCodes:   alts,
		EnableAutomaticPunctuation: true,
	}
}

// Transcribe returns the most confident alternative.
func (g *GoogleSpeech) Transcribe(ctx context.Context, audio []byte, language string) (string, float64, error) {
	resp, err := g.c.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: g.config(language),
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", 0, err
	}
	return bestAlternative(resp.Results)
}

func bestAlternative(results []*speechpb.SpeechRecognitionResult) (string, float64, error) {
	var bestText string
	var bestConf float64
	for _, r := range results {
		for _, alt := range r.Alternatives {
			if alt.Transcript != "" && float64(alt.Confidence) >= bestConf {
				bestText = alt.Transcript
				bestConf = float64(alt.Confidence)
			}
		}
	}
	return bestText, bestConf, nil
}
