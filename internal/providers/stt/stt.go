package stt

import (
	"context"
	"strings"
)

const DefaultLanguage = "de-DE"

type Provider interface {
	Transcribe(ctx context.Context, audio []byte, language string) (text string, confidence float64, err error)
	Close() error
}

// NormalizeLanguage maps short codes sent by the widget to BCP-47 tags.
func NormalizeLanguage(v string) string {
	v = strings.TrimSpace(v)
	switch strings.ToLower(v) {
	case "", "de", "de-de":
		return DefaultLanguage
	case "en", "en-us":
		return "en-US"
	case "en-gb":
		return "en-GB"
	default:
		return v
	}
}
