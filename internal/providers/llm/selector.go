package llm

import (
	"fmt"
	"strings"
)

// Family is a provider backend with its own request format.
type Family string

const (
	FamilyOpenAI    Family = "openai"
	FamilyAnthropic Family = "anthropic"
	FamilyGemini    Family = "gemini"
)

func (f Family) Valid() bool {
	switch f {
	case FamilyOpenAI, FamilyAnthropic, FamilyGemini:
		return true
	}
	return false
}

// Selector names the backend and model that handle a turn.
type Selector struct {
	Family Family `json:"family"`
	Model  string `json:"model"`
}

const DefaultModel = "gpt-4o-mini"

var catalog = []Selector{
	{FamilyOpenAI, "gpt-4o-mini"},
	{FamilyAnthropic, "claude-3-5-haiku-latest"},
	{FamilyGemini, "gemini-1.5-flash"},
	{FamilyGemini, "gemini-2.5-flash-lite"},
}

func Models() []Selector {
	out := make([]Selector, len(catalog))
	copy(out, catalog)
	return out
}

type UnsupportedProviderError struct {
	ID string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("unsupported provider %q", e.ID)
}

// ParseSelector resolves a model name from the catalog, or a family name to
// that family's first model. Empty input resolves to DefaultModel.
func ParseSelector(id string) (Selector, error) {
	key := strings.ToLower(strings.TrimSpace(id))
	if key == "" {
		key = DefaultModel
	}
	for _, s := range catalog {
		if s.Model == key {
			return s, nil
		}
	}
	for _, s := range catalog {
		if string(s.Family) == key {
			return s, nil
		}
	}
	return Selector{}, &UnsupportedProviderError{ID: id}
}
