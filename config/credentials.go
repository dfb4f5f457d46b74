package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// MissingCredentialError means a provider family cannot be used this session.
type MissingCredentialError struct {
	Provider string
	EnvVar   string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("%s credential missing: %s is not set", e.Provider, e.EnvVar)
}

type Credentials struct {
	OpenAIKey     string
	AnthropicKey  string
	GoogleProject string
}

var credentialVars = []struct {
	provider string
	envVar   string
	set      func(*Credentials, string)
}{
	{"openai", "OPENAI_API_KEY", func(c *Credentials, v string) { c.OpenAIKey = v }},
	{"anthropic", "ANTHROPIC_API_KEY", func(c *Credentials, v string) { c.AnthropicKey = v }},
	{"gemini", "GOOGLE_CLOUD_PROJECT", func(c *Credentials, v string) { c.GoogleProject = v }},
}

// LoadCredentials reads one credential per provider family. The returned
// error joins a *MissingCredentialError for every absent value; the
// credentials that were found are returned either way.
func LoadCredentials() (Credentials, error) {
	var c Credentials
	var errs []error
	for _, cv := range credentialVars {
		v := strings.TrimSpace(os.Getenv(cv.envVar))
		if v == "" {
			errs = append(errs, &MissingCredentialError{Provider: cv.provider, EnvVar: cv.envVar})
			continue
		}
		cv.set(&c, v)
	}
	return c, errors.Join(errs...)
}

// MissingFor returns the MissingCredentialError for provider inside err, if any.
func MissingFor(err error, provider string) *MissingCredentialError {
	if err == nil {
		return nil
	}
	var list []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		list = joined.Unwrap()
	} else {
		list = []error{err}
	}
	for _, e := range list {
		var mce *MissingCredentialError
		if errors.As(e, &mce) && mce.Provider == provider {
			return mce
		}
	}
	return nil
}
