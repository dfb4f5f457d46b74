package prompt

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var farewells = func() map[string]struct{} {
	m := map[string]struct{}{}
	for _, w := range []string{"bye", "tschüss"} {
		m[fold(w)] = struct{}{}
	}
	return m
}()

// fold normalises to NFC so a decomposed "ü" still matches, then trims and case-folds.
func fold(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}

// IsFarewell reports whether the whole utterance is one of the farewell tokens.
func IsFarewell(utterance string) bool {
	_, ok := farewells[fold(utterance)]
	return ok
}

// Closing is the reply sent when a farewell ends the session.
func Closing(verbose bool) string {
	msg := "Tschüss! Es war schön, mit dir zu üben. Bis zum nächsten Mal!"
	if verbose {
		msg += " (Goodbye! It was nice practising with you. See you next time!)"
	}
	return msg
}
