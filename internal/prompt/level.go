package prompt

import (
	"errors"
	"strings"
)

// Level is a CEFR proficiency level.
type Level string

const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
	LevelC1 Level = "C1"
	LevelC2 Level = "C2"
)

const DefaultLevel = LevelA1

var ErrUnknownLevel = errors.New("unknown CEFR level")

type LevelInfo struct {
	Level       Level  `json:"level"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

var levels = []LevelInfo{
	{LevelA1, "A1 (Beginner)", "Basic phrases and everyday expressions. Simple personal details."},
	{LevelA2, "A2 (Elementary)", "Familiar expressions for basic routines. Simple communication about immediate needs."},
	{LevelB1, "B1 (Intermediate)", "Main points on familiar matters. Simple connected text on familiar topics."},
	{LevelB2, "B2 (Upper Intermediate)", "Understanding complex text. Spontaneous interaction with native speakers."},
	{LevelC1, "C1 (Advanced)", "Understanding demanding, longer texts. Expressing ideas fluently and spontaneously."},
	{LevelC2, "C2 (Proficient)", "Understand almost everything heard or read. Can speak in complex situations."},
}

// Levels lists every level from lowest to highest.
func Levels() []LevelInfo {
	out := make([]LevelInfo, len(levels))
	copy(out, levels)
	return out
}

// ParseLevel accepts "b1" as well as UI labels like "B1 (Intermediate)".
// An empty string yields DefaultLevel.
func ParseLevel(s string) (Level, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultLevel, nil
	}
	if i := strings.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}
	l := Level(strings.ToUpper(s))
	for _, info := range levels {
		if info.Level == l {
			return l, nil
		}
	}
	return "", ErrUnknownLevel
}
