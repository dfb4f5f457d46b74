package prompt

import (
	"fmt"
	"strings"
)

const Base = "This assistant helps users practice conversational German in a friendly, supportive way. " +
	"It adapts to the user's level, offers corrections when asked, and keeps the tone light and encouraging. " +
	"The assistant may switch between English and German as needed. Please start the conversation by asking the " +
	"user a question in German. If the user says 'bye' or 'tschüss', end the conversation and say goodbye to the " +
	"user in German. Also correct any mistakes the user makes."

const VerboseClause = " Also please show responses in both German and English."

const DefaultVerbose = true

type Options struct {
	Verbose bool
	Level   Level
	Topic   string
}

// Build assembles the system instruction for one turn.
func Build(o Options) string {
	level := o.Level
	if level == "" {
		level = DefaultLevel
	}

	var b strings.Builder
	b.WriteString(Base)
	if o.Verbose {
		b.WriteString(VerboseClause)
	}
	fmt.Fprintf(&b, " Please use the CEFR level %s for vocabulary and grammar.", level)
	if topic := strings.TrimSpace(o.Topic); topic != "" {
		fmt.Fprintf(&b, " Keep the conversation focused on this topic: %s.", topic)
	}
	return b.String()
}
