package workers

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/sprachpartner/internal/events"
	"github.com/yoockh/sprachpartner/internal/models"
	"github.com/yoockh/sprachpartner/internal/providers/llm"
	"github.com/yoockh/sprachpartner/internal/repositories/memory"
	"github.com/yoockh/sprachpartner/internal/services"
)

type fakeSTT struct {
	text     string
	err      error
	language string
	audio    []byte
}

func (f *fakeSTT) Transcribe(_ context.Context, audio []byte, language string) (string, float64, error) {
	f.audio, f.language = audio, language
	return f.text, 0.92, f.err
}

func (f *fakeSTT) Close() error { return nil }

type fakeLLM struct {
	chunks []string
	calls  int
}

func (f *fakeLLM) Family() llm.Family  { return llm.FamilyOpenAI }
func (f *fakeLLM) Mode() llm.ChunkMode { return llm.DeltaChunks }
func (f *fakeLLM) Close() error        { return nil }

func (f *fakeLLM) StreamAnswer(ctx context.Context, _ llm.Request) (<-chan string, <-chan error) {
	f.calls++
	out := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errs)
		for _, c := range f.chunks {
			select {
			case out <- c:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
	}()
	return out, errs
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	chans  []string
}

func (r *recordingPublisher) Publish(_ context.Context, sessionID string, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	r.chans = append(r.chans, e.Channel(sessionID))
	return nil
}

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func newPool(t *testing.T, speech *fakeSTT, model *fakeLLM) (*VoiceWorkerPool, *recordingPublisher, services.SessionService) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	sessions := services.NewSessionService(memory.NewSessionRepo(), nil, 0, nil)
	pub := &recordingPublisher{}
	return &VoiceWorkerPool{
		Publisher: pub,
		Tutor:     services.NewTutorService(sessions, llm.NewStreamer(model), nil, log),
		STT:       speech,
		Logger:    log,
	}, pub, sessions
}

func audioB64() string {
	return "data:audio/wav;base64," + base64.StdEncoding.EncodeToString([]byte("RIFF....WAVE"))
}

func TestVoiceTurnRoundTrip(t *testing.T) {
	on := true
	in := VoiceTurn{
		SessionID:   "s1",
		TurnID:      "t1",
		AudioBase64: "abc",
		History:     []models.HistoryEntry{{Role: models.RoleUser, Content: "Hallo"}},
		Verbose:     &on,
		Level:       "B1",
	}
	out := parseVoiceTurn(in.Values())
	assert.Equal(t, in.SessionID, out.SessionID)
	assert.Equal(t, in.History, out.History)
	require.NotNil(t, out.Verbose)
	assert.True(t, *out.Verbose)
	assert.Equal(t, "B1", out.Level)

	assert.Nil(t, parseVoiceTurn(VoiceTurn{SessionID: "s1"}.Values()).Verbose)
}

func TestHandleSpokenTurn(t *testing.T) {
	speech := &fakeSTT{text: "Ich heiße Anna"}
	model := &fakeLLM{chunks: []string{"Hallo ", "Anna!"}}
	pool, pub, sessions := newPool(t, speech, model)

	s, err := sessions.Start(context.Background(), services.StartInput{})
	require.NoError(t, err)

	turn := VoiceTurn{SessionID: s.SessionID, TurnID: "t1", AudioBase64: audioB64()}
	pool.handle(context.Background(), "1-0", turn.Values())

	assert.Equal(t, []byte("RIFF....WAVE"), speech.audio)
	assert.Equal(t, "de-DE", speech.language)
	assert.Equal(t, []string{
		events.TypeStatus, events.TypeSTTResult, events.TypeStatus,
		events.TypeChunk, events.TypeChunk, events.TypeComplete, events.TypeStatus,
	}, pub.types())
	assert.Equal(t, "Ich heiße Anna", pub.events[1].Text)
	assert.Equal(t, "Hallo Anna!", pub.events[5].Text)
	assert.Equal(t, events.StatusChannel(s.SessionID), pub.chans[0])
	assert.Equal(t, events.ResponseChannel(s.SessionID), pub.chans[1])
}

func TestHandleSpokenFarewell(t *testing.T) {
	speech := &fakeSTT{text: "Tschüss"}
	model := &fakeLLM{}
	pool, pub, sessions := newPool(t, speech, model)

	s, err := sessions.Start(context.Background(), services.StartInput{})
	require.NoError(t, err)

	pool.handle(context.Background(), "1-0", VoiceTurn{SessionID: s.SessionID, AudioBase64: audioB64()}.Values())

	assert.Contains(t, pub.types(), events.TypeEnded)
	assert.Equal(t, 0, model.calls)
	got, err := sessions.Get(context.Background(), s.SessionID)
	require.NoError(t, err)
	assert.True(t, got.Ended())
}

func TestHandleBadAudio(t *testing.T) {
	speech := &fakeSTT{}
	pool, pub, _ := newPool(t, speech, &fakeLLM{})

	pool.handle(context.Background(), "1-0", VoiceTurn{SessionID: "s1", AudioBase64: "%%%"}.Values())

	require.Equal(t, []string{events.TypeError}, pub.types())
	assert.Equal(t, "invalid audio_base64", pub.events[0].Message)
	assert.Nil(t, speech.audio)
}

func TestHandleSTTFailure(t *testing.T) {
	speech := &fakeSTT{err: errors.New("quota")}
	model := &fakeLLM{}
	pool, pub, _ := newPool(t, speech, model)

	pool.handle(context.Background(), "1-0", VoiceTurn{SessionID: "s1", AudioBase64: audioB64(), Language: "en"}.Values())

	assert.Equal(t, "en-US", speech.language)
	assert.Equal(t, []string{events.TypeStatus, events.TypeError}, pub.types())
	assert.Equal(t, 0, model.calls)
}

func TestRunRequiresDependencies(t *testing.T) {
	err := (&VoiceWorkerPool{}).Run(context.Background())
	assert.Error(t, err)
}
