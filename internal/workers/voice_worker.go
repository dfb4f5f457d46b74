package workers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yoockh/sprachpartner/internal/events"
	"github.com/yoockh/sprachpartner/internal/models"
	"github.com/yoockh/sprachpartner/internal/providers/stt"
	"github.com/yoockh/sprachpartner/internal/services"
	"github.com/yoockh/sprachpartner/internal/utils"
)

const (
	DefaultStream = "voice:stream"
	DefaultGroup  = "voice-workers"
)

// VoiceWorkerPool consumes spoken turns from a Redis stream: transcribe,
// run the turn, publish the events for the session's WebSocket.
type VoiceWorkerPool struct {
	Redis      *redis.Client
	Publisher  events.Publisher
	Tutor      services.TutorService
	STT        stt.Provider
	NumWorkers int
	Language   string

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

func (p *VoiceWorkerPool) defaults() error {
	if p.Redis == nil || p.Tutor == nil || p.STT == nil {
		return errors.New("VoiceWorkerPool missing dependency: Redis/Tutor/STT must be set")
	}
	if p.Publisher == nil {
		p.Publisher = events.NewRedisPublisher(p.Redis)
	}
	if p.Stream == "" {
		p.Stream = DefaultStream
	}
	if p.Group == "" {
		p.Group = DefaultGroup
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 2
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}
	return nil
}

// Run blocks until ctx is cancelled.
func (p *VoiceWorkerPool) Run(ctx context.Context) error {
	if err := p.defaults(); err != nil {
		return err
	}

	err := p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		g.Go(func() error {
			p.runConsumer(ctx, consumer)
			return nil
		})
	}
	p.Logger.WithFields(logrus.Fields{"stream": p.Stream, "workers": p.NumWorkers}).Info("voice workers started")
	return g.Wait()
}

func (p *VoiceWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		if ctx.Err() != nil {
			return
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			p.Logger.WithError(err).WithField("consumer", consumer).Warn("xreadgroup failed")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handle(ctx, msg.ID, msg.Values)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

// VoiceTurn is the stream entry written by the WebSocket handler.
type VoiceTurn struct {
	SessionID   string
	TurnID      string
	AudioBase64 string
	Language    string
	History     []models.HistoryEntry
	Verbose     *bool
	Level       string
	Model       string
	Topic       string
}

// Values flattens t into Redis stream fields.
func (t VoiceTurn) Values() map[string]any {
	history, _ := json.Marshal(t.History)
	v := map[string]any{
		"session_id":   t.SessionID,
		"turn_id":      t.TurnID,
		"audio_base64": t.AudioBase64,
		"language":     t.Language,
		"history":      string(history),
		"level":        t.Level,
		"model":        t.Model,
		"topic":        t.Topic,
		"ts_unix":      strconv.FormatInt(time.Now().UTC().Unix(), 10),
	}
	if t.Verbose != nil {
		v["verbose"] = strconv.FormatBool(*t.Verbose)
	}
	return v
}

func parseVoiceTurn(values map[string]any) VoiceTurn {
	getStr := func(k string) string {
		s, _ := values[k].(string)
		return s
	}

	t := VoiceTurn{
		SessionID:   getStr("session_id"),
		TurnID:      getStr("turn_id"),
		AudioBase64: getStr("audio_base64"),
		Language:    getStr("language"),
		Level:       getStr("level"),
		Model:       getStr("model"),
		Topic:       getStr("topic"),
	}
	if raw := getStr("history"); raw != "" {
		var h []models.HistoryEntry
		if json.Unmarshal([]byte(raw), &h) == nil {
			t.History = h
		}
	}
	if b, err := strconv.ParseBool(getStr("verbose")); err == nil {
		t.Verbose = &b
	}
	return t
}

func decodeAudio(b64 string) ([]byte, error) {
	raw := b64
	if i := strings.Index(raw, ","); i >= 0 {
		raw = raw[i+1:] // strip data:...;base64,
	}
	audio, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		return nil, errors.New("empty audio")
	}
	return audio, nil
}

func (p *VoiceWorkerPool) handle(ctx context.Context, redisID string, values map[string]any) {
	const op = "VoiceWorker.Handle"

	t := parseVoiceTurn(values)
	if t.SessionID == "" {
		return
	}

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id":   redisID,
		"session_id": t.SessionID,
		"turn_id":    t.TurnID,
	})
	publish := func(e events.Event) error {
		return p.Publisher.Publish(ctx, t.SessionID, e)
	}

	audio, err := decodeAudio(t.AudioBase64)
	if err != nil {
		log.WithError(err).Warn("audio decode failed")
		_ = publish(events.Failure(t.TurnID, utils.E(utils.CodeInvalidArgument, op, "invalid audio_base64", err)))
		return
	}

	language := t.Language
	if language == "" {
		language = p.Language
	}
	language = stt.NormalizeLanguage(language)

	_ = publish(events.Status(t.TurnID, "processing", "stt processing"))
	text, conf, err := p.STT.Transcribe(ctx, audio, language)
	if err != nil {
		log.WithError(err).Error("stt failed")
		_ = publish(events.Failure(t.TurnID, utils.E(utils.CodeUnavailable, op, "speech recognition failed, please try again", err)))
		return
	}
	_ = publish(events.Event{Type: events.TypeSTTResult, TurnID: t.TurnID, Text: text, Confidence: conf})

	reply, err := p.Tutor.Submit(ctx, services.TurnInput{
		SessionID: t.SessionID,
		Utterance: text,
		History:   t.History,
		Verbose:   t.Verbose,
		Level:     t.Level,
		Model:     t.Model,
		Topic:     t.Topic,
	})
	if err != nil {
		log.WithError(err).Warn("turn rejected")
		_ = publish(events.Failure(t.TurnID, err))
		return
	}

	_ = publish(events.Status(t.TurnID, "processing", "llm processing"))
	if err := services.Relay(reply, t.TurnID, publish); err != nil {
		log.WithError(err).Error("llm stream failed")
		_ = publish(events.Status(t.TurnID, "failed", "turn failed"))
		return
	}
	_ = publish(events.Status(t.TurnID, "done", "turn processed"))
}
