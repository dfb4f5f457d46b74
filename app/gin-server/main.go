package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yoockh/sprachpartner/config"
	"github.com/yoockh/sprachpartner/internal/api/handlers"
	"github.com/yoockh/sprachpartner/internal/api/middleware"
	"github.com/yoockh/sprachpartner/internal/api/routes"
	"github.com/yoockh/sprachpartner/internal/cache"
	"github.com/yoockh/sprachpartner/internal/logger"
	"github.com/yoockh/sprachpartner/internal/providers/llm"
	"github.com/yoockh/sprachpartner/internal/providers/stt"
	"github.com/yoockh/sprachpartner/internal/repositories/memory"
	mongorepo "github.com/yoockh/sprachpartner/internal/repositories/mongo"
	pgrepo "github.com/yoockh/sprachpartner/internal/repositories/postgres"
	"github.com/yoockh/sprachpartner/internal/services"
	"github.com/yoockh/sprachpartner/internal/workers"
)

func main() {
	_ = godotenv.Load()
	log := logger.New()

	settings, err := config.LoadSettings()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	creds, credErr := config.LoadCredentials()
	if credErr != nil && !settings.AllowPartialProviders {
		log.WithError(credErr).Fatal("provider credentials missing")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	streamer := buildStreamer(ctx, settings, creds, credErr, log)
	defer streamer.Close()
	if err := streamer.SetDefaultModel(settings.DefaultModel); err != nil {
		log.WithError(err).Fatal("TUTOR_DEFAULT_MODEL is not a supported model")
	}

	// Session registry: MongoDB when configured, process memory otherwise
	sessionRepo := memory.NewSessionRepo()
	if settings.MongoURI != "" {
		client, err := config.InitMongo(ctx, settings.MongoURI)
		if err != nil {
			log.WithError(err).Fatal("MongoDB init error")
		}
		defer client.Disconnect(context.Background())

		db := client.Database(settings.MongoDB)
		if err := config.EnsureMongoIndexes(ctx, db); err != nil {
			log.WithError(err).Fatal("MongoDB index error")
		}
		sessionRepo = mongorepo.NewSessionRepo(db)
		log.Info("MongoDB connected")
	}

	var stats services.TurnStatService
	if settings.PostgresURI != "" {
		db, err := config.InitPostgres(settings.PostgresURI)
		if err != nil {
			log.WithError(err).Fatal("PostgreSQL init error")
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		stats = services.NewTurnStatService(pgrepo.NewTurnStatRepo(db))
		log.Info("PostgreSQL connected")
	}

	var rdb *redis.Client
	var sessionCache cache.Cache
	if settings.RedisAddr != "" {
		rdb, err = config.InitRedis(ctx, settings.RedisAddr)
		if err != nil {
			log.WithError(err).Fatal("Redis init error")
		}
		defer rdb.Close()
		sessionCache = cache.NewRedisCache(rdb, "sprachpartner:")
		log.Info("Redis connected")
	}

	sessions := services.NewSessionService(sessionRepo, sessionCache, settings.SessionCacheTTL, streamer)
	tutor := services.NewTutorService(sessions, streamer, stats, log)

	g, gctx := errgroup.WithContext(ctx)

	var voiceRedis *redis.Client
	if settings.VoiceEnabled {
		speech, err := stt.NewGoogleSpeech(ctx)
		if err != nil {
			log.WithError(err).Fatal("speech client init error")
		}
		defer speech.Close()

		pool := &workers.VoiceWorkerPool{
			Redis:      rdb,
			Tutor:      tutor,
			STT:        speech,
			NumWorkers: settings.VoiceWorkers,
			Language:   settings.VoiceLanguage,
			Logger:     log,
		}
		g.Go(func() error { return pool.Run(gctx) })
		voiceRedis = rdb
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	routes.RegisterRoutes(r, routes.Deps{
		Options: handlers.NewOptionsHandler(streamer),
		Session: handlers.NewSessionHandler(sessions),
		Chat:    handlers.NewChatHandler(tutor, log),
		WS:      handlers.NewWSHandler(sessions, tutor, voiceRedis, log),
	})

	srv := &http.Server{
		Addr:              ":" + settings.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		log.WithFields(logrus.Fields{
			"port":      settings.Port,
			"providers": streamer.Available(),
			"voice":     settings.VoiceEnabled,
		}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("server stopped")
		return
	}
	log.Info("server stopped")
}

// buildStreamer creates one handle per provider family with a credential.
// Families without one are disabled so their turns fail with the reason.
func buildStreamer(ctx context.Context, settings config.Settings, creds config.Credentials, credErr error, log *logrus.Logger) *llm.Streamer {
	var providers []llm.Provider
	var geminiErr error

	if creds.OpenAIKey != "" {
		providers = append(providers, llm.NewOpenAIChat(creds.OpenAIKey))
	}
	if creds.AnthropicKey != "" {
		providers = append(providers, llm.NewAnthropicMessages(creds.AnthropicKey, []llm.AnthropicOption{
			llm.WithMaxTokens(int64(settings.MaxTokens)),
			llm.WithHistoryCap(settings.HistoryCap),
		}))
	}
	if creds.GoogleProject != "" {
		gemini, err := llm.NewVertexGemini(ctx, creds.GoogleProject, settings.GoogleLocation, int32(settings.MaxTokens))
		if err != nil && !settings.AllowPartialProviders {
			log.WithError(err).Fatal("Vertex AI init error")
		}
		if err != nil {
			geminiErr = err
		} else {
			providers = append(providers, gemini)
		}
	}

	s := llm.NewStreamer(providers...)
	for _, f := range []llm.Family{llm.FamilyOpenAI, llm.FamilyAnthropic, llm.FamilyGemini} {
		if mce := config.MissingFor(credErr, string(f)); mce != nil {
			s.Disable(f, mce)
			log.WithField("provider", f).WithError(mce).Warn("provider disabled")
		}
	}
	if geminiErr != nil {
		s.Disable(llm.FamilyGemini, geminiErr)
		log.WithField("provider", llm.FamilyGemini).WithError(geminiErr).Warn("provider disabled")
	}
	return s
}
