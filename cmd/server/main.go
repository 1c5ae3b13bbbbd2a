package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"lingotrack/internal/audio"
	"lingotrack/internal/config"
	"lingotrack/internal/database"
	"lingotrack/internal/enrichment"
	"lingotrack/internal/lesson"
	"lingotrack/internal/logging"
	"lingotrack/internal/repository"
	"lingotrack/internal/scheduler"
	"lingotrack/internal/service"
)

func main() {
	cfg := config.Load()

	log, err := logging.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Open the content and user stores (shared connection on a server
	// backend, two files on sqlite)
	stores, err := database.OpenStores(database.Options{
		Type:          cfg.DatabaseType,
		URL:           cfg.DatabaseURL,
		ContentDBPath: cfg.ContentDBPath,
		UserDBPath:    cfg.UserDBPath,
	}, log)
	if err != nil {
		log.Fatal("failed to open stores", "error", err)
	}
	defer stores.Close()

	log.Info("database connection established", "driver", stores.Content.Dialect.DriverName())

	if err := stores.Content.InitContentSchema(); err != nil {
		log.Fatal("failed to initialize content schema", "error", err)
	}
	if err := stores.User.InitUserSchema(); err != nil {
		log.Fatal("failed to initialize user schema", "error", err)
	}

	// Repositories
	contentRepo := repository.NewContentRepository(stores.Content)
	familiarityRepo := repository.NewFamiliarityRepository(stores.User)
	progressRepo := repository.NewProgressRepository(stores.User)
	lessonStore := lesson.NewStore(stores.Content)

	// Enrichment: no API key means placeholder mode
	var oracle enrichment.Oracle
	if cfg.OpenAIKey != "" {
		oracle = enrichment.NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIModel, cfg.EnrichTimeout)
	} else {
		log.Warn("OPENAI_API_KEY not set, enrichment runs in placeholder mode")
	}
	ttsService := audio.NewService(cfg.AudioDir)
	enricher := enrichment.NewEnricher(oracle, contentRepo, ttsService, log,
		cfg.EnrichBatchSize, cfg.EnrichWorkers)

	progressService := service.NewProgressService(progressRepo, familiarityRepo, lessonStore,
		cfg.NativeLanguage, log)

	// Warm enrichment for lesson material already in the store
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go warmLessonContent(ctx, enricher, lessonStore, ttsService, cfg.NativeLanguage, log)

	// Background progress-cache sweep
	sweeper := scheduler.New(progressService, progressRepo, cfg.RefreshInterval, log)
	sweeper.Start()
	defer sweeper.Stop()

	log.Info("server started", "refresh_interval", cfg.RefreshInterval)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("server shutting down")
}

// warmLessonContent enriches any incomplete content entries for words the
// lesson store already teaches and synthesizes missing sentence audio, so
// first reads after an import are fast
func warmLessonContent(ctx context.Context, enricher *enrichment.Enricher, store *lesson.Store, tts *audio.Service, nativeLang string, log *logging.Logger) {
	groups, err := store.Groups()
	if err != nil {
		log.Warn("content warm-up failed to list groups", "error", err)
		return
	}

	for _, group := range groups {
		language, err := store.Language(group)
		if err != nil {
			log.Warn("content warm-up failed", "group", group, "error", err)
			continue
		}
		levels, err := store.Levels(group)
		if err != nil {
			log.Warn("content warm-up failed", "group", group, "error", err)
			continue
		}
		for _, level := range levels {
			words, err := store.Words(group, level)
			if err != nil {
				log.Warn("content warm-up failed", "group", group, "level", level, "error", err)
				continue
			}
			if _, err := enricher.EnrichBatch(ctx, words, language, nativeLang, nil); err != nil {
				log.Warn("content warm-up enrichment failed", "group", group, "level", level, "error", err)
			}
			warmSentenceAudio(store, tts, group, language, level, log)
		}
	}
}

// warmSentenceAudio synthesizes audio for sentences that have none yet and
// records the file reference on the sentence row
func warmSentenceAudio(store *lesson.Store, tts *audio.Service, group, language string, level int, log *logging.Logger) {
	sentences, err := store.Sentences(group, level)
	if err != nil {
		log.Warn("sentence audio warm-up failed", "group", group, "level", level, "error", err)
		return
	}

	for _, sentence := range sentences {
		if sentence.AudioFile != "" {
			continue
		}
		filename, err := tts.GenerateSentenceAudio(sentence.Text, language)
		if err != nil {
			log.Warn("sentence audio generation failed",
				"group", group, "level", level, "position", sentence.Position, "error", err)
			continue
		}
		if err := store.SetAudio(group, level, sentence.Position, filename); err != nil {
			log.Warn("failed to record sentence audio",
				"group", group, "level", level, "position", sentence.Position, "error", err)
		}
	}
}
