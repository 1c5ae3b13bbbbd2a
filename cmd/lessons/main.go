package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"lingotrack/internal/audio"
	"lingotrack/internal/config"
	"lingotrack/internal/database"
	"lingotrack/internal/enrichment"
	"lingotrack/internal/lesson"
	"lingotrack/internal/logging"
	"lingotrack/internal/repository"
	"lingotrack/internal/service"
)

// app bundles everything the subcommands need
type app struct {
	cfg      *config.Config
	log      *logging.Logger
	stores   *database.Stores
	importer *lesson.Importer
	vocab    *service.VocabService
	progress *service.ProgressService
}

func main() {
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importFile := importCmd.String("file", "", "Workbook path (default: LESSONS_PATH)")
	importGroup := importCmd.String("group", "", "Lesson group id (required)")
	importLang := importCmd.String("lang", "", "Language of the material (required)")

	unlockCmd := flag.NewFlagSet("unlock", flag.ExitOnError)
	unlockUser := unlockCmd.Int64("user", 0, "User id (required)")
	unlockGroup := unlockCmd.String("group", "", "Lesson group id (required)")
	unlockLevel := unlockCmd.Int("level", 0, "Level number (required)")

	progressCmd := flag.NewFlagSet("progress", flag.ExitOnError)
	progressUser := progressCmd.Int64("user", 0, "User id (required)")
	progressGroup := progressCmd.String("group", "", "Lesson group id (required)")
	progressLevel := progressCmd.Int("level", 0, "Level number (required)")

	completeCmd := flag.NewFlagSet("complete", flag.ExitOnError)
	completeUser := completeCmd.Int64("user", 0, "User id (required)")
	completeGroup := completeCmd.String("group", "", "Lesson group id (required)")
	completeLevel := completeCmd.Int("level", 0, "Level number (required)")
	completeScore := completeCmd.Float64("score", 0, "Raw score, fraction or percent")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	a, err := setup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "setup failed: %v\n", err)
		os.Exit(1)
	}
	defer a.stores.Close()
	defer a.log.Sync()

	switch os.Args[1] {
	case "import":
		importCmd.Parse(os.Args[2:])
		a.handleImport(*importFile, *importGroup, *importLang)

	case "unlock":
		unlockCmd.Parse(os.Args[2:])
		a.handleUnlock(*unlockUser, *unlockGroup, *unlockLevel)

	case "progress":
		progressCmd.Parse(os.Args[2:])
		a.handleProgress(*progressUser, *progressGroup, *progressLevel)

	case "complete":
		completeCmd.Parse(os.Args[2:])
		a.handleComplete(*completeUser, *completeGroup, *completeLevel, *completeScore)

	default:
		printUsage()
		os.Exit(1)
	}
}

func setup() (*app, error) {
	cfg := config.Load()

	log, err := logging.New(cfg.LogMode)
	if err != nil {
		return nil, err
	}

	stores, err := database.OpenStores(database.Options{
		Type:          cfg.DatabaseType,
		URL:           cfg.DatabaseURL,
		ContentDBPath: cfg.ContentDBPath,
		UserDBPath:    cfg.UserDBPath,
	}, log)
	if err != nil {
		return nil, err
	}

	if err := stores.Content.InitContentSchema(); err != nil {
		stores.Close()
		return nil, err
	}
	if err := stores.User.InitUserSchema(); err != nil {
		stores.Close()
		return nil, err
	}

	contentRepo := repository.NewContentRepository(stores.Content)
	familiarityRepo := repository.NewFamiliarityRepository(stores.User)
	unlockRepo := repository.NewUnlockRepository(stores.User)
	progressRepo := repository.NewProgressRepository(stores.User)
	lessonStore := lesson.NewStore(stores.Content)

	var oracle enrichment.Oracle
	if cfg.OpenAIKey != "" {
		oracle = enrichment.NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIModel, cfg.EnrichTimeout)
	}
	enricher := enrichment.NewEnricher(oracle, contentRepo, audio.NewService(cfg.AudioDir), log,
		cfg.EnrichBatchSize, cfg.EnrichWorkers)

	return &app{
		cfg:      cfg,
		log:      log,
		stores:   stores,
		importer: lesson.NewImporter(stores.Content),
		vocab:    service.NewVocabService(contentRepo, familiarityRepo, unlockRepo, enricher, log),
		progress: service.NewProgressService(progressRepo, familiarityRepo, lessonStore, cfg.NativeLanguage, log),
	}, nil
}

func (a *app) handleImport(file, group, language string) {
	if file == "" {
		file = a.cfg.LessonsPath
	}
	if group == "" || language == "" {
		fmt.Fprintln(os.Stderr, "Error: -group and -lang flags are required")
		os.Exit(1)
	}

	importCfg := lesson.DefaultImportConfig()
	importCfg.FilePath = file
	importCfg.GroupID = group
	importCfg.Language = language

	result, err := a.importer.Import(importCfg)
	if err != nil {
		a.log.Fatal("import failed", "file", file, "error", err)
	}

	a.log.Info("import finished",
		"file", file, "processed", result.TotalProcessed,
		"imported", result.Imported, "skipped", result.Skipped)
	for _, e := range result.Errors {
		a.log.Warn("import row skipped", "detail", e)
	}
}

func (a *app) handleUnlock(userID int64, group string, level int) {
	if userID == 0 || group == "" || level == 0 {
		fmt.Fprintln(os.Stderr, "Error: -user, -group and -level flags are required")
		os.Exit(1)
	}

	store := lesson.NewStore(a.stores.Content)
	language, err := store.Language(group)
	if err != nil {
		a.log.Fatal("unlock failed", "group", group, "error", err)
	}
	words, err := store.Words(group, level)
	if err != nil {
		a.log.Fatal("unlock failed", "group", group, "level", level, "error", err)
	}

	unlock, err := a.vocab.UnlockLevel(context.Background(), userID, language, a.cfg.NativeLanguage, level, words)
	if err != nil {
		a.log.Fatal("unlock failed", "user", userID, "level", level, "error", err)
	}
	a.log.Info("level unlocked", "user", userID, "level", level, "words", len(unlock.WordHashes))
}

func (a *app) handleProgress(userID int64, group string, level int) {
	if userID == 0 || group == "" || level == 0 {
		fmt.Fprintln(os.Stderr, "Error: -user, -group and -level flags are required")
		os.Exit(1)
	}

	entry, err := a.progress.GetProgress(userID, group, level)
	if err != nil {
		a.log.Fatal("progress lookup failed", "error", err)
	}

	buckets := make([]string, len(entry.Buckets))
	for i, n := range entry.Buckets {
		buckets[i] = fmt.Sprintf("%d:%d", i, n)
	}
	fmt.Printf("user=%d group=%s level=%d words=%d status=%s score=%d buckets=[%s]\n",
		userID, group, level, entry.TotalWords, entry.Status, entry.Score,
		strings.Join(buckets, " "))
}

func (a *app) handleComplete(userID int64, group string, level int, score float64) {
	if userID == 0 || group == "" || level == 0 {
		fmt.Fprintln(os.Stderr, "Error: -user, -group and -level flags are required")
		os.Exit(1)
	}

	entry, err := a.progress.Complete(userID, group, level, score)
	if err != nil {
		a.log.Fatal("completion failed", "error", err)
	}
	a.log.Info("level completion recorded",
		"user", userID, "group", group, "level", level,
		"score", entry.Score, "status", entry.Status)
}

func printUsage() {
	fmt.Println("LingoTrack lesson administration tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  lessons import   -file <xlsx> -group <id> -lang <code>   Import a lesson workbook")
	fmt.Println("  lessons unlock   -user <id> -group <id> -level <n>       Unlock a level for a user")
	fmt.Println("  lessons progress -user <id> -group <id> -level <n>       Show cached progress")
	fmt.Println("  lessons complete -user <id> -group <id> -level <n> -score <s>")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DB_TYPE          Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  CONTENT_DB_PATH  SQLite content store path (default: ./data/content.db)")
	fmt.Println("  USER_DB_PATH     SQLite user store path (default: ./data/users.db)")
	fmt.Println("  DB_URL           PostgreSQL or MySQL connection URL")
	fmt.Println("  OPENAI_API_KEY   Enables AI enrichment (optional)")
}
