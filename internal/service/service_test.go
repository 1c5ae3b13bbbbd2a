package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"lingotrack/internal/database"
	"lingotrack/internal/logging"
	"lingotrack/internal/models"
	"lingotrack/internal/repository"
	"lingotrack/internal/wordid"
)

// stubSource is an in-memory lesson source keyed by level
type stubSource struct {
	language   string
	words      map[int][]string
	failLevels map[int]error
}

func (s *stubSource) Words(groupID string, level int) ([]string, error) {
	if err, ok := s.failLevels[level]; ok {
		return nil, err
	}
	return s.words[level], nil
}

func (s *stubSource) Levels(groupID string) ([]int, error) {
	levels := make([]int, 0, len(s.words))
	for level := range s.words {
		levels = append(levels, level)
	}
	for level := range s.failLevels {
		levels = append(levels, level)
	}
	return levels, nil
}

func (s *stubSource) Language(groupID string) (string, error) {
	return s.language, nil
}

type testEnv struct {
	vocab       *VocabService
	progress    *ProgressService
	familiarity *repository.FamiliarityRepository
	unlocks     *repository.UnlockRepository
	content     *repository.ContentRepository
	source      *stubSource
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	stores, err := database.OpenStores(database.Options{
		Type:          "sqlite",
		ContentDBPath: filepath.Join(dir, "content.db"),
		UserDBPath:    filepath.Join(dir, "users.db"),
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("Failed to open stores: %v", err)
	}
	t.Cleanup(func() { stores.Close() })

	if err := stores.Content.InitContentSchema(); err != nil {
		t.Fatalf("Failed to initialize content schema: %v", err)
	}
	if err := stores.User.InitUserSchema(); err != nil {
		t.Fatalf("Failed to initialize user schema: %v", err)
	}

	contentRepo := repository.NewContentRepository(stores.Content)
	familiarityRepo := repository.NewFamiliarityRepository(stores.User)
	unlockRepo := repository.NewUnlockRepository(stores.User)
	progressRepo := repository.NewProgressRepository(stores.User)

	source := &stubSource{
		language:   "de",
		words:      map[int][]string{},
		failLevels: map[int]error{},
	}

	log := logging.NewNop()
	return &testEnv{
		vocab:       NewVocabService(contentRepo, familiarityRepo, unlockRepo, nil, log),
		progress:    NewProgressService(progressRepo, familiarityRepo, source, "en", log),
		familiarity: familiarityRepo,
		unlocks:     unlockRepo,
		content:     contentRepo,
		source:      source,
	}
}

func TestUnlockLevelEmptyWordList(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.vocab.UnlockLevel(context.Background(), 1, "de", "en", 1, []string{"  ", "...", ""})
	if !errors.Is(err, ErrEmptyWordList) {
		t.Errorf("UnlockLevel with no usable words = %v, want ErrEmptyWordList", err)
	}
}

func TestUnlockLevelCreatesRecords(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	unlock, err := env.vocab.UnlockLevel(ctx, 1, "de", "en", 1, []string{"Hund.", "Katze,", "Hund"})
	if err != nil {
		t.Fatalf("UnlockLevel failed: %v", err)
	}
	if len(unlock.WordHashes) != 2 {
		t.Fatalf("unlock carries %d hashes, want 2 after normalization", len(unlock.WordHashes))
	}

	// Every unlocked word has a content entry and a zero familiarity record
	for _, word := range []string{"Hund", "Katze"} {
		hash := wordid.Compute(word, "de", "en")
		if _, err := env.content.Get(hash); err != nil {
			t.Errorf("content entry for %q missing: %v", word, err)
		}
		rec, err := env.familiarity.Get(1, hash)
		if err != nil {
			t.Errorf("familiarity record for %q missing: %v", word, err)
			continue
		}
		if rec.Familiarity != 0 {
			t.Errorf("familiarity for %q = %v, want 0", word, rec.Familiarity)
		}
	}
}

func TestUnlockLevelIdempotentAndPreservesFamiliarity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.vocab.UnlockLevel(ctx, 1, "de", "en", 1, []string{"Hund", "Katze"}); err != nil {
		t.Fatalf("UnlockLevel failed: %v", err)
	}

	// Grade one word, then repeat the unlock with the same set in a
	// different order
	if _, err := env.vocab.AdjustFamiliarity(1, "Hund", "de", "en", 3, repository.AdjustOptions{}); err != nil {
		t.Fatalf("AdjustFamiliarity failed: %v", err)
	}
	if _, err := env.vocab.UnlockLevel(ctx, 1, "de", "en", 1, []string{"Katze", "Hund."}); err != nil {
		t.Fatalf("Repeated UnlockLevel failed: %v", err)
	}

	rec, err := env.vocab.GetFamiliarity(1, "Hund", "de", "en")
	if err != nil {
		t.Fatalf("GetFamiliarity failed: %v", err)
	}
	if rec.Familiarity != 3 {
		t.Errorf("repeated unlock reset familiarity: %v, want 3", rec.Familiarity)
	}
}

func TestUnlockLevelReplacesWordSet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.vocab.UnlockLevel(ctx, 1, "de", "en", 2, []string{"eins", "zwei"}); err != nil {
		t.Fatalf("UnlockLevel failed: %v", err)
	}
	unlock, err := env.vocab.UnlockLevel(ctx, 1, "de", "en", 2, []string{"drei"})
	if err != nil {
		t.Fatalf("Replacing UnlockLevel failed: %v", err)
	}

	want := wordid.Compute("drei", "de", "en")
	if len(unlock.WordHashes) != 1 || unlock.WordHashes[0] != want {
		t.Errorf("unlock set = %v, want replacement [%s]", unlock.WordHashes, want)
	}

	stored, err := env.unlocks.Get(1, "de", 2)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !stored.SameWordSet([]string{want}) {
		t.Errorf("stored set = %v, want [%s]", stored.WordHashes, want)
	}
}

func TestGetProgressMissTriggersRefresh(t *testing.T) {
	env := newTestEnv(t)
	env.source.words[1] = []string{"Hund", "Katze", "Haus"}

	// Grade one word to level 2 before the first read
	hash := wordid.Compute("Hund", "de", "en")
	if _, err := env.familiarity.Adjust(1, hash, 2, repository.AdjustOptions{}); err != nil {
		t.Fatalf("Adjust failed: %v", err)
	}

	entry, err := env.progress.GetProgress(1, "g1", 1)
	if err != nil {
		t.Fatalf("GetProgress failed: %v", err)
	}
	if entry.TotalWords != 3 {
		t.Errorf("TotalWords = %d, want 3", entry.TotalWords)
	}
	if entry.BucketSum() != entry.TotalWords {
		t.Errorf("bucket sum %d != total words %d", entry.BucketSum(), entry.TotalWords)
	}
	if entry.Buckets[2] != 1 || entry.Buckets[0] != 2 {
		t.Errorf("buckets = %v, want one word in bucket 2 and two in bucket 0", entry.Buckets)
	}
}

func TestRefreshBucketDistribution(t *testing.T) {
	env := newTestEnv(t)

	words := []string{"w1", "w2", "w3", "w4", "w5", "w6", "w7", "w8", "w9", "w10"}
	env.source.words[2] = words

	// Three words at familiarity 5, two at 3, five never seen
	for _, w := range words[:3] {
		hash := wordid.Compute(w, "de", "en")
		if _, err := env.familiarity.Adjust(42, hash, 5, repository.AdjustOptions{}); err != nil {
			t.Fatalf("Adjust failed: %v", err)
		}
	}
	for _, w := range words[3:5] {
		hash := wordid.Compute(w, "de", "en")
		if _, err := env.familiarity.Adjust(42, hash, 3, repository.AdjustOptions{}); err != nil {
			t.Fatalf("Adjust failed: %v", err)
		}
	}

	if err := env.progress.Refresh(42, "g7", 2); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	entry, err := env.progress.GetProgress(42, "g7", 2)
	if err != nil {
		t.Fatalf("GetProgress failed: %v", err)
	}
	want := [6]int{5, 0, 0, 2, 0, 3}
	if entry.Buckets != want {
		t.Errorf("buckets = %v, want %v", entry.Buckets, want)
	}
	if entry.TotalWords != 10 {
		t.Errorf("TotalWords = %d, want 10", entry.TotalWords)
	}
}

func TestGetProgressUnknownLevelReturnsZeroedEntry(t *testing.T) {
	env := newTestEnv(t)

	entry, err := env.progress.GetProgress(1, "g1", 9)
	if err != nil {
		t.Fatalf("GetProgress failed: %v", err)
	}
	if entry.Status != models.StatusNotStarted || entry.TotalWords != 0 {
		t.Errorf("entry = %+v, want zeroed not_started", entry)
	}
}

func TestCompleteThresholds(t *testing.T) {
	env := newTestEnv(t)
	env.source.words[1] = []string{"Hund"}

	tests := []struct {
		raw        float64
		wantScore  int
		wantStatus string
	}{
		{0.59, 59, models.StatusInProgress},
		{0.60, 60, models.StatusCompleted},
		{75, 75, models.StatusCompleted},
	}

	for i, tt := range tests {
		entry, err := env.progress.Complete(int64(i+1), "g1", 1, tt.raw)
		if err != nil {
			t.Fatalf("Complete(%v) failed: %v", tt.raw, err)
		}
		if entry.Score != tt.wantScore || entry.Status != tt.wantStatus {
			t.Errorf("Complete(%v) = score %d status %s, want %d %s",
				tt.raw, entry.Score, entry.Status, tt.wantScore, tt.wantStatus)
		}
		if tt.wantStatus == models.StatusCompleted && entry.CompletedAt == nil {
			t.Errorf("Complete(%v) left completed_at unset", tt.raw)
		}
	}
}

func TestRefreshDoesNotResetCompletion(t *testing.T) {
	env := newTestEnv(t)
	env.source.words[1] = []string{"Hund", "Katze"}

	if _, err := env.progress.Complete(1, "g1", 1, 0.85); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if err := env.progress.Refresh(1, "g1", 1); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	entry, err := env.progress.GetProgress(1, "g1", 1)
	if err != nil {
		t.Fatalf("GetProgress failed: %v", err)
	}
	if entry.Score != 85 || entry.Status != models.StatusCompleted {
		t.Errorf("refresh reset completion: score=%d status=%s", entry.Score, entry.Status)
	}
}

func TestRefreshGroupSucceedsWithFailedLevels(t *testing.T) {
	env := newTestEnv(t)
	env.source.words[1] = []string{"Hund"}
	env.source.failLevels[2] = fmt.Errorf("word list unavailable")

	// One refreshed level is enough for the group refresh to count as a
	// success; the broken level only shows up in the diagnostics map
	failed, err := env.progress.RefreshGroup(1, "g1")
	if err != nil {
		t.Fatalf("RefreshGroup with one healthy level = %v, want nil", err)
	}
	if _, ok := failed[2]; !ok || len(failed) != 1 {
		t.Errorf("failed levels = %v, want only level 2", failed)
	}

	// The healthy level was still refreshed
	entry, err := env.progress.GetProgress(1, "g1", 1)
	if err != nil {
		t.Fatalf("GetProgress failed: %v", err)
	}
	if entry.TotalWords != 1 {
		t.Errorf("level 1 not refreshed, TotalWords = %d", entry.TotalWords)
	}
}

func TestRefreshGroupFailsWhenNoLevelRefreshes(t *testing.T) {
	env := newTestEnv(t)
	env.source.failLevels[1] = fmt.Errorf("word list unavailable")
	env.source.failLevels[2] = fmt.Errorf("word list unavailable")

	failed, err := env.progress.RefreshGroup(1, "g1")
	if err == nil {
		t.Fatal("RefreshGroup with every level failing returned nil error")
	}
	if len(failed) != 2 {
		t.Errorf("failed levels = %v, want both levels", failed)
	}
}
