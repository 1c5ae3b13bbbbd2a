package repository

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"lingotrack/internal/database"
	"lingotrack/internal/logging"
	"lingotrack/internal/models"
	"lingotrack/internal/wordid"
)

func openTestStores(t *testing.T) *database.Stores {
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
	return stores
}

func TestContentEnsureExistsAndGet(t *testing.T) {
	stores := openTestStores(t)
	repo := NewContentRepository(stores.Content)

	words := []string{"Hund", "Katze"}
	if err := repo.EnsureExists(words, "de", "en"); err != nil {
		t.Fatalf("EnsureExists failed: %v", err)
	}
	// Running it again must not error or duplicate
	if err := repo.EnsureExists(words, "de", "en"); err != nil {
		t.Fatalf("Second EnsureExists failed: %v", err)
	}

	hash := wordid.Compute("Hund", "de", "en")
	entry, err := repo.Get(hash)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry.Word != "Hund" || entry.Language != "de" || entry.NativeLang != "en" {
		t.Errorf("Get returned wrong entry: %+v", entry)
	}
	if entry.Complete() {
		t.Error("placeholder entry should not be complete")
	}

	if _, err := repo.Get("no-such-hash"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) = %v, want ErrNotFound", err)
	}
}

func TestContentUpsertIsNonDestructive(t *testing.T) {
	stores := openTestStores(t)
	repo := NewContentRepository(stores.Content)

	full := &models.WordContent{
		Word:        "Hund",
		Language:    "de",
		NativeLang:  "en",
		Translation: "dog",
		Example:     "Der Hund bellt.",
		Lemma:       "Hund",
		Gender:      "masc",
		Plural:      "Hunde",
	}
	if err := repo.Upsert(full); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	// A later writer with partial data must not blank out stored fields,
	// while its non-empty fields still land
	partial := &models.WordContent{
		Word:         "Hund",
		Language:     "de",
		NativeLang:   "en",
		IPA:          "hʊnt",
		Gender:       "none",
		PartOfSpeech: "NOUN",
	}
	if err := repo.Upsert(partial); err != nil {
		t.Fatalf("Partial upsert failed: %v", err)
	}

	entry, err := repo.Get(wordid.Compute("Hund", "de", "en"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry.Translation != "dog" || entry.PartOfSpeech != "NOUN" || entry.Plural != "Hunde" {
		t.Errorf("Partial upsert destroyed stored fields: %+v", entry)
	}
	if entry.Gender != "masc" {
		t.Errorf("Gender = %q, incoming 'none' should not overwrite 'masc'", entry.Gender)
	}
	if entry.IPA != "hʊnt" {
		t.Errorf("IPA = %q, new field should have been stored", entry.IPA)
	}
}

func TestContentGetByHashes(t *testing.T) {
	stores := openTestStores(t)
	repo := NewContentRepository(stores.Content)

	if err := repo.EnsureExists([]string{"eins", "zwei"}, "de", "en"); err != nil {
		t.Fatalf("EnsureExists failed: %v", err)
	}

	hashes := wordid.ComputeAll([]string{"eins", "zwei", "drei"}, "de", "en")
	result, err := repo.GetByHashes(hashes)
	if err != nil {
		t.Fatalf("GetByHashes failed: %v", err)
	}
	if len(result) != 2 {
		t.Errorf("GetByHashes returned %d entries, want 2 (missing words absent)", len(result))
	}
}

func TestFamiliarityAdjustClampsRange(t *testing.T) {
	stores := openTestStores(t)
	repo := NewFamiliarityRepository(stores.User)
	hash := wordid.Compute("Hund", "de", "en")

	// Upward past the cap
	var level float64
	var err error
	for i := 0; i < 8; i++ {
		level, err = repo.Adjust(1, hash, 1, AdjustOptions{SeenDelta: 1})
		if err != nil {
			t.Fatalf("Adjust failed: %v", err)
		}
	}
	if level != 5 {
		t.Errorf("level after 8 increments = %v, want clamp at 5", level)
	}

	// Downward past the floor
	for i := 0; i < 10; i++ {
		level, err = repo.Adjust(1, hash, -1, AdjustOptions{})
		if err != nil {
			t.Fatalf("Adjust failed: %v", err)
		}
	}
	if level != 0 {
		t.Errorf("level after 10 decrements = %v, want clamp at 0", level)
	}
}

func TestFamiliarityHalfPointDeltas(t *testing.T) {
	stores := openTestStores(t)
	repo := NewFamiliarityRepository(stores.User)
	hash := wordid.Compute("Katze", "de", "en")

	level, err := repo.Adjust(1, hash, 0.5, AdjustOptions{SeenDelta: 1, CorrectDelta: 1})
	if err != nil {
		t.Fatalf("Adjust failed: %v", err)
	}
	if level != 0.5 {
		t.Errorf("level = %v, want 0.5", level)
	}

	rec, err := repo.Get(1, hash)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec.Bucket() != 0 {
		t.Errorf("Bucket() = %d for level 0.5, want 0", rec.Bucket())
	}
	if rec.SeenCount != 1 || rec.CorrectCount != 1 {
		t.Errorf("counters = %d/%d, want 1/1", rec.SeenCount, rec.CorrectCount)
	}
}

func TestFamiliarityCommentOnlySetWhenProvided(t *testing.T) {
	stores := openTestStores(t)
	repo := NewFamiliarityRepository(stores.User)
	hash := wordid.Compute("Haus", "de", "en")

	comment := "confuses with Hose"
	if _, err := repo.Adjust(1, hash, 1, AdjustOptions{Comment: &comment}); err != nil {
		t.Fatalf("Adjust failed: %v", err)
	}
	// A later adjustment without a comment must keep the stored one
	if _, err := repo.Adjust(1, hash, 1, AdjustOptions{}); err != nil {
		t.Fatalf("Adjust failed: %v", err)
	}

	rec, err := repo.Get(1, hash)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec.Comment != comment {
		t.Errorf("Comment = %q, want %q", rec.Comment, comment)
	}
}

func TestBulkCountsAlwaysSumToWordCount(t *testing.T) {
	stores := openTestStores(t)
	repo := NewFamiliarityRepository(stores.User)

	graded := wordid.Compute("eins", "de", "en")
	if _, err := repo.Adjust(7, graded, 3, AdjustOptions{}); err != nil {
		t.Fatalf("Adjust failed: %v", err)
	}

	hashes := []string{
		graded,
		wordid.Compute("zwei", "de", "en"), // never graded, counts as bucket 0
		wordid.Compute("drei", "de", "en"),
		graded, // duplicate, must count once
	}

	counts, err := repo.BulkCounts(7, hashes)
	if err != nil {
		t.Fatalf("BulkCounts failed: %v", err)
	}

	for bucket := 0; bucket <= 5; bucket++ {
		if _, ok := counts[bucket]; !ok {
			t.Errorf("bucket %d missing from result", bucket)
		}
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	if total != 3 {
		t.Errorf("bucket sum = %d, want 3 distinct words", total)
	}
	if counts[3] != 1 || counts[0] != 2 {
		t.Errorf("counts = %v, want bucket 3 = 1 and bucket 0 = 2", counts)
	}
}

func TestBulkCountsEmptyRequest(t *testing.T) {
	stores := openTestStores(t)
	repo := NewFamiliarityRepository(stores.User)

	counts, err := repo.BulkCounts(1, nil)
	if err != nil {
		t.Fatalf("BulkCounts failed: %v", err)
	}
	for bucket := 0; bucket <= 5; bucket++ {
		if counts[bucket] != 0 {
			t.Errorf("bucket %d = %d, want 0", bucket, counts[bucket])
		}
	}
}

func TestUnlockPutReplacesWordSet(t *testing.T) {
	stores := openTestStores(t)
	repo := NewUnlockRepository(stores.User)

	first := &models.LevelUnlock{
		UserID: 1, Language: "de", Level: 2,
		WordHashes: []string{"h1", "h2"},
	}
	if err := repo.Put(first); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	stored, err := repo.Get(1, "de", 2)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	originalUnlockedAt := stored.UnlockedAt

	// Replace with a different set; last write wins, timestamp is retained
	second := &models.LevelUnlock{
		UserID: 1, Language: "de", Level: 2,
		WordHashes: []string{"h3"},
	}
	if err := repo.Put(second); err != nil {
		t.Fatalf("Second Put failed: %v", err)
	}

	stored, err = repo.Get(1, "de", 2)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(stored.WordHashes) != 1 || stored.WordHashes[0] != "h3" {
		t.Errorf("WordHashes = %v, want replacement set [h3]", stored.WordHashes)
	}
	if !stored.UnlockedAt.Equal(originalUnlockedAt) {
		t.Errorf("UnlockedAt changed on replace: %v != %v", stored.UnlockedAt, originalUnlockedAt)
	}
}

func TestUnlockGetMissing(t *testing.T) {
	stores := openTestStores(t)
	repo := NewUnlockRepository(stores.User)

	if _, err := repo.Get(9, "de", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) = %v, want ErrNotFound", err)
	}
}

func TestProgressRefreshPreservesCompletion(t *testing.T) {
	stores := openTestStores(t)
	repo := NewProgressRepository(stores.User)

	completedAt := time.Now()
	if err := repo.SetCompletion(1, "g1", 3, 85, models.StatusCompleted, completedAt); err != nil {
		t.Fatalf("SetCompletion failed: %v", err)
	}

	// A bucket refresh afterwards must not reset score/status/completed_at
	if err := repo.UpsertBuckets(1, "g1", 3, 10, [6]int{4, 2, 1, 1, 1, 1}); err != nil {
		t.Fatalf("UpsertBuckets failed: %v", err)
	}

	entry, err := repo.Get(1, "g1", 3)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if entry.Score != 85 || entry.Status != models.StatusCompleted {
		t.Errorf("refresh reset completion: score=%d status=%s", entry.Score, entry.Status)
	}
	if entry.CompletedAt == nil {
		t.Error("refresh cleared completed_at")
	}
	if entry.TotalWords != 10 || entry.BucketSum() != 10 {
		t.Errorf("buckets not stored: total=%d sum=%d", entry.TotalWords, entry.BucketSum())
	}
}

func TestProgressUserGroups(t *testing.T) {
	stores := openTestStores(t)
	repo := NewProgressRepository(stores.User)

	if err := repo.UpsertBuckets(1, "g1", 1, 5, [6]int{5, 0, 0, 0, 0, 0}); err != nil {
		t.Fatalf("UpsertBuckets failed: %v", err)
	}
	if err := repo.UpsertBuckets(1, "g1", 2, 5, [6]int{5, 0, 0, 0, 0, 0}); err != nil {
		t.Fatalf("UpsertBuckets failed: %v", err)
	}
	if err := repo.UpsertBuckets(2, "g2", 1, 5, [6]int{5, 0, 0, 0, 0, 0}); err != nil {
		t.Fatalf("UpsertBuckets failed: %v", err)
	}

	pairs, err := repo.UserGroups()
	if err != nil {
		t.Fatalf("UserGroups failed: %v", err)
	}
	if len(pairs) != 2 {
		t.Errorf("UserGroups returned %d pairs, want 2 distinct", len(pairs))
	}
}
