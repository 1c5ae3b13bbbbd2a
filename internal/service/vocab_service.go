package service

import (
	"context"
	"errors"
	"fmt"

	"lingotrack/internal/enrichment"
	"lingotrack/internal/logging"
	"lingotrack/internal/models"
	"lingotrack/internal/repository"
	"lingotrack/internal/wordid"
)

// ErrEmptyWordList is returned when an unlock request carries no usable words
// after normalization
var ErrEmptyWordList = errors.New("word list is empty")

// VocabService covers the per-user vocabulary lifecycle: unlocking lesson
// levels and grading individual words.
type VocabService struct {
	content     *repository.ContentRepository
	familiarity *repository.FamiliarityRepository
	unlocks     *repository.UnlockRepository
	enricher    *enrichment.Enricher
	log         *logging.Logger
}

// NewVocabService creates a vocabulary service. The enricher may be nil, in
// which case unlocking stores bare entries only.
func NewVocabService(
	content *repository.ContentRepository,
	familiarity *repository.FamiliarityRepository,
	unlocks *repository.UnlockRepository,
	enricher *enrichment.Enricher,
	log *logging.Logger,
) *VocabService {
	return &VocabService{
		content:     content,
		familiarity: familiarity,
		unlocks:     unlocks,
		enricher:    enricher,
		log:         log,
	}
}

// UnlockLevel introduces a lesson level's vocabulary to a user. Content
// entries and zero-familiarity records are created for every word, and the
// set is recorded in the unlock ledger. Repeating an unlock with the same
// word set is a no-op; a different set replaces the recorded one without
// touching familiarity already earned.
func (s *VocabService) UnlockLevel(ctx context.Context, userID int64, language, nativeLanguage string, level int, words []string) (*models.LevelUnlock, error) {
	normalized := wordid.NormalizeAll(words)
	if len(normalized) == 0 {
		return nil, ErrEmptyWordList
	}

	if err := s.content.EnsureExists(normalized, language, nativeLanguage); err != nil {
		return nil, fmt.Errorf("failed to seed content entries: %w", err)
	}

	hashes := wordid.ComputeAll(normalized, language, nativeLanguage)

	existing, err := s.unlocks.Get(userID, language, level)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.SameWordSet(hashes) {
		s.log.Debug("level already unlocked with same word set",
			"user", userID, "language", language, "level", level)
		return existing, nil
	}

	unlock := &models.LevelUnlock{
		UserID:     userID,
		Language:   language,
		Level:      level,
		WordHashes: hashes,
	}
	if err := s.unlocks.Put(unlock); err != nil {
		return nil, err
	}

	for _, hash := range hashes {
		if err := s.familiarity.EnsureRecord(userID, hash); err != nil {
			return nil, err
		}
	}

	if s.enricher != nil {
		if _, err := s.enricher.EnrichBatch(ctx, normalized, language, nativeLanguage, nil); err != nil {
			s.log.Warn("enrichment after unlock failed", "level", level, "error", err)
		}
	}

	s.log.Info("level unlocked",
		"user", userID, "language", language, "level", level, "words", len(normalized))
	return unlock, nil
}

// AdjustFamiliarity applies a grading delta to one word for one user and
// returns the new clamped level
func (s *VocabService) AdjustFamiliarity(userID int64, word, language, nativeLanguage string, delta float64, opts repository.AdjustOptions) (float64, error) {
	hash := wordid.Compute(wordid.NormalizeWord(word), language, nativeLanguage)
	return s.familiarity.Adjust(userID, hash, delta, opts)
}

// GetFamiliarity returns the familiarity record for one word, or ErrNotFound
// when the word was never introduced to the user
func (s *VocabService) GetFamiliarity(userID int64, word, language, nativeLanguage string) (*models.Familiarity, error) {
	hash := wordid.Compute(wordid.NormalizeWord(word), language, nativeLanguage)
	return s.familiarity.Get(userID, hash)
}

// GetWord returns the content entry for one word, enriching it on demand
// when the stored entry is still a placeholder
func (s *VocabService) GetWord(ctx context.Context, word, language, nativeLanguage string) (*models.WordContent, error) {
	normalized := wordid.NormalizeWord(word)
	hash := wordid.Compute(normalized, language, nativeLanguage)

	entry, err := s.content.Get(hash)
	if err == nil && entry.Complete() {
		return entry, nil
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if s.enricher == nil {
		if entry != nil {
			return entry, nil
		}
		return nil, repository.ErrNotFound
	}
	return s.enricher.EnrichAndStore(ctx, normalized, language, nativeLanguage, "")
}
