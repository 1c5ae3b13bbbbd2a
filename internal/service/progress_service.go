package service

import (
	"errors"
	"fmt"
	"time"

	"lingotrack/internal/lesson"
	"lingotrack/internal/logging"
	"lingotrack/internal/models"
	"lingotrack/internal/repository"
	"lingotrack/internal/wordid"
)

// ProgressService maintains the denormalized per-level progress cache. The
// cache is a derived view over the familiarity store and lesson material;
// any entry can be rebuilt from scratch at any time.
type ProgressService struct {
	progress    *repository.ProgressRepository
	familiarity *repository.FamiliarityRepository
	source      lesson.Source
	nativeLang  string
	log         *logging.Logger
}

// NewProgressService creates a progress service. nativeLang is the native
// language side of word identities, shared by all lesson groups.
func NewProgressService(
	progress *repository.ProgressRepository,
	familiarity *repository.FamiliarityRepository,
	source lesson.Source,
	nativeLang string,
	log *logging.Logger,
) *ProgressService {
	return &ProgressService{
		progress:    progress,
		familiarity: familiarity,
		source:      source,
		nativeLang:  nativeLang,
		log:         log,
	}
}

// GetProgress returns the cached entry for (user, group, level). A cache miss
// triggers one refresh; when the level has no material at all the result is a
// zeroed not-started entry rather than an error.
func (s *ProgressService) GetProgress(userID int64, groupID string, level int) (*models.LevelProgress, error) {
	entry, err := s.progress.Get(userID, groupID, level)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if refreshErr := s.Refresh(userID, groupID, level); refreshErr != nil {
		s.log.Warn("refresh on cache miss failed",
			"user", userID, "group", groupID, "level", level, "error", refreshErr)
	}

	entry, err = s.progress.Get(userID, groupID, level)
	if errors.Is(err, repository.ErrNotFound) {
		return &models.LevelProgress{
			UserID:  userID,
			GroupID: groupID,
			Level:   level,
			Status:  models.StatusNotStarted,
		}, nil
	}
	return entry, err
}

// Refresh recomputes one level's entry from the familiarity store. After a
// successful refresh the bucket counts sum to the level's word count.
func (s *ProgressService) Refresh(userID int64, groupID string, level int) error {
	language, err := s.source.Language(groupID)
	if err != nil {
		return fmt.Errorf("failed to resolve group language: %w", err)
	}

	words, err := s.source.Words(groupID, level)
	if err != nil {
		return fmt.Errorf("failed to load level words: %w", err)
	}

	hashes := wordid.ComputeAll(words, language, s.nativeLang)
	counts, err := s.familiarity.BulkCounts(userID, hashes)
	if err != nil {
		return fmt.Errorf("failed to bucket familiarity: %w", err)
	}

	var buckets [6]int
	for bucket := 0; bucket <= 5; bucket++ {
		buckets[bucket] = counts[bucket]
	}

	return s.progress.UpsertBuckets(userID, groupID, level, len(words), buckets)
}

// RefreshGroup recomputes every level of a group, best effort. The refresh
// counts as successful when at least one level was rebuilt; levels that fail
// keep their previous cache entry and are returned in the diagnostics map.
// The error is non-nil only when the levels cannot be listed or every level
// of a non-empty group failed.
func (s *ProgressService) RefreshGroup(userID int64, groupID string) (map[int]error, error) {
	levels, err := s.source.Levels(groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group levels: %w", err)
	}

	failed := make(map[int]error)
	refreshed := 0
	for _, level := range levels {
		if err := s.Refresh(userID, groupID, level); err != nil {
			s.log.Warn("level refresh failed",
				"user", userID, "group", groupID, "level", level, "error", err)
			failed[level] = err
			continue
		}
		refreshed++
	}

	if len(levels) > 0 && refreshed == 0 {
		return failed, fmt.Errorf("refresh of group %s failed for all %d levels", groupID, len(levels))
	}
	return failed, nil
}

// Complete records a finished exercise for one level. The raw score may be a
// fraction or a percent; it is normalized, mapped onto a status, and the
// level's buckets are refreshed afterwards so grading done during the
// exercise shows up immediately.
func (s *ProgressService) Complete(userID int64, groupID string, level int, rawScore float64) (*models.LevelProgress, error) {
	score := models.NormalizeScore(rawScore)
	status := models.StatusForScore(score)

	if err := s.progress.SetCompletion(userID, groupID, level, score, status, time.Now()); err != nil {
		return nil, err
	}

	if err := s.Refresh(userID, groupID, level); err != nil {
		s.log.Warn("refresh after completion failed",
			"user", userID, "group", groupID, "level", level, "error", err)
	}

	s.log.Info("level completed",
		"user", userID, "group", groupID, "level", level, "score", score, "status", status)
	return s.progress.Get(userID, groupID, level)
}
