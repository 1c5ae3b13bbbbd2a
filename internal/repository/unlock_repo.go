package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"lingotrack/internal/database"
	"lingotrack/internal/models"
)

// UnlockRepository handles the per-user ledger of which word identities
// were introduced at each lesson level
type UnlockRepository struct {
	db database.DBTX
}

// NewUnlockRepository creates a new unlock repository
func NewUnlockRepository(db database.DBTX) *UnlockRepository {
	return &UnlockRepository{db: db}
}

// Get retrieves the unlock record for (user, language, level)
func (r *UnlockRepository) Get(userID int64, language string, level int) (*models.LevelUnlock, error) {
	query := `
		SELECT id, user_id, language, level, word_hashes, unlocked_at
		FROM level_unlocks
		WHERE user_id = ? AND language = ? AND level = ?
	`

	unlock := &models.LevelUnlock{}
	var joined string
	var unlockedAt sql.NullTime

	err := r.db.QueryRow(query, userID, language, level).Scan(
		&unlock.ID,
		&unlock.UserID,
		&unlock.Language,
		&unlock.Level,
		&joined,
		&unlockedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	unlock.WordHashes = splitHashes(joined)
	if unlockedAt.Valid {
		unlock.UnlockedAt = unlockedAt.Time
	}
	return unlock, nil
}

// Put stores the word set for (user, language, level). An existing record
// is overwritten with the new set (last write wins, no union); its original
// unlock timestamp is retained.
func (r *UnlockRepository) Put(unlock *models.LevelUnlock) error {
	joined := joinHashes(unlock.WordHashes)

	insert := r.db.GetDialect().InsertIgnore(`
		INSERT INTO level_unlocks (user_id, language, level, word_hashes)
		VALUES (?, ?, ?, ?)
	`)
	if _, err := r.db.Exec(insert, unlock.UserID, unlock.Language, unlock.Level, joined); err != nil {
		return fmt.Errorf("failed to insert level unlock: %w", err)
	}

	update := `
		UPDATE level_unlocks SET word_hashes = ?
		WHERE user_id = ? AND language = ? AND level = ?
	`
	if _, err := r.db.Exec(update, joined, unlock.UserID, unlock.Language, unlock.Level); err != nil {
		return fmt.Errorf("failed to update level unlock: %w", err)
	}
	return nil
}

func joinHashes(hashes []string) string {
	return strings.Join(hashes, " ")
}

func splitHashes(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Fields(joined)
}
