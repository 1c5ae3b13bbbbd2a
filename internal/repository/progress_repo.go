package repository

import (
	"database/sql"
	"fmt"
	"time"

	"lingotrack/internal/database"
	"lingotrack/internal/models"
)

// ProgressRepository handles the denormalized per-level progress cache
type ProgressRepository struct {
	db database.DBTX
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db database.DBTX) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// UserGroup identifies one user's progress within one lesson group
type UserGroup struct {
	UserID  int64
	GroupID string
}

// Get retrieves the cached progress entry for (user, group, level)
func (r *ProgressRepository) Get(userID int64, groupID string, level int) (*models.LevelProgress, error) {
	query := `
		SELECT id, user_id, group_id, level, total_words,
		       bucket_0, bucket_1, bucket_2, bucket_3, bucket_4, bucket_5,
		       score, status, completed_at, last_updated
		FROM level_progress
		WHERE user_id = ? AND group_id = ? AND level = ?
	`

	entry := &models.LevelProgress{}
	var completedAt, lastUpdated sql.NullTime

	err := r.db.QueryRow(query, userID, groupID, level).Scan(
		&entry.ID,
		&entry.UserID,
		&entry.GroupID,
		&entry.Level,
		&entry.TotalWords,
		&entry.Buckets[0],
		&entry.Buckets[1],
		&entry.Buckets[2],
		&entry.Buckets[3],
		&entry.Buckets[4],
		&entry.Buckets[5],
		&entry.Score,
		&entry.Status,
		&completedAt,
		&lastUpdated,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		entry.CompletedAt = &completedAt.Time
	}
	if lastUpdated.Valid {
		entry.LastUpdated = lastUpdated.Time
	}
	return entry, nil
}

// UpsertBuckets writes the recomputed totals for one level. Score, status
// and completed_at are deliberately left alone: a refresh never resets what
// completion recorded.
func (r *ProgressRepository) UpsertBuckets(userID int64, groupID string, level, totalWords int, buckets [6]int) error {
	if err := r.ensureRow(userID, groupID, level); err != nil {
		return err
	}

	query := `
		UPDATE level_progress SET
			total_words = ?,
			bucket_0 = ?, bucket_1 = ?, bucket_2 = ?,
			bucket_3 = ?, bucket_4 = ?, bucket_5 = ?,
			last_updated = CURRENT_TIMESTAMP
		WHERE user_id = ? AND group_id = ? AND level = ?
	`
	_, err := r.db.Exec(query,
		totalWords,
		buckets[0], buckets[1], buckets[2], buckets[3], buckets[4], buckets[5],
		userID, groupID, level,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert progress buckets: %w", err)
	}
	return nil
}

// SetCompletion records a completion result for one level
func (r *ProgressRepository) SetCompletion(userID int64, groupID string, level, score int, status string, completedAt time.Time) error {
	if err := r.ensureRow(userID, groupID, level); err != nil {
		return err
	}

	query := `
		UPDATE level_progress SET
			score = ?, status = ?, completed_at = ?, last_updated = CURRENT_TIMESTAMP
		WHERE user_id = ? AND group_id = ? AND level = ?
	`
	if _, err := r.db.Exec(query, score, status, completedAt, userID, groupID, level); err != nil {
		return fmt.Errorf("failed to record completion: %w", err)
	}
	return nil
}

// UserGroups lists every (user, group) pair present in the cache, for the
// scheduled background sweep
func (r *ProgressRepository) UserGroups() ([]UserGroup, error) {
	rows, err := r.db.Query("SELECT DISTINCT user_id, group_id FROM level_progress")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pairs []UserGroup
	for rows.Next() {
		var ug UserGroup
		if err := rows.Scan(&ug.UserID, &ug.GroupID); err != nil {
			return nil, err
		}
		pairs = append(pairs, ug)
	}
	return pairs, rows.Err()
}

func (r *ProgressRepository) ensureRow(userID int64, groupID string, level int) error {
	insert := r.db.GetDialect().InsertIgnore(`
		INSERT INTO level_progress (user_id, group_id, level, status)
		VALUES (?, ?, ?, ?)
	`)
	if _, err := r.db.Exec(insert, userID, groupID, level, models.StatusNotStarted); err != nil {
		return fmt.Errorf("failed to ensure progress row: %w", err)
	}
	return nil
}
