package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"lingotrack/internal/database"
	"lingotrack/internal/models"
)

// FamiliarityRepository handles per-user word familiarity records
type FamiliarityRepository struct {
	db database.DBTX
}

// NewFamiliarityRepository creates a new familiarity repository
func NewFamiliarityRepository(db database.DBTX) *FamiliarityRepository {
	return &FamiliarityRepository{db: db}
}

// AdjustOptions carries the optional parts of an adjustment: counters and
// comment stay untouched unless explicitly provided
type AdjustOptions struct {
	Comment      *string
	SeenDelta    int
	CorrectDelta int
}

// Get retrieves the familiarity record for a user and word identity.
// Absent means the word was never unlocked or graded for this user.
func (r *FamiliarityRepository) Get(userID int64, wordHash string) (*models.Familiarity, error) {
	query := `
		SELECT id, user_id, word_hash, familiarity, seen_count, correct_count,
		       comment, unlocked_at, updated_at
		FROM word_familiarity
		WHERE user_id = ? AND word_hash = ?
	`
	rec, err := scanFamiliarity(r.db.QueryRow(query, userID, wordHash))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// EnsureRecord creates a zero-familiarity record unless one already exists
func (r *FamiliarityRepository) EnsureRecord(userID int64, wordHash string) error {
	insert := r.db.GetDialect().InsertIgnore(`
		INSERT INTO word_familiarity (user_id, word_hash, familiarity)
		VALUES (?, ?, 0)
	`)
	if _, err := r.db.Exec(insert, userID, wordHash); err != nil {
		return fmt.Errorf("failed to ensure familiarity record: %w", err)
	}
	return nil
}

// Adjust applies a delta to the familiarity level and returns the new value.
// The clamp into [0,5] happens inside a single UPDATE so concurrent grading
// calls on the same word cannot lose updates.
func (r *FamiliarityRepository) Adjust(userID int64, wordHash string, delta float64, opts AdjustOptions) (float64, error) {
	if err := r.EnsureRecord(userID, wordHash); err != nil {
		return 0, err
	}

	d := r.db.GetDialect()
	query := fmt.Sprintf(`
		UPDATE word_familiarity SET
			familiarity = %s(0, %s(5, familiarity + ?)),
			seen_count = seen_count + ?,
			correct_count = correct_count + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND word_hash = ?
	`, d.GreatestFunc(), d.LeastFunc())

	if _, err := r.db.Exec(query, delta, opts.SeenDelta, opts.CorrectDelta, userID, wordHash); err != nil {
		return 0, fmt.Errorf("failed to adjust familiarity: %w", err)
	}

	if opts.Comment != nil {
		comment := `UPDATE word_familiarity SET comment = ? WHERE user_id = ? AND word_hash = ?`
		if _, err := r.db.Exec(comment, *opts.Comment, userID, wordHash); err != nil {
			return 0, fmt.Errorf("failed to update comment: %w", err)
		}
	}

	var level float64
	err := r.db.QueryRow(
		"SELECT familiarity FROM word_familiarity WHERE user_id = ? AND word_hash = ?",
		userID, wordHash,
	).Scan(&level)
	if err != nil {
		return 0, err
	}
	return level, nil
}

// BulkCounts buckets the given word identities by familiarity level for one
// user. Words without a record land in bucket 0, so the bucket totals always
// sum to len(wordHashes).
func (r *FamiliarityRepository) BulkCounts(userID int64, wordHashes []string) (map[int]int, error) {
	counts := map[int]int{0: 0, 1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	if len(wordHashes) == 0 {
		return counts, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(wordHashes)), ", ")
	query := `
		SELECT word_hash, familiarity
		FROM word_familiarity
		WHERE user_id = ? AND word_hash IN (` + placeholders + `)
	`

	args := make([]interface{}, 0, len(wordHashes)+1)
	args = append(args, userID)
	for _, h := range wordHashes {
		args = append(args, h)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := make(map[string]float64, len(wordHashes))
	for rows.Next() {
		var hash string
		var level float64
		if err := rows.Scan(&hash, &level); err != nil {
			return nil, err
		}
		found[hash] = level
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Dedupe the request so every distinct word lands in exactly one bucket
	seen := make(map[string]struct{}, len(wordHashes))
	for _, hash := range wordHashes {
		if _, ok := seen[hash]; ok {
			continue
		}
		seen[hash] = struct{}{}
		if level, ok := found[hash]; ok {
			counts[models.FamiliarityBucket(level)]++
		} else {
			counts[0]++
		}
	}
	return counts, nil
}

func scanFamiliarity(row rowScanner) (*models.Familiarity, error) {
	rec := &models.Familiarity{}
	var unlockedAt, updatedAt sql.NullTime

	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.WordHash,
		&rec.Familiarity,
		&rec.SeenCount,
		&rec.CorrectCount,
		&rec.Comment,
		&unlockedAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if unlockedAt.Valid {
		rec.UnlockedAt = unlockedAt.Time
	}
	if updatedAt.Valid {
		rec.UpdatedAt = updatedAt.Time
	}
	return rec, nil
}
