package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"lingotrack/internal/database"
	"lingotrack/internal/models"
	"lingotrack/internal/wordid"
)

// ErrNotFound is returned when a requested record does not exist.
// For familiarity records callers must treat absent the same as
// "known, level 0" when aggregating.
var ErrNotFound = errors.New("record not found")

// ContentRepository handles the shared word-content store
type ContentRepository struct {
	db database.DBTX
}

// NewContentRepository creates a new content repository
func NewContentRepository(db database.DBTX) *ContentRepository {
	return &ContentRepository{db: db}
}

const wordContentColumns = `
	id, word_hash, word, language, native_language, translation,
	example, example_native, lemma, part_of_speech, ipa, audio_file,
	gender, plural, conjugation, comparison, synonyms, collocations,
	cefr_level, frequency_rank, tags, note, created_at, updated_at
`

// Get retrieves a content entry by its identity hash
func (r *ContentRepository) Get(hash string) (*models.WordContent, error) {
	query := "SELECT " + wordContentColumns + " FROM word_content WHERE word_hash = ?"
	entry, err := scanWordContent(r.db.QueryRow(query, hash))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// GetByHashes retrieves the entries for the given identity hashes,
// keyed by hash; missing entries are simply absent from the result
func (r *ContentRepository) GetByHashes(hashes []string) (map[string]*models.WordContent, error) {
	result := make(map[string]*models.WordContent, len(hashes))
	if len(hashes) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(hashes)), ", ")
	query := "SELECT " + wordContentColumns + " FROM word_content WHERE word_hash IN (" + placeholders + ")"

	args := make([]interface{}, len(hashes))
	for i, h := range hashes {
		args[i] = h
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		entry, err := scanWordContent(rows)
		if err != nil {
			return nil, err
		}
		result[entry.WordHash] = entry
	}
	return result, rows.Err()
}

// EnsureExists creates minimal placeholder entries for any of the words that
// have no content entry yet, so downstream lookups never fail with not-found.
// Words that already exist are left untouched.
func (r *ContentRepository) EnsureExists(words []string, language, nativeLanguage string) error {
	insert := r.db.GetDialect().InsertIgnore(`
		INSERT INTO word_content (word_hash, word, language, native_language)
		VALUES (?, ?, ?, ?)
	`)
	for _, word := range words {
		hash := wordid.Compute(word, language, nativeLanguage)
		if _, err := r.db.Exec(insert, hash, word, language, nativeLanguage); err != nil {
			return fmt.Errorf("failed to ensure content entry for %q: %w", word, err)
		}
	}
	return nil
}

// Upsert stores an enriched entry. An existing row is updated field by field
// and a non-empty stored value is never overwritten by an empty incoming one;
// the merge happens in a single statement so concurrent enrichment writers
// resolve per field, last writer wins.
func (r *ContentRepository) Upsert(entry *models.WordContent) error {
	if entry.WordHash == "" {
		entry.WordHash = wordid.Compute(entry.Word, entry.Language, entry.NativeLang)
	}

	insert := r.db.GetDialect().InsertIgnore(`
		INSERT INTO word_content (word_hash, word, language, native_language)
		VALUES (?, ?, ?, ?)
	`)
	if _, err := r.db.Exec(insert, entry.WordHash, entry.Word, entry.Language, entry.NativeLang); err != nil {
		return fmt.Errorf("failed to insert content entry: %w", err)
	}

	// NULLIF turns empty incoming values into NULL so COALESCE keeps the
	// stored value; gender's zero value is "none" rather than ""
	query := `
		UPDATE word_content SET
			translation = COALESCE(NULLIF(?, ''), translation),
			example = COALESCE(NULLIF(?, ''), example),
			example_native = COALESCE(NULLIF(?, ''), example_native),
			lemma = COALESCE(NULLIF(?, ''), lemma),
			part_of_speech = COALESCE(NULLIF(?, ''), part_of_speech),
			ipa = COALESCE(NULLIF(?, ''), ipa),
			audio_file = COALESCE(NULLIF(?, ''), audio_file),
			gender = COALESCE(NULLIF(?, 'none'), gender),
			plural = COALESCE(NULLIF(?, ''), plural),
			conjugation = COALESCE(NULLIF(?, ''), conjugation),
			comparison = COALESCE(NULLIF(?, ''), comparison),
			synonyms = COALESCE(NULLIF(?, ''), synonyms),
			collocations = COALESCE(NULLIF(?, ''), collocations),
			cefr_level = COALESCE(NULLIF(?, ''), cefr_level),
			frequency_rank = COALESCE(NULLIF(?, 0), frequency_rank),
			tags = COALESCE(NULLIF(?, ''), tags),
			note = COALESCE(NULLIF(?, ''), note),
			updated_at = CURRENT_TIMESTAMP
		WHERE word_hash = ?
	`
	_, err := r.db.Exec(query,
		entry.Translation,
		entry.Example,
		entry.ExampleNative,
		entry.Lemma,
		entry.PartOfSpeech,
		entry.IPA,
		entry.AudioFile,
		entry.Gender,
		entry.Plural,
		entry.Conjugation,
		entry.Comparison,
		entry.Synonyms,
		entry.Collocations,
		entry.CEFRLevel,
		entry.FrequencyRank,
		entry.Tags,
		entry.Note,
		entry.WordHash,
	)
	if err != nil {
		return fmt.Errorf("failed to update content entry: %w", err)
	}
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWordContent(row rowScanner) (*models.WordContent, error) {
	entry := &models.WordContent{}
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&entry.ID,
		&entry.WordHash,
		&entry.Word,
		&entry.Language,
		&entry.NativeLang,
		&entry.Translation,
		&entry.Example,
		&entry.ExampleNative,
		&entry.Lemma,
		&entry.PartOfSpeech,
		&entry.IPA,
		&entry.AudioFile,
		&entry.Gender,
		&entry.Plural,
		&entry.Conjugation,
		&entry.Comparison,
		&entry.Synonyms,
		&entry.Collocations,
		&entry.CEFRLevel,
		&entry.FrequencyRank,
		&entry.Tags,
		&entry.Note,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if createdAt.Valid {
		entry.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		entry.UpdatedAt = updatedAt.Time
	}
	return entry, nil
}
