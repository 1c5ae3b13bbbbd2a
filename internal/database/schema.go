package database

import "fmt"

// InitContentSchema creates the shared content-store tables. Creation is
// idempotent and newer columns are added defensively so that restarting
// against a pre-existing database never fails on a missing column.
func (db *DB) InitContentSchema() error {
	d := db.Dialect

	_, err := db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS word_content (
			id %s,
			word_hash %s UNIQUE NOT NULL,
			word TEXT NOT NULL,
			language %s NOT NULL,
			native_language %s NOT NULL,
			translation TEXT NOT NULL DEFAULT '',
			example TEXT NOT NULL DEFAULT '',
			example_native TEXT NOT NULL DEFAULT '',
			lemma TEXT NOT NULL DEFAULT '',
			part_of_speech TEXT NOT NULL DEFAULT '',
			ipa TEXT NOT NULL DEFAULT '',
			audio_file TEXT NOT NULL DEFAULT '',
			gender TEXT NOT NULL DEFAULT 'none',
			plural TEXT NOT NULL DEFAULT '',
			conjugation TEXT NOT NULL DEFAULT '',
			comparison TEXT NOT NULL DEFAULT '',
			synonyms TEXT NOT NULL DEFAULT '',
			collocations TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`, d.AutoIncrementPK(), d.StringKeyType(), d.StringKeyType(), d.StringKeyType()))
	if err != nil {
		return fmt.Errorf("failed to create word_content table: %w", err)
	}

	_, err = db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS lesson_sentences (
			id %s,
			group_id %s NOT NULL,
			language %s NOT NULL,
			level INTEGER NOT NULL,
			position INTEGER NOT NULL DEFAULT 0,
			text TEXT NOT NULL,
			text_native TEXT NOT NULL DEFAULT '',
			words TEXT NOT NULL DEFAULT '',
			audio_file TEXT NOT NULL DEFAULT '',
			UNIQUE(group_id, level, position)
		)
	`, d.AutoIncrementPK(), d.StringKeyType(), d.StringKeyType()))
	if err != nil {
		return fmt.Errorf("failed to create lesson_sentences table: %w", err)
	}

	// Columns added after the first release
	contentAdditions := []struct {
		column     string
		definition string
	}{
		{"cefr_level", "TEXT NOT NULL DEFAULT ''"},
		{"frequency_rank", "INTEGER NOT NULL DEFAULT 0"},
		{"tags", "TEXT NOT NULL DEFAULT ''"},
		{"note", "TEXT NOT NULL DEFAULT ''"},
	}
	for _, add := range contentAdditions {
		if err := db.ensureColumn("word_content", add.column, add.definition); err != nil {
			return err
		}
	}

	return nil
}

// InitUserSchema creates the per-user tables
func (db *DB) InitUserSchema() error {
	d := db.Dialect

	_, err := db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS word_familiarity (
			id %s,
			user_id BIGINT NOT NULL,
			word_hash %s NOT NULL,
			familiarity REAL NOT NULL DEFAULT 0,
			seen_count INTEGER NOT NULL DEFAULT 0,
			correct_count INTEGER NOT NULL DEFAULT 0,
			comment TEXT NOT NULL DEFAULT '',
			unlocked_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(user_id, word_hash)
		)
	`, d.AutoIncrementPK(), d.StringKeyType()))
	if err != nil {
		return fmt.Errorf("failed to create word_familiarity table: %w", err)
	}

	_, err = db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS level_unlocks (
			id %s,
			user_id BIGINT NOT NULL,
			language %s NOT NULL,
			level INTEGER NOT NULL,
			word_hashes TEXT NOT NULL DEFAULT '',
			unlocked_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(user_id, language, level)
		)
	`, d.AutoIncrementPK(), d.StringKeyType()))
	if err != nil {
		return fmt.Errorf("failed to create level_unlocks table: %w", err)
	}

	_, err = db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS level_progress (
			id %s,
			user_id BIGINT NOT NULL,
			group_id %s NOT NULL,
			level INTEGER NOT NULL,
			total_words INTEGER NOT NULL DEFAULT 0,
			bucket_0 INTEGER NOT NULL DEFAULT 0,
			bucket_1 INTEGER NOT NULL DEFAULT 0,
			bucket_2 INTEGER NOT NULL DEFAULT 0,
			bucket_3 INTEGER NOT NULL DEFAULT 0,
			bucket_4 INTEGER NOT NULL DEFAULT 0,
			bucket_5 INTEGER NOT NULL DEFAULT 0,
			score INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'not_started',
			completed_at TIMESTAMP NULL,
			last_updated TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(user_id, group_id, level)
		)
	`, d.AutoIncrementPK(), d.StringKeyType()))
	if err != nil {
		return fmt.Errorf("failed to create level_progress table: %w", err)
	}

	return nil
}

// ensureColumn adds a column if the table does not have it yet
func (db *DB) ensureColumn(table, column, definition string) error {
	exists, err := db.Dialect.ColumnExists(db.DB, table, column)
	if err != nil {
		return fmt.Errorf("failed to inspect %s.%s: %w", table, column, err)
	}
	if exists {
		return nil
	}
	_, err = db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	if err != nil {
		return fmt.Errorf("failed to add column %s.%s: %w", table, column, err)
	}
	return nil
}
