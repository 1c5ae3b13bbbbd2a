package lesson

import (
	"database/sql"
	"fmt"
	"strings"

	"lingotrack/internal/database"
	"lingotrack/internal/wordid"
)

// Sentence is one line of lesson material within a group and level. Words
// holds the vocabulary the sentence teaches; it is stored space-joined
// alongside the text so levels can be rebuilt without re-tokenizing.
type Sentence struct {
	ID         int64
	GroupID    string
	Language   string
	Level      int
	Position   int
	Text       string
	TextNative string
	Words      []string
	AudioFile  string
}

// Store reads and writes lesson material in the shared content store.
// It implements Source.
type Store struct {
	db database.DBTX
}

// NewStore creates a lesson store
func NewStore(db database.DBTX) *Store {
	return &Store{db: db}
}

// Put inserts or replaces the sentence at (group, level, position)
func (s *Store) Put(sentence *Sentence) error {
	words := strings.Join(sentence.Words, " ")

	insert := s.db.GetDialect().InsertIgnore(`
		INSERT INTO lesson_sentences (group_id, language, level, position, text, text_native, words, audio_file)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := s.db.Exec(insert,
		sentence.GroupID, sentence.Language, sentence.Level, sentence.Position,
		sentence.Text, sentence.TextNative, words, sentence.AudioFile,
	)
	if err != nil {
		return fmt.Errorf("failed to insert lesson sentence: %w", err)
	}

	_, err = s.db.Exec(`
		UPDATE lesson_sentences
		SET text = ?, text_native = ?, words = ?, audio_file = ?, language = ?
		WHERE group_id = ? AND level = ? AND position = ?
	`,
		sentence.Text, sentence.TextNative, words, sentence.AudioFile, sentence.Language,
		sentence.GroupID, sentence.Level, sentence.Position,
	)
	if err != nil {
		return fmt.Errorf("failed to update lesson sentence: %w", err)
	}
	return nil
}

// SetAudio records the audio file reference for the sentence at
// (group, level, position)
func (s *Store) SetAudio(groupID string, level, position int, filename string) error {
	_, err := s.db.Exec(`
		UPDATE lesson_sentences
		SET audio_file = ?
		WHERE group_id = ? AND level = ? AND position = ?
	`, filename, groupID, level, position)
	if err != nil {
		return fmt.Errorf("failed to set sentence audio: %w", err)
	}
	return nil
}

// Sentences returns the sentences for one level in lesson order
func (s *Store) Sentences(groupID string, level int) ([]*Sentence, error) {
	rows, err := s.db.Query(`
		SELECT id, group_id, language, level, position, text, text_native, words, audio_file
		FROM lesson_sentences
		WHERE group_id = ? AND level = ?
		ORDER BY position
	`, groupID, level)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sentences []*Sentence
	for rows.Next() {
		sentence := &Sentence{}
		var words string
		err := rows.Scan(
			&sentence.ID, &sentence.GroupID, &sentence.Language, &sentence.Level,
			&sentence.Position, &sentence.Text, &sentence.TextNative, &words, &sentence.AudioFile,
		)
		if err != nil {
			return nil, err
		}
		sentence.Words = strings.Fields(words)
		sentences = append(sentences, sentence)
	}
	return sentences, rows.Err()
}

// Words returns the normalized vocabulary for one level, deduplicated across
// its sentences in first-seen order
func (s *Store) Words(groupID string, level int) ([]string, error) {
	sentences, err := s.Sentences(groupID, level)
	if err != nil {
		return nil, err
	}

	var all []string
	for _, sentence := range sentences {
		all = append(all, sentence.Words...)
	}
	return wordid.NormalizeAll(all), nil
}

// Levels returns the levels present in a group, ascending
func (s *Store) Levels(groupID string) ([]int, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT level FROM lesson_sentences
		WHERE group_id = ?
		ORDER BY level
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var levels []int
	for rows.Next() {
		var level int
		if err := rows.Scan(&level); err != nil {
			return nil, err
		}
		levels = append(levels, level)
	}
	return levels, rows.Err()
}

// Language returns the language of a group's material. Groups are
// single-language; the first sentence decides.
func (s *Store) Language(groupID string) (string, error) {
	var language string
	err := s.db.QueryRow(
		"SELECT language FROM lesson_sentences WHERE group_id = ? ORDER BY level, position LIMIT 1",
		groupID,
	).Scan(&language)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("no lesson material for group %q", groupID)
	}
	if err != nil {
		return "", err
	}
	return language, nil
}

// Groups returns every group id with lesson material
func (s *Store) Groups() ([]string, error) {
	rows, err := s.db.Query("SELECT DISTINCT group_id FROM lesson_sentences ORDER BY group_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []string
	for rows.Next() {
		var group string
		if err := rows.Scan(&group); err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}
