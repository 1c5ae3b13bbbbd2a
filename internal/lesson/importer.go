package lesson

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"lingotrack/internal/database"
	"lingotrack/internal/wordid"
)

// ImportConfig describes the workbook layout. The default layout expects one
// sentence per row: level, text, native text, and an optional word list.
type ImportConfig struct {
	FilePath     string
	GroupID      string
	Language     string
	SheetName    string
	LevelColumn  string
	TextColumn   string
	NativeColumn string
	WordsColumn  string
	StartRow     int // 1-based, rows above it are headers
}

// DefaultImportConfig returns the standard workbook layout
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		SheetName:    "Sheet1",
		LevelColumn:  "A",
		TextColumn:   "B",
		NativeColumn: "C",
		WordsColumn:  "D",
		StartRow:     2,
	}
}

// ImportResult summarizes one workbook import
type ImportResult struct {
	TotalProcessed int
	Imported       int
	Skipped        int
	Errors         []string
}

// Importer loads lesson workbooks into the content store
type Importer struct {
	db *database.DB
}

// NewImporter creates a workbook importer writing into the content store
func NewImporter(db *database.DB) *Importer {
	return &Importer{db: db}
}

// Import reads a workbook and stores its sentences. The whole file goes in
// one transaction so a malformed workbook never leaves a half-written group.
func (imp *Importer) Import(config ImportConfig) (*ImportResult, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", config.SheetName, err)
	}

	tx, err := imp.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	store := NewStore(tx)
	result := &ImportResult{}
	positions := make(map[int]int) // next position per level

	for i, row := range rows {
		if i < config.StartRow-1 {
			continue
		}
		result.TotalProcessed++

		sentence, err := parseRow(row, config, positions)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}

		if err := store.Put(sentence); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		result.Imported++
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return result, nil
}

func parseRow(row []string, config ImportConfig, positions map[int]int) (*Sentence, error) {
	levelCell := cell(row, config.LevelColumn)
	if levelCell == "" {
		return nil, fmt.Errorf("empty level")
	}
	level, err := strconv.Atoi(strings.TrimSpace(levelCell))
	if err != nil {
		return nil, fmt.Errorf("invalid level %q", levelCell)
	}

	text := strings.TrimSpace(cell(row, config.TextColumn))
	if text == "" {
		return nil, fmt.Errorf("empty sentence text")
	}

	words := wordid.NormalizeAll(strings.Fields(cell(row, config.WordsColumn)))
	if len(words) == 0 {
		// No explicit word list, tokenize the sentence itself
		words = wordid.NormalizeAll(strings.Fields(text))
	}

	position := positions[level]
	positions[level] = position + 1

	return &Sentence{
		GroupID:    config.GroupID,
		Language:   config.Language,
		Level:      level,
		Position:   position,
		Text:       text,
		TextNative: strings.TrimSpace(cell(row, config.NativeColumn)),
		Words:      words,
	}, nil
}

// cell returns the value at an Excel column letter, empty when out of range
func cell(row []string, column string) string {
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]&^0x20-'A'+1)
	}
	index--
	if index < 0 || index >= len(row) {
		return ""
	}
	return row[index]
}
