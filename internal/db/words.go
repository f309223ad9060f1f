package db

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	KindCardPrompt = "card_prompt"
	KindWordPrompt = "word_prompt"
	KindCategory   = "category"
)

type wordRecord struct {
	Kind     string
	Language string
	Text     string
}

// LoadWordLibrary reads kind,language,text rows from a CSV and inserts the new ones.
func LoadWordLibrary(conn *gorm.DB, path string) (int, error) {
	if conn == nil {
		return 0, nil
	}
	records, err := readWords(path)
	if err != nil {
		return 0, err
	}
	inserted := 0
	for _, record := range records {
		entry := WordLibrary{
			Kind:     record.Kind,
			Language: record.Language,
			Text:     record.Text,
		}
		result := conn.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry)
		if result.Error != nil {
			return inserted, result.Error
		}
		inserted += int(result.RowsAffected)
	}
	return inserted, nil
}

// ListWords returns the library entries of one kind and language, ordered by text.
func ListWords(ctx context.Context, conn *gorm.DB, kind, language string) ([]string, error) {
	if conn == nil {
		return nil, errors.New("db connection is nil")
	}
	var words []string
	err := conn.WithContext(ctx).
		Model(&WordLibrary{}).
		Where("kind = ? AND language = ?", kind, language).
		Order("text").
		Pluck("text", &words).Error
	return words, err
}

func readWords(path string) ([]wordRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var records []wordRecord
	for i, row := range rows {
		if i == 0 || len(row) < 3 {
			continue
		}
		kind := strings.TrimSpace(row[0])
		language := strings.ToLower(strings.TrimSpace(row[1]))
		text := strings.TrimSpace(row[2])
		if text == "" {
			continue
		}
		switch kind {
		case KindCardPrompt, KindWordPrompt, KindCategory:
		default:
			continue
		}
		if language == "" {
			language = "en"
		}
		records = append(records, wordRecord{Kind: kind, Language: language, Text: text})
	}
	return records, nil
}
