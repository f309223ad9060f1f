package db

import (
	"time"

	"gorm.io/datatypes"
)

// Document is one game, player or round document keyed by its slash path.
type Document struct {
	Path       string         `gorm:"primaryKey;size:255"`
	Collection string         `gorm:"size:255;index;not null"`
	Data       datatypes.JSON `gorm:"type:jsonb;not null"`
	Version    int64          `gorm:"not null"`
	CreatedAt  time.Time      `gorm:"not null"`
	UpdatedAt  time.Time      `gorm:"not null"`
}

type Event struct {
	ID          uint           `gorm:"primaryKey"`
	GameCode    string         `gorm:"size:8;index;not null"`
	RoundNumber *int           `gorm:"index"`
	PlayerID    *string        `gorm:"size:64;index"`
	Type        string         `gorm:"size:64;not null"`
	Payload     datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt   time.Time      `gorm:"not null"`
}

// WordLibrary holds candidate prompt words and Scattergories categories.
type WordLibrary struct {
	ID        uint      `gorm:"primaryKey"`
	Kind      string    `gorm:"size:32;not null;uniqueIndex:idx_word_library_kind_language_text"`
	Language  string    `gorm:"size:8;not null;uniqueIndex:idx_word_library_kind_language_text"`
	Text      string    `gorm:"size:120;not null;uniqueIndex:idx_word_library_kind_language_text"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
