package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TranscriptMessage mirrors one chat turn into the database. The
// in-memory session log stays authoritative; rows here are an audit
// trail only.
type TranscriptMessage struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	SessionID string    `json:"session_id" gorm:"type:varchar(255);not null;index"`
	UserID    int       `json:"user_id" gorm:"not null"`
	Role      string    `json:"role" gorm:"type:varchar(50);not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	Sequence  int       `json:"sequence" gorm:"not null"`
	Timestamp time.Time `json:"timestamp" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (m *TranscriptMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
