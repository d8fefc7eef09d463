package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// RubricItem is one interview question paired with the category it probes.
type RubricItem struct {
	Question string `json:"question"`
	Category string `json:"category"`
}

// Rubric is stored as a JSONB column.
type Rubric []RubricItem

func (r Rubric) Value() (driver.Value, error) {
	if r == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r)
}

func (r *Rubric) Scan(value interface{}) error {
	if value == nil {
		*r = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	default:
		return fmt.Errorf("unsupported rubric column type %T", value)
	}
}

// Role represents a job opening. Immutable after creation except for rubric
// and knowledge-base updates.
type Role struct {
	ID              string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Title           string         `gorm:"not null" json:"title"`
	Description     string         `gorm:"type:text" json:"description"`
	Rubric          Rubric         `gorm:"type:jsonb" json:"rubric"`
	KnowledgeBase   string         `gorm:"size:500" json:"knowledge_base,omitempty"` // optional reference for interviewer context
	SubmissionToken string         `gorm:"uniqueIndex;not null" json:"submission_token"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Candidates []Candidate `gorm:"foreignKey:RoleID" json:"candidates,omitempty"`
}
