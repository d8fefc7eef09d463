package models

import (
	"time"

	"gorm.io/gorm"
)

// Interview lifecycle statuses. video_ready is terminal for this subsystem.
const (
	InterviewStatusPending    = "pending"
	InterviewStatusVideoReady = "video_ready"
)

// Interview is a scheduled/recorded AI video-interview session tied to one
// candidate and role. At most one row may exist per (candidate_id, role_id);
// all writes go through an upsert keyed on that pair.
type Interview struct {
	ID              string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CandidateID     string         `gorm:"type:uuid;not null;uniqueIndex:idx_interviews_candidate_role" json:"candidate_id"`
	RoleID          string         `gorm:"type:uuid;not null;uniqueIndex:idx_interviews_candidate_role" json:"role_id"`
	SessionID       string         `gorm:"size:255;index" json:"session_id"` // vendor session identifier
	SessionURL      string         `gorm:"size:1000" json:"session_url"`     // link the candidate joins
	VideoURL        string         `gorm:"size:1000" json:"video_url"`       // recording, set by the webhook
	Status          string         `gorm:"not null;default:'pending';check:status IN ('pending', 'video_ready')" json:"status"`
	TranscriptKey   string         `gorm:"size:500" json:"transcript_key,omitempty"`
	InterviewScore  *float64       `gorm:"type:decimal(5,2)" json:"interview_score,omitempty"`
	AnalysisSummary string         `gorm:"type:text" json:"analysis_summary,omitempty"`
	DurationSeconds int            `json:"duration_seconds"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Candidate Candidate `gorm:"foreignKey:CandidateID" json:"candidate,omitempty"`
	Role      Role      `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}
