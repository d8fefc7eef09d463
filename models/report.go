package models

import (
	"time"

	"gorm.io/gorm"
)

// Report is the reconciled score record for one candidate and role plus the
// rendered PDF location. Score sides that have not arrived yet are nil, never
// zero, so "not yet available" stays distinguishable from "scored zero".
// OverallScore is nil until at least one side exists.
type Report struct {
	ID          string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CandidateID string `gorm:"type:uuid;not null;uniqueIndex:idx_reports_candidate_role" json:"candidate_id"`
	RoleID      string `gorm:"type:uuid;not null;uniqueIndex:idx_reports_candidate_role" json:"role_id"`

	// Resume-side breakdown, all percentages 0-100.
	ResumeScore     *float64 `gorm:"type:decimal(5,2)" json:"resume_score,omitempty"`
	SkillsMatch     *float64 `gorm:"type:decimal(5,2)" json:"skills_match,omitempty"`
	ExperienceMatch *float64 `gorm:"type:decimal(5,2)" json:"experience_match,omitempty"`
	EducationMatch  *float64 `gorm:"type:decimal(5,2)" json:"education_match,omitempty"`
	ResumeSummary   string   `gorm:"type:text" json:"resume_summary,omitempty"`

	// Interview-side breakdown.
	InterviewScore   *float64 `gorm:"type:decimal(5,2)" json:"interview_score,omitempty"`
	InterviewSummary string   `gorm:"type:text" json:"interview_summary,omitempty"`

	OverallScore *float64 `gorm:"type:decimal(5,2)" json:"overall_score,omitempty"`

	PDFKey     string         `gorm:"size:500" json:"pdf_key,omitempty"` // object storage key of the rendered PDF
	RenderedAt *time.Time     `json:"rendered_at,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Candidate Candidate `gorm:"foreignKey:CandidateID" json:"candidate,omitempty"`
	Role      Role      `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}
