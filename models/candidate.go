package models

import (
	"time"

	"gorm.io/gorm"
)

// Candidate is one applicant for one role. Email is stored normalized
// (trimmed, lowercased); the composite unique index is the source of truth
// for the one-candidate-per-(role, email) invariant, not the pre-check query.
type Candidate struct {
	ID         string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	RoleID     string         `gorm:"type:uuid;not null;uniqueIndex:idx_candidates_role_email" json:"role_id"`
	FirstName  string         `gorm:"size:255;not null" json:"first_name"`
	LastName   string         `gorm:"size:255;not null" json:"last_name"`
	Email      string         `gorm:"not null;uniqueIndex:idx_candidates_role_email" json:"email"`
	Phone      string         `gorm:"size:32" json:"phone"`
	Verified   bool           `gorm:"not null;default:false" json:"verified"`
	VerifiedAt *time.Time     `json:"verified_at,omitempty"`
	ResumeKey  string         `gorm:"size:500" json:"resume_key"` // object storage key of the stored resume
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Role      Role       `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	Interview *Interview `gorm:"foreignKey:CandidateID" json:"interview,omitempty"`
	Report    *Report    `gorm:"foreignKey:CandidateID" json:"report,omitempty"`
}

// OneTimeToken is a 6-digit verification code proving control of a contact
// channel. Only the most recently created unconsumed, unexpired token for an
// email may satisfy verification.
type OneTimeToken struct {
	ID        string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Email     string         `gorm:"not null;index" json:"email"`
	RoleID    string         `gorm:"type:uuid;not null" json:"role_id"`
	Code      string         `gorm:"size:6;not null" json:"-"`
	ExpiresAt time.Time      `gorm:"not null" json:"expires_at"`
	Consumed  bool           `gorm:"not null;default:false" json:"consumed"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
