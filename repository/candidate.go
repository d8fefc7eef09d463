package repository

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hireflow/backend/apperrors"
	"github.com/hireflow/backend/models"
	"github.com/hireflow/backend/normalize"
)

// Candidate operations

// CreateCandidate inserts an unverified candidate. A racing duplicate
// submission loses against the (role_id, email) unique index and is reported
// as a Conflict.
func (r *GORMRepository) CreateCandidate(ctx context.Context, candidate *models.Candidate) error {
	if err := r.db.WithContext(ctx).Create(candidate).Error; err != nil {
		if isUniqueViolation(err) {
			return apperrors.Wrap(apperrors.KindConflict, "candidate already exists for this role", err)
		}
		slog.Error("Failed to create candidate", "error", err)
		return err
	}
	slog.Info("Candidate created", "candidate_id", candidate.ID, "role_id", candidate.RoleID)
	return nil
}

func (r *GORMRepository) GetCandidateByID(ctx context.Context, id string) (*models.Candidate, error) {
	var candidate models.Candidate
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Preload("Role").
		Preload("Interview").
		Preload("Report").
		First(&candidate).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get candidate by ID", "error", err, "candidate_id", id)
		return nil, err
	}
	return &candidate, nil
}

func (r *GORMRepository) GetCandidateByRoleAndEmail(ctx context.Context, roleID, email string) (*models.Candidate, error) {
	var candidate models.Candidate
	err := r.db.WithContext(ctx).
		Where("role_id = ? AND email = ?", roleID, normalize.Email(email)).
		First(&candidate).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get candidate by role and email", "error", err, "role_id", roleID)
		return nil, err
	}
	return &candidate, nil
}

func (r *GORMRepository) GetCandidateByEmail(ctx context.Context, email string) (*models.Candidate, error) {
	var candidate models.Candidate
	err := r.db.WithContext(ctx).
		Where("email = ?", normalize.Email(email)).
		Order("created_at DESC").
		First(&candidate).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get candidate by email", "error", err)
		return nil, err
	}
	return &candidate, nil
}

func (r *GORMRepository) ListCandidates(ctx context.Context, roleID string) ([]models.Candidate, error) {
	query := r.db.WithContext(ctx).Preload("Interview").Preload("Report").Order("created_at DESC")
	if roleID != "" {
		query = query.Where("role_id = ?", roleID)
	}
	var candidates []models.Candidate
	if err := query.Find(&candidates).Error; err != nil {
		slog.Error("Failed to list candidates", "error", err, "role_id", roleID)
		return nil, err
	}
	return candidates, nil
}

// MarkCandidateVerified flips the candidate to verified with an atomic
// conditional update. Returns false when the candidate was already verified
// by a racing request.
func (r *GORMRepository) MarkCandidateVerified(ctx context.Context, candidateID string) (bool, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.Candidate{}).
		Where("id = ? AND verified = ?", candidateID, false).
		Updates(map[string]interface{}{"verified": true, "verified_at": now})
	if result.Error != nil {
		slog.Error("Failed to mark candidate verified", "error", result.Error, "candidate_id", candidateID)
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// OneTimeToken operations
func (r *GORMRepository) CreateOneTimeToken(ctx context.Context, token *models.OneTimeToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		slog.Error("Failed to create one-time token", "error", err)
		return err
	}
	return nil
}

// GetLatestTokenByEmail returns the most recently created token for an email
// regardless of expiry or consumption; the verification gate decides what to
// do with it. Only the latest token may ever satisfy verification.
func (r *GORMRepository) GetLatestTokenByEmail(ctx context.Context, email string) (*models.OneTimeToken, error) {
	var token models.OneTimeToken
	err := r.db.WithContext(ctx).
		Where("email = ?", normalize.Email(email)).
		Order("created_at DESC").
		First(&token).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get latest one-time token", "error", err)
		return nil, err
	}
	return &token, nil
}

func (r *GORMRepository) ConsumeToken(ctx context.Context, tokenID string) error {
	if err := r.db.WithContext(ctx).
		Model(&models.OneTimeToken{}).
		Where("id = ?", tokenID).
		Update("consumed", true).Error; err != nil {
		slog.Error("Failed to consume one-time token", "error", err, "token_id", tokenID)
		return err
	}
	return nil
}

// Interview operations

// UpsertInterview atomically creates or updates the interview row for a
// (candidate, role) pair. Concurrent callers racing on the same pair converge
// on one row via the unique index, never a duplicate vendor session record.
func (r *GORMRepository) UpsertInterview(ctx context.Context, interview *models.Interview) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "candidate_id"}, {Name: "role_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"session_id", "session_url", "video_url", "status", "transcript_key",
				"interview_score", "analysis_summary", "duration_seconds",
				"completed_at", "updated_at",
			}),
		}).
		Create(interview).Error
	if err != nil {
		slog.Error("Failed to upsert interview", "error", err, "candidate_id", interview.CandidateID)
		return err
	}
	slog.Info("Interview upserted", "candidate_id", interview.CandidateID, "role_id", interview.RoleID, "status", interview.Status)
	return nil
}

// UpsertPendingInterview books a fresh vendor session for a (candidate, role)
// pair. Unlike UpsertInterview it never touches recording fields: if a
// recording-ready webhook landed between the caller's existence check and this
// write, the conflict update is skipped entirely (video_url is non-empty) so
// the recording and the terminal video_ready status survive the race.
func (r *GORMRepository) UpsertPendingInterview(ctx context.Context, interview *models.Interview) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "candidate_id"}, {Name: "role_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"session_id", "session_url", "updated_at"}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Eq{Column: clause.Column{Table: "interviews", Name: "video_url"}, Value: ""},
			}},
		}).
		Create(interview).Error
	if err != nil {
		slog.Error("Failed to upsert pending interview", "error", err, "candidate_id", interview.CandidateID)
		return err
	}
	slog.Info("Pending interview upserted", "candidate_id", interview.CandidateID, "role_id", interview.RoleID)
	return nil
}

func (r *GORMRepository) GetInterviewByCandidateAndRole(ctx context.Context, candidateID, roleID string) (*models.Interview, error) {
	var interview models.Interview
	err := r.db.WithContext(ctx).
		Where("candidate_id = ? AND role_id = ?", candidateID, roleID).
		First(&interview).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get interview", "error", err, "candidate_id", candidateID, "role_id", roleID)
		return nil, err
	}
	return &interview, nil
}

func (r *GORMRepository) GetInterviewByID(ctx context.Context, id string) (*models.Interview, error) {
	var interview models.Interview
	err := r.db.WithContext(ctx).Where("id = ?", id).Preload("Candidate").First(&interview).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get interview by ID", "error", err, "interview_id", id)
		return nil, err
	}
	return &interview, nil
}

// Report operations

// UpsertReport creates or updates the report row keyed on (candidate, role).
func (r *GORMRepository) UpsertReport(ctx context.Context, report *models.Report) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "candidate_id"}, {Name: "role_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"resume_score", "skills_match", "experience_match", "education_match",
				"resume_summary", "interview_score", "interview_summary",
				"overall_score", "updated_at",
			}),
		}).
		Create(report).Error
	if err != nil {
		slog.Error("Failed to upsert report", "error", err, "candidate_id", report.CandidateID)
		return err
	}
	slog.Info("Report upserted", "candidate_id", report.CandidateID, "role_id", report.RoleID)
	return nil
}

func (r *GORMRepository) GetReportByCandidateAndRole(ctx context.Context, candidateID, roleID string) (*models.Report, error) {
	var report models.Report
	err := r.db.WithContext(ctx).
		Where("candidate_id = ? AND role_id = ?", candidateID, roleID).
		First(&report).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get report", "error", err, "candidate_id", candidateID, "role_id", roleID)
		return nil, err
	}
	return &report, nil
}

// SetReportPDF records the rendered artifact location on the report row.
func (r *GORMRepository) SetReportPDF(ctx context.Context, reportID, pdfKey string) error {
	now := time.Now()
	if err := r.db.WithContext(ctx).
		Model(&models.Report{}).
		Where("id = ?", reportID).
		Updates(map[string]interface{}{"pdf_key": pdfKey, "rendered_at": now}).Error; err != nil {
		slog.Error("Failed to set report PDF location", "error", err, "report_id", reportID)
		return err
	}
	return nil
}

// Hygiene operations

// ListCandidateBatch pages through candidates in stable created_at order for
// the normalization batch runner.
func (r *GORMRepository) ListCandidateBatch(ctx context.Context, offset, limit int) ([]models.Candidate, error) {
	var candidates []models.Candidate
	err := r.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&candidates).Error
	if err != nil {
		slog.Error("Failed to list candidate batch", "error", err, "offset", offset)
		return nil, err
	}
	return candidates, nil
}

// UpdateCandidateContact writes normalized contact fields back to storage.
func (r *GORMRepository) UpdateCandidateContact(ctx context.Context, candidateID, firstName, lastName, email, phone string) error {
	if err := r.db.WithContext(ctx).
		Model(&models.Candidate{}).
		Where("id = ?", candidateID).
		Updates(map[string]interface{}{
			"first_name": firstName,
			"last_name":  lastName,
			"email":      email,
			"phone":      phone,
		}).Error; err != nil {
		slog.Error("Failed to update candidate contact fields", "error", err, "candidate_id", candidateID)
		return err
	}
	return nil
}
