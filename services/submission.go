package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hireflow/backend/apperrors"
	"github.com/hireflow/backend/models"
	"github.com/hireflow/backend/normalize"
)

// SubmissionStore is the slice of the repository the coordinator needs.
type SubmissionStore interface {
	GetRoleByToken(ctx context.Context, token string) (*models.Role, error)
	GetCandidateByRoleAndEmail(ctx context.Context, roleID, email string) (*models.Candidate, error)
	GetCandidateByEmail(ctx context.Context, email string) (*models.Candidate, error)
	GetRoleByID(ctx context.Context, id string) (*models.Role, error)
	CreateCandidate(ctx context.Context, candidate *models.Candidate) error
	CreateOneTimeToken(ctx context.Context, token *models.OneTimeToken) error
	UpsertReport(ctx context.Context, report *models.Report) error
}

// SubmissionCoordinator validates a new candidate submission, persists the
// candidate, triggers resume analysis and issues a one-time verification code.
type SubmissionCoordinator struct {
	store        SubmissionStore
	analyzer     ResumeAnalyzer
	storage      ObjectStorage
	notifier     Notifier
	resumeBucket string
}

func NewSubmissionCoordinator(store SubmissionStore, analyzer ResumeAnalyzer, storage ObjectStorage, notifier Notifier, resumeBucket string) *SubmissionCoordinator {
	return &SubmissionCoordinator{
		store:        store,
		analyzer:     analyzer,
		storage:      storage,
		notifier:     notifier,
		resumeBucket: resumeBucket,
	}
}

type SubmissionRequest struct {
	RoleToken  string
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	Resume     []byte
	ResumeMIME string
}

type SubmissionResult struct {
	CandidateID string
	CodeSent    bool
}

// Submit runs the submission flow. Resume storage is a precondition for
// candidate creation: no candidate record exists without a stored resume.
// Resume analysis and notification dispatch are non-fatal; the submission
// succeeds once the candidate and token rows exist.
func (c *SubmissionCoordinator) Submit(ctx context.Context, req SubmissionRequest) (*SubmissionResult, error) {
	if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Phone == "" || len(req.Resume) == 0 || req.RoleToken == "" {
		return nil, apperrors.Validation("first name, last name, email, phone and resume are all required")
	}

	role, err := c.store.GetRoleByToken(ctx, req.RoleToken)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve role: %w", err)
	}
	if role == nil {
		return nil, apperrors.NotFound("unknown submission token")
	}

	email := normalize.Email(req.Email)
	existing, err := c.store.GetCandidateByRoleAndEmail(ctx, role.ID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing candidate: %w", err)
	}
	if existing != nil {
		return nil, apperrors.Conflict("a candidate with this email already applied to this role")
	}

	// Store the resume first; a storage failure is fatal for the submission.
	resumeKey := fmt.Sprintf("%s/%s", role.ID, uuid.New().String())
	if err := c.storage.Put(ctx, c.resumeBucket, resumeKey, req.Resume, req.ResumeMIME); err != nil {
		if apperrors.KindOf(err) == apperrors.KindStorage {
			return nil, err
		}
		return nil, apperrors.Wrap(apperrors.KindStorage, "failed to store resume", err)
	}

	candidate := &models.Candidate{
		ID:        uuid.New().String(),
		RoleID:    role.ID,
		FirstName: normalize.Name(req.FirstName),
		LastName:  normalize.Name(req.LastName),
		Email:     email,
		Phone:     req.Phone,
		ResumeKey: resumeKey,
	}
	if err := c.store.CreateCandidate(ctx, candidate); err != nil {
		// A racing duplicate submission surfaces here as a Conflict from the
		// unique constraint, not from the pre-check above.
		return nil, err
	}

	c.recordResumeAnalysis(ctx, candidate, role, req.Resume, req.ResumeMIME)

	codeSent, err := c.issueVerificationCode(ctx, candidate, role)
	if err != nil {
		return nil, err
	}

	slog.Info("Candidate submission accepted", "candidate_id", candidate.ID, "role_id", role.ID, "code_sent", codeSent)
	return &SubmissionResult{CandidateID: candidate.ID, CodeSent: codeSent}, nil
}

// recordResumeAnalysis scores the resume and writes the draft report. Failure
// falls back to neutral scores; it never blocks the submission flow.
func (c *SubmissionCoordinator) recordResumeAnalysis(ctx context.Context, candidate *models.Candidate, role *models.Role, resume []byte, mimeType string) {
	analysis, err := c.analyzer.AnalyzeResume(ctx, resume, mimeType, role.Description)
	if err != nil {
		slog.Warn("Resume analysis failed, recording neutral scores", "error", err, "candidate_id", candidate.ID)
		analysis = NeutralResumeAnalysis()
	}

	report := &models.Report{
		CandidateID:     candidate.ID,
		RoleID:          role.ID,
		ResumeScore:     &analysis.ResumeScore,
		SkillsMatch:     &analysis.SkillsMatch,
		ExperienceMatch: &analysis.ExperienceMatch,
		EducationMatch:  &analysis.EducationMatch,
		ResumeSummary:   analysis.Summary,
	}
	RecomputeOverall(report)

	if err := c.store.UpsertReport(ctx, report); err != nil {
		slog.Error("Failed to persist draft report", "error", err, "candidate_id", candidate.ID)
	}
}

// issueVerificationCode creates the one-time token and dispatches it. The
// token write is fatal; dispatch failure is reported but leaves the token
// valid for the resend path.
func (c *SubmissionCoordinator) issueVerificationCode(ctx context.Context, candidate *models.Candidate, role *models.Role) (bool, error) {
	code, err := GenerateCode()
	if err != nil {
		return false, fmt.Errorf("failed to generate verification code: %w", err)
	}

	token := &models.OneTimeToken{
		Email:     candidate.Email,
		RoleID:    role.ID,
		Code:      code,
		ExpiresAt: time.Now().Add(OTPValidity),
	}
	if err := c.store.CreateOneTimeToken(ctx, token); err != nil {
		return false, fmt.Errorf("failed to store verification code: %w", err)
	}

	message := fmt.Sprintf("Your %s interview verification code is %s. It expires in 10 minutes.", role.Title, code)
	if err := c.notifier.Send(ctx, candidate.Email, message); err != nil {
		slog.Warn("Verification code dispatch failed, token remains valid", "error", err, "candidate_id", candidate.ID)
		return false, nil
	}
	return true, nil
}

// ResendCode issues a fresh verification code for the most recent candidate
// record under the given email. The new token supersedes all prior ones.
func (c *SubmissionCoordinator) ResendCode(ctx context.Context, email string) error {
	if email == "" {
		return apperrors.Validation("email is required")
	}

	candidate, err := c.store.GetCandidateByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to look up candidate: %w", err)
	}
	if candidate == nil {
		// Deliberately indistinguishable from a bad code.
		return apperrors.Auth("invalid credentials or code")
	}

	role, err := c.store.GetRoleByID(ctx, candidate.RoleID)
	if err != nil {
		return fmt.Errorf("failed to load role: %w", err)
	}
	if role == nil {
		return apperrors.NotFound("role no longer exists")
	}

	_, err = c.issueVerificationCode(ctx, candidate, role)
	return err
}
