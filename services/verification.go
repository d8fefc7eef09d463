package services

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"time"

	"github.com/hireflow/backend/apperrors"
	"github.com/hireflow/backend/models"
)

// VerificationStore is the slice of the repository the gate needs.
type VerificationStore interface {
	GetLatestTokenByEmail(ctx context.Context, email string) (*models.OneTimeToken, error)
	GetCandidateByRoleAndEmail(ctx context.Context, roleID, email string) (*models.Candidate, error)
	GetRoleByID(ctx context.Context, id string) (*models.Role, error)
	MarkCandidateVerified(ctx context.Context, candidateID string) (bool, error)
	ConsumeToken(ctx context.Context, tokenID string) error
}

// VerificationGate validates one-time codes and, on success, marks the
// candidate verified and triggers interview scheduling.
type VerificationGate struct {
	store     VerificationStore
	scheduler *InterviewScheduler
	events    LifecyclePublisher
}

func NewVerificationGate(store VerificationStore, scheduler *InterviewScheduler, events LifecyclePublisher) *VerificationGate {
	return &VerificationGate{
		store:     store,
		scheduler: scheduler,
		events:    events,
	}
}

type VerifyResult struct {
	CandidateID      string
	InterviewURL     string
	SchedulingFailed bool
}

// Verify checks the supplied code against the most recently created token for
// the email. "No token" and "wrong code" are deliberately indistinguishable
// in the returned error to prevent enumeration. Expiry is checked only after
// the code matches. Scheduling failure does not fail verification.
func (g *VerificationGate) Verify(ctx context.Context, email, code string) (*VerifyResult, error) {
	if email == "" || code == "" {
		return nil, apperrors.Validation("email and code are required")
	}

	token, err := g.store.GetLatestTokenByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up verification token: %w", err)
	}
	if token == nil || subtle.ConstantTimeCompare([]byte(token.Code), []byte(code)) != 1 {
		return nil, apperrors.Auth("invalid credentials or code")
	}
	if time.Now().After(token.ExpiresAt) {
		return nil, apperrors.Expired("verification code has expired")
	}

	candidate, err := g.store.GetCandidateByRoleAndEmail(ctx, token.RoleID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up candidate: %w", err)
	}
	if candidate == nil {
		return nil, apperrors.Auth("invalid credentials or code")
	}

	transitioned, err := g.store.MarkCandidateVerified(ctx, candidate.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark candidate verified: %w", err)
	}
	candidate.Verified = true

	if err := g.store.ConsumeToken(ctx, token.ID); err != nil {
		// Non-fatal: the latest-token rule already prevents replay.
		slog.Warn("Failed to mark token consumed", "error", err, "token_id", token.ID)
	}

	if transitioned {
		slog.Info("Candidate verified", "candidate_id", candidate.ID, "role_id", candidate.RoleID)
		g.events.Publish(candidate.ID, candidate.RoleID, "candidate_verified")
	} else {
		// A racing request already won the transition; verification is
		// idempotent from the caller's perspective.
		slog.Info("Candidate already verified", "candidate_id", candidate.ID)
	}

	result := &VerifyResult{CandidateID: candidate.ID}

	role, err := g.store.GetRoleByID(ctx, token.RoleID)
	if err != nil || role == nil {
		slog.Error("Failed to load role for interview scheduling", "error", err, "role_id", token.RoleID)
		result.SchedulingFailed = true
		return result, nil
	}

	interview, err := g.scheduler.EnsureInterview(ctx, candidate, role)
	if err != nil {
		// Verification success is not coupled to scheduling; the retry path
		// re-attempts later.
		slog.Error("Interview scheduling failed after verification", "error", err, "candidate_id", candidate.ID)
		result.SchedulingFailed = true
		return result, nil
	}

	result.InterviewURL = interview.SessionURL
	return result, nil
}
