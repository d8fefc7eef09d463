package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hireflow/backend/apperrors"
	"github.com/hireflow/backend/models"
)

// SchedulerStore is the slice of the repository the scheduler needs.
type SchedulerStore interface {
	GetInterviewByCandidateAndRole(ctx context.Context, candidateID, roleID string) (*models.Interview, error)
	UpsertPendingInterview(ctx context.Context, interview *models.Interview) error
}

// LifecyclePublisher broadcasts candidate lifecycle events to connected
// recruiter dashboards.
type LifecyclePublisher interface {
	Publish(candidateID, roleID, event string)
}

// InterviewScheduler creates or retrieves the video-interview session for a
// verified candidate, idempotently.
type InterviewScheduler struct {
	store       SchedulerStore
	vendor      VideoVendor
	callbackURL string
}

func NewInterviewScheduler(store SchedulerStore, vendor VideoVendor, callbackURL string) *InterviewScheduler {
	return &InterviewScheduler{
		store:       store,
		vendor:      vendor,
		callbackURL: callbackURL,
	}
}

// EnsureInterview returns the existing interview unchanged when it already
// has a recording; otherwise it books a vendor session and upserts the row
// keyed on (candidate, role). Racing callers converge on one row via the
// unique constraint. Vendor failure leaves the row absent or pending so a
// later retry needs no manual cleanup.
func (s *InterviewScheduler) EnsureInterview(ctx context.Context, candidate *models.Candidate, role *models.Role) (*models.Interview, error) {
	if !candidate.Verified {
		return nil, apperrors.Validation("candidate is not verified")
	}

	existing, err := s.store.GetInterviewByCandidateAndRole(ctx, candidate.ID, role.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up interview: %w", err)
	}
	if existing != nil && existing.VideoURL != "" {
		return existing, nil
	}

	session, err := s.vendor.CreateSession(ctx, VideoSessionRequest{
		CandidateID:   candidate.ID,
		CandidateName: candidate.FirstName + " " + candidate.LastName,
		RoleTitle:     role.Title,
		Rubric:        role.Rubric,
		CallbackURL:   s.callbackURL,
	})
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindUnknown {
			return nil, apperrors.Wrap(apperrors.KindUpstream, "video vendor session creation failed", err)
		}
		return nil, err
	}

	interview := &models.Interview{
		CandidateID: candidate.ID,
		RoleID:      role.ID,
		SessionID:   session.SessionID,
		SessionURL:  session.SessionURL,
		Status:      models.InterviewStatusPending,
	}
	// The conditional upsert never touches recording fields, so a webhook
	// that landed during the vendor call wins this race.
	if err := s.store.UpsertPendingInterview(ctx, interview); err != nil {
		return nil, fmt.Errorf("failed to persist interview: %w", err)
	}

	slog.Info("Interview scheduled", "candidate_id", candidate.ID, "role_id", role.ID, "session_id", session.SessionID)
	return interview, nil
}

// Retry re-invokes scheduling for an interview that has no recording yet.
// Guaranteed to be a no-op once a video URL exists.
func (s *InterviewScheduler) Retry(ctx context.Context, candidate *models.Candidate, role *models.Role) (*models.Interview, error) {
	existing, err := s.store.GetInterviewByCandidateAndRole(ctx, candidate.ID, role.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up interview: %w", err)
	}
	if existing != nil && existing.VideoURL != "" {
		return existing, nil
	}
	return s.EnsureInterview(ctx, candidate, role)
}
