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

// EventRecordingReady is the only event type that mutates state. Other event
// types are acknowledged and ignored, which keeps the endpoint
// forward-compatible with future vendor events.
const EventRecordingReady = "recording.ready"

// WebhookStore is the slice of the repository the reconciler needs.
type WebhookStore interface {
	GetCandidateByID(ctx context.Context, id string) (*models.Candidate, error)
	GetRoleByID(ctx context.Context, id string) (*models.Role, error)
	GetInterviewByCandidateAndRole(ctx context.Context, candidateID, roleID string) (*models.Interview, error)
	UpsertInterview(ctx context.Context, interview *models.Interview) error
}

// VideoWebhookEvent is the recording-ready payload the vendor delivers.
// Delivery may be arbitrarily delayed, duplicated or out of order.
type VideoWebhookEvent struct {
	EventType       string `json:"event_type"`
	SessionID       string `json:"session_id"`
	VideoURL        string `json:"video_url"`
	CandidateID     string `json:"candidate_id"`
	DurationSeconds int    `json:"duration_seconds"`
	CompletedAt     string `json:"completed_at"`
	Transcript      string `json:"transcript,omitempty"`
}

// WebhookReconciler consumes recording-ready events, persists interview
// artifacts and triggers score reconciliation. Redelivery of the same event
// converges on the same final state.
type WebhookReconciler struct {
	store      WebhookStore
	secret     string
	analyzer   ResumeAnalyzer
	reconciler *ScoreReconciler
	events     LifecyclePublisher
}

func NewWebhookReconciler(store WebhookStore, secret string, analyzer ResumeAnalyzer, reconciler *ScoreReconciler, events LifecyclePublisher) *WebhookReconciler {
	return &WebhookReconciler{
		store:      store,
		secret:     secret,
		analyzer:   analyzer,
		reconciler: reconciler,
		events:     events,
	}
}

// VerifySecret checks the shared secret carried by the request in constant
// time. A mismatch performs no state change.
func (w *WebhookReconciler) VerifySecret(provided string) error {
	if w.secret == "" || subtle.ConstantTimeCompare([]byte(w.secret), []byte(provided)) != 1 {
		return apperrors.Auth("webhook secret mismatch")
	}
	return nil
}

// Process applies one vendor event. Events that are not recording-ready are
// acknowledged without any state change. Missing required fields fail with a
// validation error before any write happens.
func (w *WebhookReconciler) Process(ctx context.Context, event VideoWebhookEvent) error {
	if event.EventType != EventRecordingReady {
		slog.Info("Ignoring webhook event type", "event_type", event.EventType)
		return nil
	}

	if event.SessionID == "" || event.VideoURL == "" || event.CandidateID == "" {
		return apperrors.Validation("session_id, video_url and candidate_id are required")
	}

	candidate, err := w.store.GetCandidateByID(ctx, event.CandidateID)
	if err != nil {
		return fmt.Errorf("failed to load candidate: %w", err)
	}
	if candidate == nil {
		return apperrors.NotFound("candidate not found for webhook event")
	}

	interview := &models.Interview{
		CandidateID:     candidate.ID,
		RoleID:          candidate.RoleID,
		SessionID:       event.SessionID,
		VideoURL:        event.VideoURL,
		Status:          models.InterviewStatusVideoReady,
		DurationSeconds: event.DurationSeconds,
	}

	if existing, err := w.store.GetInterviewByCandidateAndRole(ctx, candidate.ID, candidate.RoleID); err == nil && existing != nil {
		// Preserve fields the event does not carry.
		interview.SessionURL = existing.SessionURL
		interview.TranscriptKey = existing.TranscriptKey
		interview.InterviewScore = existing.InterviewScore
		interview.AnalysisSummary = existing.AnalysisSummary
	}

	if event.CompletedAt != "" {
		if completedAt, err := time.Parse(time.RFC3339, event.CompletedAt); err == nil {
			interview.CompletedAt = &completedAt
		} else {
			slog.Warn("Webhook completed_at not RFC3339, ignoring", "completed_at", event.CompletedAt)
		}
	}

	if event.Transcript != "" && interview.InterviewScore == nil {
		w.scoreTranscript(ctx, candidate, interview, event.Transcript)
	}

	if err := w.store.UpsertInterview(ctx, interview); err != nil {
		return fmt.Errorf("failed to persist interview artifacts: %w", err)
	}

	if _, err := w.reconciler.Reconcile(ctx, candidate.ID); err != nil {
		return fmt.Errorf("failed to reconcile scores: %w", err)
	}

	w.events.Publish(candidate.ID, candidate.RoleID, "video_ready")
	slog.Info("Recording-ready event applied", "candidate_id", candidate.ID, "session_id", event.SessionID)
	return nil
}

// scoreTranscript runs LLM analysis over the transcript when the vendor
// includes one. Failure is non-fatal; the interview side simply stays
// unscored until a later analysis.
func (w *WebhookReconciler) scoreTranscript(ctx context.Context, candidate *models.Candidate, interview *models.Interview, transcript string) {
	role, err := w.store.GetRoleByID(ctx, candidate.RoleID)
	if err != nil || role == nil {
		slog.Warn("Failed to load role for transcript analysis", "error", err, "role_id", candidate.RoleID)
		return
	}

	analysis, err := w.analyzer.AnalyzeTranscript(ctx, transcript, role.Rubric)
	if err != nil {
		slog.Warn("Transcript analysis failed, interview side left unscored", "error", err, "candidate_id", candidate.ID)
		return
	}

	interview.InterviewScore = &analysis.Score
	interview.AnalysisSummary = analysis.Summary
}
