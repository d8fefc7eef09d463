package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/hireflow/backend/apperrors"
	"github.com/hireflow/backend/models"
)

// ReconcilerStore is the slice of the repository the reconciler needs.
type ReconcilerStore interface {
	GetCandidateByID(ctx context.Context, id string) (*models.Candidate, error)
	GetInterviewByCandidateAndRole(ctx context.Context, candidateID, roleID string) (*models.Interview, error)
	GetReportByCandidateAndRole(ctx context.Context, candidateID, roleID string) (*models.Report, error)
	UpsertReport(ctx context.Context, report *models.Report) error
}

// ScoreReconciler merges resume-side and interview-side scores into one
// record per candidate. Recomputation is a pure function over current stored
// state: running it twice with the same data yields the same output.
type ScoreReconciler struct {
	store ReconcilerStore
}

func NewScoreReconciler(store ReconcilerStore) *ScoreReconciler {
	return &ScoreReconciler{store: store}
}

// Reconcile rebuilds the merged score record for a candidate from whatever
// resume-side and interview-side data currently exists.
func (r *ScoreReconciler) Reconcile(ctx context.Context, candidateID string) (*models.Report, error) {
	candidate, err := r.store.GetCandidateByID(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate: %w", err)
	}
	if candidate == nil {
		return nil, apperrors.NotFound("candidate not found")
	}

	report, err := r.store.GetReportByCandidateAndRole(ctx, candidateID, candidate.RoleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	if report == nil {
		report = &models.Report{
			CandidateID: candidateID,
			RoleID:      candidate.RoleID,
		}
	}

	interview, err := r.store.GetInterviewByCandidateAndRole(ctx, candidateID, candidate.RoleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load interview: %w", err)
	}
	if interview != nil && interview.InterviewScore != nil {
		score := *interview.InterviewScore
		report.InterviewScore = &score
		report.InterviewSummary = interview.AnalysisSummary
	}

	RecomputeOverall(report)

	if err := r.store.UpsertReport(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to persist reconciled report: %w", err)
	}

	slog.Info("Scores reconciled", "candidate_id", candidateID, "overall_score", overallForLog(report))
	return report, nil
}

// RecomputeOverall derives the overall score from the two sides:
// both present -> round of the mean; one present -> that side; neither ->
// nil, which is a valid, displayable "pending" state. Missing sides stay nil,
// never zero, so "not yet available" remains distinguishable from "scored
// zero".
func RecomputeOverall(report *models.Report) {
	switch {
	case report.ResumeScore != nil && report.InterviewScore != nil:
		overall := math.Round((*report.ResumeScore + *report.InterviewScore) / 2)
		report.OverallScore = &overall
	case report.ResumeScore != nil:
		overall := *report.ResumeScore
		report.OverallScore = &overall
	case report.InterviewScore != nil:
		overall := *report.InterviewScore
		report.OverallScore = &overall
	default:
		report.OverallScore = nil
	}
}

func overallForLog(report *models.Report) interface{} {
	if report.OverallScore == nil {
		return "pending"
	}
	return *report.OverallScore
}
