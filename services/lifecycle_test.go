package services

import (
	"context"
	"testing"
	"time"

	"github.com/hireflow/backend/models"
)

// TestCandidateLifecycle walks the full pipeline with fakes: submission,
// code verification, interview scheduling, recording-ready webhook and the
// final merged scores.
func TestCandidateLifecycle(t *testing.T) {
	ctx := context.Background()

	store := newFakeStore()
	store.addRole(testRole())

	analyzer := &fakeAnalyzer{
		resume:    &ResumeAnalysis{ResumeScore: 80, SkillsMatch: 85, ExperienceMatch: 75, EducationMatch: 80, Summary: "Strong fit"},
		interview: &InterviewAnalysis{Score: 60, Summary: "Solid answers"},
	}
	storage := newFakeStorage()
	notifier := &fakeNotifier{}
	vendor := &fakeVendor{session: &VideoSession{SessionID: "sess-1", SessionURL: "https://video.example.com/join/sess-1"}}
	events := &fakePublisher{}

	submissions := NewSubmissionCoordinator(store, analyzer, storage, notifier, "resumes")
	scheduler := NewInterviewScheduler(store, vendor, "https://api.example.com/webhooks/video")
	gate := NewVerificationGate(store, scheduler, events)
	webhooks := NewWebhookReconciler(store, "shhh", analyzer, NewScoreReconciler(store), events)

	// Candidate applies.
	submitted, err := submissions.Submit(ctx, validSubmission())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	// Candidate verifies with the dispatched code.
	code := store.tokens[0].Code
	verified, err := gate.Verify(ctx, "ada@example.com", code)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if verified.CandidateID != submitted.CandidateID {
		t.Fatalf("verified %q, submitted %q", verified.CandidateID, submitted.CandidateID)
	}
	if verified.InterviewURL == "" {
		t.Fatal("no interview link after verification")
	}

	// Vendor finishes the interview and calls back.
	event := VideoWebhookEvent{
		EventType:       EventRecordingReady,
		SessionID:       "sess-1",
		VideoURL:        "https://cdn.example.com/rec-1.mp4",
		CandidateID:     submitted.CandidateID,
		DurationSeconds: 1200,
		CompletedAt:     time.Now().UTC().Format(time.RFC3339),
		Transcript:      "Q: ... A: ...",
	}
	if err := webhooks.Process(ctx, event); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	// Final state: one interview, one report, merged scores.
	interview := store.interviews[pairKey(submitted.CandidateID, "role-1")]
	if interview == nil || interview.Status != models.InterviewStatusVideoReady {
		t.Fatalf("interview = %+v", interview)
	}
	report := store.reports[pairKey(submitted.CandidateID, "role-1")]
	if report == nil {
		t.Fatal("no report")
	}
	if report.ResumeScore == nil || *report.ResumeScore != 80 {
		t.Errorf("resume score = %v", report.ResumeScore)
	}
	if report.InterviewScore == nil || *report.InterviewScore != 60 {
		t.Errorf("interview score = %v", report.InterviewScore)
	}
	if report.OverallScore == nil || *report.OverallScore != 70 {
		t.Errorf("overall = %v, want 70", report.OverallScore)
	}

	// Dashboards saw both transitions.
	if len(events.events) != 2 || events.events[0] != "candidate_verified" || events.events[1] != "video_ready" {
		t.Errorf("events = %v", events.events)
	}
}
