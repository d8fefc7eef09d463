package services

import (
	"context"
	"testing"
	"time"

	"github.com/hireflow/backend/apperrors"
	"github.com/hireflow/backend/models"
)

func newWebhookFixture() (*WebhookReconciler, *fakeStore, *fakeAnalyzer, *fakePublisher) {
	store := newFakeStore()
	store.addRole(testRole())
	store.addCandidate(&models.Candidate{
		ID:       "cand-1",
		RoleID:   "role-1",
		Email:    "ada@example.com",
		Verified: true,
	})
	store.reports[pairKey("cand-1", "role-1")] = &models.Report{
		ID:          "report-1",
		CandidateID: "cand-1",
		RoleID:      "role-1",
		ResumeScore: floatPtr(80),
	}
	store.interviews[pairKey("cand-1", "role-1")] = &models.Interview{
		ID:          "interview-1",
		CandidateID: "cand-1",
		RoleID:      "role-1",
		SessionURL:  "https://video.example.com/join/sess-1",
		Status:      models.InterviewStatusPending,
	}

	analyzer := &fakeAnalyzer{interview: &InterviewAnalysis{Score: 60, Summary: "Solid answers"}}
	events := &fakePublisher{}
	reconciler := NewWebhookReconciler(store, "shhh", analyzer, NewScoreReconciler(store), events)
	return reconciler, store, analyzer, events
}

func recordingReadyEvent() VideoWebhookEvent {
	return VideoWebhookEvent{
		EventType:       EventRecordingReady,
		SessionID:       "sess-1",
		VideoURL:        "https://cdn.example.com/rec-1.mp4",
		CandidateID:     "cand-1",
		DurationSeconds: 900,
		CompletedAt:     time.Now().UTC().Format(time.RFC3339),
	}
}

func TestVerifySecret(t *testing.T) {
	reconciler, _, _, _ := newWebhookFixture()

	if err := reconciler.VerifySecret("shhh"); err != nil {
		t.Errorf("matching secret rejected: %v", err)
	}
	if err := reconciler.VerifySecret("wrong"); !apperrors.IsKind(err, apperrors.KindAuth) {
		t.Errorf("mismatch error = %v, want auth", err)
	}

	unconfigured := NewWebhookReconciler(newFakeStore(), "", nil, nil, &fakePublisher{})
	if err := unconfigured.VerifySecret(""); !apperrors.IsKind(err, apperrors.KindAuth) {
		t.Errorf("empty configured secret must deny everything, got %v", err)
	}
}

func TestProcessRecordingReady(t *testing.T) {
	reconciler, store, _, events := newWebhookFixture()

	if err := reconciler.Process(context.Background(), recordingReadyEvent()); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	interview := store.interviews[pairKey("cand-1", "role-1")]
	if interview.VideoURL != "https://cdn.example.com/rec-1.mp4" {
		t.Errorf("video URL = %q", interview.VideoURL)
	}
	if interview.Status != models.InterviewStatusVideoReady {
		t.Errorf("status = %q, want video_ready", interview.Status)
	}
	if interview.SessionURL != "https://video.example.com/join/sess-1" {
		t.Error("session URL lost during upsert")
	}
	if interview.DurationSeconds != 900 {
		t.Errorf("duration = %d", interview.DurationSeconds)
	}
	if interview.CompletedAt == nil {
		t.Error("completed_at not recorded")
	}

	report := store.reports[pairKey("cand-1", "role-1")]
	if report.OverallScore == nil || *report.OverallScore != 80 {
		// No transcript in the event, so the interview side stays unscored
		// and overall remains the resume side.
		t.Errorf("overall = %v, want 80", report.OverallScore)
	}
	if len(events.events) != 1 || events.events[0] != "video_ready" {
		t.Errorf("events = %v", events.events)
	}
}

func TestProcessTranscriptScoresInterviewSide(t *testing.T) {
	reconciler, store, analyzer, _ := newWebhookFixture()
	event := recordingReadyEvent()
	event.Transcript = "Q: ... A: ..."

	if err := reconciler.Process(context.Background(), event); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if analyzer.scriptHits != 1 {
		t.Errorf("transcript analyzed %d times, want 1", analyzer.scriptHits)
	}

	report := store.reports[pairKey("cand-1", "role-1")]
	if report.InterviewScore == nil || *report.InterviewScore != 60 {
		t.Errorf("interview score = %v, want 60", report.InterviewScore)
	}
	if report.OverallScore == nil || *report.OverallScore != 70 {
		t.Errorf("overall = %v, want mean 70", report.OverallScore)
	}
}

func TestProcessIgnoresOtherEventTypes(t *testing.T) {
	reconciler, store, _, events := newWebhookFixture()
	event := recordingReadyEvent()
	event.EventType = "session.started"

	if err := reconciler.Process(context.Background(), event); err != nil {
		t.Fatalf("Process() error = %v, unknown events must be acked", err)
	}
	if store.interviews[pairKey("cand-1", "role-1")].Status != models.InterviewStatusPending {
		t.Error("non recording-ready event must not mutate state")
	}
	if len(events.events) != 0 {
		t.Errorf("events = %v, want none", events.events)
	}
}

func TestProcessMissingFields(t *testing.T) {
	reconciler, _, _, _ := newWebhookFixture()

	tests := []struct {
		name   string
		mutate func(*VideoWebhookEvent)
	}{
		{"missing session id", func(e *VideoWebhookEvent) { e.SessionID = "" }},
		{"missing video url", func(e *VideoWebhookEvent) { e.VideoURL = "" }},
		{"missing candidate id", func(e *VideoWebhookEvent) { e.CandidateID = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := recordingReadyEvent()
			tt.mutate(&event)
			err := reconciler.Process(context.Background(), event)
			if !apperrors.IsKind(err, apperrors.KindValidation) {
				t.Errorf("Process() error = %v, want validation", err)
			}
		})
	}
}

func TestProcessUnknownCandidate(t *testing.T) {
	reconciler, _, _, _ := newWebhookFixture()
	event := recordingReadyEvent()
	event.CandidateID = "ghost"

	err := reconciler.Process(context.Background(), event)
	if !apperrors.IsKind(err, apperrors.KindNotFound) {
		t.Errorf("Process() error = %v, want not_found", err)
	}
}

func TestProcessRedeliveryConverges(t *testing.T) {
	reconciler, store, analyzer, _ := newWebhookFixture()
	event := recordingReadyEvent()
	event.Transcript = "Q: ... A: ..."

	if err := reconciler.Process(context.Background(), event); err != nil {
		t.Fatalf("first Process() error = %v", err)
	}
	if err := reconciler.Process(context.Background(), event); err != nil {
		t.Fatalf("redelivery Process() error = %v", err)
	}

	if analyzer.scriptHits != 1 {
		t.Errorf("transcript re-analyzed on redelivery: %d hits", analyzer.scriptHits)
	}
	if len(store.interviews) != 1 {
		t.Errorf("interviews = %d, want 1", len(store.interviews))
	}
	report := store.reports[pairKey("cand-1", "role-1")]
	if report.OverallScore == nil || *report.OverallScore != 70 {
		t.Errorf("overall after redelivery = %v, want 70", report.OverallScore)
	}
}
