package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hireflow/backend/apperrors"
	"github.com/hireflow/backend/models"
)

func newReportFixture(t *testing.T, renderer *fakeRenderer) (*ReportAssembler, *fakeStore, *fakeStorage) {
	t.Helper()

	store := newFakeStore()
	store.addRole(testRole())
	store.addCandidate(&models.Candidate{
		ID:        "cand-1",
		RoleID:    "role-1",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Verified:  true,
	})
	store.reports[pairKey("cand-1", "role-1")] = &models.Report{
		ID:             "report-1",
		CandidateID:    "cand-1",
		RoleID:         "role-1",
		ResumeScore:    floatPtr(80),
		InterviewScore: floatPtr(60),
		OverallScore:   floatPtr(70),
	}

	storage := newFakeStorage()
	assembler := NewReportAssembler(store, renderer, storage, "reports", 3, time.Millisecond)
	return assembler, store, storage
}

func pdfDownloadServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.7 fake"))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRenderReportHappyPath(t *testing.T) {
	server := pdfDownloadServer(t)
	renderer := &fakeRenderer{
		jobID: "job-1",
		statuses: []RenderStatus{
			{Status: "pending"},
			{Status: "success", DownloadURL: server.URL + "/job-1.pdf"},
		},
	}
	assembler, store, storage := newReportFixture(t, renderer)

	result, err := assembler.RenderReport(context.Background(), "cand-1")
	if err != nil {
		t.Fatalf("RenderReport() error = %v", err)
	}
	if result.ReportID != "report-1" {
		t.Errorf("report id = %q", result.ReportID)
	}
	if result.PDFKey == "" || !strings.HasPrefix(result.PDFKey, "role-1/cand-1/") {
		t.Errorf("pdf key = %q", result.PDFKey)
	}
	if result.SignedURL == "" {
		t.Error("expected a signed URL")
	}

	if _, ok := storage.objects["reports/"+result.PDFKey]; !ok {
		t.Error("rendered PDF not archived")
	}
	report := store.reports[pairKey("cand-1", "role-1")]
	if report.PDFKey != result.PDFKey {
		t.Errorf("report pdf key = %q, want %q", report.PDFKey, result.PDFKey)
	}
	if report.RenderedAt == nil {
		t.Error("rendered_at not set")
	}
}

func TestRenderReportFreshArtifactPerRender(t *testing.T) {
	server := pdfDownloadServer(t)
	renderer := &fakeRenderer{
		jobID:    "job-1",
		statuses: []RenderStatus{{Status: "success", DownloadURL: server.URL + "/job-1.pdf"}},
	}
	assembler, _, storage := newReportFixture(t, renderer)

	first, err := assembler.RenderReport(context.Background(), "cand-1")
	if err != nil {
		t.Fatalf("first RenderReport() error = %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	second, err := assembler.RenderReport(context.Background(), "cand-1")
	if err != nil {
		t.Fatalf("second RenderReport() error = %v", err)
	}
	if first.PDFKey == second.PDFKey {
		t.Error("re-render must produce a fresh artifact key")
	}
	if len(storage.objects) != 2 {
		t.Errorf("stored objects = %d, want 2", len(storage.objects))
	}
}

func TestRenderReportUpstreamFailure(t *testing.T) {
	renderer := &fakeRenderer{
		jobID:    "job-1",
		statuses: []RenderStatus{{Status: "failure"}},
	}
	assembler, store, _ := newReportFixture(t, renderer)

	_, err := assembler.RenderReport(context.Background(), "cand-1")
	if !apperrors.IsKind(err, apperrors.KindUpstream) {
		t.Errorf("RenderReport() error = %v, want upstream", err)
	}
	if store.reports[pairKey("cand-1", "role-1")].PDFKey != "" {
		t.Error("failed render must not record an artifact")
	}
}

func TestRenderReportPollExhaustion(t *testing.T) {
	renderer := &fakeRenderer{
		jobID:    "job-1",
		statuses: []RenderStatus{{Status: "pending"}},
	}
	assembler, _, _ := newReportFixture(t, renderer)

	_, err := assembler.RenderReport(context.Background(), "cand-1")
	if !apperrors.IsKind(err, apperrors.KindTimeout) {
		t.Errorf("RenderReport() error = %v, want timeout", err)
	}
	if renderer.polls != 3 {
		t.Errorf("polls = %d, want attempt budget 3", renderer.polls)
	}
}

func TestRenderReportMissingReport(t *testing.T) {
	renderer := &fakeRenderer{jobID: "job-1", statuses: []RenderStatus{{Status: "success"}}}
	assembler, store, _ := newReportFixture(t, renderer)
	delete(store.reports, pairKey("cand-1", "role-1"))

	_, err := assembler.RenderReport(context.Background(), "cand-1")
	if !apperrors.IsKind(err, apperrors.KindNotFound) {
		t.Errorf("RenderReport() error = %v, want not_found", err)
	}
}

func TestRenderReportSignFailureNonFatal(t *testing.T) {
	server := pdfDownloadServer(t)
	renderer := &fakeRenderer{
		jobID:    "job-1",
		statuses: []RenderStatus{{Status: "success", DownloadURL: server.URL + "/job-1.pdf"}},
	}
	assembler, _, storage := newReportFixture(t, renderer)
	storage.signErr = apperrors.New(apperrors.KindStorage, "signer down")

	result, err := assembler.RenderReport(context.Background(), "cand-1")
	if err != nil {
		t.Fatalf("RenderReport() error = %v, sign failure must be non-fatal", err)
	}
	if result.SignedURL != "" {
		t.Error("signed URL should be empty when signing fails")
	}
	if result.PDFKey == "" {
		t.Error("artifact must still be recorded")
	}
}

func TestDownloadURL(t *testing.T) {
	renderer := &fakeRenderer{jobID: "job-1", statuses: []RenderStatus{{Status: "success"}}}
	assembler, store, _ := newReportFixture(t, renderer)

	if _, err := assembler.DownloadURL(context.Background(), "cand-1"); !apperrors.IsKind(err, apperrors.KindNotFound) {
		t.Errorf("DownloadURL() before render error = %v, want not_found", err)
	}

	store.reports[pairKey("cand-1", "role-1")].PDFKey = "role-1/cand-1/1.pdf"
	url, err := assembler.DownloadURL(context.Background(), "cand-1")
	if err != nil {
		t.Fatalf("DownloadURL() error = %v", err)
	}
	if !strings.Contains(url, "role-1/cand-1/1.pdf") {
		t.Errorf("url = %q", url)
	}
}
