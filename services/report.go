package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hireflow/backend/apperrors"
	"github.com/hireflow/backend/models"
)

// ReportStore is the slice of the repository the assembler needs.
type ReportStore interface {
	GetCandidateByID(ctx context.Context, id string) (*models.Candidate, error)
	GetRoleByID(ctx context.Context, id string) (*models.Role, error)
	GetReportByCandidateAndRole(ctx context.Context, candidateID, roleID string) (*models.Report, error)
	GetInterviewByCandidateAndRole(ctx context.Context, candidateID, roleID string) (*models.Interview, error)
	SetReportPDF(ctx context.Context, reportID, pdfKey string) error
}

// ReportPayload is everything the rendering vendor needs to lay out one
// candidate report. Nil score pointers render as "pending".
type ReportPayload struct {
	CandidateName    string              `json:"candidate_name"`
	CandidateEmail   string              `json:"candidate_email"`
	RoleTitle        string              `json:"role_title"`
	ResumeScore      *float64            `json:"resume_score"`
	SkillsMatch      *float64            `json:"skills_match"`
	ExperienceMatch  *float64            `json:"experience_match"`
	EducationMatch   *float64            `json:"education_match"`
	ResumeSummary    string              `json:"resume_summary"`
	InterviewScore   *float64            `json:"interview_score"`
	InterviewSummary string              `json:"interview_summary"`
	OverallScore     *float64            `json:"overall_score"`
	VideoURL         string              `json:"video_url,omitempty"`
	Rubric           []models.RubricItem `json:"rubric,omitempty"`
	GeneratedAt      time.Time           `json:"generated_at"`
}

// RenderedReport is what a render run hands back to the caller.
type RenderedReport struct {
	ReportID  string
	PDFKey    string
	SignedURL string
}

// ReportAssembler builds the report payload from current stored state, sends
// it to the rendering vendor and archives the finished PDF.
type ReportAssembler struct {
	store        ReportStore
	renderer     PDFRenderer
	storage      ObjectStorage
	reportBucket string
	pollAttempts int
	pollDelay    time.Duration
	httpClient   *http.Client
}

func NewReportAssembler(store ReportStore, renderer PDFRenderer, storage ObjectStorage, reportBucket string, pollAttempts int, pollDelay time.Duration) *ReportAssembler {
	if pollAttempts <= 0 {
		pollAttempts = 10
	}
	if pollDelay <= 0 {
		pollDelay = 2 * time.Second
	}
	return &ReportAssembler{
		store:        store,
		renderer:     renderer,
		storage:      storage,
		reportBucket: reportBucket,
		pollAttempts: pollAttempts,
		pollDelay:    pollDelay,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
	}
}

// RenderReport assembles the current report state into a PDF. Each run
// produces a fresh artifact key, so re-rendering after new scores arrive
// never clobbers a download already in flight.
func (a *ReportAssembler) RenderReport(ctx context.Context, candidateID string) (*RenderedReport, error) {
	candidate, err := a.store.GetCandidateByID(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate: %w", err)
	}
	if candidate == nil {
		return nil, apperrors.NotFound("candidate not found")
	}

	report, err := a.store.GetReportByCandidateAndRole(ctx, candidateID, candidate.RoleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	if report == nil {
		return nil, apperrors.NotFound("no report exists for this candidate yet")
	}

	role, err := a.store.GetRoleByID(ctx, candidate.RoleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load role: %w", err)
	}
	if role == nil {
		return nil, apperrors.NotFound("role no longer exists")
	}

	payload := a.buildPayload(ctx, candidate, role, report)

	jobID, err := a.renderer.Submit(ctx, payload)
	if err != nil {
		return nil, err
	}

	downloadURL, err := a.awaitRender(ctx, jobID)
	if err != nil {
		return nil, err
	}

	pdf, err := a.downloadPDF(ctx, downloadURL)
	if err != nil {
		return nil, err
	}

	pdfKey := fmt.Sprintf("%s/%s/%d.pdf", candidate.RoleID, candidate.ID, time.Now().UnixMilli())
	if err := a.storage.Put(ctx, a.reportBucket, pdfKey, pdf, "application/pdf"); err != nil {
		return nil, err
	}
	if err := a.store.SetReportPDF(ctx, report.ID, pdfKey); err != nil {
		return nil, fmt.Errorf("failed to record report artifact: %w", err)
	}

	result := &RenderedReport{ReportID: report.ID, PDFKey: pdfKey}
	if signed, err := a.storage.SignedURL(ctx, a.reportBucket, pdfKey, 3600); err != nil {
		// Non-fatal: the artifact is stored and can be signed on demand later.
		slog.Warn("Failed to sign report artifact URL", "error", err, "pdf_key", pdfKey)
	} else {
		result.SignedURL = signed
	}

	slog.Info("Report rendered", "candidate_id", candidateID, "pdf_key", pdfKey)
	return result, nil
}

// DownloadURL returns a fresh signed URL for the stored PDF of a candidate's
// report, if one has been rendered.
func (a *ReportAssembler) DownloadURL(ctx context.Context, candidateID string) (string, error) {
	candidate, err := a.store.GetCandidateByID(ctx, candidateID)
	if err != nil {
		return "", fmt.Errorf("failed to load candidate: %w", err)
	}
	if candidate == nil {
		return "", apperrors.NotFound("candidate not found")
	}

	report, err := a.store.GetReportByCandidateAndRole(ctx, candidateID, candidate.RoleID)
	if err != nil {
		return "", fmt.Errorf("failed to load report: %w", err)
	}
	if report == nil || report.PDFKey == "" {
		return "", apperrors.NotFound("no rendered report exists for this candidate")
	}

	return a.storage.SignedURL(ctx, a.reportBucket, report.PDFKey, 3600)
}

func (a *ReportAssembler) buildPayload(ctx context.Context, candidate *models.Candidate, role *models.Role, report *models.Report) ReportPayload {
	payload := ReportPayload{
		CandidateName:    candidate.FirstName + " " + candidate.LastName,
		CandidateEmail:   candidate.Email,
		RoleTitle:        role.Title,
		ResumeScore:      report.ResumeScore,
		SkillsMatch:      report.SkillsMatch,
		ExperienceMatch:  report.ExperienceMatch,
		EducationMatch:   report.EducationMatch,
		ResumeSummary:    report.ResumeSummary,
		InterviewScore:   report.InterviewScore,
		InterviewSummary: report.InterviewSummary,
		OverallScore:     report.OverallScore,
		Rubric:           role.Rubric,
		GeneratedAt:      time.Now().UTC(),
	}

	if interview, err := a.store.GetInterviewByCandidateAndRole(ctx, candidate.ID, candidate.RoleID); err == nil && interview != nil {
		payload.VideoURL = interview.VideoURL
	}

	return payload
}

// awaitRender polls the vendor until the job finishes or the attempt budget
// runs out. Exhaustion is a timeout, not an upstream failure: the job may
// still finish later and a re-render can pick up from scratch.
func (a *ReportAssembler) awaitRender(ctx context.Context, jobID string) (string, error) {
	for attempt := 0; attempt < a.pollAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", apperrors.Wrap(apperrors.KindTimeout, "report rendering cancelled", ctx.Err())
			case <-time.After(a.pollDelay):
			}
		}

		status, err := a.renderer.Poll(ctx, jobID)
		if err != nil {
			return "", err
		}
		switch status.Status {
		case "success":
			return status.DownloadURL, nil
		case "failure":
			return "", apperrors.New(apperrors.KindUpstream, "report rendering failed upstream")
		}
	}
	return "", apperrors.New(apperrors.KindTimeout, "report rendering did not finish in time")
}

func (a *ReportAssembler) downloadPDF(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUpstream, "failed to download rendered report", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.New(apperrors.KindUpstream, fmt.Sprintf("report download returned status %d", resp.StatusCode))
	}
	return io.ReadAll(resp.Body)
}
