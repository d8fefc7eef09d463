package services

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hireflow/backend/apperrors"
	"github.com/hireflow/backend/repository"
)

// CandidateEndpoints is the recruiter-facing pipeline view: candidate
// listings, interview retries and report rendering.
type CandidateEndpoints struct {
	repo      *repository.GORMRepository
	scheduler *InterviewScheduler
	assembler *ReportAssembler
}

func NewCandidateEndpoints(repo *repository.GORMRepository, scheduler *InterviewScheduler, assembler *ReportAssembler) *CandidateEndpoints {
	return &CandidateEndpoints{
		repo:      repo,
		scheduler: scheduler,
		assembler: assembler,
	}
}

func (e *CandidateEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/candidates", func(r chi.Router) {
		r.Get("/", e.ListHandler)
		r.Get("/{id}", e.GetHandler)
		r.Post("/{id}/interview/retry", e.RetryInterviewHandler)
		r.Post("/{id}/report/render", e.RenderReportHandler)
		r.Get("/{id}/report", e.GetReportHandler)
	})
}

func (e *CandidateEndpoints) ListHandler(w http.ResponseWriter, r *http.Request) {
	candidates, err := e.repo.ListCandidates(r.Context(), r.URL.Query().Get("role_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"candidates": candidates})
}

func (e *CandidateEndpoints) GetHandler(w http.ResponseWriter, r *http.Request) {
	candidate, err := e.repo.GetCandidateByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if candidate == nil {
		writeError(w, apperrors.NotFound("candidate not found"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"candidate": candidate})
}

// RetryInterviewHandler re-attempts scheduling for a verified candidate whose
// interview has no recording yet.
func (e *CandidateEndpoints) RetryInterviewHandler(w http.ResponseWriter, r *http.Request) {
	candidate, err := e.repo.GetCandidateByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if candidate == nil {
		writeError(w, apperrors.NotFound("candidate not found"))
		return
	}

	role, err := e.repo.GetRoleByID(r.Context(), candidate.RoleID)
	if err != nil {
		writeError(w, err)
		return
	}
	if role == nil {
		writeError(w, apperrors.NotFound("role no longer exists"))
		return
	}

	interview, err := e.scheduler.Retry(r.Context(), candidate, role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"interview": interview})
}

func (e *CandidateEndpoints) RenderReportHandler(w http.ResponseWriter, r *http.Request) {
	rendered, err := e.assembler.RenderReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"report_id":  rendered.ReportID,
		"pdf_key":    rendered.PDFKey,
		"signed_url": rendered.SignedURL,
	})
}

func (e *CandidateEndpoints) GetReportHandler(w http.ResponseWriter, r *http.Request) {
	candidateID := chi.URLParam(r, "id")
	candidate, err := e.repo.GetCandidateByID(r.Context(), candidateID)
	if err != nil {
		writeError(w, err)
		return
	}
	if candidate == nil {
		writeError(w, apperrors.NotFound("candidate not found"))
		return
	}

	report, err := e.repo.GetReportByCandidateAndRole(r.Context(), candidateID, candidate.RoleID)
	if err != nil {
		writeError(w, err)
		return
	}
	if report == nil {
		writeError(w, apperrors.NotFound("no report exists for this candidate yet"))
		return
	}

	response := map[string]interface{}{"report": report}
	if report.PDFKey != "" {
		if url, err := e.assembler.DownloadURL(r.Context(), candidateID); err == nil {
			response["download_url"] = url
		}
	}
	writeJSON(w, http.StatusOK, response)
}
