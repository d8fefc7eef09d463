package services

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hireflow/backend/apperrors"
)

// maxResumeSize caps the multipart upload at 10 MB.
const maxResumeSize = 10 << 20

// PublicEndpoints exposes the unauthenticated candidate-facing surface:
// application submission and code verification.
type PublicEndpoints struct {
	submissions  *SubmissionCoordinator
	verification *VerificationGate
}

func NewPublicEndpoints(submissions *SubmissionCoordinator, verification *VerificationGate) *PublicEndpoints {
	return &PublicEndpoints{
		submissions:  submissions,
		verification: verification,
	}
}

func (e *PublicEndpoints) RegisterRoutes(r chi.Router) {
	r.Post("/apply/{token}", e.ApplyHandler)
	r.Post("/verify", e.VerifyHandler)
	r.Post("/verify/resend", e.ResendHandler)
}

// ApplyHandler accepts a multipart candidate application: contact fields plus
// the resume file.
func (e *PublicEndpoints) ApplyHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxResumeSize); err != nil {
		writeError(w, apperrors.Validation("invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("resume")
	if err != nil {
		writeError(w, apperrors.Validation("resume file is required"))
		return
	}
	defer file.Close()

	// Read one byte past the cap so an oversize upload is rejected rather
	// than silently truncated.
	resume, err := io.ReadAll(io.LimitReader(file, maxResumeSize+1))
	if err != nil {
		writeError(w, apperrors.Validation("failed to read resume file"))
		return
	}
	if len(resume) > maxResumeSize {
		writeError(w, apperrors.Validation("resume file exceeds the 10 MB limit"))
		return
	}

	req := SubmissionRequest{
		RoleToken:  chi.URLParam(r, "token"),
		FirstName:  r.FormValue("first_name"),
		LastName:   r.FormValue("last_name"),
		Email:      r.FormValue("email"),
		Phone:      r.FormValue("phone"),
		Resume:     resume,
		ResumeMIME: header.Header.Get("Content-Type"),
	}

	result, err := e.submissions.Submit(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"candidate_id": result.CandidateID,
		"code_sent":    result.CodeSent,
		"message":      "Application received. Check your messages for a verification code.",
	})
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// VerifyHandler checks the one-time code and returns the interview join link
// when scheduling succeeds in-line.
func (e *PublicEndpoints) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Validation("invalid request body"))
		return
	}

	result, err := e.verification.Verify(r.Context(), req.Email, req.Code)
	if err != nil {
		writeError(w, err)
		return
	}

	response := map[string]interface{}{
		"candidate_id": result.CandidateID,
		"verified":     true,
	}
	if result.SchedulingFailed {
		response["message"] = "Verified. Your interview link will be sent shortly."
	} else {
		response["interview_url"] = result.InterviewURL
	}
	writeJSON(w, http.StatusOK, response)
}

type resendRequest struct {
	Email string `json:"email"`
}

func (e *PublicEndpoints) ResendHandler(w http.ResponseWriter, r *http.Request) {
	var req resendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Validation("invalid request body"))
		return
	}

	if err := e.submissions.ResendCode(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}

	slog.Info("Verification code resent", "email", req.Email)
	writeJSON(w, http.StatusOK, map[string]string{"message": "A new verification code has been sent."})
}
