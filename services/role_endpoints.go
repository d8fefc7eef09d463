package services

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hireflow/backend/apperrors"
	"github.com/hireflow/backend/models"
	"github.com/hireflow/backend/repository"
)

// RoleEndpoints is the recruiter-facing role management surface.
type RoleEndpoints struct {
	repo      *repository.GORMRepository
	publicURL string
}

func NewRoleEndpoints(repo *repository.GORMRepository, publicURL string) *RoleEndpoints {
	return &RoleEndpoints{repo: repo, publicURL: publicURL}
}

func (e *RoleEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/roles", func(r chi.Router) {
		r.Post("/", e.CreateHandler)
		r.Get("/", e.ListHandler)
		r.Get("/{id}", e.GetHandler)
		r.Put("/{id}/rubric", e.UpdateRubricHandler)
	})
}

type createRoleRequest struct {
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Rubric        models.Rubric `json:"rubric"`
	KnowledgeBase string        `json:"knowledge_base"`
}

func (e *RoleEndpoints) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Validation("invalid request body"))
		return
	}
	if req.Title == "" {
		writeError(w, apperrors.Validation("title is required"))
		return
	}

	token, err := generateSubmissionToken()
	if err != nil {
		writeError(w, err)
		return
	}

	role := &models.Role{
		Title:           req.Title,
		Description:     req.Description,
		Rubric:          req.Rubric,
		KnowledgeBase:   req.KnowledgeBase,
		SubmissionToken: token,
	}
	if err := e.repo.CreateRole(r.Context(), role); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"role":      role,
		"apply_url": fmt.Sprintf("%s/apply/%s", e.publicURL, role.SubmissionToken),
	})
}

func (e *RoleEndpoints) ListHandler(w http.ResponseWriter, r *http.Request) {
	roles, err := e.repo.ListRoles(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"roles": roles})
}

func (e *RoleEndpoints) GetHandler(w http.ResponseWriter, r *http.Request) {
	role, err := e.repo.GetRoleByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if role == nil {
		writeError(w, apperrors.NotFound("role not found"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"role": role})
}

type updateRubricRequest struct {
	Rubric        models.Rubric `json:"rubric"`
	KnowledgeBase string        `json:"knowledge_base"`
}

func (e *RoleEndpoints) UpdateRubricHandler(w http.ResponseWriter, r *http.Request) {
	roleID := chi.URLParam(r, "id")
	role, err := e.repo.GetRoleByID(r.Context(), roleID)
	if err != nil {
		writeError(w, err)
		return
	}
	if role == nil {
		writeError(w, apperrors.NotFound("role not found"))
		return
	}

	var req updateRubricRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Validation("invalid request body"))
		return
	}

	if err := e.repo.UpdateRoleRubric(r.Context(), roleID, req.Rubric, req.KnowledgeBase); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Rubric updated"})
}

// generateSubmissionToken mints the opaque token that keys the public apply
// URL for a role.
func generateSubmissionToken() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate submission token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}
