package services

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// HygieneEndpoints exposes batch normalization and duplicate review.
type HygieneEndpoints struct {
	hygiene *HygieneService
}

func NewHygieneEndpoints(hygiene *HygieneService) *HygieneEndpoints {
	return &HygieneEndpoints{hygiene: hygiene}
}

func (e *HygieneEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/hygiene", func(r chi.Router) {
		r.Get("/duplicates", e.DuplicatesHandler)
		r.Post("/normalize", e.NormalizeHandler)
	})
}

func (e *HygieneEndpoints) DuplicatesHandler(w http.ResponseWriter, r *http.Request) {
	groups, err := e.hygiene.FindDuplicates(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"groups": groups})
}

// NormalizeHandler runs a normalization pass. Without apply=true it is a dry
// run reporting what would change.
func (e *HygieneEndpoints) NormalizeHandler(w http.ResponseWriter, r *http.Request) {
	apply := r.URL.Query().Get("apply") == "true"
	run, err := e.hygiene.NormalizeAll(r.Context(), apply)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}
