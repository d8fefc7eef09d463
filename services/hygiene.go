package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hireflow/backend/models"
	"github.com/hireflow/backend/normalize"
)

const hygieneBatchSize = 200

// HygieneStore is the slice of the repository the hygiene runner needs.
type HygieneStore interface {
	ListCandidateBatch(ctx context.Context, offset, limit int) ([]models.Candidate, error)
	UpdateCandidateContact(ctx context.Context, candidateID, firstName, lastName, email, phone string) error
}

// NormalizationRun summarizes one pass over the candidate table.
type NormalizationRun struct {
	Scanned int  `json:"scanned"`
	Changed int  `json:"changed"`
	Applied bool `json:"applied"`
}

// HygieneService runs batch contact normalization and duplicate detection
// over the candidate table. Duplicate handling is report-only: groups are
// surfaced for manual review, nothing is merged or deleted automatically.
type HygieneService struct {
	store HygieneStore
}

func NewHygieneService(store HygieneStore) *HygieneService {
	return &HygieneService{store: store}
}

// NormalizeAll pages through every candidate and counts rows normalization
// would change. With apply set, the normalized fields are written back;
// a dry run reports the same counts without touching storage. Phones that
// normalize to the undefined value are left as stored.
func (h *HygieneService) NormalizeAll(ctx context.Context, apply bool) (*NormalizationRun, error) {
	run := &NormalizationRun{Applied: apply}

	for offset := 0; ; offset += hygieneBatchSize {
		batch, err := h.store.ListCandidateBatch(ctx, offset, hygieneBatchSize)
		if err != nil {
			return nil, fmt.Errorf("failed to page candidates: %w", err)
		}
		if len(batch) == 0 {
			break
		}
		run.Scanned += len(batch)

		for _, candidate := range batch {
			rec := normalize.Record{
				Name:  candidate.FirstName,
				Email: candidate.Email,
				Phone: candidate.Phone,
			}
			if !normalize.Changed(rec) && normalize.Name(candidate.LastName) == candidate.LastName {
				continue
			}
			run.Changed++

			first := normalize.Name(candidate.FirstName)
			last := normalize.Name(candidate.LastName)
			email := normalize.Email(candidate.Email)
			phone := normalize.Phone(candidate.Phone)
			if phone == "" {
				// Undefined phones are left as stored.
				phone = candidate.Phone
			}

			if !apply {
				continue
			}
			if err := h.store.UpdateCandidateContact(ctx, candidate.ID, first, last, email, phone); err != nil {
				return nil, fmt.Errorf("failed to normalize candidate %s: %w", candidate.ID, err)
			}
		}

		if len(batch) < hygieneBatchSize {
			break
		}
	}

	slog.Info("Normalization pass finished", "scanned", run.Scanned, "changed", run.Changed, "applied", apply)
	return run, nil
}

// FindDuplicates loads all candidates and reports groups that collapse onto
// the same normalized identity within a role.
func (h *HygieneService) FindDuplicates(ctx context.Context) ([]normalize.DuplicateGroup, error) {
	var records []normalize.Record

	for offset := 0; ; offset += hygieneBatchSize {
		batch, err := h.store.ListCandidateBatch(ctx, offset, hygieneBatchSize)
		if err != nil {
			return nil, fmt.Errorf("failed to page candidates: %w", err)
		}
		if len(batch) == 0 {
			break
		}
		for _, candidate := range batch {
			records = append(records, normalize.Record{
				ID:        candidate.ID,
				RoleID:    candidate.RoleID,
				Name:      candidate.FirstName + " " + candidate.LastName,
				Email:     candidate.Email,
				Phone:     candidate.Phone,
				CreatedAt: candidate.CreatedAt,
			})
		}
		if len(batch) < hygieneBatchSize {
			break
		}
	}

	groups := normalize.FindDuplicates(records)
	slog.Info("Duplicate scan finished", "candidates", len(records), "groups", len(groups))
	return groups, nil
}
