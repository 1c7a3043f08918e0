package service

import (
	"go.uber.org/zap"

	"github.com/asah-capstone-a25/leadscore-backend/internal/apperrors"
	"github.com/asah-capstone-a25/leadscore-backend/internal/model"
	"github.com/asah-capstone-a25/leadscore-backend/internal/repository"
)

// BatchWriter persists leads in fixed-size chunks, one transaction per
// chunk. A failure on chunk k leaves chunks 1..k-1 committed; nothing is
// rolled back. This at-least-once policy is deliberate: the store has no
// cross-chunk transaction boundary.
type BatchWriter struct {
	Leads     repository.LeadRepositoryInterface
	ChunkSize int
	Log       *zap.Logger
}

// WriteAll returns the number of rows durably committed. On failure the
// error is a *apperrors.PersistenceError carrying the same count, so the
// orchestrator can size dropped_rows exactly.
func (w *BatchWriter) WriteAll(leads []model.Lead) (int, error) {
	committed := 0
	for start := 0; start < len(leads); start += w.ChunkSize {
		end := start + w.ChunkSize
		if end > len(leads) {
			end = len(leads)
		}
		chunk := leads[start:end]

		if err := w.Leads.BulkInsert(chunk); err != nil {
			w.Log.Error("chunk insert failed",
				zap.Int("chunk_start", start),
				zap.Int("chunk_size", len(chunk)),
				zap.Int("committed", committed),
				zap.Error(err),
			)
			return committed, &apperrors.PersistenceError{Committed: committed, Cause: err}
		}
		committed += len(chunk)
	}
	return committed, nil
}
