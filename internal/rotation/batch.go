package rotation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/org/assetvault/internal/fault"
	"github.com/org/assetvault/internal/password"
	"github.com/org/assetvault/internal/storage"
	"github.com/org/assetvault/pkg/models"
)

// BatchItem is one secret to rotate within a batch.
type BatchItem struct {
	SecretID    int64
	NewPassword string
}

// BatchResult reports a batch's per-item outcomes.
type BatchResult struct {
	Batch     *models.RotationBatch
	Succeeded []int64
	Failed    map[int64]string
}

// CreateBatch records a pending rotation batch.
func (s *Service) CreateBatch(ctx context.Context, p models.Principal, name, notes string) (*models.RotationBatch, error) {
	if name == "" {
		return nil, fault.Validationf("batch name is required")
	}
	b := &models.RotationBatch{
		Name:      name,
		CreatedBy: p.UserID,
		StartedAt: time.Now().UTC(),
		Status:    models.BatchPending,
		Notes:     notes,
	}
	if err := s.store.CreateRotationBatch(ctx, b); err != nil {
		return nil, fault.Persistencef(err, "creating rotation batch")
	}
	return b, nil
}

// GetBatch fetches a rotation batch.
func (s *Service) GetBatch(ctx context.Context, id int64) (*models.RotationBatch, error) {
	b, err := s.store.GetRotationBatch(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fault.NotFoundf("batch %d not found", id)
		}
		return nil, fault.Persistencef(err, "fetching rotation batch")
	}
	return b, nil
}

// ExecuteBatch rotates every item inside one outer transaction. Each item
// runs in its own savepoint, so one failure rolls back only that item. The
// batch completes if at least one item succeeded and fails if none did;
// either way the returned error names every failed secret while the result
// keeps what durably rotated.
func (s *Service) ExecuteBatch(ctx context.Context, p models.Principal, batchID int64, items []BatchItem) (*BatchResult, error) {
	if len(items) == 0 {
		return nil, fault.Validationf("batch has no items")
	}
	b, err := s.GetBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if b.Status != models.BatchPending {
		return nil, fault.Conflictf("batch %d is %s, not pending", batchID, b.Status)
	}

	b.Status = models.BatchInProgress
	if err := s.store.UpdateRotationBatch(ctx, b); err != nil {
		return nil, fault.Persistencef(err, "starting rotation batch")
	}

	result := &BatchResult{Batch: b, Failed: map[int64]string{}}
	err = s.store.RunInTx(ctx, func(outer storage.Store) error {
		for _, item := range items {
			err := outer.RunInTx(ctx, func(tx storage.Store) error {
				return s.rotateBatchItem(ctx, tx, p, item, batchID)
			})
			if err != nil {
				result.Failed[item.SecretID] = err.Error()
				continue
			}
			result.Succeeded = append(result.Succeeded, item.SecretID)
		}
		return nil
	})
	if err != nil {
		return nil, fault.Persistencef(err, "executing rotation batch")
	}

	now := time.Now().UTC()
	b.CompletedAt = &now
	if len(result.Succeeded) > 0 {
		b.Status = models.BatchCompleted
		if len(result.Failed) > 0 {
			b.Notes = fmt.Sprintf("%d of %d items failed", len(result.Failed), len(items))
		}
	} else {
		b.Status = models.BatchFailed
		b.Notes = "all items failed"
	}
	if err := s.store.UpdateRotationBatch(ctx, b); err != nil {
		return nil, fault.Persistencef(err, "finishing rotation batch")
	}

	s.audit.Event(ctx, models.EventBatchRotation, p, "batch rotation executed",
		map[string]any{"batch_id": batchID, "succeeded": len(result.Succeeded),
			"failed": len(result.Failed)})

	// Partial success is durable; the error still names what failed.
	if len(result.Failed) > 0 {
		ids := make([]string, 0, len(result.Failed))
		for id := range result.Failed {
			ids = append(ids, fmt.Sprintf("%d", id))
		}
		sort.Strings(ids)
		if len(result.Succeeded) == 0 {
			return result, fault.Conflictf("batch %d failed for all secrets: %s",
				batchID, strings.Join(ids, ", "))
		}
		return result, fault.Conflictf("batch %d completed with failures for secrets: %s",
			batchID, strings.Join(ids, ", "))
	}
	return result, nil
}

func (s *Service) rotateBatchItem(ctx context.Context, tx storage.Store, p models.Principal, item BatchItem, batchID int64) error {
	sec, err := tx.GetSecret(ctx, item.SecretID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fault.NotFoundf("secret %d not found", item.SecretID)
		}
		return fault.Persistencef(err, "fetching secret")
	}
	if sec.Type != models.SecretPassword {
		return fault.Validationf("secret %d is %s, only passwords rotate", item.SecretID, sec.Type)
	}
	// Validate against tx so earlier items in the same batch count as history.
	if len(item.NewPassword) < MinRotationLength {
		return fault.Validationf("rotated password must be at least %d characters", MinRotationLength)
	}
	reused, err := password.NewReuseChecker(tx).IsReused(ctx, item.NewPassword, nil)
	if err != nil {
		return fault.Persistencef(err, "checking password reuse")
	}
	if reused {
		return fault.Validationf("password was used before")
	}
	return rotateInTx(ctx, tx, p, sec, item.NewPassword, "batch rotation", &batchID)
}
