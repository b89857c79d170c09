// Package rotation implements password rotation: validation, single and
// emergency rotation, vault schedules, alerts, compliance, and batches.
package rotation

import (
	"context"
	"errors"
	"time"

	"github.com/org/assetvault/internal/audit"
	"github.com/org/assetvault/internal/crypto"
	"github.com/org/assetvault/internal/fault"
	"github.com/org/assetvault/internal/password"
	"github.com/org/assetvault/internal/storage"
	"github.com/org/assetvault/pkg/models"
)

// MinRotationLength is the minimum length for a rotated password.
const MinRotationLength = 12

// historyKeep is how many reuse-history rows survive pruning per secret.
const historyKeep = 5

// Service performs password rotations.
type Service struct {
	store storage.Store
	audit *audit.Logger
}

// NewService creates a rotation Service.
func NewService(store storage.Store, auditLog *audit.Logger) *Service {
	return &Service{store: store, audit: auditLog}
}

// ValidateRotation checks a candidate password: minimum length and no reuse
// of any retained history. excludeSecretID skips the secret's own history.
func (s *Service) ValidateRotation(ctx context.Context, newPassword string, excludeSecretID *int64) error {
	if len(newPassword) < MinRotationLength {
		return fault.Validationf("rotated password must be at least %d characters", MinRotationLength)
	}
	reused, err := password.NewReuseChecker(s.store).IsReused(ctx, newPassword, excludeSecretID)
	if err != nil {
		return fault.Persistencef(err, "checking password reuse")
	}
	if reused {
		return fault.Validationf("password was used before")
	}
	return nil
}

// Rotate replaces a password secret's value. The data changes are atomic:
// retire old history, write new ciphertext and history, prune, append
// rotation history and the vault version row. The audit event fires after
// commit.
func (s *Service) Rotate(ctx context.Context, p models.Principal, secretID int64, newPassword, reason string) (*models.Secret, error) {
	return s.rotate(ctx, p, secretID, newPassword, reason, models.EventPasswordRotated, false, nil)
}

// EmergencyRotate rotates immediately with the given reason. skipValidation
// bypasses the length and reuse checks for break-glass scenarios.
func (s *Service) EmergencyRotate(ctx context.Context, p models.Principal, secretID int64, newPassword, reason string, skipValidation bool) (*models.Secret, error) {
	if reason == "" {
		reason = "emergency"
	}
	return s.rotate(ctx, p, secretID, newPassword, reason, models.EventEmergencyRotation, skipValidation, nil)
}

func (s *Service) rotate(ctx context.Context, p models.Principal, secretID int64, newPassword, reason, eventType string, skipValidation bool, batchID *int64) (*models.Secret, error) {
	sec, err := s.store.GetSecret(ctx, secretID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fault.NotFoundf("secret %d not found", secretID)
		}
		return nil, fault.Persistencef(err, "fetching secret")
	}
	if sec.Type != models.SecretPassword {
		return nil, fault.Validationf("secret %d is %s, only passwords rotate", secretID, sec.Type)
	}
	if !skipValidation {
		if err := s.ValidateRotation(ctx, newPassword, nil); err != nil {
			return nil, err
		}
	}

	err = s.store.RunInTx(ctx, func(tx storage.Store) error {
		return rotateInTx(ctx, tx, p, sec, newPassword, reason, batchID)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Event(ctx, eventType, p, "password rotated",
		map[string]any{"vault_id": sec.VaultID, "secret_id": secretID,
			"label": sec.Label, "reason": reason})
	return sec, nil
}

// rotateInTx applies one rotation's writes against tx. It mutates sec with
// the new ciphertext and bookkeeping. Shared by single and batch rotation.
func rotateInTx(ctx context.Context, tx storage.Store, p models.Principal, sec *models.Secret, newPassword, reason string, batchID *int64) error {
	now := time.Now().UTC()

	oldHash := ""
	history, err := tx.ListPasswordHistory(ctx, sec.ID)
	if err != nil {
		return fault.Persistencef(err, "reading password history")
	}
	for _, h := range history {
		if h.RetiredAt == nil {
			oldHash = h.PasswordHash
			break
		}
	}

	if err := tx.RetirePasswordHistory(ctx, sec.ID, now); err != nil {
		return fault.Persistencef(err, "retiring password history")
	}
	newHash, err := password.HashForReuse(newPassword)
	if err != nil {
		return err
	}
	if err := tx.InsertPasswordHistory(ctx, &models.PasswordHistory{
		SecretID:     sec.ID,
		PasswordHash: newHash,
		CreatedAt:    now,
	}); err != nil {
		return fault.Persistencef(err, "inserting password history")
	}
	if err := tx.PrunePasswordHistory(ctx, sec.ID, historyKeep); err != nil {
		return fault.Persistencef(err, "pruning password history")
	}

	encrypted, err := crypto.Encrypt(crypto.Seed(sec.VaultID, p.UserID, p.Username), []byte(newPassword))
	if err != nil {
		return err
	}
	strength := password.AnalyzeStrength(newPassword)
	sec.EncryptedValue = encrypted
	sec.StrengthScore = &strength.Score
	sec.LastChanged = &now
	sec.LastRotated = &now
	sec.GenerationMethod = "rotation"
	sec.PolicyVersion = password.DefaultPolicy().Version
	if sec.RotationIntervalDays != nil && *sec.RotationIntervalDays > 0 {
		due := now.AddDate(0, 0, *sec.RotationIntervalDays)
		sec.NextRotationDue = &due
	} else {
		sec.NextRotationDue = nil
	}
	if err := tx.ApplySecretRotation(ctx, sec); err != nil {
		return fault.Persistencef(err, "applying rotation")
	}

	if err := tx.InsertRotationHistory(ctx, &models.PasswordRotationHistory{
		SecretID:        sec.ID,
		OldPasswordHash: oldHash,
		Reason:          reason,
		RotatedBy:       p.UserID,
		RotatedAt:       now,
		BatchID:         batchID,
	}); err != nil {
		return fault.Persistencef(err, "recording rotation history")
	}

	return tx.AppendVaultVersion(ctx, &models.VaultVersion{
		VaultID:    sec.VaultID,
		ChangeType: models.ChangeSecretUpdated,
		Author:     p.UserID,
		CreatedAt:  now,
		Changes:    map[string]any{"label": sec.Label, "rotated": true, "reason": reason},
	})
}

// RotationHistory returns a secret's rotation records, newest first.
func (s *Service) RotationHistory(ctx context.Context, secretID int64) ([]*models.PasswordRotationHistory, error) {
	history, err := s.store.ListRotationHistory(ctx, secretID)
	if err != nil {
		return nil, fault.Persistencef(err, "listing rotation history")
	}
	return history, nil
}
