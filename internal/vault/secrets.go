package vault

import (
	"context"
	"errors"
	"time"

	"github.com/org/assetvault/internal/crypto"
	"github.com/org/assetvault/internal/fault"
	"github.com/org/assetvault/internal/password"
	"github.com/org/assetvault/internal/storage"
	"github.com/org/assetvault/pkg/models"
)

// AddSecretParams carries the inputs for AddSecret.
type AddSecretParams struct {
	VaultID          int64
	Type             string
	Label            string
	Value            string
	GenerationMethod string // "manual" when empty
}

// AddSecret encrypts and stores a secret in a vault. Password values are
// strength-scored and seed the reuse history.
func (s *Service) AddSecret(ctx context.Context, p models.Principal, params AddSecretParams) (*models.Secret, error) {
	if !models.ValidSecretType(params.Type) {
		return nil, fault.Validationf("unknown secret type %q", params.Type)
	}
	if params.Label == "" {
		return nil, fault.Validationf("secret label is required")
	}
	if params.Value == "" {
		return nil, fault.Validationf("secret value is required")
	}
	if _, err := s.GetVault(ctx, params.VaultID); err != nil {
		return nil, err
	}

	encrypted, err := crypto.Encrypt(seedFor(params.VaultID, p), []byte(params.Value))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sec := &models.Secret{
		VaultID:        params.VaultID,
		Type:           params.Type,
		Label:          params.Label,
		EncryptedValue: encrypted,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	var reuseHash string
	if params.Type == models.SecretPassword {
		sec.StrengthScore = scoreOf(params.Value)
		sec.LastChanged = &now
		sec.GenerationMethod = params.GenerationMethod
		if sec.GenerationMethod == "" {
			sec.GenerationMethod = "manual"
		}
		sec.PolicyVersion = password.DefaultPolicy().Version
		reuseHash, err = password.HashForReuse(params.Value)
		if err != nil {
			return nil, err
		}
	}

	ver := &models.VaultVersion{
		ChangeType: models.ChangeSecretAdded,
		Author:     p.UserID,
		CreatedAt:  now,
		Changes:    map[string]any{"label": params.Label, "type": params.Type},
	}
	if err := s.store.AddSecret(ctx, sec, ver, reuseHash); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fault.Conflictf("secret %q already exists in vault %d", params.Label, params.VaultID)
		}
		return nil, fault.Persistencef(err, "adding secret")
	}

	s.audit.Event(ctx, models.EventSecretAdded, p, "secret added",
		map[string]any{"vault_id": params.VaultID, "secret_id": sec.ID, "label": params.Label, "type": params.Type})
	return sec, nil
}

// GetSecret fetches secret metadata without decrypting.
func (s *Service) GetSecret(ctx context.Context, id int64) (*models.Secret, error) {
	sec, err := s.store.GetSecret(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fault.NotFoundf("secret %d not found", id)
		}
		return nil, fault.Persistencef(err, "fetching secret")
	}
	return sec, nil
}

// RevealSecret decrypts a secret's value for the acting principal. Decryption
// fails closed when the principal cannot compose the original seed.
func (s *Service) RevealSecret(ctx context.Context, p models.Principal, id int64) (string, error) {
	sec, err := s.GetSecret(ctx, id)
	if err != nil {
		return "", err
	}
	plaintext, err := crypto.Decrypt(seedFor(sec.VaultID, p), sec.EncryptedValue)
	if err != nil {
		return "", err
	}

	s.audit.Event(ctx, models.EventSecretAccessed, p, "secret accessed",
		map[string]any{"vault_id": sec.VaultID, "secret_id": id, "label": sec.Label})
	return string(plaintext), nil
}

// ListSecrets lists a vault's secrets, newest first. Values stay encrypted.
func (s *Service) ListSecrets(ctx context.Context, vaultID int64) ([]*models.Secret, error) {
	if _, err := s.GetVault(ctx, vaultID); err != nil {
		return nil, err
	}
	secrets, err := s.store.ListSecrets(ctx, vaultID)
	if err != nil {
		return nil, fault.Persistencef(err, "listing secrets")
	}
	return secrets, nil
}

// UpdateSecret re-encrypts a secret with a new value and/or renames it. An
// empty value keeps the current ciphertext. A changed password value turns
// over the reuse history so rotations can reject it later.
func (s *Service) UpdateSecret(ctx context.Context, p models.Principal, id int64, label, value string) (*models.Secret, error) {
	sec, err := s.GetSecret(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	changes := map[string]any{}
	if label != "" && label != sec.Label {
		changes["label"] = map[string]any{"from": sec.Label, "to": label}
		sec.Label = label
	}
	var reuseHash string
	if value != "" {
		encrypted, err := crypto.Encrypt(seedFor(sec.VaultID, p), []byte(value))
		if err != nil {
			return nil, err
		}
		sec.EncryptedValue = encrypted
		changes["value"] = "updated"
		if sec.Type == models.SecretPassword {
			sec.StrengthScore = scoreOf(value)
			sec.LastChanged = &now
			sec.GenerationMethod = "manual"
			sec.PolicyVersion = password.DefaultPolicy().Version
			reuseHash, err = password.HashForReuse(value)
			if err != nil {
				return nil, err
			}
		}
	}
	if len(changes) == 0 {
		return sec, nil
	}

	sec.UpdatedAt = now
	ver := &models.VaultVersion{
		VaultID:    sec.VaultID,
		ChangeType: models.ChangeSecretUpdated,
		Author:     p.UserID,
		CreatedAt:  now,
		Changes:    changes,
	}
	if err := s.store.UpdateSecret(ctx, sec, ver, reuseHash); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fault.Conflictf("secret %q already exists in vault %d", sec.Label, sec.VaultID)
		}
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fault.NotFoundf("secret %d not found", id)
		}
		return nil, fault.Persistencef(err, "updating secret")
	}

	s.audit.Event(ctx, models.EventSecretUpdated, p, "secret updated",
		map[string]any{"vault_id": sec.VaultID, "secret_id": id, "label": sec.Label})
	return sec, nil
}

// DeleteSecret removes a secret and writes the version row in the same
// transaction.
func (s *Service) DeleteSecret(ctx context.Context, p models.Principal, id int64) error {
	sec, err := s.GetSecret(ctx, id)
	if err != nil {
		return err
	}

	ver := &models.VaultVersion{
		VaultID:    sec.VaultID,
		ChangeType: models.ChangeSecretDeleted,
		Author:     p.UserID,
		CreatedAt:  time.Now().UTC(),
		Changes:    map[string]any{"label": sec.Label, "type": sec.Type},
	}
	if err := s.store.DeleteSecret(ctx, id, ver); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fault.NotFoundf("secret %d not found", id)
		}
		return fault.Persistencef(err, "deleting secret")
	}

	s.audit.Event(ctx, models.EventSecretDeleted, p, "secret deleted",
		map[string]any{"vault_id": sec.VaultID, "secret_id": id, "label": sec.Label})
	return nil
}
