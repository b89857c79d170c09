// Package vault implements the secret store: encrypted credential containers
// scoped to assets, standalone credentials, and the append-only version log.
package vault

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

// Vault name length bounds.
const (
	MinNameLen = 2
	MaxNameLen = 100
)

// Search pagination bounds.
const (
	DefaultSearchLimit = 50
	MaxSearchLimit     = 100
)

// Service is the vault and credential store.
type Service struct {
	store storage.Store
	audit *audit.Logger
}

// NewService creates a vault Service.
func NewService(store storage.Store, auditLog *audit.Logger) *Service {
	return &Service{store: store, audit: auditLog}
}

func validateVaultName(name string) error {
	if len(name) < MinNameLen || len(name) > MaxNameLen {
		return fault.Validationf("vault name must be %d-%d characters", MinNameLen, MaxNameLen)
	}
	return nil
}

// CreateVault creates a vault for an asset. (asset, name) must be unique.
func (s *Service) CreateVault(ctx context.Context, p models.Principal, assetID int64, name, description string) (*models.Vault, error) {
	if err := validateVaultName(name); err != nil {
		return nil, err
	}
	if assetID <= 0 {
		return nil, fault.Validationf("asset id is required")
	}

	now := time.Now().UTC()
	v := &models.Vault{
		AssetID:     assetID,
		Name:        name,
		Description: description,
		CreatedBy:   p.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	ver := &models.VaultVersion{
		ChangeType: models.ChangeVaultCreated,
		Author:     p.UserID,
		CreatedAt:  now,
		Changes:    map[string]any{"name": name, "asset_id": assetID},
	}
	if err := s.store.CreateVault(ctx, v, ver); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fault.Conflictf("vault %q already exists for asset %d", name, assetID)
		}
		return nil, fault.Persistencef(err, "creating vault")
	}

	s.audit.Event(ctx, models.EventVaultCreated, p, "vault created",
		map[string]any{"vault_id": v.ID, "asset_id": assetID, "name": name})
	return v, nil
}

// GetVault fetches a vault by id.
func (s *Service) GetVault(ctx context.Context, id int64) (*models.Vault, error) {
	v, err := s.store.GetVault(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fault.NotFoundf("vault %d not found", id)
		}
		return nil, fault.Persistencef(err, "fetching vault")
	}
	return v, nil
}

// GetVaultByAssetID fetches the newest vault for an asset.
func (s *Service) GetVaultByAssetID(ctx context.Context, assetID int64) (*models.Vault, error) {
	v, err := s.store.GetVaultByAssetID(ctx, assetID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fault.NotFoundf("no vault for asset %d", assetID)
		}
		return nil, fault.Persistencef(err, "fetching vault by asset")
	}
	return v, nil
}

// SecretCount reports how many secrets a vault holds.
func (s *Service) SecretCount(ctx context.Context, vaultID int64) (int, error) {
	n, err := s.store.CountSecrets(ctx, vaultID)
	if err != nil {
		return 0, fault.Persistencef(err, "counting secrets")
	}
	return n, nil
}

// ListVaults lists all vaults, newest first.
func (s *Service) ListVaults(ctx context.Context) ([]*models.Vault, error) {
	vaults, err := s.store.ListVaults(ctx)
	if err != nil {
		return nil, fault.Persistencef(err, "listing vaults")
	}
	return vaults, nil
}

// UpdateVault renames or re-describes a vault.
func (s *Service) UpdateVault(ctx context.Context, p models.Principal, id int64, name, description string) (*models.Vault, error) {
	if err := validateVaultName(name); err != nil {
		return nil, err
	}
	v, err := s.GetVault(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := map[string]any{}
	if v.Name != name {
		changes["name"] = map[string]any{"from": v.Name, "to": name}
	}
	if v.Description != description {
		changes["description"] = "updated"
	}

	now := time.Now().UTC()
	v.Name = name
	v.Description = description
	v.UpdatedAt = now
	ver := &models.VaultVersion{
		VaultID:    id,
		ChangeType: models.ChangeVaultUpdated,
		Author:     p.UserID,
		CreatedAt:  now,
		Changes:    changes,
	}
	if err := s.store.UpdateVault(ctx, v, ver); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fault.Conflictf("vault %q already exists for asset %d", name, v.AssetID)
		}
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fault.NotFoundf("vault %d not found", id)
		}
		return nil, fault.Persistencef(err, "updating vault")
	}

	s.audit.Event(ctx, models.EventVaultUpdated, p, "vault updated",
		map[string]any{"vault_id": id})
	return v, nil
}

// DeleteVault removes a vault and everything scoped under it.
func (s *Service) DeleteVault(ctx context.Context, p models.Principal, id int64) error {
	v, err := s.GetVault(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteVault(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fault.NotFoundf("vault %d not found", id)
		}
		return fault.Persistencef(err, "deleting vault")
	}

	s.audit.Event(ctx, models.EventVaultDeleted, p, "vault deleted",
		map[string]any{"vault_id": id, "asset_id": v.AssetID, "name": v.Name})
	return nil
}

// ListVersions returns the vault's change history, newest first.
func (s *Service) ListVersions(ctx context.Context, vaultID int64, limit int) ([]*models.VaultVersion, error) {
	if _, err := s.GetVault(ctx, vaultID); err != nil {
		return nil, err
	}
	versions, err := s.store.ListVaultVersions(ctx, vaultID, limit)
	if err != nil {
		return nil, fault.Persistencef(err, "listing vault versions")
	}
	return versions, nil
}

// seedFor composes the encryption seed for a secret. The seed binds the
// ciphertext to the vault and the acting principal; a different principal
// cannot decrypt what this one wrote.
func seedFor(vaultID int64, p models.Principal) string {
	return crypto.Seed(vaultID, p.UserID, p.Username)
}

// scoreOf computes the stored strength score for password values.
func scoreOf(value string) *int {
	r := password.AnalyzeStrength(value)
	return &r.Score
}
