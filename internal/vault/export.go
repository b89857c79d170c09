package vault

import (
	"context"
	"errors"
	"time"

	"github.com/org/assetvault/internal/fault"
	"github.com/org/assetvault/internal/storage"
	"github.com/org/assetvault/pkg/models"
)

// Export produces the portable representation of a vault. Encrypted values
// are carried through unchanged, so the export never exposes plaintext.
func (s *Service) Export(ctx context.Context, p models.Principal, vaultID int64) (*models.VaultExport, error) {
	v, err := s.GetVault(ctx, vaultID)
	if err != nil {
		return nil, err
	}
	secrets, err := s.store.ListSecrets(ctx, vaultID)
	if err != nil {
		return nil, fault.Persistencef(err, "listing secrets for export")
	}

	s.audit.Event(ctx, models.EventVaultExported, p, "vault exported",
		map[string]any{"vault_id": vaultID, "secret_count": len(secrets)})
	return &models.VaultExport{
		Vault:       v,
		Secrets:     secrets,
		SecretCount: len(secrets),
	}, nil
}

// Import recreates a vault from an export under a new asset. Ciphertext is
// replayed unchanged without re-encryption, so only a principal who can
// compose the original seeds will be able to decrypt the imported secrets.
func (s *Service) Import(ctx context.Context, p models.Principal, assetID int64, exp *models.VaultExport) (*models.Vault, error) {
	if exp == nil || exp.Vault == nil {
		return nil, fault.Validationf("export payload is empty")
	}
	if err := validateVaultName(exp.Vault.Name); err != nil {
		return nil, err
	}
	if assetID <= 0 {
		return nil, fault.Validationf("asset id is required")
	}

	now := time.Now().UTC()
	v := &models.Vault{
		AssetID:     assetID,
		Name:        exp.Vault.Name,
		Description: exp.Vault.Description,
		CreatedBy:   p.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.store.RunInTx(ctx, func(tx storage.Store) error {
		ver := &models.VaultVersion{
			ChangeType: models.ChangeVaultCreated,
			Author:     p.UserID,
			CreatedAt:  now,
			Changes:    map[string]any{"name": v.Name, "asset_id": assetID, "imported": true},
		}
		if err := tx.CreateVault(ctx, v, ver); err != nil {
			return err
		}
		for _, src := range exp.Secrets {
			sec := &models.Secret{
				VaultID:          v.ID,
				Type:             src.Type,
				Label:            src.Label,
				EncryptedValue:   src.EncryptedValue,
				StrengthScore:    src.StrengthScore,
				LastChanged:      src.LastChanged,
				GenerationMethod: src.GenerationMethod,
				PolicyVersion:    src.PolicyVersion,
				CreatedAt:        now,
				UpdatedAt:        now,
			}
			sver := &models.VaultVersion{
				ChangeType: models.ChangeSecretAdded,
				Author:     p.UserID,
				CreatedAt:  now,
				Changes:    map[string]any{"label": src.Label, "type": src.Type, "imported": true},
			}
			if err := tx.AddSecret(ctx, sec, sver, ""); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fault.Conflictf("vault %q already exists for asset %d", v.Name, assetID)
		}
		return nil, fault.Persistencef(err, "importing vault")
	}

	s.audit.Event(ctx, models.EventVaultImported, p, "vault imported",
		map[string]any{"vault_id": v.ID, "asset_id": assetID, "secret_count": len(exp.Secrets)})
	return v, nil
}
