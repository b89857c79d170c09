package vault

import (
	"context"
	"errors"
	"time"

	"github.com/org/assetvault/internal/crypto"
	"github.com/org/assetvault/internal/fault"
	"github.com/org/assetvault/internal/storage"
	"github.com/org/assetvault/pkg/models"
)

// CredentialParams carries the inputs for creating or updating a standalone
// credential.
type CredentialParams struct {
	Name        string
	Description string
	Category    string
	Tags        []string
	Type        string
	Value       string
}

// credentialSeed binds standalone credential ciphertext to the owning
// principal; vault id 0 marks the unscoped namespace.
func credentialSeed(p models.Principal) string {
	return crypto.Seed(0, p.UserID, p.Username)
}

// CreateCredential stores a standalone credential outside any vault.
func (s *Service) CreateCredential(ctx context.Context, p models.Principal, params CredentialParams) (*models.StandaloneCredential, error) {
	if err := validateVaultName(params.Name); err != nil {
		return nil, fault.Validationf("credential name must be %d-%d characters", MinNameLen, MaxNameLen)
	}
	if !models.ValidSecretType(params.Type) {
		return nil, fault.Validationf("unknown secret type %q", params.Type)
	}
	if params.Value == "" {
		return nil, fault.Validationf("credential value is required")
	}

	encrypted, err := crypto.Encrypt(credentialSeed(p), []byte(params.Value))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	c := &models.StandaloneCredential{
		Name:           params.Name,
		Description:    params.Description,
		Category:       params.Category,
		Tags:           params.Tags,
		Type:           params.Type,
		EncryptedValue: encrypted,
		CreatedBy:      p.UserID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateCredential(ctx, c); err != nil {
		return nil, fault.Persistencef(err, "creating credential")
	}
	return c, nil
}

// GetCredential fetches a standalone credential without decrypting.
func (s *Service) GetCredential(ctx context.Context, id int64) (*models.StandaloneCredential, error) {
	c, err := s.store.GetCredential(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fault.NotFoundf("credential %d not found", id)
		}
		return nil, fault.Persistencef(err, "fetching credential")
	}
	return c, nil
}

// RevealCredential decrypts a standalone credential for the acting principal.
func (s *Service) RevealCredential(ctx context.Context, p models.Principal, id int64) (string, error) {
	c, err := s.GetCredential(ctx, id)
	if err != nil {
		return "", err
	}
	plaintext, err := crypto.Decrypt(credentialSeed(p), c.EncryptedValue)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// UpdateCredential modifies a standalone credential. An empty value keeps
// the current ciphertext.
func (s *Service) UpdateCredential(ctx context.Context, p models.Principal, id int64, params CredentialParams) (*models.StandaloneCredential, error) {
	c, err := s.GetCredential(ctx, id)
	if err != nil {
		return nil, err
	}
	if params.Name != "" {
		if err := validateVaultName(params.Name); err != nil {
			return nil, fault.Validationf("credential name must be %d-%d characters", MinNameLen, MaxNameLen)
		}
		c.Name = params.Name
	}
	if params.Description != "" {
		c.Description = params.Description
	}
	if params.Category != "" {
		c.Category = params.Category
	}
	if params.Tags != nil {
		c.Tags = params.Tags
	}
	if params.Value != "" {
		encrypted, err := crypto.Encrypt(credentialSeed(p), []byte(params.Value))
		if err != nil {
			return nil, err
		}
		c.EncryptedValue = encrypted
	}
	c.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateCredential(ctx, c); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fault.NotFoundf("credential %d not found", id)
		}
		return nil, fault.Persistencef(err, "updating credential")
	}
	return c, nil
}

// DeleteCredential removes a standalone credential.
func (s *Service) DeleteCredential(ctx context.Context, id int64) error {
	if err := s.store.DeleteCredential(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fault.NotFoundf("credential %d not found", id)
		}
		return fault.Persistencef(err, "deleting credential")
	}
	return nil
}

// SearchCredentials runs a filtered, paginated search and returns the page
// plus the total match count. Limit defaults to 50 and caps at 100.
func (s *Service) SearchCredentials(ctx context.Context, f storage.CredentialFilter) ([]*models.StandaloneCredential, int, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultSearchLimit
	}
	if f.Limit > MaxSearchLimit {
		f.Limit = MaxSearchLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	creds, total, err := s.store.SearchCredentials(ctx, f)
	if err != nil {
		return nil, 0, fault.Persistencef(err, "searching credentials")
	}
	return creds, total, nil
}
