package models

import "time"

// Vault is an encrypted credential container scoped to one asset.
// (asset_id, name) is unique.
type Vault struct {
	ID          int64     `json:"id"`
	AssetID     int64     `json:"asset_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedBy   int64     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Change types recorded in the vault version log.
const (
	ChangeVaultCreated  = "vault_created"
	ChangeVaultUpdated  = "vault_updated"
	ChangeSecretAdded   = "secret_added"
	ChangeSecretUpdated = "secret_updated"
	ChangeSecretDeleted = "secret_deleted"
)

// VaultVersion is one append-only history row. Every mutation of a vault or
// one of its secrets writes exactly one row in the same transaction.
type VaultVersion struct {
	ID         int64
	VaultID    int64
	ChangeType string
	Author     int64
	CreatedAt  time.Time
	Notes      string
	Changes    map[string]any
}

// VaultExport is the portable representation used for manual export and for
// embedding in recovery bundles. Encrypted values are carried through
// unchanged, so export never exposes plaintext.
type VaultExport struct {
	Vault       *Vault    `json:"vault"`
	Secrets     []*Secret `json:"secrets"`
	SecretCount int       `json:"secret_count"`
}
