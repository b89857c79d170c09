package models

import "time"

// Secret types.
const (
	SecretPassword    = "password"
	SecretIPAddress   = "ip_address"
	SecretVPNKey      = "vpn_key"
	SecretLicenseFile = "license_file"
)

// ValidSecretType reports whether t is one of the known secret types.
func ValidSecretType(t string) bool {
	switch t {
	case SecretPassword, SecretIPAddress, SecretVPNKey, SecretLicenseFile:
		return true
	}
	return false
}

// Secret is a single typed credential inside a vault. Label is unique within
// the vault. The value is stored encrypted only.
type Secret struct {
	ID             int64     `json:"id"`
	VaultID        int64     `json:"vault_id"`
	Type           string    `json:"type"`
	Label          string    `json:"label"`
	EncryptedValue []byte    `json:"encrypted_value"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Password-only bookkeeping; zero values for other types.
	StrengthScore    *int       `json:"strength_score,omitempty"`
	LastChanged      *time.Time `json:"last_changed,omitempty"`
	GenerationMethod string     `json:"generation_method,omitempty"`
	PolicyVersion    string     `json:"policy_version,omitempty"`

	// Rotation bookkeeping.
	LastRotated          *time.Time `json:"last_rotated,omitempty"`
	RotationIntervalDays *int       `json:"rotation_interval_days,omitempty"`
	NextRotationDue      *time.Time `json:"next_rotation_due,omitempty"`
	RotationPolicyID     *int64     `json:"rotation_policy_id,omitempty"`
}

// StandaloneCredential is a secret not bound to any vault or asset.
type StandaloneCredential struct {
	ID             int64
	Name           string
	Description    string
	Category       string
	Tags           []string
	Type           string
	EncryptedValue []byte
	CreatedBy      int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PasswordHistory retains reuse-detection hashes per secret. Superseded
// entries are retired (timestamped), not deleted, then pruned to the most
// recent few after each rotation.
type PasswordHistory struct {
	ID           int64
	SecretID     int64
	PasswordHash string
	CreatedAt    time.Time
	RetiredAt    *time.Time
}
